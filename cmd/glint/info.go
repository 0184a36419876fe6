package main

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/shirou/gopsutil/cpu"
	"github.com/shirou/gopsutil/mem"
	"github.com/urfave/cli"
)

// Info prints the scene summary and the host resources available to the
// worker pool.
func Info(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	s, err := loadScene(ctx)
	if err != nil {
		return err
	}
	fmt.Print(s.Stats())
	fmt.Print(hostStats())
	return nil
}

func hostStats() string {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Host", "Value"})

	if infos, err := cpu.Info(); err == nil && len(infos) > 0 {
		table.Append([]string{"CPU", infos[0].ModelName})
	} else {
		logger.Debugf("cpu info unavailable: %v", err)
	}
	if n, err := cpu.Counts(false); err == nil {
		table.Append([]string{"Physical cores", fmt.Sprint(n)})
	}
	table.Append([]string{"Logical cores", fmt.Sprint(defaultThreads())})
	if vm, err := mem.VirtualMemory(); err == nil {
		table.Append([]string{"Memory", fmt.Sprintf("%.1f GiB (%.0f%% used)", float64(vm.Total)/(1<<30), vm.UsedPercent)})
	}

	table.Render()
	return buf.String()
}
