package scene

import (
	"bytes"
	"fmt"

	"github.com/olekukonko/tablewriter"
	"github.com/taigrr/glint/pkg/tracer"
)

// Stats renders a table of material and sphere counts per material kind.
func (s *Scene) Stats() string {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("Scene %q\n", s.Name))

	table := tablewriter.NewWriter(&buf)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"Kind", "Materials", "Spheres"})

	for _, k := range []tracer.Kind{tracer.KindLambertian, tracer.KindMetal, tracer.KindDielectric} {
		m, sp := s.CountKind(k)
		table.Append([]string{k.String(), fmt.Sprint(m), fmt.Sprint(sp)})
	}
	table.SetFooter([]string{"Total", fmt.Sprint(len(s.Materials)), fmt.Sprint(len(s.Spheres))})

	table.Render()
	return buf.String()
}
