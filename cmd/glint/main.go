// glint - progressive path tracer for the terminal.
// Renders sphere scenes with diffuse, metal and glass materials, either
// interactively in the terminal or offline to a PNG.
//
// Controls (view):
//
//	Mouse drag  - Orbit the camera
//	Scroll      - Zoom in/out
//	Arrows/WASD - Orbit the camera
//	+/-         - Zoom in/out
//	R           - Reset view
//	Esc         - Quit
package main

import (
	"os"

	"github.com/urfave/cli"
)

func main() {
	app := cli.NewApp()
	app.Name = "glint"
	app.Usage = "progressive path tracing of sphere scenes"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "log-level",
			Value: "notice",
			Usage: "minimum level logged: debug, info, notice, warning or error",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "view",
			Usage: "render a scene interactively in the terminal",
			Description: `
Trace the scene progressively, one sample per pixel per frame, and draw the
running estimate with half-block characters. Moving the camera restarts
accumulation. Logs go to a file so they don't corrupt the display.`,
			ArgsUsage: "[model.glb|model.gltf]",
			Flags: append(traceFlags(8, 1<<20),
				cli.IntFlag{
					Name:  "scale",
					Value: 2,
					Usage: "trace at 1/scale of the terminal resolution",
				},
				cli.IntFlag{
					Name:  "fps",
					Value: 30,
					Usage: "target frames per second",
				},
				cli.StringFlag{
					Name:  "log",
					Value: "glint.log",
					Usage: "log file",
				},
			),
			Action: View,
		},
		{
			Name:      "render",
			Usage:     "render a scene to a PNG file",
			ArgsUsage: "[model.glb|model.gltf]",
			Flags: append(traceFlags(16, 64),
				cli.IntFlag{
					Name:  "width",
					Value: 400,
					Usage: "frame width",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 225,
					Usage: "frame height",
				},
				cli.IntFlag{
					Name:  "upscale",
					Value: 1,
					Usage: "bilinear upscale factor applied to the output",
				},
				cli.StringFlag{
					Name:  "out, o",
					Value: "frame.png",
					Usage: "image filename for the rendered frame",
				},
			),
			Action: RenderFrame,
		},
		{
			Name:      "info",
			Usage:     "print scene and host statistics",
			ArgsUsage: "[model.glb|model.gltf]",
			Flags: []cli.Flag{
				sceneFlag,
				seedFlag,
			},
			Action: Info,
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error(err)
		os.Exit(1)
	}
}
