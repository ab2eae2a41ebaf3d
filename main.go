package main

import (
	"os"

	"github.com/chazu/hull/pkg/pipeline"
	"github.com/chazu/hull/pkg/silhouette"
	"github.com/chazu/hull/pkg/tessellate"
	"github.com/urfave/cli"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "hull"
	app.Usage = "reconstruct a solid from front, side and top silhouettes"
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
			Usage: "log verbosity: debug, info, notice, warning or error",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "reconstruct",
			Usage: "carve a visual hull from silhouette images and export its surface",
			Description: `
Each --view names an orthographic shot as view=path, where view is one of
front (looking along X), side (looking along Z) or top (looking along Y).
Images are thresholded into silhouettes, a voxel grid spanning --bounds is
carved wherever any silhouette sees background, and the boundary of the
remaining voxels is meshed with marching cubes and written to --out.`,
			Flags:  reconstructFlags(),
			Action: Reconstruct,
		},
		{
			Name:      "run",
			Usage:     "run a reconstruction job script",
			ArgsUsage: "job.hull",
			Description: `
Evaluate a job script and run the reconstruction it describes. Image and
output paths in the script are relative to the script's directory.`,
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Usage: "override the output file named by the script",
				},
				cli.DurationFlag{
					Name:  "timeout",
					Usage: "abort the reconstruction after this long (0 disables)",
				},
			},
			Action: RunJob,
		},
		{
			Name:  "synth",
			Usage: "write synthetic square silhouettes and a job script for them",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "dir, d",
					Value: "cube",
					Usage: "directory to write images and job script into",
				},
				cli.IntFlag{
					Name:  "size",
					Value: 50,
					Usage: "image edge length in pixels",
				},
				cli.IntFlag{
					Name:  "side",
					Value: 25,
					Usage: "edge length of the centered square",
				},
			},
			Action: Synth,
		},
		{
			Name:      "project",
			Usage:     "show where a voxel lands in each view",
			ArgsUsage: "x y z",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "grid-size, n",
					Value: pipeline.DefaultGridSize,
					Usage: "voxels per axis",
				},
				cli.StringFlag{
					Name:  "bounds",
					Usage: "volume bounds as xmin,xmax,ymin,ymax,zmin,zmax",
				},
				cli.IntFlag{
					Name:  "width",
					Value: 100,
					Usage: "silhouette width in pixels",
				},
				cli.IntFlag{
					Name:  "height",
					Value: 100,
					Usage: "silhouette height in pixels",
				},
			},
			Action: Project,
		},
	}

	app.Run(os.Args)
}

func reconstructFlags() []cli.Flag {
	th := silhouette.DefaultThreshold()
	return []cli.Flag{
		cli.StringSliceFlag{
			Name:  "view, V",
			Value: &cli.StringSlice{},
			Usage: "silhouette image as front=path, side=path or top=path (repeatable)",
		},
		cli.IntFlag{
			Name:  "grid-size, n",
			Value: pipeline.DefaultGridSize,
			Usage: "voxels per axis",
		},
		cli.StringFlag{
			Name:  "bounds",
			Usage: "volume bounds as xmin,xmax,ymin,ymax,zmin,zmax (default -1,1,-1,1,-1,1)",
		},
		cli.Float64Flag{
			Name:  "level",
			Value: tessellate.DefaultLevel,
			Usage: "iso-level between empty (0) and occupied (255)",
		},
		cli.IntFlag{
			Name:  "threshold",
			Value: int(th.Level),
			Usage: "gray level separating object from background",
		},
		cli.BoolFlag{
			Name:  "light-object",
			Usage: "treat pixels above the threshold as the object",
		},
		cli.IntFlag{
			Name:  "workers",
			Usage: "carving workers (0 uses every CPU)",
		},
		cli.StringFlag{
			Name:  "out, o",
			Value: "hull.stl",
			Usage: "output mesh file",
		},
		cli.StringFlag{
			Name:  "format",
			Usage: "output format, stl or json (default from --out extension)",
		},
		cli.BoolFlag{
			Name:  "previews",
			Usage: "write silhouette and voxel slice previews",
		},
		cli.StringFlag{
			Name:  "preview-dir",
			Value: "previews",
			Usage: "directory for preview images",
		},
		cli.DurationFlag{
			Name:  "timeout",
			Usage: "abort the reconstruction after this long (0 disables)",
		},
	}
}
