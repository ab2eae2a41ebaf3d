package main

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/chazu/hull/pkg/pipeline"
	"github.com/chazu/hull/pkg/projection"
	"github.com/chazu/hull/pkg/silhouette"
	"github.com/chazu/hull/pkg/volume"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
)

// Reconstruct carves a hull from the images given on the command line.
func Reconstruct(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	cfg, err := configFromFlags(ctx)
	if err != nil {
		logger.Error(err)
		return cli.NewExitError(err.Error(), 2)
	}

	runCtx, cancel := withTimeout(ctx.Duration("timeout"))
	defer cancel()

	return report(NewApp().Reconstruct(runCtx, cfg))
}

// RunJob evaluates a job script and runs it.
func RunJob(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() != 1 {
		return cli.NewExitError("run expects exactly one job script", 2)
	}
	path := ctx.Args().First()
	source, err := os.ReadFile(path)
	if err != nil {
		logger.Error(err)
		return cli.NewExitError(err.Error(), 2)
	}

	runCtx, cancel := withTimeout(ctx.Duration("timeout"))
	defer cancel()

	app := NewApp()
	app.Output = ctx.String("out")
	return report(app.Evaluate(runCtx, string(source), filepath.Dir(path)))
}

// Synth writes dark-on-white square shots for every view plus a job script
// that reconstructs them.
func Synth(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	dir := ctx.String("dir")
	paths, err := writeSynth(dir, ctx.Int("size"), ctx.Int("side"))
	if err != nil {
		logger.Error(err)
		return cli.NewExitError(err.Error(), 1)
	}
	for _, p := range paths {
		logger.Noticef("wrote %s", p)
	}
	return nil
}

// synthScript reconstructs the images written by writeSynth.
const synthScript = `;; square silhouettes written by hull synth
(grid-size 20)
(view :front "front.png")
(view :side "side.png")
(view :top "top.png")
(output "cube.stl")
`

func writeSynth(dir string, size, side int) ([]string, error) {
	if size < 1 || side < 0 || side > size {
		return nil, fmt.Errorf("synth: need 0 <= side <= size and size >= 1, got side %d size %d", side, size)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	var paths []string
	for _, v := range []silhouette.ViewType{silhouette.Front, silhouette.Side, silhouette.Top} {
		path := filepath.Join(dir, string(v)+".png")
		f, err := os.Create(path)
		if err != nil {
			return paths, err
		}
		err = png.Encode(f, silhouette.Square(v, size, size, side).Photo())
		f.Close()
		if err != nil {
			return paths, fmt.Errorf("synth: encode %s: %w", path, err)
		}
		paths = append(paths, path)
	}

	script := filepath.Join(dir, "cube.hull")
	if err := os.WriteFile(script, []byte(synthScript), 0o644); err != nil {
		return paths, err
	}
	return append(paths, script), nil
}

// Project prints the pixel each view maps a voxel to.
func Project(ctx *cli.Context) error {
	if err := setupLogging(ctx); err != nil {
		return err
	}

	if ctx.NArg() != 3 {
		return cli.NewExitError("project expects a voxel index: x y z", 2)
	}
	var idx [3]int
	for i := range idx {
		v, err := strconv.Atoi(ctx.Args().Get(i))
		if err != nil {
			return cli.NewExitError(fmt.Sprintf("voxel index: %v", err), 2)
		}
		idx[i] = v
	}
	b := volume.DefaultBounds()
	if s := ctx.String("bounds"); s != "" {
		var err error
		if b, err = parseBounds(s); err != nil {
			return cli.NewExitError(err.Error(), 2)
		}
	}

	table, err := projectionTable(idx, ctx.Int("grid-size"), ctx.Int("width"), ctx.Int("height"), b)
	if err != nil {
		return cli.NewExitError(err.Error(), 2)
	}
	fmt.Print(table)
	return nil
}

func projectionTable(idx [3]int, gridSize, width, height int, b volume.Bounds) (string, error) {
	for i, v := range idx {
		if v < 0 || v >= gridSize {
			return "", fmt.Errorf("voxel index %c=%d outside grid of size %d", "xyz"[i], v, gridSize)
		}
	}
	if width < 1 || height < 1 {
		return "", fmt.Errorf("silhouette size must be positive, got %dx%d", width, height)
	}

	center := b.CellCenter(idx, gridSize)
	var buf strings.Builder
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetHeader([]string{"View", "Row", "Col"})
	for _, v := range []silhouette.ViewType{silhouette.Front, silhouette.Side, silhouette.Top} {
		row, col, _ := projection.Project(idx, height, width, v, b, gridSize)
		table.Append([]string{string(v), strconv.Itoa(row), strconv.Itoa(col)})
	}
	table.SetFooter([]string{"center", fmt.Sprintf("%.4g, %.4g, %.4g", center.X, center.Y, center.Z), ""})
	table.Render()
	return buf.String(), nil
}

// configFromFlags builds a pipeline config from the reconstruct flags.
func configFromFlags(ctx *cli.Context) (pipeline.Config, error) {
	cfg := pipeline.DefaultConfig()
	cfg.GridSize = ctx.Int("grid-size")
	cfg.Level = ctx.Float64("level")
	cfg.Workers = ctx.Int("workers")
	cfg.Output = ctx.String("out")
	cfg.Format = ctx.String("format")
	cfg.ShowPreviews = ctx.Bool("previews")
	cfg.PreviewDir = ctx.String("preview-dir")

	th := ctx.Int("threshold")
	if th < 0 || th > 255 {
		return cfg, fmt.Errorf("threshold must be within 0..255, got %d", th)
	}
	cfg.Threshold = silhouette.Threshold{Level: uint8(th), Invert: !ctx.Bool("light-object")}

	if s := ctx.String("bounds"); s != "" {
		b, err := parseBounds(s)
		if err != nil {
			return cfg, err
		}
		cfg.Bounds = b
	}

	views, err := parseViews(ctx.StringSlice("view"))
	if err != nil {
		return cfg, err
	}
	cfg.Views = views
	return cfg, cfg.Validate()
}

// parseViews reads view=path pairs.
func parseViews(specs []string) ([]silhouette.Source, error) {
	sources := make([]silhouette.Source, 0, len(specs))
	for _, spec := range specs {
		name, path, ok := strings.Cut(spec, "=")
		if !ok || path == "" {
			return nil, fmt.Errorf("view %q: expected view=path", spec)
		}
		v, err := silhouette.ParseViewType(name)
		if err != nil {
			return nil, err
		}
		sources = append(sources, silhouette.Source{Label: filepath.Base(path), Path: path, View: v})
	}
	return sources, nil
}

// parseBounds reads six comma separated numbers.
func parseBounds(s string) (volume.Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 6 {
		return volume.Bounds{}, fmt.Errorf("bounds %q: expected xmin,xmax,ymin,ymax,zmin,zmax", s)
	}
	var c [6]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return volume.Bounds{}, fmt.Errorf("bounds %q: %w", s, err)
		}
		c[i] = f
	}
	return volume.NewBounds(c[0], c[1], c[2], c[3], c[4], c[5])
}

func withTimeout(d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), d)
}

// report logs a job outcome and turns failures into an exit error.
func report(res JobResult) error {
	if len(res.Errors) > 0 {
		for _, e := range res.Errors {
			logger.Error(e.String())
		}
		return cli.NewExitError(res.Errors[0].String(), 1)
	}
	logger.Noticef("reconstruction statistics\n%s", statsTable(res))
	return nil
}

func statsTable(res JobResult) string {
	r := res.Result
	var buf strings.Builder
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Stage", "Detail", "Time"})
	table.Append([]string{
		"carve",
		fmt.Sprintf("%d of %d voxels kept, %d views, %d skipped",
			r.CarveStats.Occupied, r.CarveStats.Cells, r.CarveStats.Views, r.CarveStats.Skipped),
		r.CarveStats.Elapsed.String(),
	})
	table.Append([]string{
		"mesh",
		fmt.Sprintf("%d vertices, %d faces, volume %.4g, watertight %t",
			r.Report.Vertices, r.Report.Faces, r.Report.Volume, !r.Report.NeedsRepair),
		"",
	})
	out := "skipped"
	if r.Exported {
		out = res.Config.Output
	}
	table.Append([]string{"export", out, ""})
	if len(r.Previews) > 0 {
		table.Append([]string{"previews", strconv.Itoa(len(r.Previews)) + " images", ""})
	}
	table.SetFooter([]string{"", "TOTAL", r.Elapsed.String()})
	table.Render()
	return buf.String()
}
