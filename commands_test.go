package main

import (
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/chazu/hull/pkg/carve"
	"github.com/chazu/hull/pkg/export"
	"github.com/chazu/hull/pkg/log"
	"github.com/chazu/hull/pkg/pipeline"
	"github.com/chazu/hull/pkg/silhouette"
	"github.com/chazu/hull/pkg/volume"
	v3 "github.com/deadsy/sdfx/vec/v3"
	"github.com/urfave/cli"
)

func TestParseViews(t *testing.T) {
	tests := []struct {
		name    string
		specs   []string
		want    []silhouette.Source
		wantErr bool
	}{
		{
			name:  "all views",
			specs: []string{"front=shots/f.png", "SIDE=s.png", "top=/abs/t.png"},
			want: []silhouette.Source{
				{Label: "f.png", Path: "shots/f.png", View: silhouette.Front},
				{Label: "s.png", Path: "s.png", View: silhouette.Side},
				{Label: "t.png", Path: "/abs/t.png", View: silhouette.Top},
			},
		},
		{name: "none", specs: nil, want: []silhouette.Source{}},
		{name: "missing path", specs: []string{"front="}, wantErr: true},
		{name: "missing separator", specs: []string{"front.png"}, wantErr: true},
		{name: "unknown view", specs: []string{"back=b.png"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseViews(tt.specs)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseViews() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("parseViews() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("source %d = %+v, want %+v", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestParseBounds(t *testing.T) {
	b, err := parseBounds("-2, 2, 0,1, -0.5,0.5")
	if err != nil {
		t.Fatal(err)
	}
	want := volume.Bounds{Min: v3.Vec{X: -2, Y: 0, Z: -0.5}, Max: v3.Vec{X: 2, Y: 1, Z: 0.5}}
	if b != want {
		t.Errorf("parseBounds() = %v, want %v", b, want)
	}

	for _, bad := range []string{"", "1,2,3", "a,1,0,1,0,1", "1,-1,0,1,0,1"} {
		if _, err := parseBounds(bad); err == nil {
			t.Errorf("parseBounds(%q) succeeded", bad)
		}
	}
}

func TestProjectionTable(t *testing.T) {
	out, err := projectionTable([3]int{0, 0, 19}, 20, 50, 50, volume.DefaultBounds())
	if err != nil {
		t.Fatal(err)
	}
	// x=0 is col 1 in side/top, y=0 is row 48, z=19 is front col 48 and top row 1.
	for _, want := range []string{"front", "side", "top", "48", "center"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}

	if _, err := projectionTable([3]int{0, 20, 0}, 20, 50, 50, volume.DefaultBounds()); err == nil {
		t.Error("index outside grid accepted")
	}
	if _, err := projectionTable([3]int{0, 0, 0}, 20, 0, 50, volume.DefaultBounds()); err == nil {
		t.Error("zero width accepted")
	}
}

func TestWriteSynth(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "cube")
	paths, err := writeSynth(dir, 16, 8)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"front.png", "side.png", "top.png", "cube.hull"}
	for i, p := range paths {
		if filepath.Base(p) != want[i] {
			t.Errorf("path %d = %s, want %s", i, p, want[i])
		}
	}

	rasters := silhouette.Load([]silhouette.Source{{Path: paths[0], View: silhouette.Front}}, nil)
	set := silhouette.FromRasters(rasters, silhouette.DefaultThreshold())
	if len(set) != 1 || set[0].ForegroundCount() != 64 {
		t.Fatalf("synth image does not binarize to an 8x8 square")
	}

	for _, bad := range [][2]int{{0, 0}, {10, 11}, {10, -1}} {
		if _, err := writeSynth(t.TempDir(), bad[0], bad[1]); err == nil {
			t.Errorf("writeSynth(size %d, side %d) succeeded", bad[0], bad[1])
		}
	}
}

func TestStatsTable(t *testing.T) {
	cfg := pipeline.DefaultConfig()
	res := JobResult{
		Config: &cfg,
		Result: &pipeline.Result{
			CarveStats: carve.Stats{Cells: 8000, Occupied: 1000, Views: 3, Elapsed: time.Millisecond},
			Report:     export.Report{Vertices: 600, Faces: 1196},
			Exported:   true,
			Elapsed:    2 * time.Millisecond,
		},
	}
	out := statsTable(res)
	for _, want := range []string{"1000 of 8000", "1196 faces", "hull.stl", "TOTAL"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats table missing %q:\n%s", want, out)
		}
	}
}

func TestReportErrors(t *testing.T) {
	err := report(JobResult{Errors: []JobError{{Stage: "eval", Line: 3, Message: "boom"}}})
	if err == nil || !strings.Contains(err.Error(), "eval: line 3: boom") {
		t.Errorf("report() = %v", err)
	}
}

func TestExampleScriptMatchesSynth(t *testing.T) {
	data, err := os.ReadFile("examples/cube.hull")
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range []string{`(view :front "front.png")`, `(view :side "side.png")`, `(view :top "top.png")`} {
		if !strings.Contains(string(data), line) {
			t.Errorf("examples/cube.hull missing %s", line)
		}
	}
}

func globalContext(t *testing.T, logLevel string, v, vv bool) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("hull", flag.ContinueOnError)
	set.String("log-level", logLevel, "")
	set.Bool("v", v, "")
	set.Bool("vv", vv, "")
	global := cli.NewContext(nil, set, nil)
	return cli.NewContext(nil, flag.NewFlagSet("reconstruct", flag.ContinueOnError), global)
}

func TestSetupLogging(t *testing.T) {
	defer log.SetLevel(log.Notice)

	tests := []struct {
		name     string
		logLevel string
		v, vv    bool
		want     log.Level
		wantErr  bool
	}{
		{"default", "", false, false, log.Notice, false},
		{"named level", "error", false, false, log.Error, false},
		{"v", "", true, false, log.Info, false},
		{"vv wins over level", "warning", false, true, log.Debug, false},
		{"unknown level", "loud", false, false, log.Notice, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log.SetLevel(log.Notice)
			err := setupLogging(globalContext(t, tt.logLevel, tt.v, tt.vv))
			if (err != nil) != tt.wantErr {
				t.Fatalf("setupLogging() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := log.CurrentLevel(); got != tt.want {
				t.Errorf("level = %v, want %v", got, tt.want)
			}
		})
	}
}
