package volume

import (
	"math"
	"testing"

	v3 "github.com/deadsy/sdfx/vec/v3"
)

func TestBoundsValidate(t *testing.T) {
	tests := []struct {
		name    string
		b       [6]float64
		wantErr bool
	}{
		{"unit cube", [6]float64{-1, 1, -1, 1, -1, 1}, false},
		{"offset box", [6]float64{2, 3, -10, 0, 0.5, 0.75}, false},
		{"flat x", [6]float64{1, 1, -1, 1, -1, 1}, true},
		{"inverted y", [6]float64{-1, 1, 1, -1, -1, 1}, true},
		{"inverted z", [6]float64{-1, 1, -1, 1, 2, 1}, true},
		{"nan", [6]float64{math.NaN(), 1, -1, 1, -1, 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewBounds(tt.b[0], tt.b[1], tt.b[2], tt.b[3], tt.b[4], tt.b[5])
			if (err != nil) != tt.wantErr {
				t.Errorf("NewBounds() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultBounds(t *testing.T) {
	b := DefaultBounds()
	if err := b.Validate(); err != nil {
		t.Fatalf("default bounds invalid: %v", err)
	}
	if b.Min != (v3.Vec{X: -1, Y: -1, Z: -1}) || b.Max != (v3.Vec{X: 1, Y: 1, Z: 1}) {
		t.Errorf("DefaultBounds() = %v", b)
	}
}

func TestCellCenter(t *testing.T) {
	b, err := NewBounds(0, 10, -1, 1, 100, 104)
	if err != nil {
		t.Fatal(err)
	}
	const n = 4
	got := b.CellCenter([3]int{0, 3, 2}, n)
	want := v3.Vec{X: 1.25, Y: 0.75, Z: 102.5}
	const tol = 1e-12
	if math.Abs(got.X-want.X) > tol || math.Abs(got.Y-want.Y) > tol || math.Abs(got.Z-want.Z) > tol {
		t.Errorf("CellCenter = %v, want %v", got, want)
	}
}

func TestSpacing(t *testing.T) {
	b, _ := NewBounds(-1, 1, 0, 4, 0, 8)
	s := b.Spacing(4)
	if s != (v3.Vec{X: 0.5, Y: 1, Z: 2}) {
		t.Errorf("Spacing(4) = %v", s)
	}
}

func TestNewGridFullyOccupied(t *testing.T) {
	g, err := NewGrid(3)
	if err != nil {
		t.Fatal(err)
	}
	if g.Len() != 27 {
		t.Fatalf("Len() = %d, want 27", g.Len())
	}
	if g.OccupiedCount() != 27 {
		t.Errorf("OccupiedCount() = %d, want 27", g.OccupiedCount())
	}
	if !g.IsUniform() {
		t.Error("new grid should be uniform")
	}
}

func TestNewGridRejectsNonPositive(t *testing.T) {
	for _, n := range []int{0, -1} {
		if _, err := NewGrid(n); err == nil {
			t.Errorf("NewGrid(%d) succeeded, want error", n)
		}
	}
}

func TestCarve(t *testing.T) {
	g, _ := NewGrid(2)
	g.Carve(1, 0, 1)
	if !g.IsEmpty(1, 0, 1) {
		t.Error("carved cell should be empty")
	}
	if g.At(0, 0, 0) != Occupied {
		t.Error("uncarved cell changed")
	}
	if g.OccupiedCount() != 7 {
		t.Errorf("OccupiedCount() = %d, want 7", g.OccupiedCount())
	}
	if g.IsUniform() {
		t.Error("mixed grid reported uniform")
	}
	g.Carve(1, 0, 1)
	if g.OccupiedCount() != 7 {
		t.Error("carving twice changed the count")
	}
}

func TestFieldEncoding(t *testing.T) {
	g, _ := NewGrid(2)
	g.Carve(0, 1, 0)
	f := g.Field()
	if f.Dims() != [3]int{2, 2, 2} {
		t.Errorf("Dims() = %v", f.Dims())
	}
	if f.Value(0, 1, 0) != 0 {
		t.Errorf("empty cell value = %g, want 0", f.Value(0, 1, 0))
	}
	if f.Value(1, 1, 1) != 255 {
		t.Errorf("occupied cell value = %g, want 255", f.Value(1, 1, 1))
	}
}

func TestSlice(t *testing.T) {
	g, _ := NewGrid(3)
	g.Carve(1, 2, 0)

	tests := []struct {
		axis, idx int
		emptyAt   int
	}{
		{0, 1, 2*3 + 0},
		{1, 2, 1*3 + 0},
		{2, 0, 1*3 + 2},
	}
	for _, tt := range tests {
		s := g.Slice(tt.axis, tt.idx)
		if len(s) != 9 {
			t.Fatalf("slice length = %d", len(s))
		}
		for i, c := range s {
			want := Occupied
			if i == tt.emptyAt {
				want = Empty
			}
			if c != want {
				t.Errorf("axis %d slice[%d] = %v, want %v", tt.axis, i, c, want)
			}
		}
	}
}

func TestEqual(t *testing.T) {
	a, _ := NewGrid(2)
	b, _ := NewGrid(2)
	if !a.Equal(b) {
		t.Error("fresh grids should be equal")
	}
	b.Carve(0, 0, 0)
	if a.Equal(b) {
		t.Error("different grids reported equal")
	}
	c, _ := NewGrid(3)
	if a.Equal(c) || a.Equal(nil) {
		t.Error("size mismatch reported equal")
	}
}
