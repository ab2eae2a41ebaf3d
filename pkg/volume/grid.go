package volume

import "fmt"

// State is the occupancy of a single grid cell.
type State uint8

const (
	Empty    State = 0
	Occupied State = 255
)

func (s State) String() string {
	switch s {
	case Empty:
		return "empty"
	case Occupied:
		return "occupied"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Grid is a cubic occupancy grid of Size³ cells. It is created fully
// Occupied and cells only ever move to Empty.
type Grid struct {
	Size  int
	cells []State
}

// NewGrid returns a fully Occupied grid with size cells per axis.
func NewGrid(size int) (*Grid, error) {
	if size < 1 {
		return nil, fmt.Errorf("volume: grid size must be positive, got %d", size)
	}
	cells := make([]State, size*size*size)
	for i := range cells {
		cells[i] = Occupied
	}
	return &Grid{Size: size, cells: cells}, nil
}

// Index returns the flat offset of cell (x, y, z); x is the slowest axis.
func (g *Grid) Index(x, y, z int) int {
	return (x*g.Size+y)*g.Size + z
}

// InBounds reports whether (x, y, z) addresses a cell of the grid.
func (g *Grid) InBounds(x, y, z int) bool {
	return x >= 0 && y >= 0 && z >= 0 && x < g.Size && y < g.Size && z < g.Size
}

// At returns the state of cell (x, y, z).
func (g *Grid) At(x, y, z int) State {
	return g.cells[g.Index(x, y, z)]
}

// IsEmpty reports whether cell (x, y, z) has been carved.
func (g *Grid) IsEmpty(x, y, z int) bool {
	return g.At(x, y, z) == Empty
}

// Carve marks cell (x, y, z) Empty. Carving is irreversible.
func (g *Grid) Carve(x, y, z int) {
	g.cells[g.Index(x, y, z)] = Empty
}

// Len returns the total number of cells.
func (g *Grid) Len() int {
	return len(g.cells)
}

// OccupiedCount returns the number of cells still Occupied.
func (g *Grid) OccupiedCount() int {
	var n int
	for _, c := range g.cells {
		if c == Occupied {
			n++
		}
	}
	return n
}

// IsUniform reports whether every cell holds the same state.
func (g *Grid) IsUniform() bool {
	for _, c := range g.cells[1:] {
		if c != g.cells[0] {
			return false
		}
	}
	return true
}

// Equal reports whether two grids have the same size and cell states.
func (g *Grid) Equal(other *Grid) bool {
	if other == nil || g.Size != other.Size {
		return false
	}
	for i, c := range g.cells {
		if other.cells[i] != c {
			return false
		}
	}
	return true
}

// Field is the grid viewed as a scalar field: Occupied reads as 255 and
// Empty as 0.
type Field struct {
	g *Grid
}

// Field returns the scalar view of the grid.
func (g *Grid) Field() Field {
	return Field{g: g}
}

// Dims returns the number of samples per axis.
func (f Field) Dims() [3]int {
	return [3]int{f.g.Size, f.g.Size, f.g.Size}
}

// Value returns the field value at sample (i, j, k).
func (f Field) Value(i, j, k int) float64 {
	return float64(f.g.At(i, j, k))
}

// Slice copies the plane of cells at index idx along axis (0=x, 1=y, 2=z)
// into a row-major Size*Size buffer. For axis x the rows are y and the
// columns z; for y, rows x and columns z; for z, rows x and columns y.
func (g *Grid) Slice(axis, idx int) []State {
	out := make([]State, 0, g.Size*g.Size)
	for a := 0; a < g.Size; a++ {
		for b := 0; b < g.Size; b++ {
			switch axis {
			case 0:
				out = append(out, g.At(idx, a, b))
			case 1:
				out = append(out, g.At(a, idx, b))
			default:
				out = append(out, g.At(a, b, idx))
			}
		}
	}
	return out
}
