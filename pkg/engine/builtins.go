package engine

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/chazu/hull/pkg/export"
	"github.com/chazu/hull/pkg/pipeline"
	"github.com/chazu/hull/pkg/silhouette"
	"github.com/chazu/hull/pkg/volume"
	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource transforms job script source before passing it to
// zygomys. It performs two transformations:
//
//  1. Keyword conversion: :keyword -> "__kw_keyword" (string literal)
//     This avoids the need to register keyword symbols as globals, which
//     would conflict with user-defined variables of the same name.
//
//  2. Kebab-case to underscore: grid-size -> grid_size
//     zygomys does not allow hyphens in identifiers (it interprets them
//     as the subtraction operator). This converts kebab-case identifiers
//     to underscore form outside of strings and comments.
//
// Both transformations respect string literal boundaries and line comments.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		// Skip double-quoted string literals.
		if b[i] == '"' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '"' {
				if b[i] == '\\' && i+1 < len(b) {
					result = append(result, b[i], b[i+1])
					i += 2
					continue
				}
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Skip backtick-quoted string literals.
		if b[i] == '`' {
			result = append(result, b[i])
			i++
			for i < len(b) && b[i] != '`' {
				result = append(result, b[i])
				i++
			}
			if i < len(b) {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Convert ; line comments to // comments for zygomys.
		// zygomys uses // for line comments, not the traditional Lisp ;.
		if b[i] == ';' {
			result = append(result, '/', '/')
			i++
			// Skip additional ; characters (;; style).
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
			continue
		}
		// Transform :keyword to "__kw_keyword".
		if b[i] == ':' && i+1 < len(b) {
			// Preserve := (assignment operator).
			if b[i+1] == '=' {
				result = append(result, b[i], b[i+1])
				i += 2
				continue
			}
			// Check for keyword: colon followed by a letter.
			if isLetter(b[i+1]) {
				j := i + 1
				for j < len(b) && isKWChar(b[j]) {
					j++
				}
				kwName := string(b[i+1 : j])
				result = append(result, '"')
				result = append(result, []byte(kwPrefix)...)
				result = append(result, []byte(kwName)...)
				result = append(result, '"')
				i = j
				continue
			}
		}
		// Transform kebab-case identifiers: alpha-alpha -> alpha_alpha.
		// Only when hyphen sits between identifier characters (not a minus operator).
		if b[i] == '-' && i > 0 && i+1 < len(b) &&
			isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]) {
			result = append(result, '_')
			i++
			continue
		}
		result = append(result, b[i])
		i++
	}
	return string(result)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a world-space vector.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpView wraps a configured image so `view` has a printable result.
type sexpView struct {
	src silhouette.Source
}

func (v *sexpView) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(view :%s %q)", v.src.View, v.src.Path)
}
func (v *sexpView) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", false
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], true
	}
	return "", false
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	order      []string
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
// Keywords are identified by the __kw_ prefix added during preprocessing.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	i := 0
	for i < len(args) {
		name, ok := isKW(args[i])
		if ok {
			if i+1 < len(args) {
				result.kw[name] = args[i+1]
				i += 2
			} else {
				// Keyword at end with no value: treat as flag with nil.
				result.kw[name] = zygo.SexpNull
				i++
			}
			result.order = append(result.order, name)
		} else {
			result.positional = append(result.positional, args[i])
			i++
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts a whole number.
func toInt(s zygo.Sexp) (int, error) {
	f, err := toFloat64(s)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("expected whole number, got %g", f)
	}
	return int(f), nil
}

// toBool extracts a boolean. nil reads as false.
func toBool(s zygo.Sexp) (bool, error) {
	switch v := s.(type) {
	case *zygo.SexpBool:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return false, nil
		}
	}
	return false, fmt.Errorf("expected true or false, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toKeywordString extracts a keyword name or plain string from a Sexp.
// Handles both preprocessed keywords (__kw_front) and plain strings ("front").
func toKeywordString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected keyword or string, got %T (%s)", s, s.SexpString(nil))
	}
	if strings.HasPrefix(str.S, kwPrefix) {
		return str.S[len(kwPrefix):], nil
	}
	return str.S, nil
}

// toVec3 extracts a vector from a sexpVec3.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toRange extracts a (lo hi) pair from a list or array.
func toRange(s zygo.Sexp) (lo, hi float64, err error) {
	items, err := sexpListToSlice(s)
	if err != nil {
		return 0, 0, err
	}
	if len(items) != 2 {
		return 0, 0, fmt.Errorf("expected (min max), got %d values", len(items))
	}
	if lo, err = toFloat64(items[0]); err != nil {
		return 0, 0, err
	}
	if hi, err = toFloat64(items[1]); err != nil {
		return 0, 0, err
	}
	return lo, hi, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// resolve anchors a relative script path at base.
func resolve(base, path string) string {
	if base == "" || path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the job builtins into a zygomys environment.
// The builtins operate on cfg, filling it in during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, cfg *pipeline.Config, baseDir string) {

	// -----------------------------------------------------------------------
	// (grid-size 64), (grid-size) returns the current value
	// -----------------------------------------------------------------------
	env.AddFunction("grid_size", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) == 0 {
			return &zygo.SexpInt{Val: int64(cfg.GridSize)}, nil
		}
		n, err := toInt(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("grid-size: %w", err)
		}
		if n < 1 {
			return zygo.SexpNull, fmt.Errorf("grid-size: must be positive, got %d", n)
		}
		cfg.GridSize = n
		return &zygo.SexpInt{Val: int64(n)}, nil
	})

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %c: %w", "xyz"[i], err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: v3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (bounds -1 1 -1 1 -1 1)
	// (bounds (vec3 -1 -1 -1) (vec3 1 1 1))
	// (bounds :y (list 0 2))
	// -----------------------------------------------------------------------
	env.AddFunction("bounds", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		b := cfg.Bounds

		switch len(pa.positional) {
		case 0:
		case 2:
			lo, err := toVec3(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("bounds: min: %w", err)
			}
			hi, err := toVec3(pa.positional[1])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("bounds: max: %w", err)
			}
			b = volume.Bounds{Min: lo, Max: hi}
		case 6:
			var c [6]float64
			for i, a := range pa.positional {
				f, err := toFloat64(a)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("bounds: argument %d: %w", i+1, err)
				}
				c[i] = f
			}
			b = volume.Bounds{Min: v3.Vec{X: c[0], Y: c[2], Z: c[4]}, Max: v3.Vec{X: c[1], Y: c[3], Z: c[5]}}
		default:
			return zygo.SexpNull, fmt.Errorf("bounds: expected 6 numbers or 2 vec3, got %d arguments", len(pa.positional))
		}

		for _, axis := range pa.order {
			lo, hi, err := toRange(pa.kw[axis])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("bounds: %s: %w", axis, err)
			}
			switch axis {
			case "x":
				b.Min.X, b.Max.X = lo, hi
			case "y":
				b.Min.Y, b.Max.Y = lo, hi
			case "z":
				b.Min.Z, b.Max.Z = lo, hi
			default:
				return zygo.SexpNull, fmt.Errorf("bounds: invalid axis %q, expected x, y, or z", axis)
			}
		}

		if err := b.Validate(); err != nil {
			return zygo.SexpNull, fmt.Errorf("bounds: %w", err)
		}
		cfg.Bounds = b
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (iso-level 127), (iso-level) returns the current value
	// -----------------------------------------------------------------------
	env.AddFunction("iso_level", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) == 0 {
			return &zygo.SexpFloat{Val: cfg.Level}, nil
		}
		f, err := toFloat64(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("iso-level: %w", err)
		}
		cfg.Level = f
		return &zygo.SexpFloat{Val: f}, nil
	})

	// -----------------------------------------------------------------------
	// (threshold 240 :invert true)
	// -----------------------------------------------------------------------
	env.AddFunction("threshold", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		th := cfg.Threshold

		if len(pa.positional) > 0 {
			n, err := toInt(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("threshold: level: %w", err)
			}
			if n < 0 || n > 255 {
				return zygo.SexpNull, fmt.Errorf("threshold: level must be within 0..255, got %d", n)
			}
			th.Level = uint8(n)
		}
		if v, ok := pa.kw["invert"]; ok {
			inv, err := toBool(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("threshold: invert: %w", err)
			}
			th.Invert = inv
		}

		cfg.Threshold = th
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (previews true :dir "previews")
	// -----------------------------------------------------------------------
	env.AddFunction("previews", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		show := true
		if len(pa.positional) > 0 {
			b, err := toBool(pa.positional[0])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("previews: %w", err)
			}
			show = b
		}
		if v, ok := pa.kw["dir"]; ok {
			dir, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("previews: dir: %w", err)
			}
			cfg.PreviewDir = resolve(baseDir, dir)
		}
		cfg.ShowPreviews = show
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (workers 4), (workers) returns the current value
	// -----------------------------------------------------------------------
	env.AddFunction("workers", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) == 0 {
			return &zygo.SexpInt{Val: int64(cfg.Workers)}, nil
		}
		n, err := toInt(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("workers: %w", err)
		}
		if n < 0 {
			return zygo.SexpNull, fmt.Errorf("workers: must not be negative, got %d", n)
		}
		cfg.Workers = n
		return &zygo.SexpInt{Val: int64(n)}, nil
	})

	// -----------------------------------------------------------------------
	// (view :front "shots/front.png" :label "front camera")
	// -----------------------------------------------------------------------
	env.AddFunction("view", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var src silhouette.Source

		for _, key := range pa.order {
			v := pa.kw[key]
			if key == "label" {
				label, err := toString(v)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("view: label: %w", err)
				}
				src.Label = label
				continue
			}
			vt, err := silhouette.ParseViewType(key)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("view: %w", err)
			}
			if src.View != "" {
				return zygo.SexpNull, fmt.Errorf("view: one view per call, got %s and %s", src.View, vt)
			}
			path, err := toString(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("view: %s: %w", vt, err)
			}
			src.View, src.Path = vt, resolve(baseDir, path)
		}
		if src.View == "" {
			return zygo.SexpNull, fmt.Errorf("view requires one of :front, :side or :top with an image path")
		}

		cfg.Views = append(cfg.Views, src)
		return &sexpView{src: src}, nil
	})

	// -----------------------------------------------------------------------
	// (output "hull.stl" :format :stl)
	// -----------------------------------------------------------------------
	env.AddFunction("output", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("output requires a path")
		}
		path, err := toString(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("output: path: %w", err)
		}
		format := cfg.Format
		if v, ok := pa.kw["format"]; ok {
			if format, err = toKeywordString(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("output: format: %w", err)
			}
		}
		if _, err := export.ForFormat(format, path); err != nil {
			return zygo.SexpNull, fmt.Errorf("output: %w", err)
		}
		cfg.Output, cfg.Format = resolve(baseDir, path), format
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (format :json)
	// -----------------------------------------------------------------------
	env.AddFunction("format", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 1 {
			return zygo.SexpNull, fmt.Errorf("format requires exactly 1 argument, got %d", len(args))
		}
		f, err := toKeywordString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("format: %w", err)
		}
		if _, err := export.ForFormat(f, ""); err != nil {
			return zygo.SexpNull, fmt.Errorf("format: %w", err)
		}
		cfg.Format = f
		return zygo.SexpNull, nil
	})
}
