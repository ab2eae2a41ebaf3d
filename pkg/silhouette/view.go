// Package silhouette holds the binary foreground masks the hull is carved
// from, the thresholding that produces them, and the image loading feeding it.
package silhouette

import (
	"fmt"
	"strings"
)

// ViewType names the fixed orthographic viewpoint a silhouette was taken from.
type ViewType string

const (
	Front ViewType = "front" // looks along X; columns follow Z, rows follow Y
	Side  ViewType = "side"  // looks along Z; columns follow X, rows follow Y
	Top   ViewType = "top"   // looks along Y; columns follow X, rows follow Z
)

// ValidViews lists the supported view types.
var ValidViews = map[ViewType]bool{
	Front: true,
	Side:  true,
	Top:   true,
}

// ParseViewType converts a case-insensitive name to a ViewType.
func ParseViewType(s string) (ViewType, error) {
	v := ViewType(strings.ToLower(strings.TrimSpace(s)))
	if !ValidViews[v] {
		return "", fmt.Errorf("unknown view %q, expected front, side, or top", s)
	}
	return v, nil
}

func (v ViewType) String() string {
	return string(v)
}
