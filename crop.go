package imagereport

import "strings"

// CropRect is the fraction of the image cropped away at each edge, each in [0, 1].
type CropRect struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// Crop is the percentage cropped away at each edge, each in [0, 100] rounded to two decimals.
type Crop struct {
	Left   float64
	Top    float64
	Right  float64
	Bottom float64
}

// CropEdge is a single cropped edge.
type CropEdge struct {
	Name    string
	Percent float64
}

// CalculateCrop converts r to percentages.
func CalculateCrop(r CropRect) Crop {
	return Crop{
		Left:   round2(r.Left * 100),
		Top:    round2(r.Top * 100),
		Right:  round2(r.Right * 100),
		Bottom: round2(r.Bottom * 100),
	}
}

// Edges returns the cropped edges in the order left, top, right, bottom.
// Edges with nothing cropped are omitted.
func (c Crop) Edges() []CropEdge {
	var edges []CropEdge
	for _, e := range []CropEdge{
		{"Left", c.Left},
		{"Top", c.Top},
		{"Right", c.Right},
		{"Bottom", c.Bottom},
	} {
		if e.Percent != 0 {
			edges = append(edges, e)
		}
	}
	return edges
}

// IsZero reports whether nothing is cropped.
func (c Crop) IsZero() bool {
	return len(c.Edges()) == 0
}

// cropRectFromXMP reads the crop rectangle from the Lightroom crop properties.
// Lightroom stores the right and bottom edges as coordinates, not as the cropped fraction.
func cropRectFromXMP(props XMPProperties) (CropRect, bool) {
	if v, ok := props[propHasCrop]; ok && strings.EqualFold(v.Text, "false") {
		return CropRect{}, false
	}

	var (
		r     CropRect
		found bool
	)
	edge := func(key string, fromEnd bool) float64 {
		v, ok := props[key]
		if !ok || !v.IsNumber() {
			return 0
		}
		found = true
		f := clamp01(v.Number)
		if fromEnd {
			return 1 - f
		}
		return f
	}

	r.Left = edge(propCropLeft, false)
	r.Top = edge(propCropTop, false)
	r.Right = edge(propCropRight, true)
	r.Bottom = edge(propCropBottom, true)

	return r, found
}

func clamp01(f float64) float64 {
	switch {
	case f < 0:
		return 0
	case f > 1:
		return 1
	}
	return f
}
