package media

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// SourceLabel keeps the original dimensions.
const SourceLabel = "source"

// MaxCustomDimension bounds each axis of a custom WxH size label.
const MaxCustomDimension = 10000

// PresetMaxEdges are the N values accepted in "max<N>" labels.
var PresetMaxEdges = []int{320, 640, 800, 1024, 1280, 1600, 1920, 2560, 3840}

var (
	ErrInvalidSizeLabel  = errors.New("invalid size label")
	ErrInvalidResolution = errors.New("invalid resolution")
)

var resolutionPattern = regexp.MustCompile(`^([0-9]{1,5})x([0-9]{1,5})$`)

type SizeKind int

const (
	SizeSource SizeKind = iota
	SizeMaxEdge
	SizeCustom
)

// SizeSpec is a parsed size label.
type SizeSpec struct {
	Kind    SizeKind
	MaxEdge int
	Width   int
	Height  int
}

func ParseSizeLabel(label string) (SizeSpec, error) {
	label = strings.ToLower(strings.TrimSpace(label))

	if label == SourceLabel {
		return SizeSpec{Kind: SizeSource}, nil
	}

	if rest, ok := strings.CutPrefix(label, "max"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil {
			return SizeSpec{}, ErrInvalidSizeLabel
		}
		for _, edge := range PresetMaxEdges {
			if n == edge {
				return SizeSpec{Kind: SizeMaxEdge, MaxEdge: n}, nil
			}
		}
		return SizeSpec{}, ErrInvalidSizeLabel
	}

	w, h, err := ParseResolution(label)
	if err != nil {
		return SizeSpec{}, ErrInvalidSizeLabel
	}
	return SizeSpec{Kind: SizeCustom, Width: w, Height: h}, nil
}

// FormatResolution renders "<w>x<h>".
func FormatResolution(width, height int) string {
	return fmt.Sprintf("%dx%d", width, height)
}

// ParseResolution parses "<w>x<h>" with both axes in 1..MaxCustomDimension.
func ParseResolution(value string) (int, int, error) {
	m := resolutionPattern.FindStringSubmatch(value)
	if m == nil {
		return 0, 0, ErrInvalidResolution
	}

	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	if w < 1 || h < 1 || w > MaxCustomDimension || h > MaxCustomDimension {
		return 0, 0, ErrInvalidResolution
	}
	return w, h, nil
}

// TargetDimensions fits the source inside the requested box without enlarging it and
// keeps the aspect ratio. The result is deterministic for a given input.
func (s SizeSpec) TargetDimensions(srcWidth, srcHeight int) (int, int) {
	switch s.Kind {
	case SizeMaxEdge:
		return fitInside(srcWidth, srcHeight, s.MaxEdge, s.MaxEdge)
	case SizeCustom:
		return fitInside(srcWidth, srcHeight, s.Width, s.Height)
	default:
		return srcWidth, srcHeight
	}
}

func fitInside(srcWidth, srcHeight, boxWidth, boxHeight int) (int, int) {
	if srcWidth <= boxWidth && srcHeight <= boxHeight {
		return srcWidth, srcHeight
	}

	scale := math.Min(float64(boxWidth)/float64(srcWidth), float64(boxHeight)/float64(srcHeight))
	w := clamp(int(math.Round(float64(srcWidth)*scale)), 1, boxWidth)
	h := clamp(int(math.Round(float64(srcHeight)*scale)), 1, boxHeight)
	return w, h
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
