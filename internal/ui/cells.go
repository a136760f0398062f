package ui

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"os"
	"strings"
	"sync"
)

type colorProfile uint8

const (
	colorNone colorProfile = iota
	colorANSI16
	colorANSI256
	colorTrueColor
)

type layer uint8

const (
	fg layer = iota
	bg
)

var (
	profileOnce sync.Once
	profile     colorProfile
	seqCache    sync.Map
)

func detectColorProfile() colorProfile {
	profileOnce.Do(func() {
		if _, disabled := os.LookupEnv("NO_COLOR"); disabled {
			profile = colorNone
			return
		}
		term := strings.ToLower(os.Getenv("TERM"))
		colorTerm := strings.ToLower(os.Getenv("COLORTERM"))
		switch {
		case strings.Contains(colorTerm, "truecolor"), strings.Contains(colorTerm, "24bit"):
			profile = colorTrueColor
		case strings.Contains(term, "256color"):
			profile = colorANSI256
		case term == "", term == "dumb":
			profile = colorNone
		default:
			profile = colorANSI16
		}
	})
	return profile
}

const upperHalf = "▀"

// renderCells draws img two pixel rows per terminal line: each cell is an
// upper half block whose foreground is the top pixel and whose background is
// the bottom one.
func renderCells(img *image.RGBA, p colorProfile) string {
	b := img.Bounds()
	var sb strings.Builder
	sb.Grow(b.Dx() * b.Dy() * 4)
	for y := b.Min.Y; y < b.Max.Y; y += 2 {
		if y > b.Min.Y {
			sb.WriteByte('\n')
		}
		st := ansiState{profile: p, fg: noColor, bg: noColor}
		for x := b.Min.X; x < b.Max.X; x++ {
			top := img.RGBAAt(x, y)
			bottom := top
			if y+1 < b.Max.Y {
				bottom = img.RGBAAt(x, y+1)
			}
			if p == colorNone {
				sb.WriteString(monoCell(top, bottom))
				continue
			}
			st.set(&sb, fg, top)
			st.set(&sb, bg, bottom)
			sb.WriteString(upperHalf)
		}
		st.reset(&sb)
	}
	return sb.String()
}

// monoCell picks a block glyph by brightness when colors are unavailable.
func monoCell(top, bottom color.RGBA) string {
	t, b := luminance(top) > 0.3, luminance(bottom) > 0.3
	switch {
	case t && b:
		return "█"
	case t:
		return upperHalf
	case b:
		return "▄"
	default:
		return " "
	}
}

func luminance(c color.RGBA) float64 {
	return (0.2126*float64(c.R) + 0.7152*float64(c.G) + 0.0722*float64(c.B)) / 255
}

const noColor = ^uint32(0)

type ansiState struct {
	profile colorProfile
	fg      uint32
	bg      uint32
}

func (s *ansiState) set(sb *strings.Builder, l layer, c color.RGBA) {
	key := uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
	cur := &s.fg
	if l == bg {
		cur = &s.bg
	}
	if key == *cur {
		return
	}
	sb.WriteString(colorSequence(s.profile, l, c))
	*cur = key
}

func (s *ansiState) reset(sb *strings.Builder) {
	if s.fg == noColor && s.bg == noColor {
		return
	}
	sb.WriteString("\x1b[0m")
	s.fg, s.bg = noColor, noColor
}

var ansi16 = []color.RGBA{
	{R: 0, G: 0, B: 0},
	{R: 205, G: 49, B: 49},
	{R: 13, G: 188, B: 121},
	{R: 229, G: 229, B: 16},
	{R: 36, G: 114, B: 200},
	{R: 188, G: 63, B: 188},
	{R: 17, G: 168, B: 205},
	{R: 229, G: 229, B: 229},
}

func colorSequence(p colorProfile, l layer, c color.RGBA) string {
	key := uint32(l)<<26 | uint32(p)<<24 | uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
	if seq, ok := seqCache.Load(key); ok {
		return seq.(string)
	}

	base := 38
	if l == bg {
		base = 48
	}
	var seq string
	switch p {
	case colorTrueColor:
		seq = fmt.Sprintf("\x1b[%d;2;%d;%d;%dm", base, c.R, c.G, c.B)
	case colorANSI256:
		r := int(c.R) * 5 / 255
		g := int(c.G) * 5 / 255
		b := int(c.B) * 5 / 255
		seq = fmt.Sprintf("\x1b[%d;5;%dm", base, 16+36*r+6*g+b)
	case colorANSI16:
		best := 0
		bestDist := math.MaxFloat64
		for i, q := range ansi16 {
			dr := float64(c.R) - float64(q.R)
			dg := float64(c.G) - float64(q.G)
			db := float64(c.B) - float64(q.B)
			if d := dr*dr + dg*dg + db*db; d < bestDist {
				bestDist = d
				best = i
			}
		}
		seq = fmt.Sprintf("\x1b[%dm", base-8+best)
	}

	seqCache.Store(key, seq)
	return seq
}
