// Package render draws the pose skeleton and counters onto frames.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"unicode"

	"gocv.io/x/gocv"

	"github.com/ayusman/repcount/internal/pose"
)

// Drawing style. gocv takes colors as RGBA and writes them in BGR order.
var (
	LandmarkColor   = color.RGBA{R: 66, G: 117, B: 245}
	ConnectionColor = color.RGBA{R: 230, G: 66, B: 245}
	BorderColor     = color.RGBA{R: 255, G: 255, B: 255}
	CounterColor    = color.RGBA{R: 255}
	LabelColor      = color.RGBA{B: 255}
)

const (
	lineThickness  = 2
	landmarkRadius = 2
	fontScale      = 1.0
	textThickness  = 2
)

var (
	counterOrigin = image.Pt(50, 100)
	labelOrigin   = image.Pt(50, 50)
)

// Annotate returns a copy of frame with the skeleton, the counter line and
// the label drawn on it. The caller owns the returned Mat.
func Annotate(frame gocv.Mat, points []pose.Point3D, counter, label string) gocv.Mat {
	out := frame.Clone()
	Skeleton(&out, points)
	Text(&out, counter, label)
	return out
}

// Skeleton draws connections then landmarks. Points outside the unit square
// are skipped along with their connections.
func Skeleton(img *gocv.Mat, points []pose.Point3D) {
	if img == nil || img.Empty() {
		return
	}
	w, h := img.Cols(), img.Rows()

	pixels := make(map[int]image.Point, len(points))
	for i, p := range points {
		if pt, ok := toPixel(p, w, h); ok {
			pixels[i] = pt
		}
	}

	for _, c := range pose.Connections {
		a, okA := pixels[c[0]]
		b, okB := pixels[c[1]]
		if !okA || !okB {
			continue
		}
		gocv.Line(img, a, b, ConnectionColor, lineThickness)
	}

	border := int(math.Max(landmarkRadius+1, landmarkRadius*1.2))
	for i := range points {
		pt, ok := pixels[i]
		if !ok {
			continue
		}
		gocv.Circle(img, pt, border, BorderColor, lineThickness)
		gocv.Circle(img, pt, landmarkRadius, LandmarkColor, lineThickness)
	}
}

// Text burns the counter and label lines in.
func Text(img *gocv.Mat, counter, label string) {
	if img == nil || img.Empty() {
		return
	}
	if counter != "" {
		gocv.PutTextWithParams(img, counter, counterOrigin, gocv.FontHersheySimplex, fontScale,
			CounterColor, textThickness, gocv.LineAA, false)
	}
	gocv.PutTextWithParams(img, label, labelOrigin, gocv.FontHersheySimplex, fontScale,
		LabelColor, textThickness, gocv.LineAA, false)
}

// CounterText formats the counter line, e.g. "Jumping_Jacks: 3".
func CounterText(exercise string, count int) string {
	return fmt.Sprintf("%s: %d", TitleCase(exercise), count)
}

// TitleCase upper-cases the first letter of every run of letters and
// lower-cases the rest: "jumping_jacks" becomes "Jumping_Jacks".
func TitleCase(s string) string {
	out := []rune(s)
	prevLetter := false
	for i, r := range out {
		if unicode.IsLetter(r) {
			if prevLetter {
				out[i] = unicode.ToLower(r)
			} else {
				out[i] = unicode.ToUpper(r)
			}
			prevLetter = true
		} else {
			prevLetter = false
		}
	}
	return string(out)
}

func toPixel(p pose.Point3D, w, h int) (image.Point, bool) {
	if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
		return image.Point{}, false
	}
	x := int(math.Min(math.Floor(p.X*float64(w)), float64(w-1)))
	y := int(math.Min(math.Floor(p.Y*float64(h)), float64(h-1)))
	return image.Pt(x, y), true
}
