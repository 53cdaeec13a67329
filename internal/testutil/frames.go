package testutil

import (
	"encoding/base64"
	"image"
	"image/color"
	"testing"

	"gocv.io/x/gocv"
)

// FrameBase64 returns a base64 JPEG of a plain 640x480 frame with a
// rectangle drawn on it, the shape a browser client sends.
func FrameBase64(t testing.TB) string {
	t.Helper()

	frame := gocv.NewMatWithSize(480, 640, gocv.MatTypeCV8UC3)
	defer frame.Close()
	gocv.Rectangle(&frame, image.Rect(200, 100, 440, 380), color.RGBA{R: 200, G: 200, B: 200}, -1)

	buf, err := gocv.IMEncode(".jpg", frame)
	if err != nil {
		t.Fatalf("encode frame: %v", err)
	}
	defer buf.Close()

	return base64.StdEncoding.EncodeToString(buf.GetBytes())
}

// FrameDataURL is FrameBase64 with a data URL prefix.
func FrameDataURL(t testing.TB) string {
	t.Helper()
	return "data:image/jpeg;base64," + FrameBase64(t)
}
