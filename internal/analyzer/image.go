package analyzer

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"gocv.io/x/gocv"
)

// ErrInputDecode is returned for image payloads that are not a decodable image.
var ErrInputDecode = errors.New("invalid image data")

// DecodeImage turns a base64 payload, optionally carrying a data URL
// prefix such as "data:image/jpeg;base64,", into a BGR frame.
// The caller must Close the returned Mat.
func DecodeImage(payload string) (gocv.Mat, error) {
	payload = strings.TrimSpace(payload)
	if strings.HasPrefix(payload, "data:") {
		i := strings.IndexByte(payload, ',')
		if i < 0 {
			return gocv.Mat{}, fmt.Errorf("%w: data URL without payload", ErrInputDecode)
		}
		payload = payload[i+1:]
	}
	if payload == "" {
		return gocv.Mat{}, fmt.Errorf("%w: empty payload", ErrInputDecode)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("%w: %v", ErrInputDecode, err)
	}

	mat, err := gocv.IMDecode(data, gocv.IMReadColor)
	if err != nil {
		return gocv.Mat{}, fmt.Errorf("%w: %v", ErrInputDecode, err)
	}
	if mat.Empty() {
		mat.Close()
		return gocv.Mat{}, fmt.Errorf("%w: not an image", ErrInputDecode)
	}
	return mat, nil
}

// EncodeImage JPEG-encodes a frame and returns it base64 encoded.
func EncodeImage(frame gocv.Mat) (string, error) {
	buf, err := gocv.IMEncode(".jpg", frame)
	if err != nil {
		return "", fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()
	return base64.StdEncoding.EncodeToString(buf.GetBytes()), nil
}
