// Package qrscan encodes QR badges and decodes QR codes from camera frames posted by the browser.
package qrscan

import (
	"context"
	"image"
	_ "image/jpeg" // frame formats
	_ "image/png"
	"io"
	"sync"

	"github.com/makiuchi-d/gozxing"
	zxqr "github.com/makiuchi-d/gozxing/qrcode"
	"github.com/pkg/errors"
	"github.com/skip2/go-qrcode"

	"github.com/vanderidme15/vz-academias-sub001/core/checkin"
)

// BadgeSize is the side, in pixels, of badge images.
const BadgeSize = 256

var (
	ErrPermissionDenied = errors.New("camera permission denied")
	ErrNotActive        = errors.New("camera is not active")
	ErrNoCode           = errors.New("no QR code found in frame")
)

// Badge returns a png QR code carrying `code`.
func Badge(code string) ([]byte, error) {
	png, err := qrcode.Encode(code, qrcode.Medium, BadgeSize)
	return png, errors.Wrap(err, "encoding qr badge")
}

// Decode reads the QR code of an image.
func Decode(img image.Image) (string, error) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", errors.Wrap(err, "binarizing frame")
	}
	result, err := zxqr.NewQRCodeReader().Decode(bmp, map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	})
	if err != nil {
		if _, ok := err.(gozxing.ReaderException); ok {
			return "", ErrNoCode
		}
		return "", errors.Wrap(err, "decoding qr code")
	}
	return result.GetText(), nil
}

// FrameCamera is the camera of one browser session. The browser reports its permission state
// and, while the camera is active, posts frames to be decoded.
type FrameCamera struct {
	mu     sync.Mutex
	denied bool
	active bool
}

var _ checkin.Camera = (*FrameCamera)(nil)

func NewFrameCamera() *FrameCamera {
	return new(FrameCamera)
}

// SetPermission records whether the browser was granted access to the camera.
func (c *FrameCamera) SetPermission(granted bool) {
	c.mu.Lock()
	c.denied = !granted
	c.mu.Unlock()
}

func (c *FrameCamera) Start(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.denied {
		return ErrPermissionDenied
	}
	c.active = true
	return nil
}

func (c *FrameCamera) Stop() error {
	c.mu.Lock()
	c.active = false
	c.mu.Unlock()
	return nil
}

func (c *FrameCamera) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// DecodeFrame decodes the QR code of an uploaded frame (png or jpeg).
func (c *FrameCamera) DecodeFrame(r io.Reader) (string, error) {
	if !c.Active() {
		return "", ErrNotActive
	}
	img, _, err := image.Decode(r)
	if err != nil {
		return "", errors.Wrap(err, "decoding frame image")
	}
	return Decode(img)
}
