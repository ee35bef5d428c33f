package camera

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/keepmind9/camerabot/pkg/constants"
	"golang.org/x/image/draw"
)

// resizeJPEG scales a JPEG down to width pixels keeping the aspect ratio.
// Pictures already narrower than width are returned unchanged.
func resizeJPEG(data []byte, width int) ([]byte, error) {
	src, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode jpeg: %w", err)
	}

	bounds := src.Bounds()
	if width <= 0 || bounds.Dx() <= width {
		return data, nil
	}
	height := bounds.Dy() * width / bounds.Dx()
	if height < 1 {
		height = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: constants.SnapshotJPEGQuality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
