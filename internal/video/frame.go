package video

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"math"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
)

// holds options for writing captured frames
type JPEGOptions struct {
	Quality  int // 1-100, 0 means jpeg.DefaultQuality
	MaxWidth int // downscale wider frames to this width, 0 keeps the original size
}

// returns sensible defaults for frame output
func DefaultJPEGOptions() JPEGOptions {
	return JPEGOptions{Quality: 95}
}

// FrameIndex converts a target time to the frame that contains it: floor(fps * seconds).
func FrameIndex(fps, seconds float64) int {
	if fps <= 0 || seconds <= 0 {
		return 0
	}
	return int(math.Floor(fps * seconds))
}

// WriteJPEG encodes img to path, creating parent directories as needed.
func WriteJPEG(path string, img image.Image, opts JPEGOptions) error {
	if img == nil {
		return errors.New("no frame to write")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	img = scaleToWidth(img, opts.MaxWidth)

	quality := opts.Quality
	if quality <= 0 {
		quality = jpeg.DefaultQuality
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}

	if err := jpeg.Encode(file, img, &jpeg.Options{Quality: quality}); err != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return fmt.Errorf("failed to encode frame: %w", err)
	}

	return file.Close()
}

func scaleToWidth(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}

	height := max(1, b.Dy()*maxWidth/b.Dx())
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, height))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// CaptureAt grabs the frame at seconds from a seekable source and writes it
// to path. The decoding handle is released on every path.
func CaptureAt(
	ctx context.Context,
	opener Opener,
	src string,
	seconds float64,
	path string,
	opts JPEGOptions,
) error {
	source, err := opener.Open(ctx, src)
	if err != nil {
		return err
	}
	defer source.Close()

	fps := source.FrameRate()
	if fps <= 0 {
		return fmt.Errorf("%w: %s reports no frame rate", ErrSourceUnavailable, src)
	}

	frame := FrameIndex(fps, seconds)
	if err := source.Seek(frame); err != nil {
		return fmt.Errorf("failed to seek to frame %d: %w", frame, err)
	}

	img, err := source.Read(ctx)
	if err != nil {
		return fmt.Errorf("failed to read frame %d (%.3fs): %w", frame, seconds, err)
	}

	return WriteJPEG(path, img, opts)
}
