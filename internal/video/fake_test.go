package video

import (
	"context"
	"image"
	"image/color"
)

// in-memory Source yielding pre-built frames
type fakeSource struct {
	fps     float64
	frames  []image.Image
	pos     int
	seeks   []int
	closed  bool
	readErr error
}

func (s *fakeSource) FrameRate() float64 { return s.fps }

func (s *fakeSource) Seek(frame int) error {
	s.seeks = append(s.seeks, frame)
	s.pos = frame
	return nil
}

func (s *fakeSource) Read(ctx context.Context) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.readErr != nil {
		return nil, s.readErr
	}
	if s.pos >= len(s.frames) {
		return nil, ErrExhausted
	}
	img := s.frames[s.pos]
	s.pos++
	return img, nil
}

func (s *fakeSource) Close() error {
	s.closed = true
	return nil
}

type fakeOpener struct {
	source *fakeSource
	err    error
	opened []string
}

func (o *fakeOpener) Open(_ context.Context, src string) (Source, error) {
	o.opened = append(o.opened, src)
	if o.err != nil {
		return nil, o.err
	}
	return o.source, nil
}

// frame i is a solid colour derived from i so frames are distinguishable
func solidFrames(n, w, h int) []image.Image {
	frames := make([]image.Image, n)
	for i := range frames {
		img := image.NewRGBA(image.Rect(0, 0, w, h))
		c := color.RGBA{R: uint8(i * 7), G: uint8(255 - i*3), B: uint8(i * 13), A: 255}
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				img.Set(x, y, c)
			}
		}
		frames[i] = img
	}
	return frames
}
