package video

import (
	"context"
	"errors"
	"image"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	frames []image.Image
	pos    int
	closed bool
}

func (s *stubSource) Next() (image.Image, error) {
	if s.pos >= len(s.frames) {
		return nil, io.EOF
	}
	f := s.frames[s.pos]
	s.pos++
	return f, nil
}

func (s *stubSource) Close() error {
	s.closed = true
	return nil
}

func makeFrames(n int) []image.Image {
	frames := make([]image.Image, n)
	for i := range frames {
		// Distinct widths make individual frames recognizable.
		frames[i] = image.NewRGBA(image.Rect(0, 0, 100+i, 100))
	}
	return frames
}

func TestSamplerYieldsEveryStrideth(t *testing.T) {
	src := &stubSource{frames: makeFrames(10)}
	sampler := NewSampler(src, 20, 2)

	var widths []int
	for {
		frame, err := sampler.Next(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		widths = append(widths, frame.Bounds().Dx())
	}

	// Every second decoded frame: #2, #4, #6, #8, #10.
	assert.Equal(t, []int{101, 103, 105, 107, 109}, widths)
}

func TestSamplerStopsAtMaxSamples(t *testing.T) {
	src := &stubSource{frames: makeFrames(50)}
	sampler := NewSampler(src, 3, 1)

	count := 0
	for {
		_, err := sampler.Next(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		count++
	}

	assert.Equal(t, 3, count)
	// Only the frames needed were decoded.
	assert.Equal(t, 3, src.pos)
}

func TestSamplerExhaustsShortSource(t *testing.T) {
	src := &stubSource{frames: makeFrames(4)}
	sampler := NewSampler(src, 20, 2)

	count := 0
	for {
		_, err := sampler.Next(context.Background())
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		count++
	}

	assert.Equal(t, 2, count)
}

func TestSamplerHonorsContext(t *testing.T) {
	src := &stubSource{frames: makeFrames(10)}
	sampler := NewSampler(src, 20, 1)

	ctx, cancel := context.WithCancel(context.Background())

	_, err := sampler.Next(ctx)
	require.NoError(t, err)

	cancel()
	_, err = sampler.Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSamplerIsNotRestartable(t *testing.T) {
	src := &stubSource{frames: makeFrames(2)}
	sampler := NewSampler(src, 10, 1)

	for {
		if _, err := sampler.Next(context.Background()); err != nil {
			break
		}
	}

	_, err := sampler.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestSamplerNormalizesDegenerateParameters(t *testing.T) {
	src := &stubSource{frames: makeFrames(5)}
	sampler := NewSampler(src, 0, 0)

	_, err := sampler.Next(context.Background())
	require.NoError(t, err)

	_, err = sampler.Next(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestRGBFrameAt(t *testing.T) {
	f := &rgbFrame{
		pix:    []byte{255, 0, 0, 0, 255, 0, 0, 0, 255, 10, 20, 30},
		width:  2,
		height: 2,
	}

	assert.Equal(t, image.Rect(0, 0, 2, 2), f.Bounds())

	r, g, b, a := f.At(0, 0).RGBA()
	assert.Equal(t, uint32(0xffff), r)
	assert.Zero(t, g)
	assert.Zero(t, b)
	assert.Equal(t, uint32(0xffff), a)

	r, g, b, _ = f.At(1, 1).RGBA()
	assert.Equal(t, uint32(30<<8|30), b)
	assert.Equal(t, uint32(20<<8|20), g)
	assert.Equal(t, uint32(10<<8|10), r)

	// Out of bounds reads are transparent, not a panic.
	_, _, _, a = f.At(5, 5).RGBA()
	assert.Zero(t, a)
}
