// Package video reads frames out of an uploaded clip and yields a
// bounded, evenly spaced subset of them for analysis.
package video

import (
	"context"
	"image"
	"io"
)

// Source decodes sequential frames from one video. Next returns io.EOF
// when the video is exhausted. Sources are not restartable; Close must
// be called on every exit path to release the underlying decoder.
type Source interface {
	Next() (image.Image, error)
	Close() error
}

// Opener opens a video file for sequential decoding. An unreadable or
// missing file fails here, before any frame is decoded.
type Opener interface {
	Open(path string) (Source, error)
}

// Sampler yields every stride-th decoded frame, stopping once
// maxSamples frames have been yielded or the source runs out. It is a
// lazy, one-shot iterator: frames are decoded only as requested.
type Sampler struct {
	src        Source
	maxSamples int
	stride     int
	decoded    int
	yielded    int
}

// NewSampler wraps src. maxSamples caps the frames actually analyzed;
// stride skips frames for throughput (stride 2 = every other frame).
func NewSampler(src Source, maxSamples, stride int) *Sampler {
	if stride < 1 {
		stride = 1
	}
	if maxSamples < 1 {
		maxSamples = 1
	}
	return &Sampler{src: src, maxSamples: maxSamples, stride: stride}
}

// Next returns the next sampled frame, io.EOF when sampling is done, or
// the context error when the caller's deadline has passed.
func (s *Sampler) Next(ctx context.Context) (image.Image, error) {
	for {
		if s.yielded >= s.maxSamples {
			return nil, io.EOF
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		frame, err := s.src.Next()
		if err != nil {
			return nil, err
		}

		s.decoded++
		if s.decoded%s.stride != 0 {
			continue
		}

		s.yielded++
		return frame, nil
	}
}
