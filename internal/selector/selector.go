// Package selector picks the single best facial representation out of
// a sampled video.
package selector

import (
	"context"
	"errors"
	"io"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/locator"
	"github.com/saturnino-fabrica-de-software/presenca/internal/video"
)

// Mode selects the candidate strategy.
type Mode string

const (
	// ModeLargestFace scans every sampled frame and keeps the face with
	// the largest bounding box. The largest face in a short clip is a
	// reliable proxy for a close, front-facing, well-lit shot.
	ModeLargestFace Mode = "largest"

	// ModeFirstFace stops at the first face found in any frame.
	ModeFirstFace Mode = "first"
)

// Candidate is the embedding extracted from one video, with its quality
// score (bounding-box area in pixels). It lives only for the duration
// of one verification call.
type Candidate struct {
	Embedding domain.Embedding
	Quality   int
}

// BestCandidate runs the locator over the sampler's frames and reduces
// the detections to a single candidate in one pass, without buffering
// frames or detections. found is false when no face was detected in any
// sampled frame. A tie on area keeps the first-seen face, so the result
// is deterministic given frame order.
func BestCandidate(ctx context.Context, sampler *video.Sampler, loc locator.Locator, mode Mode) (Candidate, bool, error) {
	var best Candidate
	found := false

	for {
		frame, err := sampler.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return Candidate{}, false, err
		}

		detections, err := loc.Locate(ctx, frame)
		if err != nil {
			return Candidate{}, false, err
		}

		for _, d := range detections {
			area := d.Box.Area()
			if !found || area > best.Quality {
				best = Candidate{Embedding: d.Embedding, Quality: area}
				found = true
			}
		}

		if found && mode == ModeFirstFace {
			break
		}
	}

	if !found {
		return Candidate{}, false, nil
	}
	return best, true, nil
}
