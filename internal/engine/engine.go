// Package engine coordinates identifier validation, reference lookup,
// candidate extraction and the threshold decision for one attendance
// verification call.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/locator"
	"github.com/saturnino-fabrica-de-software/presenca/internal/selector"
	"github.com/saturnino-fabrica-de-software/presenca/internal/store"
	"github.com/saturnino-fabrica-de-software/presenca/internal/vector"
	"github.com/saturnino-fabrica-de-software/presenca/internal/video"
)

// Config are the decision inputs of the engine. None of them are
// hard-coded; they arrive from the environment.
type Config struct {
	// Threshold is the strict upper bound on distance for a match:
	// distance < Threshold is VALID, distance == Threshold is not.
	Threshold float64

	// MaxSamples caps the number of frames analyzed per video.
	MaxSamples int

	// Stride processes every Nth decoded frame.
	Stride int

	// AutoEnroll treats an unknown roll number's first detected face as
	// its trusted reference. With it off, unknown roll numbers are
	// rejected with NO_RECORD. First-contact trust is a deliberate,
	// configurable trade-off: the engine cannot tell a forged first
	// claim from a genuine one, so deployments that need identity
	// assurance should disable this and enroll through cmd/enroll.
	AutoEnroll bool

	// Selection picks the candidate strategy (largest face or first
	// face found).
	Selection selector.Mode
}

// Engine is the verification/enrollment state machine. All collaborators
// are injected; the engine owns no global state.
type Engine struct {
	store   store.ReferenceStore
	locator locator.Locator
	opener  video.Opener
	cfg     Config
	logger  *slog.Logger
}

func New(refs store.ReferenceStore, loc locator.Locator, opener video.Opener, cfg Config, logger *slog.Logger) *Engine {
	return &Engine{
		store:   refs,
		locator: loc,
		opener:  opener,
		cfg:     cfg,
		logger:  logger,
	}
}

// VerifyOrEnroll runs one verification call to a terminal outcome. It
// never returns an error and never panics through: every failure mode
// is normalized into a structured Outcome the caller can branch on.
func (e *Engine) VerifyOrEnroll(ctx context.Context, rollNumber, videoPath string) (out domain.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("panic during verification",
				slog.Any("panic", r),
				slog.String("roll_no", rollNumber),
			)
			out = domain.Failure(rollNumber, "internal error")
		}
	}()

	if !domain.ValidRollNumber(rollNumber) {
		return domain.InvalidFormat(rollNumber)
	}

	src, err := e.opener.Open(videoPath)
	if err != nil {
		return domain.Failure(rollNumber, fmt.Sprintf("video unavailable: %v", err))
	}
	defer func() {
		_ = src.Close()
	}()

	ref, err := e.store.Get(ctx, rollNumber)
	switch {
	case errors.Is(err, domain.ErrNotEnrolled):
		if !e.cfg.AutoEnroll {
			return domain.NoRecord(rollNumber)
		}
		return e.enroll(ctx, rollNumber, src)
	case err != nil:
		return e.failure(rollNumber, fmt.Errorf("load reference store: %w", err))
	}

	return e.verify(ctx, rollNumber, ref, src)
}

// enroll extracts the best candidate and makes it the stored reference.
func (e *Engine) enroll(ctx context.Context, rollNumber string, src video.Source) domain.Outcome {
	cand, found, err := e.bestCandidate(ctx, src)
	if err != nil {
		return e.failure(rollNumber, err)
	}
	if !found {
		return domain.NoFace(rollNumber)
	}

	if err := e.store.Insert(ctx, rollNumber, cand.Embedding); err != nil {
		if errors.Is(err, domain.ErrAlreadyEnrolled) {
			// A concurrent request enrolled this roll number first. The
			// reference now exists, so fall through to a comparison
			// against it instead of failing the call.
			ref, gerr := e.store.Get(ctx, rollNumber)
			if gerr != nil {
				return e.failure(rollNumber, fmt.Errorf("reload reference after enrollment race: %w", gerr))
			}
			return e.compare(rollNumber, ref, cand)
		}
		return e.failure(rollNumber, fmt.Errorf("persist enrollment: %w", err))
	}

	e.logger.Info("auto-enrolled new reference",
		slog.String("roll_no", rollNumber),
		slog.Int("quality", cand.Quality),
	)

	return domain.Enrolled(rollNumber)
}

// verify extracts the best candidate and compares it to the reference.
func (e *Engine) verify(ctx context.Context, rollNumber string, ref domain.Embedding, src video.Source) domain.Outcome {
	cand, found, err := e.bestCandidate(ctx, src)
	if err != nil {
		return e.failure(rollNumber, err)
	}
	if !found {
		return domain.NoFace(rollNumber)
	}

	return e.compare(rollNumber, ref, cand)
}

func (e *Engine) compare(rollNumber string, ref domain.Embedding, cand selector.Candidate) domain.Outcome {
	distance, err := vector.Euclidean(ref, cand.Embedding)
	if err != nil {
		return e.failure(rollNumber, err)
	}

	e.logger.Debug("face compared",
		slog.String("roll_no", rollNumber),
		slog.Float64("distance", distance),
		slog.Float64("threshold", e.cfg.Threshold),
	)

	if distance < e.cfg.Threshold {
		return domain.Valid(rollNumber, distance)
	}
	return domain.Mismatch(rollNumber, distance)
}

func (e *Engine) bestCandidate(ctx context.Context, src video.Source) (selector.Candidate, bool, error) {
	sampler := video.NewSampler(src, e.cfg.MaxSamples, e.cfg.Stride)
	return selector.BestCandidate(ctx, sampler, e.locator, e.cfg.Selection)
}

// failure logs the underlying error and produces the user-facing ERROR
// outcome. Deadline overruns get a stable message so callers can tell
// them apart from resource failures.
func (e *Engine) failure(rollNumber string, err error) domain.Outcome {
	e.logger.Error("verification failed",
		slog.String("roll_no", rollNumber),
		slog.Any("error", err),
	)

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domain.Failure(rollNumber, "verification deadline exceeded")
	}

	return domain.Failure(rollNumber, err.Error())
}
