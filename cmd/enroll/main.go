// Command enroll registers a face reference from a video file without
// going through the HTTP layer. It is the independent registration step
// for deployments that keep auto-enrollment switched off.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/saturnino-fabrica-de-software/presenca/internal/config"
	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
	"github.com/saturnino-fabrica-de-software/presenca/internal/locator"
	"github.com/saturnino-fabrica-de-software/presenca/internal/locator/deepface"
	"github.com/saturnino-fabrica-de-software/presenca/internal/locator/mock"
	"github.com/saturnino-fabrica-de-software/presenca/internal/selector"
	"github.com/saturnino-fabrica-de-software/presenca/internal/store"
	"github.com/saturnino-fabrica-de-software/presenca/internal/store/jsonfile"
	"github.com/saturnino-fabrica-de-software/presenca/internal/store/postgres"
	"github.com/saturnino-fabrica-de-software/presenca/internal/video"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	rollNumber := flag.String("roll", "", "Nine-digit roll number to enroll")
	videoPath := flag.String("video", "", "Path to a video of the person's face")
	flag.Parse()

	if *rollNumber == "" || *videoPath == "" {
		flag.Usage()
		return errors.New("both -roll and -video are required")
	}
	if !domain.ValidRollNumber(*rollNumber) {
		return fmt.Errorf("invalid roll number %q: must be exactly nine digits", *rollNumber)
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := config.NewLogger(cfg.Environment)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.VerifyTimeout)
	defer cancel()

	refs, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		_ = refs.Close()
	}()

	loc, err := buildLocator(cfg)
	if err != nil {
		return err
	}

	opener := video.NewFFmpegOpener(cfg.FFmpegPath, cfg.FFprobePath)
	src, err := opener.Open(*videoPath)
	if err != nil {
		return fmt.Errorf("open video: %w", err)
	}
	defer func() {
		_ = src.Close()
	}()

	sampler := video.NewSampler(src, cfg.MaxSamples, cfg.FrameStride)
	cand, found, err := selector.BestCandidate(ctx, sampler, loc, selector.Mode(cfg.Selection))
	if err != nil {
		return fmt.Errorf("extract face: %w", err)
	}
	if !found {
		return errors.New("no face detected in any sampled frame")
	}

	if err := refs.Insert(ctx, *rollNumber, cand.Embedding); err != nil {
		if errors.Is(err, domain.ErrAlreadyEnrolled) {
			return fmt.Errorf("roll number %s is already enrolled", *rollNumber)
		}
		return fmt.Errorf("store reference: %w", err)
	}

	fmt.Printf("Enrolled %s (face area %d px)\n", *rollNumber, cand.Quality)
	return nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.ReferenceStore, error) {
	switch cfg.StoreBackend {
	case "postgres":
		refs, err := postgres.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("open reference store: %w", err)
		}
		return refs, nil
	default:
		refs, err := jsonfile.Open(cfg.StorePath, logger)
		if err != nil {
			return nil, fmt.Errorf("open reference store: %w", err)
		}
		return refs, nil
	}
}

func buildLocator(cfg *config.Config) (locator.Locator, error) {
	switch cfg.LocatorType {
	case "mock":
		return mock.New(), nil
	case "deepface":
		dfCfg := deepface.DefaultConfig()
		dfCfg.BaseURL = cfg.DeepFaceURL
		return deepface.New(deepface.NewClient(dfCfg)), nil
	default:
		return nil, fmt.Errorf("unknown locator type %q", cfg.LocatorType)
	}
}
