package handler

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/presenca/internal/audit"
	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// allowedExtensions for uploaded clips.
var allowedExtensions = map[string]bool{
	".webm": true,
	".mp4":  true,
	".avi":  true,
	".mov":  true,
}

// Verifier is the engine operation this handler fronts.
type Verifier interface {
	VerifyOrEnroll(ctx context.Context, rollNumber, videoPath string) domain.Outcome
}

// AttendanceHandler accepts a roll number plus a video upload, runs the
// verification engine over it and logs the attempt. Video lifecycle
// (temp file, cleanup) lives here, outside the engine.
type AttendanceHandler struct {
	verifier  Verifier
	recorder  audit.Recorder
	uploadDir string
	timeout   time.Duration
	logger    *slog.Logger
}

func NewAttendanceHandler(verifier Verifier, recorder audit.Recorder, uploadDir string, timeout time.Duration, logger *slog.Logger) *AttendanceHandler {
	return &AttendanceHandler{
		verifier:  verifier,
		recorder:  recorder,
		uploadDir: uploadDir,
		timeout:   timeout,
		logger:    logger,
	}
}

// MarkResponse is the attendance result returned to the frontend.
type MarkResponse struct {
	domain.Outcome
	Timestamp string `json:"timestamp"`
}

// ListResponse wraps the attendance records.
type ListResponse struct {
	OK      bool           `json:"ok"`
	Records []audit.Record `json:"records"`
	Count   int            `json:"count"`
}

// Mark POST /api/attendance - verify a face from a video and log the result
func (h *AttendanceHandler) Mark(c *fiber.Ctx) error {
	rollNumber := strings.TrimSpace(c.FormValue("roll_no"))
	if rollNumber == "" {
		// Older frontends post the scanned value as "barcode".
		rollNumber = strings.TrimSpace(c.FormValue("barcode"))
	}
	if rollNumber == "" {
		return domain.ErrValidationFailed.WithError(errors.New("roll_no is required"))
	}

	fileHeader, err := c.FormFile("video")
	if err != nil {
		return domain.ErrValidationFailed.WithError(errors.New("video file is required"))
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	if !allowedExtensions[ext] {
		return domain.ErrInvalidVideo
	}

	// The upload gets a generated name: the roll number is client input
	// and must never reach the filesystem unchecked.
	videoPath := filepath.Join(h.uploadDir, uuid.New().String()+ext)
	if err := c.SaveFile(fileHeader, videoPath); err != nil {
		return domain.ErrInternal.WithError(err)
	}
	defer func() {
		if err := os.Remove(videoPath); err != nil {
			h.logger.Warn("could not remove uploaded video",
				slog.String("path", videoPath),
				slog.Any("error", err),
			)
		}
	}()

	ctx, cancel := context.WithTimeout(c.Context(), h.timeout)
	defer cancel()

	outcome := h.verifier.VerifyOrEnroll(ctx, rollNumber, videoPath)

	// Logging the attempt must not mask the outcome.
	if err := h.recorder.Record(c.Context(), outcome); err != nil {
		h.logger.Warn("could not record attendance",
			slog.String("roll_no", outcome.RollNumber),
			slog.Any("error", err),
		)
	}

	return c.JSON(MarkResponse{
		Outcome:   outcome,
		Timestamp: time.Now().Format("2006-01-02 15:04:05"),
	})
}

// List GET /api/attendance - return all attendance records
func (h *AttendanceHandler) List(c *fiber.Ctx) error {
	records, err := h.recorder.List(c.Context())
	if err != nil {
		return domain.ErrInternal.WithError(err)
	}

	return c.JSON(ListResponse{
		OK:      true,
		Records: records,
		Count:   len(records),
	})
}

// Clear POST /api/attendance/clear - drop all attendance records
func (h *AttendanceHandler) Clear(c *fiber.Ctx) error {
	if err := h.recorder.Clear(c.Context()); err != nil {
		return domain.ErrInternal.WithError(err)
	}

	return c.JSON(fiber.Map{
		"ok":      true,
		"message": "All records cleared",
	})
}
