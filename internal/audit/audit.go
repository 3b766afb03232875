// Package audit keeps the plain-text attendance log: one row per
// verification attempt, the record the attendance sheet is built from.
package audit

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/saturnino-fabrica-de-software/presenca/internal/domain"
)

// Record is one attendance log entry.
type Record struct {
	Timestamp  string `json:"timestamp"`
	RollNumber string `json:"roll_number"`
	Status     string `json:"status"`
	Distance   string `json:"distance,omitempty"`
}

// Recorder is what the HTTP layer consumes.
type Recorder interface {
	Record(ctx context.Context, outcome domain.Outcome) error
	List(ctx context.Context) ([]Record, error)
	Clear(ctx context.Context) error
}

var header = []string{"timestamp", "roll_number", "status", "distance"}

const timestampLayout = "2006-01-02 15:04:05"

// CSVLog appends attendance records to a CSV file. Appends are
// serialized by a mutex; a row is flushed before Record returns.
type CSVLog struct {
	mu     sync.Mutex
	path   string
	logger *slog.Logger
}

// OpenCSV opens the attendance log, writing the header row if the file
// does not exist yet.
func OpenCSV(path string, logger *slog.Logger) (*CSVLog, error) {
	l := &CSVLog{
		path:   path,
		logger: logger.With("component", "audit"),
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := l.writeHeader(); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("open attendance log: %w", err)
	}

	return l, nil
}

// Record appends one attendance row and emits a structured audit event.
func (l *CSVLog) Record(ctx context.Context, outcome domain.Outcome) error {
	distance := ""
	if outcome.Distance != nil {
		distance = strconv.FormatFloat(*outcome.Distance, 'f', 4, 64)
	}
	now := time.Now()

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open attendance log: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	w := csv.NewWriter(f)
	if err := w.Write([]string{
		now.Format(timestampLayout),
		outcome.RollNumber,
		string(outcome.Status),
		distance,
	}); err != nil {
		return fmt.Errorf("write attendance record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush attendance record: %w", err)
	}

	l.logger.InfoContext(ctx, "attendance_event",
		slog.String("event_id", uuid.New().String()),
		slog.String("roll_no", outcome.RollNumber),
		slog.String("status", string(outcome.Status)),
		slog.Bool("ok", outcome.OK),
		slog.Bool("enrolled", outcome.Enrolled),
	)

	return nil
}

// List returns every attendance record, oldest first.
func (l *CSVLog) List(ctx context.Context) ([]Record, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.Open(l.path)
	if os.IsNotExist(err) {
		return []Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open attendance log: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(header)
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read attendance log: %w", err)
	}

	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		records = append(records, Record{
			Timestamp:  row[0],
			RollNumber: row[1],
			Status:     row[2],
			Distance:   row[3],
		})
	}

	return records, nil
}

// Clear truncates the log back to just the header row.
func (l *CSVLog) Clear(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.writeHeader()
}

func (l *CSVLog) writeHeader() error {
	f, err := os.Create(l.path)
	if err != nil {
		return fmt.Errorf("create attendance log: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write attendance log header: %w", err)
	}
	w.Flush()
	return w.Error()
}

var _ Recorder = (*CSVLog)(nil)
