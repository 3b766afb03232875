package domain

import "regexp"

// EmbeddingDim is the fixed length of a face embedding produced by the
// locator capability (dlib/face_recognition convention).
const EmbeddingDim = 128

// Embedding is a fixed-length face descriptor. Opaque to everything
// except the distance metric.
type Embedding []float64

// rollNumberPattern matches a student roll number: exactly nine digits.
var rollNumberPattern = regexp.MustCompile(`^[0-9]{9}$`)

// ValidRollNumber reports whether s is a well-formed roll number.
// Validation happens before any I/O.
func ValidRollNumber(s string) bool {
	return rollNumberPattern.MatchString(s)
}

// Status is the closed set of terminal outcomes of a verification call.
type Status string

const (
	StatusValid         Status = "VALID"
	StatusFaceMismatch  Status = "FACE_MISMATCH"
	StatusNoFace        Status = "NO_FACE"
	StatusNoRecord      Status = "NO_RECORD"
	StatusInvalidFormat Status = "INVALID_FORMAT"
	StatusError         Status = "ERROR"
)

// Outcome is the structured result of one verification/enrollment call.
// Optional fields are only set by the constructor of the status they
// belong to; callers never see a half-populated result.
type Outcome struct {
	OK         bool     `json:"ok"`
	Status     Status   `json:"status"`
	RollNumber string   `json:"roll_no"`
	Distance   *float64 `json:"distance,omitempty"`
	Enrolled   bool     `json:"enrolled"`
	Message    string   `json:"message,omitempty"`
}

// Valid returns a successful verification outcome with its distance.
func Valid(rollNumber string, distance float64) Outcome {
	return Outcome{
		OK:         true,
		Status:     StatusValid,
		RollNumber: rollNumber,
		Distance:   &distance,
	}
}

// Enrolled returns the outcome of a successful first-contact enrollment.
// Distance is 0.0 by convention: the candidate is its own reference.
func Enrolled(rollNumber string) Outcome {
	zero := 0.0
	return Outcome{
		OK:         true,
		Status:     StatusValid,
		RollNumber: rollNumber,
		Distance:   &zero,
		Enrolled:   true,
	}
}

// Mismatch returns the outcome for a face at or beyond the threshold.
func Mismatch(rollNumber string, distance float64) Outcome {
	return Outcome{
		Status:     StatusFaceMismatch,
		RollNumber: rollNumber,
		Distance:   &distance,
	}
}

// NoFace returns the outcome for a video with no detectable face.
func NoFace(rollNumber string) Outcome {
	return Outcome{Status: StatusNoFace, RollNumber: rollNumber}
}

// NoRecord returns the outcome for an unknown roll number when
// auto-enrollment is disabled.
func NoRecord(rollNumber string) Outcome {
	return Outcome{Status: StatusNoRecord, RollNumber: rollNumber}
}

// InvalidFormat returns the outcome for a malformed roll number.
func InvalidFormat(rollNumber string) Outcome {
	return Outcome{Status: StatusInvalidFormat, RollNumber: rollNumber}
}

// Failure returns an ERROR outcome carrying a message. Resource and
// internal failures are normalized through here; the caller never sees
// a raw error or a stack trace.
func Failure(rollNumber, message string) Outcome {
	return Outcome{
		Status:     StatusError,
		RollNumber: rollNumber,
		Message:    message,
	}
}
