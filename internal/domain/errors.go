package domain

import (
	"fmt"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	ErrInvalidRollNumber = &AppError{
		Code:       "INVALID_ROLL_NUMBER",
		Message:    "Roll number must be exactly nine digits",
		StatusCode: 422,
	}

	ErrNotEnrolled = &AppError{
		Code:       "NOT_ENROLLED",
		Message:    "No face reference stored for this roll number",
		StatusCode: 404,
	}

	ErrAlreadyEnrolled = &AppError{
		Code:       "ALREADY_ENROLLED",
		Message:    "A face reference already exists for this roll number",
		StatusCode: 409,
	}

	ErrNoFaceDetected = &AppError{
		Code:       "NO_FACE_DETECTED",
		Message:    "No face detected in any sampled frame",
		StatusCode: 422,
	}

	ErrInvalidVideo = &AppError{
		Code:       "INVALID_VIDEO",
		Message:    "Video file is missing, unreadable or not a supported format",
		StatusCode: 422,
	}

	ErrStoreUnavailable = &AppError{
		Code:       "STORE_UNAVAILABLE",
		Message:    "Reference store could not be read or written",
		StatusCode: 503,
	}
)
