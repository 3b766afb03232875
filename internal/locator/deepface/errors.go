package deepface

import (
	"errors"
	"fmt"
)

var (
	ErrUnavailable     = errors.New("deepface service unavailable")
	ErrInvalidResponse = errors.New("invalid response from deepface")
)

// statusError carries the HTTP status so the retry loop can tell client
// errors from server errors.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("deepface returned status %d: %s", e.status, e.body)
}

func isClientError(err error) bool {
	var se *statusError
	return errors.As(err, &se) && se.status >= 400 && se.status < 500
}
