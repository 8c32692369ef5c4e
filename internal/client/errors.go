package client

import (
	"errors"
	"fmt"
)

// ErrNoFile is returned when a flow is triggered without a selected image.
// No request is sent in that case.
var ErrNoFile = errors.New("please select an image")

// StatusError reports a response that the caller's policy treats as a failure.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("request failed with status %d: %s", e.StatusCode, e.Message)
}
