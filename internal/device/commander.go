// Package device talks to the smart plug. The controller only sees the
// Commander interface; the HTTP and MQTT transports plus the retry
// wrapper live behind it so the scheduling logic stays free of network
// fallibility.
package device

import (
	"context"
	"errors"
	"fmt"

	"supercycler"
)

// Commander issues a relay phase command to the plug.
type Commander interface {
	Send(ctx context.Context, phase supercycler.Phase) error
}

// Reason classifies a failed command.
type Reason string

const (
	ReasonUnreachable        Reason = "UNREACHABLE"
	ReasonTimeout            Reason = "TIMEOUT"
	ReasonUnexpectedResponse Reason = "UNEXPECTED_RESPONSE"
)

// CommandError is a failed device command with its classified reason.
type CommandError struct {
	Reason Reason
	Err    error
}

func (e *CommandError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("device command failed: %s", e.Reason)
	}
	return fmt.Sprintf("device command failed (%s): %v", e.Reason, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// ReasonOf extracts the failure reason, defaulting to UNREACHABLE for
// unclassified errors.
func ReasonOf(err error) Reason {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.Reason
	}
	return ReasonUnreachable
}
