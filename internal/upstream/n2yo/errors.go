package n2yo

import (
	"fmt"
)

// Kind tags the way an upstream call failed.
type Kind int

const (
	// KindTransport: no usable response (dial, timeout, canceled, rate limiter).
	KindTransport Kind = iota + 1
	// KindStatus: the provider answered with a non-2xx status.
	KindStatus
	// KindShape: the body is not JSON or lacks info/passes.
	KindShape
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindShape:
		return "shape"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind       Kind
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("n2yo: status %d: %s", e.StatusCode, e.Body)
	default:
		if e.Err == nil {
			return "n2yo: " + e.Kind.String() + " failure"
		}
		return fmt.Sprintf("n2yo: %s: %v", e.Kind, e.Err)
	}
}

func (e *Error) Unwrap() error { return e.Err }
