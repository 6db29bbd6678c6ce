package scheduler

import (
	"errors"
	"time"

	"github.com/Joshua-96/MVG-tracker/internal/feed"
)

// ErrPayloadEmpty marks a cycle in which no station delivered any
// departures at all.
var ErrPayloadEmpty = errors.New("scheduler: empty payload for whole cycle")

// FailureClass names a recoverable failure category of the poll loop.
type FailureClass string

const (
	FailureTransport  FailureClass = "BatchTransportError"
	FailureTimeout    FailureClass = "ProtocolTimeout"
	FailurePayload    FailureClass = "PayloadEmptyError"
	FailureConnection FailureClass = "ConnectionError"
)

// Failure carries the recovery policy for a classified error: how long to
// back off before resuming polling, and whether the buffer should be
// flushed (best effort) first.
type Failure struct {
	Class       FailureClass
	Backoff     time.Duration
	FlushBuffer bool
}

// Classify maps an error from a poll cycle onto its recovery policy. No
// class terminates the process; the loop resumes polling after the
// backoff.
func Classify(err error) Failure {
	switch {
	case errors.Is(err, feed.ErrBatchTimeout):
		return Failure{Class: FailureTimeout, Backoff: 6 * time.Minute, FlushBuffer: true}
	case errors.Is(err, feed.ErrBatchTransport):
		return Failure{Class: FailureTransport, Backoff: time.Second, FlushBuffer: true}
	case errors.Is(err, ErrPayloadEmpty):
		return Failure{Class: FailurePayload, Backoff: 30 * time.Second, FlushBuffer: false}
	default:
		return Failure{Class: FailureConnection, Backoff: 2 * time.Minute, FlushBuffer: true}
	}
}
