package scheduler

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Joshua-96/MVG-tracker/internal/feed"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		class   FailureClass
		backoff time.Duration
		flush   bool
	}{
		{"timeout", feed.ErrBatchTimeout, FailureTimeout, 6 * time.Minute, true},
		{"wrapped timeout", fmt.Errorf("poll: %w", feed.ErrBatchTimeout), FailureTimeout, 6 * time.Minute, true},
		{"transport", feed.ErrBatchTransport, FailureTransport, time.Second, true},
		{"empty payload", ErrPayloadEmpty, FailurePayload, 30 * time.Second, false},
		{"unknown", errors.New("connection reset"), FailureConnection, 2 * time.Minute, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := Classify(tc.err)
			assert.Equal(t, tc.class, f.Class)
			assert.Equal(t, tc.backoff, f.Backoff)
			assert.Equal(t, tc.flush, f.FlushBuffer)
		})
	}
}
