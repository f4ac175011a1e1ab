package rabbitmq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffDelay(t *testing.T) {
	tests := []struct {
		name    string
		base    time.Duration
		mult    float64
		attempt int
		want    time.Duration
	}{
		{name: "first retry uses base delay", base: 100 * time.Millisecond, mult: 2.0, attempt: 0, want: 100 * time.Millisecond},
		{name: "doubles per attempt", base: 100 * time.Millisecond, mult: 2.0, attempt: 3, want: 800 * time.Millisecond},
		{name: "configured multiplier is honored", base: 100 * time.Millisecond, mult: 1.5, attempt: 2, want: 225 * time.Millisecond},
		{name: "gentle multiplier grows slower than doubling", base: 1 * time.Second, mult: 1.2, attempt: 1, want: 1200 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, backoffDelay(tt.base, tt.mult, tt.attempt))
		})
	}
}
