package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"gagyebu/internal/core"
	"gagyebu/internal/records"
)

func TestRetryPolicyBackoff(t *testing.T) {
	p := DefaultRetryPolicy()
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 100 * time.Millisecond},
		{1, 200 * time.Millisecond},
		{3, 800 * time.Millisecond},
		{5, 2 * time.Second},
		{20, 2 * time.Second},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt_%d", tt.attempt), func(t *testing.T) {
			assert.Equal(t, tt.want, p.backoff(tt.attempt))
		})
	}
}

func TestRetryPolicyDo(t *testing.T) {
	errConstraint := errors.New("constraint failed")
	tests := []struct {
		name      string
		errs      []error
		wantCalls int
		wantErr   error
	}{
		{"success", nil, 1, nil},
		{"transient then success", []error{records.ErrTransient, records.ErrTransient}, 3, nil},
		{"transient exhausts attempts", []error{records.ErrTransient, records.ErrTransient, records.ErrTransient, records.ErrTransient}, 3, records.ErrTransient},
		{"wrapped connection reset", []error{errors.New("read tcp: connection reset by peer")}, 2, nil},
		{"not found is final", []error{fmt.Errorf("x: %w", core.ErrNotFound)}, 1, core.ErrNotFound},
		{"validation is final", []error{core.Invalid("name", core.ErrEmptyName)}, 1, core.ErrEmptyName},
		{"permanent is final", []error{errConstraint}, 1, errConstraint},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := fastRetry().Do(context.Background(), func(context.Context) error {
				calls++
				if calls <= len(tt.errs) {
					return tt.errs[calls-1]
				}
				return nil
			})
			assert.Equal(t, tt.wantCalls, calls)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRetryPolicyStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := RetryPolicy{MaxAttempts: 5, BaseDelay: time.Hour}

	calls := 0
	err := p.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return records.ErrTransient
	})
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, err, records.ErrTransient)
}

func TestRetryPolicyZeroValueRunsOnce(t *testing.T) {
	calls := 0
	err := RetryPolicy{}.Do(context.Background(), func(context.Context) error {
		calls++
		return records.ErrTransient
	})
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, records.ErrTransient)
}
