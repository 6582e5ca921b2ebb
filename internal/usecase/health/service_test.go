package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

func ok() PingerFunc { return func(context.Context) error { return nil } }

func failing() PingerFunc {
	return func(context.Context) error { return errors.New("conn refused") }
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name   string
		engine Pinger
		store  Pinger
		status Status
		checks map[string]CheckResult
	}{
		{"all healthy", ok(), ok(), Healthy, map[string]CheckResult{"engine": CheckOK, "store": CheckOK}},
		{"no store", ok(), nil, Healthy, map[string]CheckResult{"engine": CheckOK}},
		{"store down", ok(), failing(), Degraded, map[string]CheckResult{"engine": CheckOK, "store": CheckError}},
		{"engine down", failing(), ok(), Unhealthy, map[string]CheckResult{"engine": CheckError, "store": CheckOK}},
		{"both down", failing(), failing(), Unhealthy, map[string]CheckResult{"engine": CheckError, "store": CheckError}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := New(tt.engine, tt.store).Check(context.Background())
			if r.Status != tt.status {
				t.Errorf("expected %q, got %q", tt.status, r.Status)
			}
			if len(r.Checks) != len(tt.checks) {
				t.Fatalf("checks: %v", r.Checks)
			}
			for k, v := range tt.checks {
				if r.Checks[k] != v {
					t.Errorf("%s: expected %q, got %q", k, v, r.Checks[k])
				}
			}
		})
	}
}

func TestCheck_SlowComponentTimesOut(t *testing.T) {
	slow := PingerFunc(func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
			return nil
		}
	})

	start := time.Now()
	r := New(ok(), slow).WithTimeout(50 * time.Millisecond).Check(context.Background())
	if time.Since(start) > 2*time.Second {
		t.Fatal("check did not honor timeout")
	}
	if r.Status != Degraded || r.Checks["store"] != CheckError {
		t.Errorf("unexpected report: %+v", r)
	}
}
