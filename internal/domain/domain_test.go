package domain

import (
	"context"
	"errors"
	"testing"
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestContour_Closed(t *testing.T) {
	tests := []struct {
		name    string
		points  []r3.Vec
		wantLen int
		wantErr error
	}{
		{"empty", nil, 0, ErrEmptyContour},
		{"single point stays open", []r3.Vec{{X: 1}}, 1, nil},
		{"square closes", []r3.Vec{{}, {X: 1}, {X: 1, Y: 1}, {Y: 1}}, 5, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Contour{Points: tt.points}
			got, err := c.Closed()
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Closed() error = %v, want %v", err, tt.wantErr)
			}
			if len(got) != tt.wantLen {
				t.Fatalf("len = %d, want %d", len(got), tt.wantLen)
			}
			if tt.wantLen > 1 && got[len(got)-1] != tt.points[0] {
				t.Errorf("last point = %v, want first point %v", got[len(got)-1], tt.points[0])
			}
			if len(c.Points) != len(tt.points) {
				t.Errorf("Closed modified the receiver")
			}
		})
	}
}

func TestCommandKind_Known(t *testing.T) {
	if !KindRotate.Known() || !KindMove.Known() {
		t.Error("rotate and move must be known")
	}
	if CommandKind("spin").Known() {
		t.Error("spin must not be known")
	}
}

func TestVelocityCommand_IsStop(t *testing.T) {
	if !Stop().IsStop() {
		t.Error("Stop() is not a stop command")
	}
	if (VelocityCommand{AngularZ: 0.4}).IsStop() {
		t.Error("rotating command reported as stop")
	}
}

func TestDeliveryPolicy_Run(t *testing.T) {
	errBroken := errors.New("broken")

	tests := []struct {
		name     string
		policy   DeliveryPolicy
		send     func(i int) (bool, error)
		wantSent int
		wantErr  error
		wantCall int
	}{
		{
			name:     "all delivered",
			policy:   DeliveryPolicy{Copies: 5},
			send:     func(int) (bool, error) { return true, nil },
			wantSent: 5,
			wantCall: 5,
		},
		{
			name:     "lost copies are counted not retried",
			policy:   DeliveryPolicy{Copies: 6},
			send:     func(i int) (bool, error) { return i%2 == 0, nil },
			wantSent: 3,
			wantCall: 6,
		},
		{
			name:   "send error stops delivery",
			policy: DeliveryPolicy{Copies: 4},
			send: func(i int) (bool, error) {
				if i == 2 {
					return false, errBroken
				}
				return true, nil
			},
			wantSent: 2,
			wantErr:  errBroken,
			wantCall: 3,
		},
		{
			name:     "no copies",
			policy:   DeliveryPolicy{},
			send:     func(int) (bool, error) { return true, nil },
			wantSent: 0,
			wantCall: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			sent, err := tt.policy.Run(context.Background(), func(i int) (bool, error) {
				calls++
				return tt.send(i)
			})
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Run() error = %v, want %v", err, tt.wantErr)
			}
			if sent != tt.wantSent {
				t.Errorf("Run() sent = %d, want %d", sent, tt.wantSent)
			}
			if calls != tt.wantCall {
				t.Errorf("send called %d times, want %d", calls, tt.wantCall)
			}
		})
	}
}

func TestDeliveryPolicy_RunStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	policy := DeliveryPolicy{Copies: 10, Interval: time.Hour}

	sent, err := policy.Run(ctx, func(int) (bool, error) {
		cancel()
		return true, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if sent != 1 {
		t.Errorf("Run() sent = %d, want 1", sent)
	}
}
