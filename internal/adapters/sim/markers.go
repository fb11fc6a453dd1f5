package sim

import (
	"context"
	"sync"

	"github.com/bft-labs/driveseq/internal/domain"
)

// MarkerRecorder is a ports.MarkerSink that keeps every delivered copy.
type MarkerRecorder struct {
	mu      sync.Mutex
	markers []domain.Marker
	drop    func(i int) bool
}

// NewMarkerRecorder creates an empty recorder.
func NewMarkerRecorder() *MarkerRecorder {
	return &MarkerRecorder{}
}

// DropWhen makes the recorder lose the copies for which drop returns true.
func (r *MarkerRecorder) DropWhen(drop func(i int) bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.drop = drop
}

// Deliver implements ports.MarkerSink.
func (r *MarkerRecorder) Deliver(ctx context.Context, marker domain.Marker, policy domain.DeliveryPolicy) (int, error) {
	return policy.Run(ctx, func(i int) (bool, error) {
		r.mu.Lock()
		defer r.mu.Unlock()
		if r.drop != nil && r.drop(i) {
			return false, nil
		}
		r.markers = append(r.markers, marker)
		return true, nil
	})
}

// Markers returns every recorded copy.
func (r *MarkerRecorder) Markers() []domain.Marker {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Marker(nil), r.markers...)
}
