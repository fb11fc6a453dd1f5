package ports

import (
	"context"

	"github.com/bft-labs/driveseq/internal/domain"
)

// VelocitySink accepts velocity commands for the drive base.
// A zero command is the stop signal.
type VelocitySink interface {
	Publish(ctx context.Context, cmd domain.VelocityCommand) error
}

// MarkerSink publishes visualization records over a lossy channel.
//
// Deliver sends marker policy.Copies times, policy.Interval apart, with no
// acknowledgment. A failed individual send counts as a lost copy and is not
// an error; Deliver returns the number of copies handed to the transport and
// an error only when ctx ends before all copies were attempted.
type MarkerSink interface {
	Deliver(ctx context.Context, marker domain.Marker, policy domain.DeliveryPolicy) (int, error)
}

// ReportRepository persists run reports.
type ReportRepository interface {
	// Save persists the report atomically.
	Save(ctx context.Context, report domain.RunReport) error
}
