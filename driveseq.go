// Package driveseq executes queues of rotate and move commands on a wheeled
// vehicle using live pose feedback.
//
// Example usage:
//
//	desc, err := driveseq.LoadDescription("commands.json")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = driveseq.Run(ctx, executor.Config{}, desc,
//	    executor.WithPoseSource(odometry),
//	    executor.WithVelocitySink(drive),
//	    executor.WithMarkerSink(viewer),
//	)
//
// See package pkg/executor for the full embedding API.
package driveseq

import (
	"context"

	"github.com/bft-labs/driveseq/internal/adapters/fs"
	"github.com/bft-labs/driveseq/internal/description"
	"github.com/bft-labs/driveseq/pkg/executor"
)

// Description is an ordered command queue plus an optional contour.
type Description = executor.Description

// LoadDescription reads a JSON (.json) or YAML (.yaml, .yml) description.
// Malformed documents are rejected before anything is actuated.
func LoadDescription(path string) (Description, error) {
	return fs.LoadDescription(path)
}

// ParseDescription decodes a description; format is "json" or "yaml".
func ParseDescription(data []byte, format string) (Description, error) {
	return description.Parse(data, description.Format(format))
}

// Run executes desc and blocks until all commands ran, one failed, or ctx
// is cancelled.
func Run(ctx context.Context, cfg executor.Config, desc Description, opts ...executor.Option) error {
	ex, err := executor.New(cfg, desc, opts...)
	if err != nil {
		return err
	}
	return ex.Run(ctx)
}
