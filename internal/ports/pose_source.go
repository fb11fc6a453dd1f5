package ports

import (
	"context"

	"github.com/bft-labs/driveseq/internal/domain"
)

// PoseHandler receives pose feedback. It is called sequentially, in the
// order messages arrive.
type PoseHandler func(update domain.PoseUpdate)

// PoseSource delivers pose feedback from the vehicle.
type PoseSource interface {
	// Subscribe registers handle and starts delivery. Delivery stops when
	// ctx is cancelled.
	Subscribe(ctx context.Context, handle PoseHandler) error
}
