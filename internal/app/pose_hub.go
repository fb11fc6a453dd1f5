package app

import (
	"context"
	"sync"

	"github.com/bft-labs/driveseq/internal/domain"
	"github.com/bft-labs/driveseq/internal/ports"
)

// PoseHub shares one upstream pose subscription among successive runs.
// A new subscriber is handed the last update straight away, so a run
// started between feedback messages does not wait for the next one.
type PoseHub struct {
	upstream ports.PoseSource

	// deliver serializes replays and fan-outs so every subscriber sees
	// updates in arrival order.
	deliver sync.Mutex

	mu       sync.Mutex
	started  bool
	last     domain.PoseUpdate
	haveLast bool
	subs     []subscription
}

type subscription struct {
	ctx    context.Context
	handle ports.PoseHandler
}

var _ ports.PoseSource = (*PoseHub)(nil)

// NewPoseHub wraps upstream. Call Start before subscribing.
func NewPoseHub(upstream ports.PoseSource) *PoseHub {
	return &PoseHub{upstream: upstream}
}

// Start subscribes to upstream for the lifetime of ctx.
func (h *PoseHub) Start(ctx context.Context) error {
	h.mu.Lock()
	if h.started {
		h.mu.Unlock()
		return domain.ErrAlreadyRunning
	}
	h.started = true
	h.mu.Unlock()

	return h.upstream.Subscribe(ctx, h.publish)
}

// Subscribe implements ports.PoseSource. It must not be called from a pose
// handler.
func (h *PoseHub) Subscribe(ctx context.Context, handle ports.PoseHandler) error {
	h.deliver.Lock()
	defer h.deliver.Unlock()

	h.mu.Lock()
	if !h.started {
		h.mu.Unlock()
		return domain.ErrNotRunning
	}
	live := h.subs[:0]
	for _, s := range h.subs {
		if s.ctx.Err() == nil {
			live = append(live, s)
		}
	}
	h.subs = append(live, subscription{ctx: ctx, handle: handle})
	last, ok := h.last, h.haveLast
	h.mu.Unlock()

	if ok {
		handle(last)
	}
	return nil
}

func (h *PoseHub) publish(u domain.PoseUpdate) {
	h.deliver.Lock()
	defer h.deliver.Unlock()

	h.mu.Lock()
	h.last, h.haveLast = u, true
	subs := append([]subscription(nil), h.subs...)
	h.mu.Unlock()

	for _, s := range subs {
		if s.ctx.Err() != nil {
			continue
		}
		s.handle(u)
	}
}
