package mdg

import (
	"context"
	"time"

	"github.com/yanun0323/logs"
	"github.com/yanun0323/pkg/sys"

	"main/internal/feed"
)

// Producer pumps generated snapshots into a feed ring at a fixed rate
// and answers resync requests with full snapshots.
type Producer struct {
	gen      *Generator
	ring     *feed.Ring
	interval time.Duration
}

// NewProducer creates a producer publishing every interval.
func NewProducer(gen *Generator, ring *feed.Ring, interval time.Duration) *Producer {
	if interval <= 0 {
		interval = time.Millisecond
	}
	return &Producer{gen: gen, ring: ring, interval: interval}
}

// Run publishes until the context is done.
func (p *Producer) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-sys.Shutdown():
			return
		case <-ctx.Done():
			logs.Infof("producer stopped, last_seq: %d, injected_gaps: %d",
				p.gen.Sequence(), p.gen.InjectedGaps())
			return
		case now := <-ticker.C:
			if p.ring.TakeResyncRequest() {
				p.ring.Publish(p.gen.Full(now.UnixNano()))
				continue
			}
			p.ring.Publish(p.gen.Next(now.UnixNano()))
		}
	}
}
