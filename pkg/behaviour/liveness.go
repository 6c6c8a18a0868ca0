package behaviour

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/protocol/ping"
	"golang.org/x/sync/errgroup"
)

// Liveness probes every connected peer on a fixed cadence and reports
// per-peer round-trip times. Probe results are lossy: if the consumer
// falls behind, stale RTT samples are dropped rather than queued.
type Liveness struct {
	host     host.Host
	svc      *ping.PingService
	em       *emitter
	clk      clock.Clock
	interval time.Duration
	timeout  time.Duration
	done     chan struct{}
	wg       sync.WaitGroup
}

func newLiveness(h host.Host, cfg Config, em *emitter, done chan struct{}) *Liveness {
	return &Liveness{
		host:     h,
		svc:      ping.NewPingService(h),
		em:       em,
		clk:      cfg.Clock,
		interval: cfg.PingInterval,
		timeout:  cfg.PingTimeout,
		done:     done,
	}
}

func (l *Liveness) start() {
	l.wg.Add(1)
	go l.run()
}

func (l *Liveness) run() {
	defer l.wg.Done()

	ticker := l.clk.Ticker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.done:
			return
		case <-ticker.C:
			l.sweep()
		}
	}
}

// sweep probes the current connected set with bounded concurrency. The
// next tick is not serviced until the sweep finishes, so a slow peer
// delays probing but never stacks sweeps on top of each other.
func (l *Liveness) sweep() {
	g := new(errgroup.Group)
	g.SetLimit(maxConcurrentProbes)
	for _, p := range l.host.Network().Peers() {
		p := p
		g.Go(func() error {
			l.probe(p)
			return nil
		})
	}
	g.Wait()
}

func (l *Liveness) probe(p peer.ID) {
	ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
	defer cancel()

	select {
	case res, ok := <-l.svc.Ping(ctx, p):
		if !ok {
			res = ping.Result{Error: ctx.Err()}
		}
		l.em.trySend(Event{
			Kind: EventPingResult,
			Ping: &PingResult{Peer: p, RTT: res.RTT, Err: res.Error},
		})
	case <-l.done:
	}
}

func (l *Liveness) stop() {
	l.wg.Wait()
}
