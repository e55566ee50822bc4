// Package bench drives producers and consumers through a channel and
// checks that every item sent is received exactly once.
package bench

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/webbmaffian/go-chan/channel"
	"github.com/webbmaffian/go-chan/channel/metrics"
)

// ErrConservation reports a run that lost or duplicated items.
var ErrConservation = errors.New("received items do not match sent items")

const metricsNamespace = "chanbench"

// Result summarizes a finished run.
type Result struct {
	Sent      uint64
	Received  uint64
	Elapsed   time.Duration
	OpsPerSec float64
	Final     channel.Stats
	Cancelled bool
}

// Runner runs one benchmark. Only Config is required.
type Runner struct {
	Config Config
	Logger *zap.Logger

	// Progress, when set, is called with a channel snapshot every Interval
	// while the run is in flight.
	Progress func(channel.Stats)
	Interval time.Duration

	// Registerer, when set, exposes the channel under test for the duration
	// of the run.
	Registerer prometheus.Registerer
}

func (r *Runner) Run(ctx context.Context) (res Result, err error) {
	cfg := r.Config

	if err = cfg.Validate(); err != nil {
		return
	}

	log := r.Logger

	if log == nil {
		log = zap.NewNop()
	}

	opts := []channel.Option{channel.WithLogger(log.Named("channel"))}

	if cfg.InitialCapacity > 0 {
		opts = append(opts, channel.WithInitialCapacity(cfg.InitialCapacity))
	}

	if cfg.MaxCapacity > 0 {
		opts = append(opts, channel.WithMaxCapacity(cfg.MaxCapacity))
	}

	q, err := open(cfg, opts)

	if err != nil {
		return res, fmt.Errorf("open %s channel: %w", cfg.Kind, err)
	}

	defer func() {
		if derr := q.destroy(); derr != nil {
			log.Warn("destroy channel", zap.Error(derr))
		}
	}()

	if r.Registerer != nil {
		c := metrics.NewCollector(metricsNamespace, string(cfg.Kind), q)

		if err = r.Registerer.Register(c); err != nil {
			return res, fmt.Errorf("register metrics: %w", err)
		}

		defer r.Registerer.Unregister(c)
	}

	log.Info("benchmark started",
		zap.String("kind", string(cfg.Kind)),
		zap.Int("producers", cfg.Producers),
		zap.Int("consumers", cfg.Consumers),
		zap.Int("items_per_producer", cfg.ItemsPerProducer),
		zap.Int("capacity", cfg.Capacity),
	)

	// Cancelling the run closes the channel: producers stop and consumers
	// drain what is left.
	stop := context.AfterFunc(ctx, q.Close)
	defer stop()

	var (
		sent, received       atomic.Uint64
		sentSum, receivedSum atomic.Uint64
		producers, consumers sync.WaitGroup
	)

	start := time.Now()

	for c := 0; c < cfg.Consumers; c++ {
		consumers.Add(1)

		go func(q queue) {
			defer consumers.Done()

			var n, sum uint64

			for {
				seq, ok := q.receive()

				if !ok {
					break
				}

				n++
				sum += seq
			}

			received.Add(n)
			receivedSum.Add(sum)
		}(forWorker(q))
	}

	for p := 0; p < cfg.Producers; p++ {
		producers.Add(1)

		go func(q queue, first uint64) {
			defer producers.Done()

			var n, sum uint64

			for i := uint64(0); i < uint64(cfg.ItemsPerProducer); i++ {
				if !q.send(first + i) {
					break
				}

				n++
				sum += first + i
			}

			sent.Add(n)
			sentSum.Add(sum)
		}(forWorker(q), uint64(p)*uint64(cfg.ItemsPerProducer))
	}

	done := make(chan struct{})

	go func() {
		producers.Wait()
		q.Close()
		consumers.Wait()
		close(done)
	}()

	r.watch(q, done)

	res = Result{
		Sent:      sent.Load(),
		Received:  received.Load(),
		Elapsed:   time.Since(start),
		Final:     q.Stats(),
		Cancelled: ctx.Err() != nil,
	}

	if secs := res.Elapsed.Seconds(); secs > 0 {
		res.OpsPerSec = float64(res.Received) / secs
	}

	if res.Sent != res.Received || sentSum.Load() != receivedSum.Load() {
		err = fmt.Errorf("%w: sent %d, received %d", ErrConservation, res.Sent, res.Received)
		log.Error("benchmark failed", zap.Error(err))
		return
	}

	log.Info("benchmark finished",
		zap.Uint64("received", res.Received),
		zap.Duration("elapsed", res.Elapsed),
		zap.Float64("ops_per_sec", res.OpsPerSec),
		zap.Bool("cancelled", res.Cancelled),
	)

	return
}

// watch blocks until done, reporting progress on the way.
func (r *Runner) watch(q queue, done <-chan struct{}) {
	if r.Progress == nil {
		<-done
		return
	}

	interval := r.Interval

	if interval <= 0 {
		interval = 250 * time.Millisecond
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			r.Progress(q.Stats())
			return
		case <-ticker.C:
			r.Progress(q.Stats())
		}
	}
}
