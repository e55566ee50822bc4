package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gosuri/uilive"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/webbmaffian/go-chan/channel"
	"github.com/webbmaffian/go-chan/internal/bench"
)

func newRunCommand(logger func() *zap.Logger) *cobra.Command {
	def := bench.Default()

	var (
		kind        string
		metricsAddr string
		interval    time.Duration
		quiet       bool
		cfg         bench.Config
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Push items from producers to consumers through a channel",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg.Kind = bench.Kind(kind)

			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			log := logger()
			r := bench.Runner{
				Config:   cfg,
				Logger:   log,
				Interval: interval,
			}

			if metricsAddr != "" {
				reg := prometheus.NewRegistry()
				reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
				r.Registerer = reg

				stop, err := serveMetrics(metricsAddr, reg, log)

				if err != nil {
					return err
				}

				defer stop()
			}

			out := cmd.OutOrStdout()

			if !quiet {
				w := uilive.New()
				w.Out = out

				r.Progress = func(s channel.Stats) {
					fmt.Fprintf(w, "%-9s %8s  len %d/%d\n", s.Mode, s.State, s.Len, s.Cap)
					fmt.Fprintf(w, "sent %d  received %d  grows %d  rejected %d\n", s.ItemsSent, s.ItemsReceived, s.Grows, s.Rejected)
					_ = w.Flush()
				}
			}

			res, err := r.Run(ctx)

			if err != nil {
				return err
			}

			fmt.Fprintf(out, "%s: %d items in %s (%.0f ops/s)\n", cfg.Kind, res.Received, res.Elapsed.Round(time.Millisecond), res.OpsPerSec)

			if res.Cancelled {
				fmt.Fprintln(out, "interrupted before all items were sent")
			}

			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&kind, "kind", envString("KIND", string(def.Kind)), "Channel flavor: generic|bytes|mapped")
	f.IntVar(&cfg.Producers, "producers", envInt("PRODUCERS", def.Producers), "Number of producer goroutines")
	f.IntVar(&cfg.Consumers, "consumers", envInt("CONSUMERS", def.Consumers), "Number of consumer goroutines")
	f.IntVar(&cfg.ItemsPerProducer, "items", envInt("ITEMS", def.ItemsPerProducer), "Items sent by each producer")
	f.IntVar(&cfg.Capacity, "capacity", envInt("CAPACITY", def.Capacity), "Channel capacity; 0 for unbounded")
	f.IntVar(&cfg.InitialCapacity, "initial-capacity", envInt("INITIAL_CAPACITY", 0), "Initial slots of an unbounded channel (default 16)")
	f.IntVar(&cfg.MaxCapacity, "max-capacity", envInt("MAX_CAPACITY", 0), "Growth limit of an unbounded channel; 0 for none")
	f.IntVar(&cfg.ItemSize, "item-size", envInt("ITEM_SIZE", def.ItemSize), "Item size in bytes for bytes and mapped channels")
	f.StringVar(&cfg.Path, "path", envString("PATH", def.Path), "Channel file for the mapped kind; must not exist, removed afterwards")
	f.StringVar(&metricsAddr, "metrics-addr", envString("METRICS_ADDR", ""), "Serve Prometheus metrics on this address during the run")
	f.DurationVar(&interval, "interval", 250*time.Millisecond, "Progress refresh interval")
	f.BoolVar(&quiet, "quiet", false, "Only print the result")
	return cmd
}

// serveMetrics exposes reg on addr until the returned stop is called.
func serveMetrics(addr string, reg *prometheus.Registry, log *zap.Logger) (stop func(), err error) {
	ln, err := net.Listen("tcp", addr)

	if err != nil {
		return nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	done := make(chan struct{})

	go func() {
		defer close(done)

		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics server stopped", zap.Error(err))
		}
	}()

	log.Info("serving metrics", zap.String("addr", ln.Addr().String()))

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		_ = srv.Shutdown(ctx)
		<-done
	}, nil
}
