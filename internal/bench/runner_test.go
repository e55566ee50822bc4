package bench

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/webbmaffian/go-chan/channel"
)

func smallConfig(t *testing.T, kind Kind) Config {
	cfg := Default()
	cfg.Kind = kind
	cfg.Producers = 3
	cfg.Consumers = 2
	cfg.ItemsPerProducer = 2000
	cfg.Capacity = 16
	cfg.ItemSize = 16
	cfg.Path = filepath.Join(t.TempDir(), "bench.bin")
	return cfg
}

func TestRunConservesItems(t *testing.T) {
	for _, kind := range Kinds {
		for _, capacity := range []int{1, 16, 0} {
			cfg := smallConfig(t, kind)
			cfg.Capacity = capacity

			t.Run(fmt.Sprintf("%s/cap=%d", kind, capacity), func(t *testing.T) {
				r := Runner{Config: cfg, Logger: zaptest.NewLogger(t)}

				res, err := r.Run(context.Background())
				require.NoError(t, err)

				assert.Equal(t, uint64(6000), res.Sent)
				assert.Equal(t, uint64(6000), res.Received)
				assert.False(t, res.Cancelled)
				assert.Equal(t, channel.Closed, res.Final.State)
				assert.Equal(t, 0, res.Final.Len)
				assert.Equal(t, uint64(6000), res.Final.ItemsReceived)
			})
		}
	}
}

func TestRunRemovesMappedFile(t *testing.T) {
	cfg := smallConfig(t, KindMapped)

	_, err := (&Runner{Config: cfg}).Run(context.Background())
	require.NoError(t, err)
	assert.NoFileExists(t, cfg.Path)
}

func TestRunRefusesExistingMappedFile(t *testing.T) {
	cfg := smallConfig(t, KindMapped)
	cfg.Capacity = 4

	// A channel file left with a backlog of two items.
	ch, err := channel.NewMappedChannel(cfg.Path, cfg.ItemSize, cfg.Capacity)
	require.NoError(t, err)
	require.True(t, ch.Send(make([]byte, cfg.ItemSize)))
	require.True(t, ch.Send(make([]byte, cfg.ItemSize)))
	require.NoError(t, ch.Destroy())

	_, err = (&Runner{Config: cfg}).Run(context.Background())
	assert.ErrorIs(t, err, ErrPathExists)

	// The file and its backlog are left alone.
	ch, err = channel.NewMappedChannel(cfg.Path, cfg.ItemSize, cfg.Capacity)
	require.NoError(t, err)
	assert.Equal(t, 2, ch.Len())
	require.NoError(t, ch.Remove())
}

func TestRunUnboundedGrows(t *testing.T) {
	cfg := smallConfig(t, KindGeneric)
	cfg.Capacity = 0
	cfg.InitialCapacity = 2
	cfg.Producers = 1
	cfg.Consumers = 1

	res, err := (&Runner{Config: cfg}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, channel.Unbounded, res.Final.Mode)
	assert.GreaterOrEqual(t, res.Final.Cap, 2)
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	cfg := Default()
	cfg.Producers = 0

	_, err := (&Runner{Config: cfg}).Run(context.Background())
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	cfg := smallConfig(t, KindGeneric)
	cfg.ItemsPerProducer = 1 << 40

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancel)

	res, err := (&Runner{Config: cfg}).Run(ctx)
	require.NoError(t, err)
	assert.True(t, res.Cancelled)
	assert.Equal(t, res.Sent, res.Received)
}

func TestRunReportsProgress(t *testing.T) {
	cfg := smallConfig(t, KindBytes)

	var (
		mu    sync.Mutex
		calls []channel.Stats
	)

	r := Runner{
		Config:   cfg,
		Interval: time.Millisecond,
		Progress: func(s channel.Stats) {
			mu.Lock()
			defer mu.Unlock()

			calls = append(calls, s)
		},
	}

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()

	require.NotEmpty(t, calls)
	assert.Equal(t, channel.Closed, calls[len(calls)-1].State)
}

func TestRunRegistersMetrics(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	cfg := smallConfig(t, KindGeneric)

	var scraped int

	r := Runner{
		Config:     cfg,
		Registerer: reg,
		Interval:   time.Millisecond,
		Progress: func(channel.Stats) {
			if scraped == 0 {
				scraped, _ = testutil.GatherAndCount(reg, "chanbench_channel_items_sent_total")
			}
		},
	}

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, scraped)

	// Unregistered once the run is over.
	n, err := testutil.GatherAndCount(reg)
	require.NoError(t, err)
	assert.Zero(t, n)
}
