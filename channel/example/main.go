package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/webbmaffian/go-chan/channel"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, os.Kill)
	defer stop()

	logger, err := zap.NewDevelopment()

	if err != nil {
		log.Println(err)
		return
	}

	defer logger.Sync()

	// Unbounded, so the file grows while the server lags behind.
	ch, err := channel.NewMappedChannel("channel.bin", 10, 0, channel.WithInitialCapacity(4), channel.WithLogger(logger))

	if err != nil {
		logger.Error("open channel", zap.Error(err))
		return
	}

	var wg sync.WaitGroup
	wg.Add(2)

	go runServer(ch, logger.Named("server"), &wg)
	go runClient(ctx, ch, logger.Named("client"), &wg)

	<-ctx.Done()
	ch.Close()

	// Both sides must be out of the channel before it is unmapped.
	wg.Wait()

	if err := ch.Destroy(); err != nil {
		logger.Error("destroy channel", zap.Error(err))
	}
}

func runServer(ch *channel.MappedChannel, logger *zap.Logger, wg *sync.WaitGroup) {
	defer wg.Done()

	logger.Info("started")
	msg := make([]byte, ch.ItemSize())

	for ch.Receive(msg) {
		stats(ch, logger, "READ", msg)
		time.Sleep(1500 * time.Millisecond)
	}

	logger.Info("closing")
}

func runClient(ctx context.Context, ch *channel.MappedChannel, logger *zap.Logger, wg *sync.WaitGroup) {
	defer wg.Done()

	logger.Info("started")
	msg := make([]byte, ch.ItemSize())

	for ctx.Err() == nil {
		copy(msg, fmt.Sprintf("%010d", time.Now().Unix()))

		if !ch.Send(msg) {
			break
		}

		stats(ch, logger, "WRITE", msg)
		time.Sleep(time.Second)
	}

	logger.Info("closing")
}

func stats(ch *channel.MappedChannel, logger *zap.Logger, what string, msg []byte) {
	s := ch.Stats()
	logger.Info(what, zap.ByteString("msg", msg), zap.Int("len", s.Len), zap.Int("cap", s.Cap), zap.Uint64("grows", s.Grows))
}
