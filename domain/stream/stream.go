// Package stream runs the fixed-rate topic publishers of the simulator.
package stream

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/zeromq"
)

// Source produces samples of one topic at a fixed rate.
type Source struct {
	Topic string
	Hz    int
	// Sample returns the value to publish at now, or false to skip the tick.
	Sample func(now time.Time) (interface{}, bool)
}

// Publisher is implemented by zeromq.StreamPublisher.
type Publisher interface {
	Publish(topic string, v interface{}) error
}

const failureLogEvery = 1000

// Run publishes every source on its own ticker until ctx ends or the
// publisher is closed.
func Run(ctx context.Context, pub Publisher, logger customlog.Logger, sources ...Source) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, src := range sources {
		if src.Hz <= 0 {
			logger.Warnf("Stream %s disabled (rate %d Hz)", src.Topic, src.Hz)
			continue
		}
		src := src
		g.Go(func() error {
			return run(ctx, pub, logger, src)
		})
	}
	return g.Wait()
}

func run(ctx context.Context, pub Publisher, logger customlog.Logger, src Source) error {
	ticker := time.NewTicker(time.Second / time.Duration(src.Hz))
	defer ticker.Stop()

	logger.Debugf("Stream %s running at %d Hz", src.Topic, src.Hz)
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			v, ok := src.Sample(now)
			if !ok {
				continue
			}
			err := pub.Publish(src.Topic, v)
			if errors.Is(err, zeromq.ErrServiceClosed) {
				return nil
			}
			if err != nil {
				failures++
				if failures == 1 || failures%failureLogEvery == 0 {
					logger.Warnf("Stream %s publish failed (%d so far): %v", src.Topic, failures, err)
				}
			}
		}
	}
}
