package magicdog

import (
	"context"
	"time"

	"github.com/magicdog/sdk/pkg/config"
	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/zeromq"
)

// Transport carries requests to the robot and published frames back.
// zeromq.Client and zeromq.LocalClient implement it.
type Transport interface {
	Call(ctx context.Context, msgType string, req, resp interface{}) error
	Send(ctx context.Context, frame []byte, resp interface{}) error
	Subscribe(topic string) error
	Unsubscribe(topic string) error
	Close() error
}

// Dialer opens a Transport whose published frames go to sink.
type Dialer func(sink zeromq.FrameSink) (Transport, error)

// Option customizes a Robot.
type Option func(*Robot)

// WithDialer replaces the ZeroMQ transport.
func WithDialer(dial Dialer) Option {
	return func(r *Robot) { r.dial = dial }
}

// WithLocalBus talks to an in-process robot instead of the network.
func WithLocalBus(bus *zeromq.LocalBus) Option {
	return WithDialer(func(sink zeromq.FrameSink) (Transport, error) {
		return bus.NewClient(sink), nil
	})
}

func zeromqDialer(cfg config.RobotConfig, logger customlog.Logger) Dialer {
	return func(sink zeromq.FrameSink) (Transport, error) {
		client, err := zeromq.NewClient(zeromq.ClientOptions{
			RequestAddress:   cfg.RequestAddress,
			SubscribeAddress: cfg.SubscribeAddress,
			RequestTimeout:   time.Duration(cfg.RequestTimeoutMs) * time.Millisecond,
		}, sink, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	}
}
