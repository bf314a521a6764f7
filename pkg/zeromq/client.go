package zeromq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/pebbe/zmq4"

	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/types"
	"github.com/magicdog/sdk/pkg/wire"
)

// FrameSink receives published frames.
type FrameSink func(topic string, payload []byte)

// ClientOptions configures a Client.
type ClientOptions struct {
	RequestAddress   string
	SubscribeAddress string
	// RequestTimeout bounds a call when the context has no earlier deadline.
	RequestTimeout time.Duration
}

// Client is the SDK side of the transport: a REQ socket for calls and a SUB
// socket whose frames are handed to a FrameSink.
type Client struct {
	opts   ClientOptions
	ctx    *zmq4.Context
	logger customlog.Logger

	mu  sync.Mutex // guards req; REQ sockets allow one request in flight
	req *zmq4.Socket

	sub *subscriber
}

// NewClient connects both sockets. Connecting does not wait for the robot;
// unreachable robots surface as TIMEOUT on the first call.
func NewClient(opts ClientOptions, sink FrameSink, logger customlog.Logger) (*Client, error) {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 3 * time.Second
	}
	ctx, err := zmq4.NewContext()
	if err != nil {
		return nil, fmt.Errorf("failed to create ZMQ context: %w", err)
	}

	c := &Client{opts: opts, ctx: ctx, logger: logger}
	if err := c.connectRequest(); err != nil {
		ctx.Term()
		return nil, err
	}

	sub, err := newSubscriber(ctx, opts.SubscribeAddress, sink, logger)
	if err != nil {
		c.req.Close()
		ctx.Term()
		return nil, err
	}
	c.sub = sub
	sub.Start()

	logger.Infof("ZeroMQ client connected to %s / %s", opts.RequestAddress, opts.SubscribeAddress)
	return c, nil
}

func (c *Client) connectRequest() error {
	sock, err := c.ctx.NewSocket(zmq4.REQ)
	if err != nil {
		return fmt.Errorf("failed to create REQ socket: %w", err)
	}
	if err := sock.SetLinger(0); err != nil {
		sock.Close()
		return fmt.Errorf("failed to set linger option: %w", err)
	}
	if err := sock.Connect(c.opts.RequestAddress); err != nil {
		sock.Close()
		return fmt.Errorf("failed to connect to %s: %w", c.opts.RequestAddress, err)
	}
	c.req = sock
	return nil
}

// Call sends a JSON request and decodes the reply result into resp.
// A non-OK reply status is returned as *types.StatusError.
func (c *Client) Call(ctx context.Context, msgType string, req, resp interface{}) error {
	return call(ctx, c.exchange, msgType, req, resp)
}

// Send sends a raw FlatBuffer frame and decodes the reply result into resp.
func (c *Client) Send(ctx context.Context, frame []byte, resp interface{}) error {
	data, err := c.exchange(ctx, frame)
	if err != nil {
		return err
	}
	return decodeReply(data, resp)
}

// Subscribe starts delivery of topic to the sink.
func (c *Client) Subscribe(topic string) error { return c.sub.Subscribe(topic) }

// Unsubscribe stops delivery of topic.
func (c *Client) Unsubscribe(topic string) error { return c.sub.Unsubscribe(topic) }

// exchange performs one request/reply round trip. When no reply arrives in
// time the REQ socket is discarded and reopened, since a REQ socket stuck
// waiting for a reply cannot send again.
func (c *Client) exchange(ctx context.Context, frame []byte) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.req == nil {
		return nil, types.Errorf(types.ErrorCodeServiceNotReady, "client is closed")
	}

	timeout := c.opts.RequestTimeout
	if deadline, ok := ctx.Deadline(); ok {
		if d := time.Until(deadline); d < timeout {
			timeout = d
		}
	}
	if timeout <= 0 || ctx.Err() != nil {
		return nil, types.Errorf(types.ErrorCodeTimeout, "deadline exceeded before send")
	}

	if _, err := c.req.SendBytes(frame, 0); err != nil {
		return nil, types.Errorf(types.ErrorCodeInternalError, "send request: %v", err)
	}

	poller := zmq4.NewPoller()
	poller.Add(c.req, zmq4.POLLIN)
	polled, err := poller.Poll(timeout)
	if err != nil {
		return nil, types.Errorf(types.ErrorCodeInternalError, "poll reply: %v", err)
	}
	if len(polled) == 0 {
		c.logger.Warnf("No reply from %s within %v, reconnecting", c.opts.RequestAddress, timeout)
		c.req.Close()
		c.req = nil
		if err := c.connectRequest(); err != nil {
			c.logger.Errorf("Reconnect failed: %v", err)
		}
		return nil, types.Errorf(types.ErrorCodeTimeout, "no reply within %v", timeout)
	}

	reply, err := c.req.RecvBytes(0)
	if err != nil {
		return nil, types.Errorf(types.ErrorCodeInternalError, "receive reply: %v", err)
	}
	return reply, nil
}

// Close stops the subscriber and releases both sockets.
func (c *Client) Close() error {
	c.sub.Stop()

	c.mu.Lock()
	if c.req != nil {
		c.req.Close()
		c.req = nil
	}
	c.mu.Unlock()

	return c.ctx.Term()
}

// call builds a request envelope, performs the exchange and decodes the reply.
func call(ctx context.Context, exchange func(context.Context, []byte) ([]byte, error), msgType string, req, resp interface{}) error {
	env, err := wire.NewRequest(msgType, req)
	if err != nil {
		return types.Errorf(types.ErrorCodeInternalError, "%v", err)
	}
	data, err := json.Marshal(env)
	if err != nil {
		return types.Errorf(types.ErrorCodeInternalError, "encode %s: %v", msgType, err)
	}
	replyData, err := exchange(ctx, data)
	if err != nil {
		return err
	}
	return decodeReply(replyData, resp)
}

func decodeReply(data []byte, resp interface{}) error {
	reply, err := wire.ParseReply(data)
	if err != nil {
		return types.Errorf(types.ErrorCodeInternalError, "%v", err)
	}
	if err := reply.Status.Err(); err != nil {
		return err
	}
	if err := wire.DecodeResult(reply, resp); err != nil {
		return types.Errorf(types.ErrorCodeInternalError, "%v", err)
	}
	return nil
}
