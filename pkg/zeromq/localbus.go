package zeromq

import (
	"context"
	"sync"

	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/types"
	"github.com/magicdog/sdk/pkg/wire"
)

// LocalBus is an in-process stand-in for the ZeroMQ sockets. The robot side
// registers handlers and publishes on it like on ZeroMQService; clients
// created with NewClient call and subscribe like the ZeroMQ Client.
type LocalBus struct {
	dispatcher *MessageDispatcher
	logger     customlog.Logger

	mu      sync.RWMutex
	clients map[*LocalClient]struct{}
	offline bool
	closed  bool
}

// NewLocalBus creates an empty bus
func NewLocalBus(logger customlog.Logger) *LocalBus {
	return &LocalBus{
		dispatcher: NewMessageDispatcher(logger),
		logger:     logger,
		clients:    make(map[*LocalClient]struct{}),
	}
}

func (b *LocalBus) RegisterHandler(messageType string, handler MessageHandler) {
	b.dispatcher.RegisterHandler(messageType, handler)
}

func (b *LocalBus) RegisterHandlerFunc(messageType string, handler func(*wire.Envelope) (interface{}, error)) {
	b.dispatcher.RegisterHandler(messageType, HandlerFunc(handler))
}

func (b *LocalBus) RegisterRawHandler(identifier string, handler RawHandler) {
	b.dispatcher.RegisterRawHandler(identifier, handler)
}

// SetOffline makes the robot side stop answering, as if unplugged. Calls then
// wait for their deadline and fail with TIMEOUT.
func (b *LocalBus) SetOffline(offline bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.offline = offline
}

// PublishMessage delivers the frame synchronously to every client subscribed to topic
func (b *LocalBus) PublishMessage(topic string, data []byte) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrServiceClosed
	}
	if b.offline {
		return nil
	}
	for c := range b.clients {
		if c.subscribed(topic) {
			c.sink(topic, data)
		}
	}
	return nil
}

// Close detaches every client. Later publishes fail with ErrServiceClosed.
func (b *LocalBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.clients = make(map[*LocalClient]struct{})
}

// NewClient attaches a client whose subscribed frames go to sink.
func (b *LocalBus) NewClient(sink FrameSink) *LocalClient {
	c := &LocalClient{bus: b, sink: sink, topics: make(map[string]bool)}
	b.mu.Lock()
	b.clients[c] = struct{}{}
	b.mu.Unlock()
	return c
}

// LocalClient is a client endpoint of a LocalBus
type LocalClient struct {
	bus  *LocalBus
	sink FrameSink

	mu     sync.RWMutex
	topics map[string]bool
	closed bool
}

func (c *LocalClient) subscribed(topic string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.topics[topic]
}

// Call sends a JSON request through the bus dispatcher.
func (c *LocalClient) Call(ctx context.Context, msgType string, req, resp interface{}) error {
	return call(ctx, c.exchange, msgType, req, resp)
}

// Send sends a raw FlatBuffer frame through the bus dispatcher.
func (c *LocalClient) Send(ctx context.Context, frame []byte, resp interface{}) error {
	data, err := c.exchange(ctx, frame)
	if err != nil {
		return err
	}
	return decodeReply(data, resp)
}

func (c *LocalClient) exchange(ctx context.Context, frame []byte) ([]byte, error) {
	c.mu.RLock()
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return nil, types.Errorf(types.ErrorCodeServiceNotReady, "client is closed")
	}

	c.bus.mu.RLock()
	offline := c.bus.offline || c.bus.closed
	c.bus.mu.RUnlock()
	if offline {
		<-ctx.Done()
		return nil, types.Errorf(types.ErrorCodeTimeout, "no reply: %v", ctx.Err())
	}

	done := make(chan []byte, 1)
	go func() {
		done <- c.bus.dispatcher.DispatchBytes(frame)
	}()
	select {
	case reply := <-done:
		return reply, nil
	case <-ctx.Done():
		return nil, types.Errorf(types.ErrorCodeTimeout, "no reply: %v", ctx.Err())
	}
}

func (c *LocalClient) Subscribe(topic string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrServiceClosed
	}
	c.topics[topic] = true
	return nil
}

func (c *LocalClient) Unsubscribe(topic string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.topics, topic)
	return nil
}

// Close detaches the client from the bus
func (c *LocalClient) Close() error {
	c.mu.Lock()
	c.closed = true
	c.topics = make(map[string]bool)
	c.mu.Unlock()

	c.bus.mu.Lock()
	delete(c.bus.clients, c)
	c.bus.mu.Unlock()
	return nil
}
