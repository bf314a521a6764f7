package zeromq

import (
	"fmt"
	"sync"
	"time"

	"github.com/pebbe/zmq4"

	customlog "github.com/magicdog/sdk/pkg/log"
)

const subscriberPollInterval = 100 * time.Millisecond

type subscriptionOp struct {
	topic     string
	subscribe bool
}

// subscriber runs the SUB receive loop. ZeroMQ sockets are not safe for
// concurrent use, so subscription changes are queued and applied by the loop.
type subscriber struct {
	socket *zmq4.Socket
	sink   FrameSink
	logger customlog.Logger

	mu      sync.Mutex
	pending []subscriptionOp
	running bool
	wg      sync.WaitGroup

	// active is owned by the receive loop.
	active map[string]struct{}
}

func newSubscriber(ctx *zmq4.Context, address string, sink FrameSink, logger customlog.Logger) (*subscriber, error) {
	socket, err := ctx.NewSocket(zmq4.SUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create SUB socket: %w", err)
	}
	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}
	if err := socket.Connect(address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}
	return &subscriber{socket: socket, sink: sink, logger: logger, active: make(map[string]struct{})}, nil
}

func (s *subscriber) Subscribe(topic string) error { return s.queue(topic, true) }

func (s *subscriber) Unsubscribe(topic string) error { return s.queue(topic, false) }

func (s *subscriber) queue(topic string, subscribe bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return ErrServiceClosed
	}
	s.pending = append(s.pending, subscriptionOp{topic: topic, subscribe: subscribe})
	return nil
}

func (s *subscriber) Start() {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.receiveLoop()
}

func (s *subscriber) Stop() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
	s.wg.Wait()
}

// receiveLoop continuously receives frames and hands them to the sink
func (s *subscriber) receiveLoop() {
	defer s.wg.Done()
	defer s.socket.Close()

	poller := zmq4.NewPoller()
	poller.Add(s.socket, zmq4.POLLIN)

	for {
		s.mu.Lock()
		running := s.running
		ops := s.pending
		s.pending = nil
		s.mu.Unlock()
		if !running {
			return
		}
		s.apply(ops)

		polled, err := poller.Poll(subscriberPollInterval)
		if err != nil {
			s.logger.Errorf("Error polling SUB socket: %v", err)
			time.Sleep(subscriberPollInterval)
			continue
		}
		if len(polled) == 0 {
			continue
		}

		parts, err := s.socket.RecvMessageBytes(0)
		if err != nil {
			s.logger.Errorf("Error receiving message: %v", err)
			continue
		}
		if len(parts) != 2 {
			s.logger.Warnf("Dropping published frame with %d parts", len(parts))
			continue
		}
		s.sink(string(parts[0]), parts[1])
	}
}

// socketChanges reduces ops to the ones that change the socket's filters and
// records them in active. SUB filters are reference counted by ZeroMQ, so a
// topic must be subscribed at most once to be removable by one unsubscribe.
func socketChanges(active map[string]struct{}, ops []subscriptionOp) []subscriptionOp {
	var changes []subscriptionOp
	for _, op := range ops {
		_, on := active[op.topic]
		switch {
		case op.subscribe && !on:
			active[op.topic] = struct{}{}
		case !op.subscribe && on:
			delete(active, op.topic)
		default:
			continue
		}
		changes = append(changes, op)
	}
	return changes
}

func (s *subscriber) apply(ops []subscriptionOp) {
	for _, op := range socketChanges(s.active, ops) {
		var err error
		if op.subscribe {
			err = s.socket.SetSubscribe(op.topic)
		} else {
			err = s.socket.SetUnsubscribe(op.topic)
		}
		if err != nil {
			s.logger.Errorf("Error updating subscription for %s: %v", op.topic, err)
		}
	}
}
