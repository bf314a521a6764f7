package magicdog

import (
	"sort"
	"sync"
)

// controller remembers the topics a controller subscribed to.
type controller struct {
	robot *Robot

	mu     sync.Mutex
	topics map[string]struct{}
}

func newController(r *Robot) *controller {
	return &controller{robot: r, topics: make(map[string]struct{})}
}

func subscribeVia[T any](c *controller, topic string, cb func(*T)) error {
	if err := subscribeTopic(c.robot, topic, cb); err != nil {
		return err
	}
	c.mu.Lock()
	c.topics[topic] = struct{}{}
	c.mu.Unlock()
	return nil
}

func (c *controller) unsubscribe(topic string) error {
	c.mu.Lock()
	delete(c.topics, topic)
	c.mu.Unlock()
	return c.robot.unsubscribe(topic)
}

// Subscriptions returns the topics with an active callback, sorted.
func (c *controller) Subscriptions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	topics := make([]string, 0, len(c.topics))
	for t := range c.topics {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

// Shutdown drops every subscription of the controller.
func (c *controller) Shutdown() error {
	var firstErr error
	for _, topic := range c.Subscriptions() {
		if err := c.unsubscribe(topic); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
