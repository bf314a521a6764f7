package processing

import (
	"fmt"
	"sort"
	"sync"

	customlog "github.com/magicdog/sdk/pkg/log"
)

// TopicCallback consumes the raw payload of one topic frame.
type TopicCallback func(data []byte) error

// CallbackProcessor delivers frames to the callback registered for their topic.
// Frames of topics without a callback are ignored.
type CallbackProcessor struct {
	logger    customlog.Logger
	callbacks map[string]TopicCallback
	mu        sync.RWMutex
}

// NewCallbackProcessor creates an empty callback table
func NewCallbackProcessor(logger customlog.Logger) *CallbackProcessor {
	return &CallbackProcessor{
		logger:    logger,
		callbacks: make(map[string]TopicCallback),
	}
}

// Register installs cb for topic, replacing any previous callback.
func (p *CallbackProcessor) Register(topic string, cb TopicCallback) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callbacks[topic] = cb
}

// Unregister removes the callback of topic. It reports whether one was installed.
func (p *CallbackProcessor) Unregister(topic string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.callbacks[topic]
	delete(p.callbacks, topic)
	return ok
}

// Clear removes every callback.
func (p *CallbackProcessor) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.callbacks = make(map[string]TopicCallback)
}

// Has reports whether topic has a callback.
func (p *CallbackProcessor) Has(topic string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.callbacks[topic]
	return ok
}

// Topics returns the topics that have a callback, sorted.
func (p *CallbackProcessor) Topics() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	topics := make([]string, 0, len(p.callbacks))
	for topic := range p.callbacks {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// ProcessMessage runs the callback of msg's topic. A panicking callback is
// reported as an error so one bad subscriber cannot kill a pool worker.
func (p *CallbackProcessor) ProcessMessage(msg *Message) (err error) {
	p.mu.RLock()
	cb, ok := p.callbacks[msg.Topic]
	p.mu.RUnlock()
	if !ok {
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("callback for topic '%s' panicked: %v", msg.Topic, r)
		}
	}()
	if err := cb(msg.Data); err != nil {
		return fmt.Errorf("callback for topic '%s': %w", msg.Topic, err)
	}
	return nil
}

// CreateProcessorFunc creates a MessageProcessor function that can be used with the MessageDirector
func (p *CallbackProcessor) CreateProcessorFunc() MessageProcessor {
	return p.ProcessMessage
}
