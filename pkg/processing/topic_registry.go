package processing

import (
	"sort"
	"sync"

	"github.com/magicdog/sdk/pkg/config"
	customlog "github.com/magicdog/sdk/pkg/log"
)

// TopicInfo holds metadata for a topic
type TopicInfo struct {
	Topic        string
	MessageType  string
	Priority     string
	StatCount    int64
	LastReceived int64
}

// TopicRegistry maintains information about topics
type TopicRegistry struct {
	logger customlog.Logger
	topics map[string]*TopicInfo
	mu     sync.RWMutex
}

// NewTopicRegistry creates a new topic registry
func NewTopicRegistry(logger customlog.Logger) *TopicRegistry {
	return &TopicRegistry{
		logger: logger,
		topics: make(map[string]*TopicInfo),
	}
}

// LoadFromConfig replaces the registry contents with the configured streams
func (r *TopicRegistry) LoadFromConfig(cfg *config.ClientConfig) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.topics = make(map[string]*TopicInfo)
	for _, stream := range cfg.Streams {
		mapping, _ := cfg.GetStreamMapping(stream.Topic)
		r.topics[mapping.Topic] = &TopicInfo{
			Topic:       mapping.Topic,
			MessageType: mapping.MessageType,
			Priority:    mapping.Priority,
		}
	}

	r.logger.Infof("Loaded %d topics into registry", len(r.topics))
}

// GetTopicPriority gets the priority for a topic
func (r *TopicRegistry) GetTopicPriority(topic string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, exists := r.topics[topic]
	if !exists {
		return "", false
	}
	return info.Priority, true
}

// GetTopicInfo returns a copy of the information for a topic
func (r *TopicRegistry) GetTopicInfo(topic string) (TopicInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	info, exists := r.topics[topic]
	if !exists {
		return TopicInfo{}, false
	}
	return *info, true
}

// UpdateTopicStats counts a received frame. Unknown topics are registered
// with STANDARD priority.
func (r *TopicRegistry) UpdateTopicStats(topic string, timestamp int64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	info, exists := r.topics[topic]
	if !exists {
		info = &TopicInfo{Topic: topic, Priority: PriorityStandard}
		r.topics[topic] = info
	}
	info.StatCount++
	info.LastReceived = timestamp
}

// GetAllTopics returns the registered topics, sorted
func (r *TopicRegistry) GetAllTopics() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	topics := make([]string, 0, len(r.topics))
	for topic := range r.topics {
		topics = append(topics, topic)
	}
	sort.Strings(topics)
	return topics
}

// GetTopicStats returns a map of topic statistics
func (r *TopicRegistry) GetTopicStats() map[string]map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := make(map[string]map[string]interface{})
	for topic, info := range r.topics {
		stats[topic] = map[string]interface{}{
			"count":         info.StatCount,
			"last_received": info.LastReceived,
			"type":          info.MessageType,
			"priority":      info.Priority,
		}
	}
	return stats
}
