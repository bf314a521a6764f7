package zeromq

import (
	"fmt"
	"sort"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/wire"
)

// StreamPublisher encodes stream samples with the wire topic codec and
// publishes them, counting frames per topic.
type StreamPublisher struct {
	publisher Publisher
	logger    customlog.Logger
	frames    *prometheus.CounterVec
	failures  *prometheus.CounterVec

	mu     sync.Mutex
	counts map[string]int64
}

// NewStreamPublisher creates a publisher. reg may be nil to skip metric registration.
func NewStreamPublisher(p Publisher, reg prometheus.Registerer, logger customlog.Logger) *StreamPublisher {
	factory := promauto.With(reg)
	return &StreamPublisher{
		publisher: p,
		logger:    logger,
		frames: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "magicdog",
			Subsystem: "sim",
			Name:      "frames_published_total",
			Help:      "Stream frames published, by topic.",
		}, []string{"topic"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "magicdog",
			Subsystem: "sim",
			Name:      "publish_errors_total",
			Help:      "Stream frames that failed to encode or send, by topic.",
		}, []string{"topic"}),
		counts: make(map[string]int64),
	}
}

// Publish encodes v for topic and sends it.
func (sp *StreamPublisher) Publish(topic string, v interface{}) error {
	data, err := wire.EncodeTopic(topic, v)
	if err != nil {
		sp.failures.WithLabelValues(topic).Inc()
		return fmt.Errorf("failed to encode %s: %w", topic, err)
	}
	if err := sp.publisher.PublishMessage(topic, data); err != nil {
		sp.failures.WithLabelValues(topic).Inc()
		return err
	}
	sp.frames.WithLabelValues(topic).Inc()

	sp.mu.Lock()
	sp.counts[topic]++
	sp.mu.Unlock()
	return nil
}

// TopicCount pairs a topic with its published frame count.
type TopicCount struct {
	Topic  string `json:"topic"`
	Frames int64  `json:"frames"`
}

// Counts returns the published frame count per topic, sorted by topic.
func (sp *StreamPublisher) Counts() []TopicCount {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	out := make([]TopicCount, 0, len(sp.counts))
	for topic, n := range sp.counts {
		out = append(out, TopicCount{Topic: topic, Frames: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Topic < out[j].Topic })
	return out
}
