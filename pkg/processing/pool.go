package processing

import (
	"hash/fnv"
	"io"
	"sync"
	"time"

	customlog "github.com/magicdog/sdk/pkg/log"
)

// Message is a stream frame waiting for delivery
type Message struct {
	Topic     string
	Data      []byte
	Timestamp int64
}

// ProcessResult is the result of processing a message
type ProcessResult struct {
	Topic     string
	Timestamp int64
	Error     error
}

// ResultHandler is a function that handles processed results
type ResultHandler func(result *ProcessResult)

// MessageProcessor processes messages in a worker
type MessageProcessor func(msg *Message) error

// ProcessingPool is a priority-based worker pool. Every topic is pinned to
// one worker so that frames of a topic are processed in arrival order and
// never concurrently.
type ProcessingPool struct {
	name          string
	workerCount   int
	logger        customlog.Logger
	queues        []chan *Message
	running       bool
	wg            sync.WaitGroup
	mu            sync.Mutex
	processor     MessageProcessor
	resultHandler ResultHandler
	queueSize     int
	metrics       *PoolMetrics
}

// PoolMetrics tracks metrics for a processing pool
type PoolMetrics struct {
	ProcessedCount    int64
	ErrorCount        int64
	QueuedCount       int64
	DroppedCount      int64
	LastProcessedTime int64
	ProcessingTimeAvg int64 // in microseconds
	ProcessingTimeMax int64 // in microseconds
	mu                sync.Mutex
}

// NewProcessingPool creates a new processing pool. queueSize is split evenly
// between the workers.
func NewProcessingPool(
	name string,
	workerCount int,
	queueSize int,
	logger customlog.Logger,
) *ProcessingPool {
	if workerCount < 1 {
		workerCount = 1
	}
	perWorker := queueSize / workerCount
	if perWorker < 1 {
		perWorker = 1
	}
	queues := make([]chan *Message, workerCount)
	for i := range queues {
		queues[i] = make(chan *Message, perWorker)
	}
	return &ProcessingPool{
		name:        name,
		workerCount: workerCount,
		queueSize:   perWorker * workerCount,
		logger:      logger,
		queues:      queues,
		metrics:     &PoolMetrics{},
	}
}

// SetProcessor sets the message processor function
func (p *ProcessingPool) SetProcessor(processor MessageProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processor = processor
}

// SetResultHandler sets the result handler function
func (p *ProcessingPool) SetResultHandler(handler ResultHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resultHandler = handler
}

// ProcessMessage queues a message on the worker owning its topic. It never
// blocks: when that worker's queue is full the message is dropped and counted.
func (p *ProcessingPool) ProcessMessage(msg *Message) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		p.logger.Warnf("%s pool not running, discarding message", p.name)
		return false
	}

	p.metrics.mu.Lock()
	p.metrics.QueuedCount++
	p.metrics.mu.Unlock()

	select {
	case p.queues[p.workerFor(msg.Topic)] <- msg:
		return true
	default:
		p.metrics.mu.Lock()
		p.metrics.DroppedCount++
		p.metrics.mu.Unlock()
		p.logger.Debugf("%s pool queue is full, dropping message for topic %s", p.name, msg.Topic)
		return false
	}
}

func (p *ProcessingPool) workerFor(topic string) int {
	if p.workerCount == 1 {
		return 0
	}
	h := fnv.New32a()
	_, _ = io.WriteString(h, topic)
	return int(h.Sum32() % uint32(p.workerCount))
}

// Start starts the processing pool workers
func (p *ProcessingPool) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return
	}

	p.running = true
	p.logger.Infof("Starting %s priority pool with %d workers", p.name, p.workerCount)

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop stops the processing pool after the queued messages are drained
func (p *ProcessingPool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	// ProcessMessage holds mu while sending, so no send can race the close.
	for _, q := range p.queues {
		close(q)
	}
	p.mu.Unlock()

	p.logger.Infof("Stopping %s priority pool", p.name)
	p.wg.Wait()
	p.logger.Infof("%s priority pool stopped", p.name)

	p.logMetrics()
}

// worker processes messages from its queue
func (p *ProcessingPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debugf("%s pool worker %d started", p.name, id)

	for msg := range p.queues[id] {
		p.mu.Lock()
		processor := p.processor
		resultHandler := p.resultHandler
		p.mu.Unlock()

		if processor == nil {
			p.logger.Errorf("No message processor set for %s pool", p.name)
			continue
		}

		startTime := time.Now()
		err := processor(msg)
		processingTime := time.Since(startTime).Microseconds()

		p.metrics.mu.Lock()
		p.metrics.ProcessedCount++
		p.metrics.LastProcessedTime = time.Now().UnixNano()
		if p.metrics.ProcessingTimeAvg == 0 {
			p.metrics.ProcessingTimeAvg = processingTime
		} else {
			// Simple moving average
			p.metrics.ProcessingTimeAvg = (p.metrics.ProcessingTimeAvg + processingTime) / 2
		}
		if processingTime > p.metrics.ProcessingTimeMax {
			p.metrics.ProcessingTimeMax = processingTime
		}
		if err != nil {
			p.metrics.ErrorCount++
		}
		p.metrics.mu.Unlock()

		if resultHandler != nil {
			resultHandler(&ProcessResult{
				Topic:     msg.Topic,
				Timestamp: msg.Timestamp,
				Error:     err,
			})
		}
	}

	p.logger.Debugf("%s pool worker %d stopped", p.name, id)
}

// GetMetrics returns a copy of the current metrics
func (p *ProcessingPool) GetMetrics() PoolMetrics {
	p.metrics.mu.Lock()
	defer p.metrics.mu.Unlock()

	return PoolMetrics{
		ProcessedCount:    p.metrics.ProcessedCount,
		ErrorCount:        p.metrics.ErrorCount,
		QueuedCount:       p.metrics.QueuedCount,
		DroppedCount:      p.metrics.DroppedCount,
		LastProcessedTime: p.metrics.LastProcessedTime,
		ProcessingTimeAvg: p.metrics.ProcessingTimeAvg,
		ProcessingTimeMax: p.metrics.ProcessingTimeMax,
	}
}

func (p *ProcessingPool) logMetrics() {
	metrics := p.GetMetrics()

	p.logger.Infof("%s pool metrics: processed=%d, errors=%d, dropped=%d, avg_time=%dµs, max_time=%dµs",
		p.name, metrics.ProcessedCount, metrics.ErrorCount, metrics.DroppedCount,
		metrics.ProcessingTimeAvg, metrics.ProcessingTimeMax)
}

// GetName returns the pool name
func (p *ProcessingPool) GetName() string {
	return p.name
}

// GetQueueLength returns the number of messages waiting in all worker queues
func (p *ProcessingPool) GetQueueLength() int {
	n := 0
	for _, q := range p.queues {
		n += len(q)
	}
	return n
}

// GetQueueCapacity returns the total capacity of the worker queues
func (p *ProcessingPool) GetQueueCapacity() int {
	return p.queueSize
}
