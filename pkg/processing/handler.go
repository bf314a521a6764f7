package processing

import (
	"sync"

	customlog "github.com/magicdog/sdk/pkg/log"
)

// LoggingResultHandler logs failed deliveries. Repeated failures on a topic
// are logged once per errorLogEvery occurrences.
type LoggingResultHandler struct {
	logger customlog.Logger
	mu     sync.Mutex
	errors map[string]int64
}

const errorLogEvery = 100

// NewLoggingResultHandler creates a new logging result handler
func NewLoggingResultHandler(logger customlog.Logger) *LoggingResultHandler {
	return &LoggingResultHandler{
		logger: logger,
		errors: make(map[string]int64),
	}
}

// HandleResult handles a processed message result
func (h *LoggingResultHandler) HandleResult(result *ProcessResult) {
	if result.Error == nil {
		return
	}

	h.mu.Lock()
	h.errors[result.Topic]++
	n := h.errors[result.Topic]
	h.mu.Unlock()

	if n == 1 || n%errorLogEvery == 0 {
		h.logger.Errorf("Error processing message for topic '%s' (%d so far): %v", result.Topic, n, result.Error)
	}
}

// ErrorCount returns how many failures were seen for topic
func (h *LoggingResultHandler) ErrorCount(topic string) int64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.errors[topic]
}

// CreateHandlerFunc creates a ResultHandler function for the ProcessingPool
func (h *LoggingResultHandler) CreateHandlerFunc() ResultHandler {
	return func(processResult *ProcessResult) {
		if processResult == nil {
			h.logger.Errorf("Received nil ProcessResult")
			return
		}
		h.HandleResult(processResult)
	}
}
