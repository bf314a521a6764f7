package zeromq

import (
	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/processing"
)

// DirectorWrapper feeds received frames into the processing MessageDirector
type DirectorWrapper struct {
	director *processing.MessageDirector
	logger   customlog.Logger
}

// NewDirectorWrapper creates a new DirectorWrapper
func NewDirectorWrapper(director *processing.MessageDirector, logger customlog.Logger) *DirectorWrapper {
	return &DirectorWrapper{
		director: director,
		logger:   logger,
	}
}

// RouteFrame hands one published frame to the director. Frames that cannot
// be queued are dropped; the pools count them.
func (w *DirectorWrapper) RouteFrame(topic string, payload []byte) {
	if w.director == nil {
		return
	}
	msg := &processing.Message{
		Topic:     topic,
		Data:      payload,
		Timestamp: processing.GetCurrentTimestamp(),
	}
	if err := w.director.RouteMessage(msg); err != nil {
		w.logger.Debugf("Dropped frame: %v", err)
	}
}

// Sink returns RouteFrame as a FrameSink
func (w *DirectorWrapper) Sink() FrameSink {
	return w.RouteFrame
}
