package zeromq

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/types"
	"github.com/magicdog/sdk/pkg/wire"
)

// Common errors
var (
	ErrServiceClosed      = errors.New("zeromq service is closed")
	ErrUnknownMessageType = errors.New("unknown message type")
)

// MessageHandler answers one decoded request. The returned value becomes the
// reply result; a *types.StatusError becomes the reply status.
type MessageHandler interface {
	HandleMessage(env *wire.Envelope) (interface{}, error)
}

// HandlerFunc is a function type that implements MessageHandler
type HandlerFunc func(env *wire.Envelope) (interface{}, error)

// HandleMessage calls the function
func (f HandlerFunc) HandleMessage(env *wire.Envelope) (interface{}, error) {
	return f(env)
}

// RawHandler answers a raw FlatBuffer frame, selected by file identifier.
type RawHandler func(data []byte) (interface{}, error)

// Publisher sends a frame on a topic.
type Publisher interface {
	PublishMessage(topic string, data []byte) error
}

// Server is the robot side surface: request handlers plus publishing.
// ZeroMQService and LocalBus implement it.
type Server interface {
	Publisher
	RegisterHandler(messageType string, handler MessageHandler)
	RegisterHandlerFunc(messageType string, handler func(*wire.Envelope) (interface{}, error))
	RegisterRawHandler(identifier string, handler RawHandler)
}

// MessageDispatcher routes messages to the appropriate handlers
type MessageDispatcher struct {
	handlers    map[string]MessageHandler
	rawHandlers map[string]RawHandler
	logger      customlog.Logger
	mu          sync.RWMutex
}

// NewMessageDispatcher creates a new message dispatcher
func NewMessageDispatcher(logger customlog.Logger) *MessageDispatcher {
	return &MessageDispatcher{
		handlers:    make(map[string]MessageHandler),
		rawHandlers: make(map[string]RawHandler),
		logger:      logger,
	}
}

// RegisterHandler adds a handler for a specific message type
func (d *MessageDispatcher) RegisterHandler(messageType string, handler MessageHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[messageType] = handler
	d.logger.Debugf("Registered handler for message type: %s", messageType)
}

// RegisterRawHandler adds a handler for FlatBuffer frames carrying identifier
func (d *MessageDispatcher) RegisterRawHandler(identifier string, handler RawHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.rawHandlers[identifier] = handler
	d.logger.Debugf("Registered raw handler for identifier: %s", identifier)
}

// MessageTypes returns the number of registered request types
func (d *MessageDispatcher) MessageTypes() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.handlers) + len(d.rawHandlers)
}

// Dispatch processes a frame and always produces a reply. JSON envelopes are
// routed by type; anything else is treated as a raw FlatBuffer frame.
func (d *MessageDispatcher) Dispatch(data []byte) *wire.Reply {
	env, err := wire.ParseEnvelope(data)
	if err != nil {
		if ident := wire.Identify(data); ident != "" {
			d.mu.RLock()
			raw, ok := d.rawHandlers[ident]
			d.mu.RUnlock()
			if ok {
				result, herr := raw(data)
				return d.reply("", result, herr)
			}
		}
		d.logger.Warnf("Dropping undecodable frame (%d bytes): %v", len(data), err)
		return wire.ErrorReply("", types.ErrorCodeServiceError, err)
	}

	d.mu.RLock()
	handler, exists := d.handlers[env.Type]
	d.mu.RUnlock()
	if !exists {
		return wire.ErrorReply(env.RequestID, types.ErrorCodeServiceError,
			fmt.Errorf("%w: %s", ErrUnknownMessageType, env.Type))
	}

	result, err := handler.HandleMessage(env)
	return d.reply(env.RequestID, result, err)
}

func (d *MessageDispatcher) reply(requestID string, result interface{}, err error) *wire.Reply {
	status := statusFor(err)
	if !status.OK() {
		return &wire.Reply{Type: wire.MsgTypeReply, Timestamp: wire.Now(), RequestID: requestID, Status: status}
	}
	r, err := wire.NewReply(requestID, status, result)
	if err != nil {
		d.logger.Errorf("Error serializing reply: %v", err)
		return wire.ErrorReply(requestID, types.ErrorCodeInternalError, err)
	}
	return r
}

// DispatchBytes is Dispatch with the reply serialized.
func (d *MessageDispatcher) DispatchBytes(data []byte) []byte {
	out, err := json.Marshal(d.Dispatch(data))
	if err != nil {
		// A Reply always marshals; keep the socket in lock-step regardless.
		return []byte(`{"type":"ERROR","status":{"code":3,"message":"reply encoding failed"}}`)
	}
	return out
}

// statusFor maps a handler error onto the status sent back to the client.
func statusFor(err error) types.Status {
	if err == nil {
		return types.StatusOK()
	}
	if errors.Is(err, wire.ErrInvalidMessage) || errors.Is(err, wire.ErrInvalidFlatbuffer) {
		return types.NewStatus(types.ErrorCodeServiceError, err.Error())
	}
	return types.StatusOf(err)
}
