// Package wire defines the frames exchanged between the SDK client and the
// robot: JSON envelopes for request/reply traffic and FlatBuffers tables for
// the high-rate joint and IMU streams.
package wire

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/magicdog/sdk/pkg/types"
)

var (
	ErrInvalidMessage    = errors.New("invalid message format")
	ErrInvalidFlatbuffer = errors.New("invalid flatbuffer frame")
)

// MsgTypeError marks a reply produced for a request that could not be dispatched.
const (
	MsgTypeReply = "REPLY"
	MsgTypeError = "ERROR"
)

// Envelope is a JSON request frame.
type Envelope struct {
	Type      string          `json:"type"`
	Timestamp float64         `json:"timestamp"`
	RequestID string          `json:"request_id"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Reply answers exactly one request.
type Reply struct {
	Type      string          `json:"type"`
	Timestamp float64         `json:"timestamp"`
	RequestID string          `json:"request_id,omitempty"`
	Status    types.Status    `json:"status"`
	Result    json.RawMessage `json:"result,omitempty"`
}

// Now returns the current time in fractional seconds.
func Now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}

// NewRequest builds an envelope with a fresh request id. payload may be nil.
func NewRequest(msgType string, payload interface{}) (*Envelope, error) {
	env := &Envelope{
		Type:      msgType,
		Timestamp: Now(),
		RequestID: uuid.NewString(),
	}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal %s payload: %w", msgType, err)
		}
		env.Data = data
	}
	return env, nil
}

// ParseEnvelope decodes a JSON request frame.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrInvalidMessage)
	}
	return &env, nil
}

// Bind decodes the request payload into out. An empty payload leaves out untouched.
func (e *Envelope) Bind(out interface{}) error {
	if len(e.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Data, out); err != nil {
		return fmt.Errorf("%w: %s payload: %v", ErrInvalidMessage, e.Type, err)
	}
	return nil
}

// NewReply builds a reply for requestID. result may be nil.
func NewReply(requestID string, status types.Status, result interface{}) (*Reply, error) {
	r := &Reply{
		Type:      MsgTypeReply,
		Timestamp: Now(),
		RequestID: requestID,
		Status:    status,
	}
	if result != nil {
		data, err := json.Marshal(result)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal result: %w", err)
		}
		r.Result = data
	}
	return r, nil
}

// ErrorReply is sent when the request never reached a handler.
func ErrorReply(requestID string, code types.ErrorCode, err error) *Reply {
	return &Reply{
		Type:      MsgTypeError,
		Timestamp: Now(),
		RequestID: requestID,
		Status:    types.NewStatus(code, err.Error()),
	}
}

// ParseReply decodes a JSON reply frame.
func ParseReply(data []byte) (*Reply, error) {
	var r Reply
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMessage, err)
	}
	return &r, nil
}

// DecodeResult unmarshals the reply result into out. A nil out skips decoding.
func DecodeResult(r *Reply, out interface{}) error {
	if out == nil || len(r.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Result, out); err != nil {
		return fmt.Errorf("%w: result: %v", ErrInvalidMessage, err)
	}
	return nil
}
