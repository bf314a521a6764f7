package api

import (
	"github.com/magicdog/sdk/pkg/zeromq"
)

// JoystickAck is written back for every frame received on the joystick websocket.
type JoystickAck struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`
}

// StreamsResponse is returned by GET /api/streams.
type StreamsResponse struct {
	Status  string              `json:"status"`
	Streams []zeromq.TopicCount `json:"streams"`
}
