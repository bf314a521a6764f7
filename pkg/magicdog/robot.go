// Package magicdog is the Go client of the MagicDog robot. A Robot owns the
// session with the robot and hands out one controller per subsystem.
package magicdog

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/magicdog/sdk/pkg/config"
	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/processing"
	"github.com/magicdog/sdk/pkg/types"
	"github.com/magicdog/sdk/pkg/wire"
	"github.com/magicdog/sdk/pkg/zeromq"
)

// Version is the client library version.
const Version = "0.1.0"

type sessionState int

const (
	stateIdle sessionState = iota
	stateInitialized
	stateConnected
	stateShutdown
	stateReleased
)

var stateNames = map[sessionState]string{
	stateIdle:        "idle",
	stateInitialized: "initialized",
	stateConnected:   "connected",
	stateShutdown:    "shut down",
	stateReleased:    "released",
}

// Robot is a session with one robot.
type Robot struct {
	cfg      *config.ClientConfig
	logger   customlog.Logger
	dial     Dialer
	clientID string

	callbacks *processing.CallbackProcessor
	results   *processing.LoggingResultHandler

	mu        sync.RWMutex
	state     sessionState
	transport Transport
	director  *processing.MessageDirector
	version   string

	highLevel *HighLevelMotionController
	lowLevel  *LowLevelMotionController
	audio     *AudioController
	sensor    *SensorController
	slam      *SlamNavController
	monitor   *StateMonitor
}

// NewRobot creates a robot client. A nil cfg uses config.DefaultClientConfig.
func NewRobot(cfg *config.ClientConfig, logger customlog.Logger, opts ...Option) *Robot {
	if cfg == nil {
		cfg = config.DefaultClientConfig()
	}
	// Initialize records the local ip; the caller's config stays untouched.
	own := *cfg
	own.Streams = append([]config.StreamMapping(nil), cfg.Streams...)
	cfg = &own
	r := &Robot{
		cfg:       cfg,
		logger:    logger.WithField("component", "robot"),
		dial:      zeromqDialer(cfg.Robot, logger),
		clientID:  uuid.NewString(),
		callbacks: processing.NewCallbackProcessor(logger),
		results:   processing.NewLoggingResultHandler(logger),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.highLevel = &HighLevelMotionController{robot: r}
	r.lowLevel = &LowLevelMotionController{controller: newController(r)}
	r.audio = &AudioController{controller: newController(r)}
	r.sensor = &SensorController{controller: newController(r)}
	r.slam = &SlamNavController{controller: newController(r)}
	r.monitor = &StateMonitor{robot: r}
	return r
}

// Initialize starts the stream pools and opens the transport. localIP is the
// address of this host on the robot network.
func (r *Robot) Initialize(localIP string) error {
	if net.ParseIP(localIP) == nil {
		return types.Errorf(types.ErrorCodeServiceError, "invalid local ip %q", localIP)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case stateReleased:
		return types.Errorf(types.ErrorCodeServiceNotReady, "robot has been released")
	case stateInitialized, stateConnected:
		r.logger.Warnf("Robot already initialized")
		return nil
	}
	r.cfg.Robot.LocalIP = localIP

	registry := processing.NewTopicRegistry(r.logger)
	registry.LoadFromConfig(r.cfg)

	director := processing.NewMessageDirector(r.logger, registry,
		&processing.DirectorOptions{DefaultQueueSize: r.cfg.Processing.QueueSize})
	director.Initialize(
		r.cfg.Processing.HighPriorityWorkers,
		r.cfg.Processing.StandardPriorityWorkers,
		r.cfg.Processing.LowPriorityWorkers,
	)
	director.SetProcessor(r.callbacks.CreateProcessorFunc())
	director.SetResultHandler(r.results.CreateHandlerFunc())
	director.Start()

	transport, err := r.dial(zeromq.NewDirectorWrapper(director, r.logger).Sink())
	if err != nil {
		director.Stop()
		return types.Errorf(types.ErrorCodeInternalError, "failed to open transport: %v", err)
	}
	// Callbacks survive Shutdown; the new transport has to carry their topics.
	for _, topic := range r.callbacks.Topics() {
		if err := transport.Subscribe(topic); err != nil {
			transport.Close()
			director.Stop()
			return types.Errorf(types.ErrorCodeInternalError, "resubscribe %s: %v", topic, err)
		}
		r.logger.Debugf("Resubscribed to %s", topic)
	}

	r.director = director
	r.transport = transport
	r.state = stateInitialized
	r.logger.Infof("Robot initialized (local ip %s)", localIP)
	return nil
}

// Connect opens the session with the robot. It fails with TIMEOUT when the
// robot does not answer within the configured connect timeout.
func (r *Robot) Connect(ctx context.Context) error {
	r.mu.RLock()
	state, transport := r.state, r.transport
	r.mu.RUnlock()
	if state != stateInitialized && state != stateConnected {
		return types.Errorf(types.ErrorCodeServiceNotReady, "robot is %s", stateNames[state])
	}

	ctx, cancel := withTimeout(ctx, r.cfg.Robot.ConnectTimeoutMs)
	defer cancel()

	var res wire.VersionResult
	req := wire.ConnectRequest{LocalIP: r.cfg.Robot.LocalIP, ClientID: r.clientID}
	if err := transport.Call(ctx, wire.MsgRobotConnect, req, &res); err != nil {
		r.logger.Errorf("Failed to connect to robot: %v", err)
		return err
	}

	r.mu.Lock()
	if r.state == stateInitialized {
		r.state = stateConnected
	}
	r.version = res.Version
	r.mu.Unlock()

	r.logger.Infof("Connected to robot (version %s)", res.Version)
	return nil
}

// Disconnect ends the session. The transport stays open for a later Connect.
func (r *Robot) Disconnect(ctx context.Context) error {
	r.mu.Lock()
	if r.state != stateConnected {
		state := r.state
		r.mu.Unlock()
		return types.Errorf(types.ErrorCodeServiceNotReady, "robot is %s", stateNames[state])
	}
	transport := r.transport
	r.state = stateInitialized
	r.mu.Unlock()

	ctx, cancel := withTimeout(ctx, r.cfg.Robot.ConnectTimeoutMs)
	defer cancel()
	if err := transport.Call(ctx, wire.MsgRobotDisconnect, wire.ConnectRequest{ClientID: r.clientID}, nil); err != nil {
		r.logger.Warnf("Disconnect was not acknowledged: %v", err)
		return err
	}
	r.logger.Infof("Disconnected from robot")
	return nil
}

// Shutdown closes the transport and stops stream delivery. Initialize may
// be called again afterwards.
func (r *Robot) Shutdown() {
	r.shutdown(stateShutdown)
}

// Release shuts the robot down for good and drops every callback.
func (r *Robot) Release() {
	r.shutdown(stateReleased)
	r.callbacks.Clear()
}

func (r *Robot) shutdown(next sessionState) {
	r.mu.Lock()
	transport, director := r.transport, r.director
	r.transport, r.director = nil, nil
	prev := r.state
	if prev != stateReleased {
		r.state = next
	}
	r.mu.Unlock()

	// Callbacks may call back into the robot, so the pools stop unlocked.
	if transport != nil {
		if err := transport.Close(); err != nil {
			r.logger.Warnf("Error closing transport: %v", err)
		}
	}
	if director != nil {
		director.Stop()
	}
	if prev == stateInitialized || prev == stateConnected {
		r.logger.Infof("Robot shut down")
	}
}

// SDKVersion returns the version reported by the robot at Connect, or the
// client library version before that.
func (r *Robot) SDKVersion() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.version != "" {
		return r.version
	}
	return Version
}

// MotionControlLevel returns the active controller level.
func (r *Robot) MotionControlLevel(ctx context.Context) (types.ControllerLevel, error) {
	var res wire.LevelMessage
	if err := r.call(ctx, wire.MsgRobotGetLevel, nil, &res); err != nil {
		return types.ControllerLevelUnknown, err
	}
	return res.Level, nil
}

// SetMotionControlLevel switches between high level (gait) and low level
// (joint) control.
func (r *Robot) SetMotionControlLevel(ctx context.Context, level types.ControllerLevel) error {
	if level != types.ControllerLevelHigh && level != types.ControllerLevelLow {
		return types.Errorf(types.ErrorCodeServiceError, "invalid controller level %s", level)
	}
	return r.call(ctx, wire.MsgRobotSetLevel, wire.LevelMessage{Level: level}, nil)
}

func (r *Robot) HighLevelMotionController() *HighLevelMotionController { return r.highLevel }
func (r *Robot) LowLevelMotionController() *LowLevelMotionController   { return r.lowLevel }
func (r *Robot) AudioController() *AudioController                     { return r.audio }
func (r *Robot) SensorController() *SensorController                   { return r.sensor }
func (r *Robot) SlamNavController() *SlamNavController                 { return r.slam }
func (r *Robot) StateMonitor() *StateMonitor                           { return r.monitor }

// StreamMetrics returns the metrics of the callback pools, keyed by priority.
func (r *Robot) StreamMetrics() map[string]processing.PoolMetrics {
	r.mu.RLock()
	director := r.director
	r.mu.RUnlock()
	if director == nil {
		return nil
	}
	return director.GetPoolMetrics()
}

// CallbackErrors returns how many callbacks of topic returned an error or panicked.
func (r *Robot) CallbackErrors(topic string) int64 {
	return r.results.ErrorCount(topic)
}

func (r *Robot) connected() (Transport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.state != stateConnected {
		return nil, types.Errorf(types.ErrorCodeServiceNotReady, "robot is %s", stateNames[r.state])
	}
	return r.transport, nil
}

func (r *Robot) call(ctx context.Context, msgType string, req, resp interface{}) error {
	transport, err := r.connected()
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(ctx, r.cfg.Robot.RequestTimeoutMs)
	defer cancel()
	return transport.Call(ctx, msgType, req, resp)
}

func (r *Robot) send(ctx context.Context, frame []byte) error {
	transport, err := r.connected()
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(ctx, r.cfg.Robot.RequestTimeoutMs)
	defer cancel()
	return transport.Send(ctx, frame, nil)
}

func (r *Robot) subscribe(topic string, cb processing.TopicCallback) error {
	r.mu.RLock()
	transport, state := r.transport, r.state
	r.mu.RUnlock()
	if transport == nil {
		return types.Errorf(types.ErrorCodeServiceNotReady, "robot is %s", stateNames[state])
	}

	r.callbacks.Register(topic, cb)
	if err := transport.Subscribe(topic); err != nil {
		r.callbacks.Unregister(topic)
		return types.Errorf(types.ErrorCodeInternalError, "subscribe %s: %v", topic, err)
	}
	r.logger.Debugf("Subscribed to %s", topic)
	return nil
}

func (r *Robot) unsubscribe(topic string) error {
	r.callbacks.Unregister(topic)

	r.mu.RLock()
	transport := r.transport
	r.mu.RUnlock()
	if transport == nil {
		return nil
	}
	if err := transport.Unsubscribe(topic); err != nil {
		return types.Errorf(types.ErrorCodeInternalError, "unsubscribe %s: %v", topic, err)
	}
	return nil
}

// subscribeTopic decodes frames of topic into T before calling cb.
func subscribeTopic[T any](r *Robot, topic string, cb func(*T)) error {
	if cb == nil {
		return types.Errorf(types.ErrorCodeServiceError, "nil callback for %s", topic)
	}
	return r.subscribe(topic, func(data []byte) error {
		var v T
		if err := wire.DecodeTopic(topic, data, &v); err != nil {
			return err
		}
		cb(&v)
		return nil
	})
}

// withTimeout bounds ctx by ms unless it already carries a deadline.
func withTimeout(ctx context.Context, ms int) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok || ms <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(ms)*time.Millisecond)
}
