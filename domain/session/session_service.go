package session

import (
	"sort"
	"sync"

	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/types"
	"github.com/magicdog/sdk/pkg/wire"
	"github.com/magicdog/sdk/pkg/zeromq"
)

// LevelListener is told about controller level switches.
type LevelListener interface {
	OnLevelChange(from, to types.ControllerLevel)
}

// Client is a connected SDK client
type Client struct {
	ID      string `json:"id"`
	LocalIP string `json:"local_ip"`
}

// SessionService answers the robot.* requests: connect, disconnect, version
// and the controller level.
type SessionService struct {
	version   string
	logger    customlog.Logger
	listeners []LevelListener

	mu      sync.RWMutex
	level   types.ControllerLevel
	clients map[string]Client
}

// NewSessionService creates a session service in HIGH level.
func NewSessionService(version string, logger customlog.Logger, listeners ...LevelListener) *SessionService {
	return &SessionService{
		version:   version,
		logger:    logger.WithField("service", "session"),
		listeners: listeners,
		level:     types.ControllerLevelHigh,
		clients:   make(map[string]Client),
	}
}

// Register installs the request handlers on server.
func (s *SessionService) Register(server zeromq.Server) {
	server.RegisterHandlerFunc(wire.MsgRobotConnect, s.handleConnect)
	server.RegisterHandlerFunc(wire.MsgRobotDisconnect, s.handleDisconnect)
	server.RegisterHandlerFunc(wire.MsgRobotVersion, func(*wire.Envelope) (interface{}, error) {
		return wire.VersionResult{Version: s.version}, nil
	})
	server.RegisterHandlerFunc(wire.MsgRobotGetLevel, func(*wire.Envelope) (interface{}, error) {
		return wire.LevelMessage{Level: s.Level()}, nil
	})
	server.RegisterHandlerFunc(wire.MsgRobotSetLevel, s.handleSetLevel)
}

func (s *SessionService) handleConnect(env *wire.Envelope) (interface{}, error) {
	var req wire.ConnectRequest
	if err := env.Bind(&req); err != nil {
		return nil, err
	}
	if req.ClientID == "" {
		return nil, types.Errorf(types.ErrorCodeServiceError, "connect without client id")
	}

	s.mu.Lock()
	s.clients[req.ClientID] = Client{ID: req.ClientID, LocalIP: req.LocalIP}
	n := len(s.clients)
	s.mu.Unlock()

	s.logger.Infof("Client %s connected from %s (%d connected)", req.ClientID, req.LocalIP, n)
	return wire.VersionResult{Version: s.version}, nil
}

func (s *SessionService) handleDisconnect(env *wire.Envelope) (interface{}, error) {
	var req wire.ConnectRequest
	if err := env.Bind(&req); err != nil {
		return nil, err
	}

	s.mu.Lock()
	_, known := s.clients[req.ClientID]
	delete(s.clients, req.ClientID)
	s.mu.Unlock()

	if known {
		s.logger.Infof("Client %s disconnected", req.ClientID)
	}
	return nil, nil
}

func (s *SessionService) handleSetLevel(env *wire.Envelope) (interface{}, error) {
	var req wire.LevelMessage
	if err := env.Bind(&req); err != nil {
		return nil, err
	}
	return nil, s.SetLevel(req.Level)
}

// SetLevel switches the controller level and notifies the listeners.
func (s *SessionService) SetLevel(level types.ControllerLevel) error {
	if level != types.ControllerLevelHigh && level != types.ControllerLevelLow {
		return types.Errorf(types.ErrorCodeServiceError, "cannot switch to %s", level)
	}

	s.mu.Lock()
	from := s.level
	s.level = level
	s.mu.Unlock()

	if from == level {
		return nil
	}
	s.logger.Infof("Controller level %s -> %s", from, level)
	for _, l := range s.listeners {
		l.OnLevelChange(from, level)
	}
	return nil
}

// Level returns the active controller level
func (s *SessionService) Level() types.ControllerLevel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.level
}

// Clients returns the connected clients sorted by id
func (s *SessionService) Clients() []Client {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Client, 0, len(s.clients))
	for _, c := range s.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
