package motion

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/magicdog/sdk/domain/stream"
	"github.com/magicdog/sdk/pkg/config"
	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/types"
	"github.com/magicdog/sdk/pkg/wire"
	"github.com/magicdog/sdk/pkg/zeromq"
)

// Gaits from which tricks can be started.
var trickGaits = map[types.GaitMode]bool{
	types.GaitStandR:          true,
	types.GaitStandB:          true,
	types.GaitDownClimbStairs: true,
	types.GaitUpClimbStairs:   true,
	types.GaitTrot:            true,
	types.GaitWalk:            true,
	types.GaitAmble:           true,
	types.GaitCrawl:           true,
	types.GaitDefault:         true,
}

// Gaits that carry a speed ratio out of the box.
var ratioGaits = []types.GaitMode{
	types.GaitStandB, types.GaitTrot, types.GaitWalk, types.GaitAmble,
	types.GaitCrawl, types.GaitDownClimbStairs, types.GaitUpClimbStairs,
}

// Joint angles of the lying pose, per leg: abduction, hip, knee.
var restPose = [3]float64{0, 1.1, -2.4}

// State is a snapshot of the motion state machine
type State struct {
	Level            types.ControllerLevel `json:"level"`
	Gait             types.GaitMode        `json:"gait"`
	TargetGait       types.GaitMode        `json:"target_gait"`
	JoystickEnabled  bool                  `json:"joystick_enabled"`
	Joystick         types.JoystickCommand `json:"joystick"`
	HeadMotorEnabled bool                  `json:"head_motor_enabled"`
	LastTrick        types.TrickAction     `json:"last_trick"`
	LegCommands      int64                 `json:"leg_commands"`
}

// MotionService simulates the gait state machine and the joint bus.
type MotionService struct {
	cfg    config.SimulationConfig
	logger customlog.Logger
	now    func() time.Time

	gaitGauge   prometheus.Gauge
	legCommands prometheus.Counter

	mu              sync.Mutex
	level           types.ControllerLevel
	gait            types.GaitMode
	target          types.GaitMode
	transitionAt    time.Time
	joystickEnabled bool
	joystick        types.JoystickCommand
	headMotor       bool
	lastTrick       types.TrickAction
	ratios          map[types.GaitMode]types.GaitSpeedRatio
	command         *types.LegJointCommand
	commandCount    int64
	legs            [types.LegJointNum]types.SingleLegJointState
	lastStep        time.Time
}

// NewMotionService creates the motion simulator in HIGH level and passive gait.
func NewMotionService(cfg config.SimulationConfig, reg prometheus.Registerer, logger customlog.Logger) *MotionService {
	factory := promauto.With(reg)
	s := &MotionService{
		cfg:    cfg,
		logger: logger.WithField("service", "motion"),
		now:    time.Now,
		gaitGauge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "magicdog", Subsystem: "sim", Name: "gait",
			Help: "Current gait id.",
		}),
		legCommands: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "magicdog", Subsystem: "sim", Name: "leg_commands_total",
			Help: "Leg joint command frames accepted.",
		}),
		level:     types.ControllerLevelHigh,
		gait:      types.GaitPassive,
		target:    types.GaitPassive,
		headMotor: true,
		ratios:    make(map[types.GaitMode]types.GaitSpeedRatio),
	}
	for _, g := range ratioGaits {
		s.ratios[g] = types.GaitSpeedRatio{StraightRatio: 1, TurnRatio: 1, LateralRatio: 1}
	}
	for i := range s.legs {
		s.legs[i].Q = restPose[i%3]
	}
	return s
}

// Register installs the motion.* handlers and the leg command frame handler.
func (s *MotionService) Register(server zeromq.Server) {
	server.RegisterHandlerFunc(wire.MsgMotionSetGait, func(env *wire.Envelope) (interface{}, error) {
		var req wire.GaitMessage
		if err := env.Bind(&req); err != nil {
			return nil, err
		}
		return nil, s.SetGait(req.Gait)
	})
	server.RegisterHandlerFunc(wire.MsgMotionGetGait, func(*wire.Envelope) (interface{}, error) {
		return wire.GaitMessage{Gait: s.Gait()}, nil
	})
	server.RegisterHandlerFunc(wire.MsgMotionExecuteTrick, func(env *wire.Envelope) (interface{}, error) {
		var req wire.TrickRequest
		if err := env.Bind(&req); err != nil {
			return nil, err
		}
		return nil, s.ExecuteTrick(req.Action)
	})
	server.RegisterHandlerFunc(wire.MsgMotionJoystick, func(env *wire.Envelope) (interface{}, error) {
		var cmd types.JoystickCommand
		if err := env.Bind(&cmd); err != nil {
			return nil, err
		}
		return nil, s.Joystick(cmd)
	})
	server.RegisterHandlerFunc(wire.MsgMotionEnableJoystick, func(*wire.Envelope) (interface{}, error) {
		return nil, s.SetJoystickEnabled(true)
	})
	server.RegisterHandlerFunc(wire.MsgMotionDisableJoystick, func(*wire.Envelope) (interface{}, error) {
		return nil, s.SetJoystickEnabled(false)
	})
	server.RegisterHandlerFunc(wire.MsgMotionGetSpeedRatio, func(*wire.Envelope) (interface{}, error) {
		return s.SpeedRatios(), nil
	})
	server.RegisterHandlerFunc(wire.MsgMotionSetSpeedRatio, func(env *wire.Envelope) (interface{}, error) {
		var req wire.SpeedRatioRequest
		if err := env.Bind(&req); err != nil {
			return nil, err
		}
		return nil, s.SetSpeedRatio(req.Gait, req.Ratio)
	})
	server.RegisterHandlerFunc(wire.MsgMotionGetHeadMotor, func(*wire.Envelope) (interface{}, error) {
		s.mu.Lock()
		defer s.mu.Unlock()
		return wire.EnabledResult{Enabled: s.headMotor}, nil
	})
	server.RegisterHandlerFunc(wire.MsgMotionEnableHeadMotor, func(*wire.Envelope) (interface{}, error) {
		return nil, s.setHeadMotor(true)
	})
	server.RegisterHandlerFunc(wire.MsgMotionDisableHeadMotor, func(*wire.Envelope) (interface{}, error) {
		return nil, s.setHeadMotor(false)
	})
	server.RegisterRawHandler(wire.IdentLegCommand, func(data []byte) (interface{}, error) {
		cmd, err := wire.DecodeLegCommand(data)
		if err != nil {
			return nil, err
		}
		return nil, s.ApplyLegCommand(cmd)
	})
}

// OnLevelChange follows the controller level. LOW parks the gait in
// GAIT_LOWLEVL_SDK; leaving LOW drops back to passive.
func (s *MotionService) OnLevelChange(from, to types.ControllerLevel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.level = to
	switch {
	case to == types.ControllerLevelLow:
		s.setGaitLocked(types.GaitLowLevelSDK)
		s.joystickEnabled = false
	case from == types.ControllerLevelLow:
		s.setGaitLocked(types.GaitPassive)
		s.command = nil
	}
}

func (s *MotionService) setGaitLocked(g types.GaitMode) {
	s.gait, s.target = g, g
	s.transitionAt = time.Time{}
	s.gaitGauge.Set(float64(g))
}

// advanceLocked completes a pending gait transition whose time has come.
func (s *MotionService) advanceLocked() {
	if s.gait != s.target && !s.now().Before(s.transitionAt) {
		s.logger.Infof("Gait %s -> %s", s.gait, s.target)
		s.gait = s.target
		s.gaitGauge.Set(float64(s.gait))
	}
}

// SetGait starts a transition to g. The gait reported by Gait changes once
// the transition time has passed.
func (s *MotionService) SetGait(g types.GaitMode) error {
	if !g.Valid() || g == types.GaitNone {
		return types.Errorf(types.ErrorCodeServiceError, "unknown gait %d", int32(g))
	}
	if g == types.GaitLowLevelSDK {
		return types.Errorf(types.ErrorCodeServiceError, "%s is entered through the controller level", g)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.level != types.ControllerLevelHigh {
		return types.Errorf(types.ErrorCodeServiceNotReady, "gait changes need HIGH_LEVEL control, level is %s", s.level)
	}
	s.advanceLocked()
	if s.target == g {
		return nil
	}
	s.target = g
	s.transitionAt = s.now().Add(time.Duration(s.cfg.GaitTransitionMs) * time.Millisecond)
	s.logger.Debugf("Gait transition to %s requested", g)
	return nil
}

// Gait returns the current gait.
func (s *MotionService) Gait() types.GaitMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked()
	return s.gait
}

// ExecuteTrick performs action. Emergency stop is always accepted and drops
// the robot to passive; other tricks need a standing or walking gait.
func (s *MotionService) ExecuteTrick(action types.TrickAction) error {
	if !action.Valid() {
		return types.Errorf(types.ErrorCodeServiceError, "unknown trick %d", int32(action))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if action == types.ActionEmergencyStop {
		s.logger.Warnf("Emergency stop")
		s.setGaitLocked(types.GaitPassive)
		s.joystickEnabled = false
		s.lastTrick = action
		return nil
	}
	if s.level != types.ControllerLevelHigh {
		return types.Errorf(types.ErrorCodeServiceNotReady, "tricks need HIGH_LEVEL control")
	}
	s.advanceLocked()

	switch action {
	case types.ActionNone:
		return nil
	case types.ActionRecoveryStand:
		s.target = types.GaitStandR
		s.transitionAt = s.now().Add(time.Duration(s.cfg.GaitTransitionMs) * time.Millisecond)
	case types.ActionLieDown:
		s.target = types.GaitPassive
		s.transitionAt = s.now().Add(time.Duration(s.cfg.GaitTransitionMs) * time.Millisecond)
	default:
		if s.gait != s.target || !trickGaits[s.gait] {
			return types.Errorf(types.ErrorCodeServiceError, "cannot run %s in %s", action, s.gait)
		}
	}
	s.lastTrick = action
	s.logger.Infof("Executing %s", action)
	return nil
}

// SetJoystickEnabled turns joystick control on or off.
func (s *MotionService) SetJoystickEnabled(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if enabled && s.level != types.ControllerLevelHigh {
		return types.Errorf(types.ErrorCodeServiceNotReady, "joystick needs HIGH_LEVEL control")
	}
	s.joystickEnabled = enabled
	if !enabled {
		s.joystick = types.JoystickCommand{}
	}
	return nil
}

// Joystick applies one joystick sample.
func (s *MotionService) Joystick(cmd types.JoystickCommand) error {
	for _, axis := range []float64{cmd.LeftXAxis, cmd.LeftYAxis, cmd.RightXAxis, cmd.RightYAxis} {
		if axis < -1 || axis > 1 {
			return types.Errorf(types.ErrorCodeServiceError, "joystick axis %.3f outside [-1, 1]", axis)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.joystickEnabled {
		return types.Errorf(types.ErrorCodeServiceNotReady, "joystick is disabled")
	}
	s.joystick = cmd
	return nil
}

// SpeedRatios returns a copy of the per gait speed ratios.
func (s *MotionService) SpeedRatios() types.AllGaitSpeedRatio {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := types.AllGaitSpeedRatio{GaitSpeedRatios: make(map[types.GaitMode]types.GaitSpeedRatio, len(s.ratios))}
	for g, r := range s.ratios {
		out.GaitSpeedRatios[g] = r
	}
	return out
}

// SetSpeedRatio stores the speed ratio of gait. Ratios are in [0, 1].
func (s *MotionService) SetSpeedRatio(g types.GaitMode, r types.GaitSpeedRatio) error {
	if !g.Valid() {
		return types.Errorf(types.ErrorCodeServiceError, "unknown gait %d", int32(g))
	}
	for _, v := range []float64{r.StraightRatio, r.TurnRatio, r.LateralRatio} {
		if v < 0 || v > 1 {
			return types.Errorf(types.ErrorCodeServiceError, "speed ratio %.3f outside [0, 1]", v)
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratios[g] = r
	return nil
}

func (s *MotionService) setHeadMotor(enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.headMotor = enabled
	return nil
}

// ApplyLegCommand stores cmd as the joint targets. Only accepted in LOW level.
func (s *MotionService) ApplyLegCommand(cmd types.LegJointCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.level != types.ControllerLevelLow {
		return types.Errorf(types.ErrorCodeServiceNotReady, "leg commands need LOW_LEVEL control")
	}
	s.command = &cmd
	s.commandCount++
	s.legCommands.Inc()
	return nil
}

// step moves every joint toward its commanded position with a first order
// response of time constant LegResponseTau.
func (s *MotionService) step(dt float64) types.LegState {
	s.mu.Lock()
	defer s.mu.Unlock()

	alpha := 1.0
	if tau := s.cfg.LegResponseTau; tau > 0 {
		alpha = dt / (tau + dt)
	}
	for i := range s.legs {
		joint := &s.legs[i]
		if s.command == nil {
			joint.Dq, joint.TauEst = 0, 0
			continue
		}
		c := s.command.Cmd[i]
		q := joint.Q + alpha*(c.QDes-joint.Q)
		joint.Dq = (q - joint.Q) / dt
		joint.Q = q
		joint.TauEst = c.Kp*(c.QDes-q) + c.Kd*(c.DqDes-joint.Dq) + c.TauDes
	}
	return types.LegState{Timestamp: s.now().UnixNano(), State: s.legs}
}

// Sources returns the leg state stream.
func (s *MotionService) Sources() []stream.Source {
	period := 1.0
	if s.cfg.LegStateHz > 0 {
		period = 1 / float64(s.cfg.LegStateHz)
	}
	return []stream.Source{{
		Topic: wire.TopicLegState,
		Hz:    s.cfg.LegStateHz,
		Sample: func(now time.Time) (interface{}, bool) {
			dt := period
			if !s.lastStep.IsZero() {
				dt = now.Sub(s.lastStep).Seconds()
			}
			s.lastStep = now
			if dt <= 0 {
				dt = period
			}
			st := s.step(dt)
			return &st, true
		},
	}}
}

// State returns a snapshot for the HTTP API
func (s *MotionService) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked()
	return State{
		Level:            s.level,
		Gait:             s.gait,
		TargetGait:       s.target,
		JoystickEnabled:  s.joystickEnabled,
		Joystick:         s.joystick,
		HeadMotorEnabled: s.headMotor,
		LastTrick:        s.lastTrick,
		LegCommands:      s.commandCount,
	}
}
