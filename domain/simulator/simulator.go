// Package simulator assembles the simulated robot: one service per SDK
// controller plus the session, all answering on a single zeromq.Server.
package simulator

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/magicdog/sdk/domain/audio"
	"github.com/magicdog/sdk/domain/monitor"
	"github.com/magicdog/sdk/domain/motion"
	"github.com/magicdog/sdk/domain/sensor"
	"github.com/magicdog/sdk/domain/session"
	"github.com/magicdog/sdk/domain/slam"
	"github.com/magicdog/sdk/domain/stream"
	"github.com/magicdog/sdk/domain/teleop"
	"github.com/magicdog/sdk/pkg/config"
	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/zeromq"
	"github.com/magicdog/sdk/services"
)

// Simulator owns the domain services of one simulated robot.
type Simulator struct {
	Session *session.SessionService
	Motion  *motion.MotionService
	Audio   *audio.AudioService
	Sensor  *sensor.SensorService
	Slam    *slam.SlamService
	Monitor *monitor.MonitorService
	Teleop  *teleop.TeleopService
	Voice   services.VoiceConfigService

	version string
	logger  customlog.Logger
}

// New builds every service. reg may be nil, in which case metrics are not
// registered anywhere.
func New(cfg config.SimulationConfig, voice services.VoiceConfigService, reg prometheus.Registerer, logger customlog.Logger) *Simulator {
	m := motion.NewMotionService(cfg, reg, logger)
	return &Simulator{
		Session: session.NewSessionService(cfg.SDKVersion, logger, m),
		Motion:  m,
		Audio:   audio.NewAudioService(cfg, voice, logger),
		Sensor:  sensor.NewSensorService(cfg, logger),
		Slam:    slam.NewSlamService(cfg, logger),
		Monitor: monitor.NewMonitorService(cfg, reg, logger),
		Teleop:  teleop.NewTeleopService(m, logger),
		Voice:   voice,
		version: cfg.SDKVersion,
		logger:  logger.WithField("component", "simulator"),
	}
}

// Version is the SDK version the simulated robot reports.
func (s *Simulator) Version() string { return s.version }

// Register installs the request handlers of every service on server.
func (s *Simulator) Register(server zeromq.Server) {
	s.Session.Register(server)
	s.Motion.Register(server)
	s.Audio.Register(server)
	s.Sensor.Register(server)
	s.Slam.Register(server)
	s.Monitor.Register(server)
	s.logger.Infof("Simulator handlers registered")
}

// Sources lists the streams of every service.
func (s *Simulator) Sources() []stream.Source {
	var out []stream.Source
	out = append(out, s.Motion.Sources()...)
	out = append(out, s.Audio.Sources()...)
	out = append(out, s.Sensor.Sources()...)
	out = append(out, s.Slam.Sources()...)
	return out
}

// Run publishes all streams through pub until ctx ends. Voice configuration
// changes are announced through the same publisher.
func (s *Simulator) Run(ctx context.Context, pub stream.Publisher) error {
	s.Voice.SetPublisher(audio.ConfigNotifier{Publisher: pub})
	defer s.Voice.SetPublisher(nil)
	return stream.Run(ctx, pub, s.logger, s.Sources()...)
}
