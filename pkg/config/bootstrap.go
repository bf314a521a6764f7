package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BootstrapFilename is the simulator configuration file looked up in the config dir.
const BootstrapFilename = "sim_config.yaml"

// BootstrapConfig holds the simulator configuration loaded from sim_config.yaml
type BootstrapConfig struct {
	Logging    LoggingConfig         `yaml:"logging"`
	Server     BootstrapServerConfig `yaml:"server"`
	ZeroMQ     ZeroMQBootstrap       `yaml:"zeromq"`
	Data       DataConfig            `yaml:"data"`
	Simulation SimulationConfig      `yaml:"simulation"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogPath string `yaml:"log_path,omitempty"`
}

type BootstrapServerConfig struct {
	HTTPPort int `yaml:"http_port"`
}

// ZeroMQBootstrap holds the addresses the simulator binds
type ZeroMQBootstrap struct {
	RequestBindAddress string `yaml:"request_bind_address"`
	PublishBindAddress string `yaml:"publish_bind_address"`
}

// DataConfig holds data directory settings
type DataConfig struct {
	Directory           string `yaml:"directory"`
	VoiceConfigFilename string `yaml:"voice_config_file"`
}

// SimulationConfig controls stream rates and simulated timings.
type SimulationConfig struct {
	SDKVersion string `yaml:"sdk_version"`

	LegStateHz  int `yaml:"leg_state_hz"`
	ImuHz       int `yaml:"imu_hz"`
	UltraHz     int `yaml:"ultra_hz"`
	HeadTouchHz int `yaml:"head_touch_hz"`
	LaserScanHz int `yaml:"laser_scan_hz"`
	CameraHz    int `yaml:"camera_hz"`
	OdometryHz  int `yaml:"odometry_hz"`
	VoiceHz     int `yaml:"voice_hz"`

	GaitTransitionMs int     `yaml:"gait_transition_ms"`
	NavTravelMs      int     `yaml:"nav_travel_ms"`
	TtsMsPerRune     int     `yaml:"tts_ms_per_rune"`
	LegResponseTau   float64 `yaml:"leg_response_tau"`      // seconds
	BatteryDrainRate float64 `yaml:"battery_drain_per_min"` // percent
}

// DefaultSimulationConfig returns the rates used when a field is left at zero.
func DefaultSimulationConfig() SimulationConfig {
	return SimulationConfig{
		SDKVersion:       "0.1.0-sim",
		LegStateHz:       500,
		ImuHz:            200,
		UltraHz:          10,
		HeadTouchHz:      10,
		LaserScanHz:      10,
		CameraHz:         15,
		OdometryHz:       50,
		VoiceHz:          50,
		GaitTransitionMs: 800,
		NavTravelMs:      3000,
		TtsMsPerRune:     120,
		LegResponseTau:   0.05,
		BatteryDrainRate: 0.5,
	}
}

// withDefaults fills zero fields from DefaultSimulationConfig.
func (s SimulationConfig) withDefaults() SimulationConfig {
	d := DefaultSimulationConfig()
	if s.SDKVersion == "" {
		s.SDKVersion = d.SDKVersion
	}
	setInt := func(v *int, def int) {
		if *v <= 0 {
			*v = def
		}
	}
	setInt(&s.LegStateHz, d.LegStateHz)
	setInt(&s.ImuHz, d.ImuHz)
	setInt(&s.UltraHz, d.UltraHz)
	setInt(&s.HeadTouchHz, d.HeadTouchHz)
	setInt(&s.LaserScanHz, d.LaserScanHz)
	setInt(&s.CameraHz, d.CameraHz)
	setInt(&s.OdometryHz, d.OdometryHz)
	setInt(&s.VoiceHz, d.VoiceHz)
	setInt(&s.GaitTransitionMs, d.GaitTransitionMs)
	setInt(&s.NavTravelMs, d.NavTravelMs)
	setInt(&s.TtsMsPerRune, d.TtsMsPerRune)
	if s.LegResponseTau <= 0 {
		s.LegResponseTau = d.LegResponseTau
	}
	if s.BatteryDrainRate <= 0 {
		s.BatteryDrainRate = d.BatteryDrainRate
	}
	return s
}

// DefaultBootstrapConfig is used when the simulator runs in-process without a config dir.
func DefaultBootstrapConfig(dataDir string) *BootstrapConfig {
	return &BootstrapConfig{
		Logging: LoggingConfig{Level: "info"},
		Server:  BootstrapServerConfig{HTTPPort: 8080},
		ZeroMQ: ZeroMQBootstrap{
			RequestBindAddress: "tcp://*:5555",
			PublishBindAddress: "tcp://*:5556",
		},
		Data: DataConfig{
			Directory:           dataDir,
			VoiceConfigFilename: "voice_config.yaml",
		},
		Simulation: DefaultSimulationConfig(),
	}
}

// VoiceConfigPath returns the absolute location of the persisted speech configuration.
func (c *BootstrapConfig) VoiceConfigPath() string {
	return filepath.Join(c.Data.Directory, c.Data.VoiceConfigFilename)
}

// LoadBootstrapConfig loads the simulator configuration from sim_config.yaml
func LoadBootstrapConfig(configDir string) (*BootstrapConfig, error) {
	bootstrapConfigPath := filepath.Join(configDir, BootstrapFilename)

	data, err := os.ReadFile(bootstrapConfigPath)
	if err != nil {
		return nil, fmt.Errorf("error reading bootstrap config file '%s': %w", bootstrapConfigPath, err)
	}

	var bootstrapCfg BootstrapConfig
	if err := yaml.Unmarshal(data, &bootstrapCfg); err != nil {
		return nil, fmt.Errorf("error parsing bootstrap config file '%s': %w", bootstrapConfigPath, err)
	}

	if bootstrapCfg.ZeroMQ.RequestBindAddress == "" {
		return nil, fmt.Errorf("missing required field in bootstrap config: zeromq.request_bind_address")
	}
	if bootstrapCfg.ZeroMQ.PublishBindAddress == "" {
		return nil, fmt.Errorf("missing required field in bootstrap config: zeromq.publish_bind_address")
	}
	if bootstrapCfg.Data.Directory == "" {
		return nil, fmt.Errorf("missing required field in bootstrap config: data.directory")
	}
	if bootstrapCfg.Data.VoiceConfigFilename == "" {
		return nil, fmt.Errorf("missing required field in bootstrap config: data.voice_config_file")
	}

	// Relative data directories are resolved against the config dir.
	if !filepath.IsAbs(bootstrapCfg.Data.Directory) {
		bootstrapCfg.Data.Directory = filepath.Join(configDir, bootstrapCfg.Data.Directory)
	}
	bootstrapCfg.Simulation = bootstrapCfg.Simulation.withDefaults()

	return &bootstrapCfg, nil
}
