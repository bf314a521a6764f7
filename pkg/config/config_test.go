package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func noEnv(string) (string, bool) { return "", false }

func TestLoadClientConfig(t *testing.T) {
	tempDir := t.TempDir()

	configContent := `
logging:
  level: "debug"
robot:
  local_ip: "10.0.0.5"
  request_address: "tcp://10.0.0.1:5555"
  subscribe_address: "tcp://10.0.0.1:5556"
  request_timeout_ms: 1500
processing:
  high_priority_workers: 4
streams:
  - topic: "motion.leg_state"
    priority: "high"
  - topic: "sensor.rgbd.color_image"
    priority: "LOW"
  - topic: "slam.odometry"
defaults:
  priority: "STANDARD"
`
	configPath := filepath.Join(tempDir, "magicdog.yaml")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}
	t.Setenv(EnvLocalIP, "")
	t.Setenv(EnvRobotAddress, "")

	cfg, err := LoadClientConfig(configPath)
	if err != nil {
		t.Fatalf("LoadClientConfig failed: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Expected level debug, got %s", cfg.Logging.Level)
	}
	if cfg.Robot.LocalIP != "10.0.0.5" {
		t.Errorf("Expected local_ip 10.0.0.5, got %s", cfg.Robot.LocalIP)
	}
	if cfg.Robot.RequestTimeoutMs != 1500 {
		t.Errorf("Expected request_timeout_ms 1500, got %d", cfg.Robot.RequestTimeoutMs)
	}
	// Unset fields keep their defaults.
	if cfg.Robot.ConnectTimeoutMs != 5000 {
		t.Errorf("Expected default connect_timeout_ms 5000, got %d", cfg.Robot.ConnectTimeoutMs)
	}
	if cfg.Processing.HighPriorityWorkers != 4 || cfg.Processing.LowPriorityWorkers != 1 {
		t.Errorf("Unexpected processing config: %+v", cfg.Processing)
	}
	if len(cfg.Streams) != 3 {
		t.Fatalf("Expected 3 streams, got %d", len(cfg.Streams))
	}
}

func TestStreamMappingHelpers(t *testing.T) {
	cfg := &ClientConfig{
		Streams: []StreamMapping{
			{Topic: "motion.leg_state", Priority: "high"},
			{Topic: "sensor.imu", Priority: PriorityHigh},
			{Topic: "slam.odometry"},
		},
		Defaults: DefaultsConfig{Priority: PriorityStandard},
	}

	m, ok := cfg.GetStreamMapping("slam.odometry")
	if !ok {
		t.Fatalf("Expected mapping for slam.odometry")
	}
	if m.Priority != PriorityStandard {
		t.Errorf("Expected default priority STANDARD, got %s", m.Priority)
	}

	if _, ok := cfg.GetStreamMapping("sensor.unknown"); ok {
		t.Errorf("Expected no mapping for unknown topic")
	}

	high := cfg.GetStreamsByPriority(PriorityHigh)
	if len(high) != 2 {
		t.Errorf("Expected 2 HIGH streams, got %d", len(high))
	}
}

func TestApplyEnv(t *testing.T) {
	cfg := DefaultClientConfig()
	env := map[string]string{
		EnvLocalIP:      "192.168.1.20",
		EnvRobotAddress: "127.0.0.1",
	}
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	})
	if err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if cfg.Robot.LocalIP != "192.168.1.20" {
		t.Errorf("Expected local ip override, got %s", cfg.Robot.LocalIP)
	}
	if cfg.Robot.RequestAddress != "tcp://127.0.0.1:5555" {
		t.Errorf("Unexpected request address %s", cfg.Robot.RequestAddress)
	}
	if cfg.Robot.SubscribeAddress != "tcp://127.0.0.1:5556" {
		t.Errorf("Unexpected subscribe address %s", cfg.Robot.SubscribeAddress)
	}

	cfg.Robot.RequestAddress = "garbage"
	if err := cfg.ApplyEnv(func(k string) (string, bool) { return env[k], true }); err == nil {
		t.Errorf("Expected error for endpoint without port")
	}
}

func TestValidateClientConfig(t *testing.T) {
	cfg := DefaultClientConfig()
	cfg.Robot.SubscribeAddress = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "robot.subscribe_address") {
		t.Errorf("Expected missing subscribe_address error, got %v", err)
	}

	cfg = DefaultClientConfig()
	cfg.Streams = append(cfg.Streams, StreamMapping{Topic: "sensor.ultra", Priority: "URGENT"})
	if err := cfg.Validate(); err == nil {
		t.Errorf("Expected invalid priority error")
	}

	cfg = DefaultClientConfig()
	cfg.Processing = ProcessingConfig{}
	if err := cfg.ApplyEnv(noEnv); err != nil {
		t.Fatalf("ApplyEnv failed: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if cfg.Processing.QueueSize != 256 {
		t.Errorf("Expected default queue size, got %d", cfg.Processing.QueueSize)
	}
}

func TestLoadBootstrapConfig(t *testing.T) {
	tempDir := t.TempDir()

	bootstrapContent := `
logging:
  level: "info"
  log_path: "/tmp/magicdog-logs"
server:
  http_port: 9090
zeromq:
  request_bind_address: "tcp://*:6666"
  publish_bind_address: "tcp://*:7777"
data:
  directory: "data"
  voice_config_file: "voice.yaml"
simulation:
  leg_state_hz: 250
  gait_transition_ms: 100
`
	if err := os.WriteFile(filepath.Join(tempDir, BootstrapFilename), []byte(bootstrapContent), 0644); err != nil {
		t.Fatalf("Failed to write test bootstrap config: %v", err)
	}

	bootstrapCfg, err := LoadBootstrapConfig(tempDir)
	if err != nil {
		t.Fatalf("LoadBootstrapConfig failed: %v", err)
	}

	if bootstrapCfg.Server.HTTPPort != 9090 {
		t.Errorf("Expected http_port 9090, got %d", bootstrapCfg.Server.HTTPPort)
	}
	if bootstrapCfg.ZeroMQ.PublishBindAddress != "tcp://*:7777" {
		t.Errorf("Unexpected publish_bind_address %s", bootstrapCfg.ZeroMQ.PublishBindAddress)
	}
	wantPath := filepath.Join(tempDir, "data", "voice.yaml")
	if bootstrapCfg.VoiceConfigPath() != wantPath {
		t.Errorf("Expected voice config path %s, got %s", wantPath, bootstrapCfg.VoiceConfigPath())
	}
	sim := bootstrapCfg.Simulation
	if sim.LegStateHz != 250 || sim.GaitTransitionMs != 100 {
		t.Errorf("Explicit simulation values not kept: %+v", sim)
	}
	if sim.ImuHz != 200 || sim.SDKVersion == "" {
		t.Errorf("Simulation defaults not applied: %+v", sim)
	}
}

func TestLoadBootstrapConfigMissingRequired(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
	}{
		{
			name: "request address",
			content: `
zeromq:
  publish_bind_address: "tcp://*:7777"
data:
  directory: "/data"
  voice_config_file: "voice.yaml"
`,
			field: "zeromq.request_bind_address",
		},
		{
			name: "voice config file",
			content: `
zeromq:
  request_bind_address: "tcp://*:6666"
  publish_bind_address: "tcp://*:7777"
data:
  directory: "/data"
`,
			field: "data.voice_config_file",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tempDir := t.TempDir()
			if err := os.WriteFile(filepath.Join(tempDir, BootstrapFilename), []byte(tc.content), 0644); err != nil {
				t.Fatalf("Failed to write test bootstrap config: %v", err)
			}

			_, err := LoadBootstrapConfig(tempDir)
			if err == nil {
				t.Fatalf("Expected error for missing %s", tc.field)
			}
			expected := "missing required field in bootstrap config: " + tc.field
			if !strings.Contains(err.Error(), expected) {
				t.Errorf("Expected error message to contain '%s', but got: %v", expected, err)
			}
		})
	}
}

func TestShippedConfigFiles(t *testing.T) {
	dir := filepath.Join("..", "..", "config")

	bootstrapCfg, err := LoadBootstrapConfig(dir)
	if err != nil {
		t.Fatalf("LoadBootstrapConfig failed: %v", err)
	}
	if bootstrapCfg.Simulation != DefaultSimulationConfig() {
		t.Errorf("Shipped simulation config drifted from defaults: %+v", bootstrapCfg.Simulation)
	}

	clientCfg, err := LoadClientConfig(filepath.Join(dir, "magicdog.yaml"))
	if err != nil {
		t.Fatalf("LoadClientConfig failed: %v", err)
	}
	def := DefaultClientConfig()
	if clientCfg.Robot != def.Robot {
		t.Errorf("Shipped robot config drifted from defaults: %+v", clientCfg.Robot)
	}
	if len(clientCfg.Streams) != len(def.Streams) {
		t.Errorf("Expected %d stream mappings, got %d", len(def.Streams), len(clientCfg.Streams))
	}
}
