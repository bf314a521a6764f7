package config

import (
	"fmt"
	"net"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Environment overrides applied by LoadClientConfig.
const (
	EnvLocalIP      = "MAGICDOG_LOCAL_IP"
	EnvRobotAddress = "MAGICDOG_ROBOT_ADDRESS"
)

// Stream priorities understood by the processing pools.
const (
	PriorityHigh     = "HIGH"
	PriorityStandard = "STANDARD"
	PriorityLow      = "LOW"
)

// ClientConfig represents the SDK client configuration
type ClientConfig struct {
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
	Robot      RobotConfig      `yaml:"robot" json:"robot"`
	Processing ProcessingConfig `yaml:"processing" json:"processing"`
	Streams    []StreamMapping  `yaml:"streams" json:"streams"`
	Defaults   DefaultsConfig   `yaml:"defaults" json:"defaults"`
}

// RobotConfig holds the addresses and timeouts used to reach the robot
type RobotConfig struct {
	LocalIP          string `yaml:"local_ip" json:"local_ip"`
	RequestAddress   string `yaml:"request_address" json:"request_address"`
	SubscribeAddress string `yaml:"subscribe_address" json:"subscribe_address"`
	ConnectTimeoutMs int    `yaml:"connect_timeout_ms" json:"connect_timeout_ms"`
	RequestTimeoutMs int    `yaml:"request_timeout_ms" json:"request_timeout_ms"`
}

// ProcessingConfig holds stream callback worker configuration
type ProcessingConfig struct {
	HighPriorityWorkers     int `yaml:"high_priority_workers" json:"high_priority_workers"`
	StandardPriorityWorkers int `yaml:"standard_priority_workers" json:"standard_priority_workers"`
	LowPriorityWorkers      int `yaml:"low_priority_workers" json:"low_priority_workers"`
	QueueSize               int `yaml:"queue_size" json:"queue_size"`
}

// StreamMapping assigns a delivery priority to a published topic
type StreamMapping struct {
	Topic       string `yaml:"topic" json:"topic"`
	Priority    string `yaml:"priority" json:"priority"`
	MessageType string `yaml:"message_type" json:"message_type"`
}

// DefaultsConfig holds default values for stream mappings
type DefaultsConfig struct {
	Priority string `yaml:"priority" json:"priority"`
}

// DefaultClientConfig returns the configuration used when no file is given.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		Logging: LoggingConfig{Level: "info"},
		Robot: RobotConfig{
			LocalIP:          "192.168.55.10",
			RequestAddress:   "tcp://192.168.55.200:5555",
			SubscribeAddress: "tcp://192.168.55.200:5556",
			ConnectTimeoutMs: 5000,
			RequestTimeoutMs: 3000,
		},
		Processing: ProcessingConfig{
			HighPriorityWorkers:     2,
			StandardPriorityWorkers: 2,
			LowPriorityWorkers:      1,
			QueueSize:               256,
		},
		Streams: []StreamMapping{
			{Topic: "motion.leg_state", Priority: PriorityHigh, MessageType: "LegState"},
			{Topic: "sensor.imu", Priority: PriorityHigh, MessageType: "Imu"},
			{Topic: "sensor.rgbd.depth_image", Priority: PriorityLow, MessageType: "Image"},
			{Topic: "sensor.rgbd.color_image", Priority: PriorityLow, MessageType: "Image"},
			{Topic: "sensor.binocular.left_high", Priority: PriorityLow, MessageType: "CompressedImage"},
			{Topic: "sensor.binocular.left_low", Priority: PriorityLow, MessageType: "CompressedImage"},
			{Topic: "sensor.binocular.right_low", Priority: PriorityLow, MessageType: "CompressedImage"},
			{Topic: "sensor.depth_image", Priority: PriorityLow, MessageType: "Image"},
			{Topic: "audio.origin_voice", Priority: PriorityLow, MessageType: "ByteMultiArray"},
			{Topic: "audio.bf_voice", Priority: PriorityLow, MessageType: "ByteMultiArray"},
		},
		Defaults: DefaultsConfig{Priority: PriorityStandard},
	}
}

// LoadClientConfig loads configuration from the specified file path on top of
// DefaultClientConfig and applies environment variable overrides
func LoadClientConfig(path string) (*ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	config := DefaultClientConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides the local IP and the robot host from the environment.
// MAGICDOG_ROBOT_ADDRESS replaces only the host part of both robot addresses.
func (c *ClientConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	if ip, ok := lookup(EnvLocalIP); ok && ip != "" {
		c.Robot.LocalIP = ip
	}
	if host, ok := lookup(EnvRobotAddress); ok && host != "" {
		req, err := replaceHost(c.Robot.RequestAddress, host)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvRobotAddress, err)
		}
		sub, err := replaceHost(c.Robot.SubscribeAddress, host)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvRobotAddress, err)
		}
		c.Robot.RequestAddress, c.Robot.SubscribeAddress = req, sub
	}
	return nil
}

// Validate checks required fields and fills zero timeouts and worker counts.
func (c *ClientConfig) Validate() error {
	if c.Robot.RequestAddress == "" {
		return fmt.Errorf("missing required field in client config: robot.request_address")
	}
	if c.Robot.SubscribeAddress == "" {
		return fmt.Errorf("missing required field in client config: robot.subscribe_address")
	}
	def := DefaultClientConfig()
	if c.Robot.ConnectTimeoutMs <= 0 {
		c.Robot.ConnectTimeoutMs = def.Robot.ConnectTimeoutMs
	}
	if c.Robot.RequestTimeoutMs <= 0 {
		c.Robot.RequestTimeoutMs = def.Robot.RequestTimeoutMs
	}
	if c.Processing.HighPriorityWorkers <= 0 {
		c.Processing.HighPriorityWorkers = def.Processing.HighPriorityWorkers
	}
	if c.Processing.StandardPriorityWorkers <= 0 {
		c.Processing.StandardPriorityWorkers = def.Processing.StandardPriorityWorkers
	}
	if c.Processing.LowPriorityWorkers <= 0 {
		c.Processing.LowPriorityWorkers = def.Processing.LowPriorityWorkers
	}
	if c.Processing.QueueSize <= 0 {
		c.Processing.QueueSize = def.Processing.QueueSize
	}
	if c.Defaults.Priority == "" {
		c.Defaults.Priority = PriorityStandard
	}
	for _, m := range c.Streams {
		switch strings.ToUpper(m.Priority) {
		case "", PriorityHigh, PriorityStandard, PriorityLow:
		default:
			return fmt.Errorf("invalid priority %q for stream %s", m.Priority, m.Topic)
		}
	}
	return nil
}

// GetStreamMapping returns the mapping for a topic with defaults applied
func (c *ClientConfig) GetStreamMapping(topic string) (StreamMapping, bool) {
	for _, mapping := range c.Streams {
		if mapping.Topic == topic {
			return applyDefaults(mapping, c.Defaults), true
		}
	}
	return StreamMapping{}, false
}

// GetStreamsByPriority returns the stream mappings of one priority
func (c *ClientConfig) GetStreamsByPriority(priority string) []StreamMapping {
	var result []StreamMapping
	for _, mapping := range c.Streams {
		m := applyDefaults(mapping, c.Defaults)
		if m.Priority == priority {
			result = append(result, m)
		}
	}
	return result
}

// applyDefaults merges default values into a stream mapping where fields are empty
func applyDefaults(mapping StreamMapping, defaults DefaultsConfig) StreamMapping {
	result := mapping
	if result.Priority == "" {
		result.Priority = defaults.Priority
	}
	result.Priority = strings.ToUpper(result.Priority)
	return result
}

// replaceHost swaps the host of a "tcp://host:port" endpoint.
func replaceHost(endpoint, host string) (string, error) {
	scheme := ""
	rest := endpoint
	if i := strings.Index(endpoint, "://"); i >= 0 {
		scheme, rest = endpoint[:i+3], endpoint[i+3:]
	}
	_, port, err := net.SplitHostPort(rest)
	if err != nil {
		return "", fmt.Errorf("endpoint %q: %w", endpoint, err)
	}
	return scheme + net.JoinHostPort(host, port), nil
}
