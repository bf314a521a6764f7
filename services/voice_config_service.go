package services

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/types"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid speech configuration")

// ConfigPublisher announces configuration changes to subscribed clients.
type ConfigPublisher interface {
	PublishVoiceConfigUpdated(cfg types.GetSpeechConfig) error
}

// VoiceConfigService manages the speech configuration of the robot and
// keeps it persisted as YAML.
type VoiceConfigService interface {
	LoadConfig() error
	GetCurrentConfig() types.GetSpeechConfig
	GetCurrentConfigYAML() ([]byte, error)
	UpdateConfig(newConfigYAML []byte) error
	ApplySpeechConfig(set types.SetSpeechConfig) (types.GetSpeechConfig, error)
	SetTtsType(t types.TtsType) error
	PersistConfig(yamlData []byte) error
	SetPublisher(p ConfigPublisher)
}

type voiceConfigService struct {
	configPath string
	logger     customlog.Logger
	publisher  ConfigPublisher
	current    types.GetSpeechConfig
	mu         sync.RWMutex
}

// NewVoiceConfigService loads configPath. A missing file is created from
// DefaultSpeechConfig.
func NewVoiceConfigService(configPath string, logger customlog.Logger) (VoiceConfigService, error) {
	if configPath == "" {
		return nil, fmt.Errorf("voice configuration path cannot be empty")
	}

	s := &voiceConfigService{
		configPath: configPath,
		logger:     logger.WithField("service", "voice_config"),
	}

	err := s.LoadConfig()
	switch {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		s.logger.Warnf("Voice config '%s' not found, writing defaults", configPath)
		s.current = DefaultSpeechConfig()
		data, merr := yaml.Marshal(s.current)
		if merr != nil {
			return nil, fmt.Errorf("error encoding default voice config: %w", merr)
		}
		if err := s.PersistConfig(data); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	s.logger.Infof("VoiceConfigService initialized for path: %s", configPath)
	return s, nil
}

// DefaultSpeechConfig is the configuration of a factory-fresh robot.
func DefaultSpeechConfig() types.GetSpeechConfig {
	return types.GetSpeechConfig{
		SpeakerConfig: types.SpeakerConfig{
			Data: map[string][][2]string{
				"zh-CN": {{"zh_female_shuangkuai", "爽快思思"}, {"zh_male_yangguang", "阳光青年"}},
				"en-US": {{"en_female_emma", "Emma"}, {"en_male_liam", "Liam"}},
			},
			Selected:     types.SpeakerConfigSelected{Region: "zh-CN", SpeakerID: "zh_female_shuangkuai"},
			SpeakerSpeed: 1.0,
		},
		BotConfig: types.BotConfig{
			Data: map[string]types.BotInfo{
				"magicdog_default": {Name: "MagicDog", Workflow: "chat"},
				"magicdog_guide":   {Name: "Guide", Workflow: "tour"},
			},
			CustomData: map[string]types.CustomBotInfo{},
			Selected:   types.BotConfigSelected{BotID: "magicdog_default"},
		},
		WakeupConfig: types.WakeupConfig{
			Name: "小麦小麦",
			Data: map[string]string{"小麦小麦": "xiao mai xiao mai", "你好小麦": "ni hao xiao mai"},
		},
		DialogConfig: types.DialogConfig{IsFrontDoa: true, IsEnable: true, IsDoaEnable: true},
		TtsType:      types.TtsTypeDoubao,
	}
}

// LoadConfig reads the configuration file and replaces the current configuration.
func (s *voiceConfigService) LoadConfig() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.logger.Infof("Loading voice configuration from: %s", s.configPath)
	data, err := os.ReadFile(s.configPath)
	if err != nil {
		return fmt.Errorf("error reading voice config file '%s': %w", s.configPath, err)
	}

	var cfg types.GetSpeechConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("error parsing voice config file '%s': %w", s.configPath, err)
	}
	if err := validateSpeechConfig(&cfg); err != nil {
		return fmt.Errorf("voice config file '%s': %w", s.configPath, err)
	}

	s.current = cfg
	s.logger.Infof("Loaded voice configuration (speaker %s/%s, bot %s)",
		cfg.SpeakerConfig.Selected.Region, cfg.SpeakerConfig.Selected.SpeakerID, cfg.BotConfig.Selected.BotID)
	return nil
}

// GetCurrentConfig returns a copy of the current configuration.
func (s *voiceConfigService) GetCurrentConfig() types.GetSpeechConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneSpeechConfig(s.current)
}

// GetCurrentConfigYAML returns the configuration file as stored on disk.
func (s *voiceConfigService) GetCurrentConfigYAML() ([]byte, error) {
	s.mu.RLock()
	path := s.configPath
	s.mu.RUnlock()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading voice config file '%s': %w", path, err)
	}
	return data, nil
}

// UpdateConfig validates, persists and applies a complete configuration
// given as YAML, then publishes it.
func (s *voiceConfigService) UpdateConfig(newConfigYAML []byte) error {
	var cfg types.GetSpeechConfig
	if err := yaml.Unmarshal(newConfigYAML, &cfg); err != nil {
		return fmt.Errorf("%w: invalid YAML format: %v", ErrInvalidConfig, err)
	}
	if err := validateSpeechConfig(&cfg); err != nil {
		return err
	}

	s.mu.Lock()
	if err := s.persistConfigUnlocked(newConfigYAML); err != nil {
		s.mu.Unlock()
		return err
	}
	s.current = cfg
	s.mu.Unlock()

	s.notify(cfg)
	return nil
}

// ApplySpeechConfig merges the writable settings into the current
// configuration. Empty strings and a zero speed leave the current value.
func (s *voiceConfigService) ApplySpeechConfig(set types.SetSpeechConfig) (types.GetSpeechConfig, error) {
	s.mu.Lock()
	cfg := cloneSpeechConfig(s.current)

	if set.Region != "" {
		cfg.SpeakerConfig.Selected.Region = set.Region
	}
	if set.SpeakerID != "" {
		cfg.SpeakerConfig.Selected.SpeakerID = set.SpeakerID
	}
	if set.SpeakerSpeed != 0 {
		cfg.SpeakerConfig.SpeakerSpeed = set.SpeakerSpeed
	}
	for id, bot := range set.CustomBot {
		if cfg.BotConfig.CustomData == nil {
			cfg.BotConfig.CustomData = make(map[string]types.CustomBotInfo)
		}
		cfg.BotConfig.CustomData[id] = bot
	}
	if set.BotID != "" {
		cfg.BotConfig.Selected.BotID = set.BotID
	}
	if set.WakeupName != "" {
		cfg.WakeupConfig.Name = set.WakeupName
	}
	cfg.DialogConfig = types.DialogConfig{
		IsFrontDoa:         set.IsFrontDoa,
		IsFullduplexEnable: set.IsFullduplexEnable,
		IsEnable:           set.IsEnable,
		IsDoaEnable:        set.IsDoaEnable,
	}

	if err := s.commitLocked(cfg); err != nil {
		s.mu.Unlock()
		return types.GetSpeechConfig{}, err
	}
	s.mu.Unlock()

	s.notify(cfg)
	return cloneSpeechConfig(cfg), nil
}

// SetTtsType switches the speech model.
func (s *voiceConfigService) SetTtsType(t types.TtsType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: unknown tts type %d", ErrInvalidConfig, t)
	}
	s.mu.Lock()
	cfg := cloneSpeechConfig(s.current)
	cfg.TtsType = t
	if err := s.commitLocked(cfg); err != nil {
		s.mu.Unlock()
		return err
	}
	s.mu.Unlock()

	s.notify(cfg)
	return nil
}

func (s *voiceConfigService) commitLocked(cfg types.GetSpeechConfig) error {
	if err := validateSpeechConfig(&cfg); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error encoding voice config: %w", err)
	}
	if err := s.persistConfigUnlocked(data); err != nil {
		return err
	}
	s.current = cfg
	return nil
}

func (s *voiceConfigService) notify(cfg types.GetSpeechConfig) {
	s.mu.RLock()
	publisher := s.publisher
	s.mu.RUnlock()

	if publisher == nil {
		s.logger.Debugf("No publisher configured, skipping update notification")
		return
	}
	if err := publisher.PublishVoiceConfigUpdated(cfg); err != nil {
		s.logger.Warnf("Failed to publish voice config update: %v", err)
	}
}

// PersistConfig writes yamlData to the configuration file.
func (s *voiceConfigService) PersistConfig(yamlData []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persistConfigUnlocked(yamlData)
}

// persistConfigUnlocked writes through a temp file so a crash never leaves
// a truncated configuration. The caller holds mu.
func (s *voiceConfigService) persistConfigUnlocked(yamlData []byte) error {
	if err := os.MkdirAll(filepath.Dir(s.configPath), 0o755); err != nil {
		return fmt.Errorf("error creating voice config directory: %w", err)
	}
	tmp := s.configPath + ".tmp"
	if err := os.WriteFile(tmp, yamlData, 0o644); err != nil {
		return fmt.Errorf("error writing voice config file '%s': %w", tmp, err)
	}
	if err := os.Rename(tmp, s.configPath); err != nil {
		return fmt.Errorf("error replacing voice config file '%s': %w", s.configPath, err)
	}
	s.logger.Debugf("Persisted voice configuration to %s", s.configPath)
	return nil
}

// SetPublisher injects the publisher after construction.
func (s *voiceConfigService) SetPublisher(p ConfigPublisher) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.publisher = p
}

func validateSpeechConfig(cfg *types.GetSpeechConfig) error {
	sel := cfg.SpeakerConfig.Selected
	speakers, ok := cfg.SpeakerConfig.Data[sel.Region]
	if !ok {
		return fmt.Errorf("%w: unknown region %q", ErrInvalidConfig, sel.Region)
	}
	found := false
	for _, sp := range speakers {
		if sp[0] == sel.SpeakerID {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: speaker %q not available in %s", ErrInvalidConfig, sel.SpeakerID, sel.Region)
	}
	if speed := cfg.SpeakerConfig.SpeakerSpeed; speed < 1 || speed > 2 {
		return fmt.Errorf("%w: speaker speed %.2f outside [1, 2]", ErrInvalidConfig, speed)
	}

	bot := cfg.BotConfig.Selected.BotID
	_, builtin := cfg.BotConfig.Data[bot]
	_, custom := cfg.BotConfig.CustomData[bot]
	if bot != "" && !builtin && !custom {
		return fmt.Errorf("%w: unknown bot %q", ErrInvalidConfig, bot)
	}

	if name := cfg.WakeupConfig.Name; len(cfg.WakeupConfig.Data) > 0 {
		if _, ok := cfg.WakeupConfig.Data[name]; !ok {
			return fmt.Errorf("%w: unknown wake word %q", ErrInvalidConfig, name)
		}
	}
	if !cfg.TtsType.Valid() {
		return fmt.Errorf("%w: unknown tts type %d", ErrInvalidConfig, cfg.TtsType)
	}
	return nil
}

func cloneSpeechConfig(in types.GetSpeechConfig) types.GetSpeechConfig {
	out := in
	out.SpeakerConfig.Data = make(map[string][][2]string, len(in.SpeakerConfig.Data))
	for region, speakers := range in.SpeakerConfig.Data {
		out.SpeakerConfig.Data[region] = append([][2]string(nil), speakers...)
	}
	out.BotConfig.Data = make(map[string]types.BotInfo, len(in.BotConfig.Data))
	for id, bot := range in.BotConfig.Data {
		out.BotConfig.Data[id] = bot
	}
	out.BotConfig.CustomData = make(map[string]types.CustomBotInfo, len(in.BotConfig.CustomData))
	for id, bot := range in.BotConfig.CustomData {
		out.BotConfig.CustomData[id] = bot
	}
	out.WakeupConfig.Data = make(map[string]string, len(in.WakeupConfig.Data))
	for word, pinyin := range in.WakeupConfig.Data {
		out.WakeupConfig.Data[word] = pinyin
	}
	return out
}
