package services

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/types"
)

type recordingPublisher struct {
	mu      sync.Mutex
	updates []types.GetSpeechConfig
	err     error
}

func (p *recordingPublisher) PublishVoiceConfigUpdated(cfg types.GetSpeechConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updates = append(p.updates, cfg)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.updates)
}

func newTestService(t *testing.T) (VoiceConfigService, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "voice_config.yaml")
	s, err := NewVoiceConfigService(path, customlog.NewNopLogger())
	require.NoError(t, err)
	return s, path
}

func TestNewVoiceConfigServiceWritesDefaults(t *testing.T) {
	s, path := newTestService(t)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var onDisk types.GetSpeechConfig
	require.NoError(t, yaml.Unmarshal(data, &onDisk))
	assert.Equal(t, DefaultSpeechConfig().SpeakerConfig.Selected, onDisk.SpeakerConfig.Selected)
	assert.Equal(t, types.TtsTypeDoubao, s.GetCurrentConfig().TtsType)

	// A second instance loads the persisted file.
	again, err := NewVoiceConfigService(path, customlog.NewNopLogger())
	require.NoError(t, err)
	assert.Equal(t, s.GetCurrentConfig(), again.GetCurrentConfig())
}

func TestNewVoiceConfigServiceErrors(t *testing.T) {
	_, err := NewVoiceConfigService("", customlog.NewNopLogger())
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "voice_config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("speaker_config: [not, a, map"), 0o644))
	_, err = NewVoiceConfigService(path, customlog.NewNopLogger())
	assert.Error(t, err)
}

func TestApplySpeechConfig(t *testing.T) {
	s, path := newTestService(t)
	pub := &recordingPublisher{}
	s.SetPublisher(pub)

	got, err := s.ApplySpeechConfig(types.SetSpeechConfig{
		Region:       "en-US",
		SpeakerID:    "en_male_liam",
		SpeakerSpeed: 1.5,
		WakeupName:   "你好小麦",
		IsEnable:     true,
		CustomBot: types.CustomBotMap{
			"my_bot": {Name: "Mine", Workflow: "qa", Token: "secret"},
		},
		BotID: "my_bot",
	})
	require.NoError(t, err)
	assert.Equal(t, "en_male_liam", got.SpeakerConfig.Selected.SpeakerID)
	assert.Equal(t, 1.5, got.SpeakerConfig.SpeakerSpeed)
	assert.Equal(t, "my_bot", got.BotConfig.Selected.BotID)
	assert.Equal(t, types.DialogConfig{IsEnable: true}, got.DialogConfig)
	assert.Equal(t, 1, pub.count())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "en_male_liam")
}

func TestApplySpeechConfigRejectsInvalid(t *testing.T) {
	s, _ := newTestService(t)
	pub := &recordingPublisher{}
	s.SetPublisher(pub)
	before := s.GetCurrentConfig()

	for name, set := range map[string]types.SetSpeechConfig{
		"region":  {Region: "fr-FR"},
		"speaker": {SpeakerID: "nobody"},
		"speed":   {SpeakerSpeed: 2.5},
		"bot":     {BotID: "ghost"},
		"wakeup":  {WakeupName: "hey dog"},
	} {
		_, err := s.ApplySpeechConfig(set)
		assert.ErrorIs(t, err, ErrInvalidConfig, name)
	}
	assert.Equal(t, before, s.GetCurrentConfig())
	assert.Zero(t, pub.count())
}

func TestSetTtsType(t *testing.T) {
	s, _ := newTestService(t)
	require.NoError(t, s.SetTtsType(types.TtsTypeGoogle))
	assert.Equal(t, types.TtsTypeGoogle, s.GetCurrentConfig().TtsType)
	assert.ErrorIs(t, s.SetTtsType(types.TtsType(42)), ErrInvalidConfig)
}

func TestUpdateConfig(t *testing.T) {
	s, _ := newTestService(t)
	pub := &recordingPublisher{err: errors.New("publisher down")}
	s.SetPublisher(pub)

	cfg := DefaultSpeechConfig()
	cfg.SpeakerConfig.SpeakerSpeed = 2
	data, err := yaml.Marshal(cfg)
	require.NoError(t, err)

	// A failing publisher does not fail the update.
	require.NoError(t, s.UpdateConfig(data))
	assert.Equal(t, 2.0, s.GetCurrentConfig().SpeakerConfig.SpeakerSpeed)
	assert.Equal(t, 1, pub.count())

	raw, err := s.GetCurrentConfigYAML()
	require.NoError(t, err)
	assert.Equal(t, data, raw)

	assert.ErrorIs(t, s.UpdateConfig([]byte("{{{")), ErrInvalidConfig)
	cfg.SpeakerConfig.SpeakerSpeed = 0.5
	data, err = yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.ErrorIs(t, s.UpdateConfig(data), ErrInvalidConfig)
}

func TestGetCurrentConfigReturnsCopy(t *testing.T) {
	s, _ := newTestService(t)
	cfg := s.GetCurrentConfig()
	cfg.SpeakerConfig.Data["zh-CN"][0][0] = "mutated"
	cfg.WakeupConfig.Data["x"] = "y"

	fresh := s.GetCurrentConfig()
	assert.Equal(t, "zh_female_shuangkuai", fresh.SpeakerConfig.Data["zh-CN"][0][0])
	assert.NotContains(t, fresh.WakeupConfig.Data, "x")
}
