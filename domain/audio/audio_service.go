package audio

import (
	"encoding/binary"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/magicdog/sdk/domain/stream"
	"github.com/magicdog/sdk/pkg/config"
	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/types"
	"github.com/magicdog/sdk/pkg/wire"
	"github.com/magicdog/sdk/pkg/zeromq"
	"github.com/magicdog/sdk/services"
)

const (
	sampleRate     = 16000
	micChannels    = 4
	toneHz         = 440.0
	defaultVolume  = 50
	toneAmplitude  = 0.2 * math.MaxInt16
	bytesPerSample = 2
)

// AudioService simulates the speaker, the TTS engine and the microphone array.
type AudioService struct {
	cfg    config.SimulationConfig
	logger customlog.Logger
	voice  services.VoiceConfigService
	tts    *TtsScheduler

	mu        sync.Mutex
	volume    int
	rawStream bool
	bfStream  bool
	sample    int
}

// NewAudioService creates the audio simulator on top of the voice configuration.
func NewAudioService(cfg config.SimulationConfig, voice services.VoiceConfigService, logger customlog.Logger) *AudioService {
	return &AudioService{
		cfg:    cfg,
		logger: logger.WithField("service", "audio"),
		voice:  voice,
		tts:    NewTtsScheduler(cfg.TtsMsPerRune),
		volume: defaultVolume,
	}
}

// Register installs the audio.* handlers.
func (s *AudioService) Register(server zeromq.Server) {
	server.RegisterHandlerFunc(wire.MsgAudioSwitchTtsModel, func(env *wire.Envelope) (interface{}, error) {
		var req wire.TtsModelRequest
		if err := env.Bind(&req); err != nil {
			return nil, err
		}
		return nil, configStatus(s.voice.SetTtsType(req.Type))
	})
	server.RegisterHandlerFunc(wire.MsgAudioGetVoiceConfig, func(*wire.Envelope) (interface{}, error) {
		return s.voice.GetCurrentConfig(), nil
	})
	server.RegisterHandlerFunc(wire.MsgAudioSetVoiceConfig, func(env *wire.Envelope) (interface{}, error) {
		var req types.SetSpeechConfig
		if err := env.Bind(&req); err != nil {
			return nil, err
		}
		_, err := s.voice.ApplySpeechConfig(req)
		return nil, configStatus(err)
	})
	server.RegisterHandlerFunc(wire.MsgAudioPlay, func(env *wire.Envelope) (interface{}, error) {
		var cmd types.TtsCommand
		if err := env.Bind(&cmd); err != nil {
			return nil, err
		}
		if err := s.tts.Play(cmd); err != nil {
			return nil, err
		}
		s.logger.Infof("TTS %s queued (%s, %s): %s", cmd.ID, cmd.Priority, cmd.Mode, cmd.Content)
		return nil, nil
	})
	server.RegisterHandlerFunc(wire.MsgAudioStop, func(*wire.Envelope) (interface{}, error) {
		s.tts.Stop()
		return nil, nil
	})
	server.RegisterHandlerFunc(wire.MsgAudioSetVolume, func(env *wire.Envelope) (interface{}, error) {
		var req wire.VolumeMessage
		if err := env.Bind(&req); err != nil {
			return nil, err
		}
		return nil, s.SetVolume(req.Volume)
	})
	server.RegisterHandlerFunc(wire.MsgAudioGetVolume, func(*wire.Envelope) (interface{}, error) {
		return wire.VolumeMessage{Volume: s.Volume()}, nil
	})
	server.RegisterHandlerFunc(wire.MsgAudioControlStream, func(env *wire.Envelope) (interface{}, error) {
		var req wire.VoiceStreamRequest
		if err := env.Bind(&req); err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.rawStream, s.bfStream = req.Raw, req.Bf
		s.mu.Unlock()
		s.logger.Infof("Voice streams: raw=%t bf=%t", req.Raw, req.Bf)
		return nil, nil
	})
}

// configStatus turns configuration validation failures into SERVICE_ERROR.
func configStatus(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, services.ErrInvalidConfig) {
		return types.Errorf(types.ErrorCodeServiceError, "%v", err)
	}
	return types.Errorf(types.ErrorCodeInternalError, "%v", err)
}

// SetVolume sets the speaker volume, 0 to 100.
func (s *AudioService) SetVolume(volume int) error {
	if volume < 0 || volume > 100 {
		return types.Errorf(types.ErrorCodeServiceError, "volume %d out of range [0, 100]", volume)
	}
	s.mu.Lock()
	s.volume = volume
	s.mu.Unlock()
	return nil
}

func (s *AudioService) Volume() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.volume
}

// Tts exposes the scheduler state for the HTTP API.
func (s *AudioService) Tts() TtsState {
	return s.tts.State()
}

// Sources returns the microphone streams. They publish only while enabled
// through audio.control_stream.
func (s *AudioService) Sources() []stream.Source {
	return []stream.Source{
		{Topic: wire.TopicOriginVoice, Hz: s.cfg.VoiceHz, Sample: func(time.Time) (interface{}, bool) {
			s.mu.Lock()
			on := s.rawStream
			s.mu.Unlock()
			if !on {
				return nil, false
			}
			return s.frame(micChannels, true), true
		}},
		{Topic: wire.TopicBfVoice, Hz: s.cfg.VoiceHz, Sample: func(time.Time) (interface{}, bool) {
			s.mu.Lock()
			on := s.bfStream
			s.mu.Unlock()
			if !on {
				return nil, false
			}
			return s.frame(1, false), true
		}},
	}
}

// frame synthesizes one tick of 16 bit little endian PCM: a tone, quieter
// while the speaker is talking. Only the raw stream advances the phase.
func (s *AudioService) frame(channels int, advance bool) *types.ByteMultiArray {
	samples := sampleRate / s.cfg.VoiceHz
	gain := 1.0
	if s.tts.Speaking() {
		gain = 0.25
	}

	s.mu.Lock()
	start := s.sample
	if advance {
		s.sample += samples
	}
	s.mu.Unlock()

	data := make([]byte, samples*channels*bytesPerSample)
	for i := 0; i < samples; i++ {
		v := int16(gain * toneAmplitude * math.Sin(2*math.Pi*toneHz*float64(start+i)/sampleRate))
		for ch := 0; ch < channels; ch++ {
			binary.LittleEndian.PutUint16(data[(i*channels+ch)*bytesPerSample:], uint16(v))
		}
	}
	return &types.ByteMultiArray{
		Layout: types.MultiArrayLayout{
			DimSize: 2,
			Dim: []types.MultiArrayDimension{
				{Label: "samples", Size: int32(samples), Stride: int32(samples * channels)},
				{Label: "channels", Size: int32(channels), Stride: int32(channels)},
			},
		},
		Data: data,
	}
}

// ConfigNotifier publishes voice configuration changes on audio.config_updated.
type ConfigNotifier struct {
	Publisher stream.Publisher
}

func (n ConfigNotifier) PublishVoiceConfigUpdated(cfg types.GetSpeechConfig) error {
	return n.Publisher.Publish(wire.TopicVoiceConfigUpdated, cfg)
}
