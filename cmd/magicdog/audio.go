package main

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/magicdog"
	"github.com/magicdog/sdk/pkg/types"
)

type AudioCommand struct {
	Volume   int           `long:"volume" default:"50" description:"speaker volume, 0 to 100"`
	Text     string        `long:"text" default:"今日天气晴朗，温度25度，适合户外活动" description:"text to speak"`
	Priority string        `long:"priority" default:"HIGH" choice:"HIGH" choice:"MIDDLE" choice:"LOW"`
	Mode     string        `long:"mode" default:"CLEARTOP" choice:"CLEARTOP" choice:"ADD" choice:"CLEARBUFFER"`
	Listen   time.Duration `long:"listen" default:"2s" description:"how long to record the microphone streams"`
}

func (c *AudioCommand) Execute(args []string) error {
	priority, err := types.ParseTtsPriority(c.Priority)
	if err != nil {
		return err
	}
	mode, err := types.ParseTtsMode(c.Mode)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	s, err := openSession(ctx, "audio", nil)
	if err != nil {
		return err
	}
	defer s.Close()

	tts := types.TtsCommand{ID: uuid.NewString(), Content: c.Text, Priority: priority, Mode: mode}
	_, err = runAudio(ctx, s.robot, s.log, c.Volume, tts, c.Listen)
	return err
}

// voiceFrames counts the microphone frames received by runAudio.
type voiceFrames struct {
	Origin int64
	Bf     int64
}

func runAudio(ctx context.Context, robot *magicdog.Robot, log customlog.Logger, volume int, tts types.TtsCommand, listen time.Duration) (voiceFrames, error) {
	var frames voiceFrames
	ac := robot.AudioController()

	current, err := ac.Volume(ctx)
	if err != nil {
		return frames, fmt.Errorf("failed to get volume: %w", err)
	}
	log.Infof("Current volume: %d", current)
	if err := ac.SetVolume(ctx, volume); err != nil {
		return frames, fmt.Errorf("failed to set volume: %w", err)
	}
	log.Infof("Volume set to %d", volume)

	cfg, err := ac.VoiceConfig(ctx)
	if err != nil {
		return frames, fmt.Errorf("failed to get voice config: %w", err)
	}
	log.Infof("TTS type: %s", cfg.TtsType)
	log.Infof("Speaker: region=%s id=%s speed=%.1f",
		cfg.SpeakerConfig.Selected.Region, cfg.SpeakerConfig.Selected.SpeakerID, cfg.SpeakerConfig.SpeakerSpeed)
	log.Infof("Bot: %s, wakeup name: %s", cfg.BotConfig.Selected.BotID, cfg.WakeupConfig.Name)
	log.Infof("Dialog: enable=%t doa=%t front_doa=%t fullduplex=%t",
		cfg.DialogConfig.IsEnable, cfg.DialogConfig.IsDoaEnable, cfg.DialogConfig.IsFrontDoa, cfg.DialogConfig.IsFullduplexEnable)

	if err := ac.Play(ctx, tts); err != nil {
		return frames, fmt.Errorf("failed to play tts: %w", err)
	}
	log.Infof("Playing %s: %s", tts.ID, tts.Content)

	var origin, bf atomic.Int64
	if err := ac.SubscribeOriginVoiceData(func(*types.ByteMultiArray) { origin.Add(1) }); err != nil {
		return frames, fmt.Errorf("failed to subscribe origin voice: %w", err)
	}
	if err := ac.SubscribeBfVoiceData(func(*types.ByteMultiArray) { bf.Add(1) }); err != nil {
		return frames, fmt.Errorf("failed to subscribe bf voice: %w", err)
	}
	if err := ac.ControlVoiceStream(ctx, true, true); err != nil {
		return frames, fmt.Errorf("failed to open voice stream: %w", err)
	}

	waitErr := sleep(ctx, listen)

	// Cleanup runs even when interrupted.
	cleanup, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := ac.ControlVoiceStream(cleanup, false, false); err != nil {
		log.Warnf("Failed to close voice stream: %v", err)
	}
	ac.UnsubscribeOriginVoiceData()
	ac.UnsubscribeBfVoiceData()
	frames = voiceFrames{Origin: origin.Load(), Bf: bf.Load()}
	log.Infof("Received %d origin and %d beamformed voice frames", frames.Origin, frames.Bf)

	if err := ac.Stop(cleanup); err != nil {
		return frames, fmt.Errorf("failed to stop tts: %w", err)
	}
	if waitErr != nil {
		log.Infof("Interrupted")
	}
	return frames, nil
}
