package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/magicdog"
	"github.com/magicdog/sdk/pkg/types"
)

const (
	gaitPoll       = 10 * time.Millisecond
	joystickPeriod = 10 * time.Millisecond
	legPeriod      = 2 * time.Millisecond // 500 Hz
)

type HighLevelCommand struct {
	Trick string        `long:"trick" default:"ACTION_SHAKE_LEFT_HAND" description:"trick to execute once standing"`
	Walk  time.Duration `long:"walk" default:"1s" description:"duration of each joystick move"`
}

func (c *HighLevelCommand) Execute(args []string) error {
	trick, err := types.ParseTrickAction(c.Trick)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()

	s, err := openSession(ctx, "highlevel", nil)
	if err != nil {
		return err
	}
	defer s.Close()
	return runHighLevel(ctx, s.robot, s.log, trick, c.Walk)
}

// changeGait sets gait and polls until the robot reports it.
func changeGait(ctx context.Context, hl *magicdog.HighLevelMotionController, log customlog.Logger, gait types.GaitMode) error {
	current, err := hl.Gait(ctx)
	if err != nil {
		return fmt.Errorf("failed to get gait: %w", err)
	}
	if current == gait {
		return nil
	}
	if err := hl.SetGait(ctx, gait); err != nil {
		return fmt.Errorf("failed to set gait %s: %w", gait, err)
	}
	if err := hl.WaitForGait(ctx, gait, gaitPoll); err != nil {
		return fmt.Errorf("gait %s not reached: %w", gait, err)
	}
	log.Infof("Gait changed to %s", gait)
	return nil
}

// holdJoystick sends cmd every joystickPeriod for d.
func holdJoystick(ctx context.Context, hl *magicdog.HighLevelMotionController, cmd types.JoystickCommand, d time.Duration) error {
	ticker := time.NewTicker(joystickPeriod)
	defer ticker.Stop()
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		if err := hl.SendJoystickCommand(ctx, cmd); err != nil {
			return fmt.Errorf("failed to send joystick command: %w", err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}

func runHighLevel(ctx context.Context, robot *magicdog.Robot, log customlog.Logger, trick types.TrickAction, walk time.Duration) error {
	if err := robot.SetMotionControlLevel(ctx, types.ControllerLevelHigh); err != nil {
		return fmt.Errorf("failed to set motion control level: %w", err)
	}
	hl := robot.HighLevelMotionController()

	log.Infof("Recovery stand")
	if err := changeGait(ctx, hl, log, types.GaitStandR); err != nil {
		return err
	}
	log.Infof("Force control standing")
	if err := changeGait(ctx, hl, log, types.GaitStandB); err != nil {
		return err
	}
	if err := hl.ExecuteTrick(ctx, trick); err != nil {
		return fmt.Errorf("failed to execute trick %s: %w", trick, err)
	}
	log.Infof("Trick %s executed", trick)

	if err := changeGait(ctx, hl, log, types.GaitDownClimbStairs); err != nil {
		return err
	}
	ratios, err := hl.AllGaitSpeedRatio(ctx)
	if err != nil {
		return fmt.Errorf("failed to get speed ratios: %w", err)
	}
	if r, ok := ratios.GaitSpeedRatios[types.GaitDownClimbStairs]; ok {
		log.Infof("Speed ratio straight=%.2f turn=%.2f lateral=%.2f", r.StraightRatio, r.TurnRatio, r.LateralRatio)
	}

	if err := hl.EnableJoystick(ctx); err != nil {
		return fmt.Errorf("failed to enable joystick: %w", err)
	}
	moves := []struct {
		name string
		cmd  types.JoystickCommand
	}{
		{"forward", types.JoystickCommand{LeftYAxis: 1}},
		{"left", types.JoystickCommand{LeftXAxis: -1}},
		{"turn right", types.JoystickCommand{RightXAxis: 1}},
		{"stop", types.JoystickCommand{}},
	}
	for _, m := range moves {
		log.Infof("Move %s", m.name)
		if err := holdJoystick(ctx, hl, m.cmd, walk); err != nil {
			return err
		}
	}
	if err := hl.DisableJoystick(ctx); err != nil {
		return fmt.Errorf("failed to disable joystick: %w", err)
	}
	return changeGait(ctx, hl, log, types.GaitStandR)
}

type LowLevelCommand struct {
	Duration time.Duration `long:"duration" default:"5s" description:"how long to track the joint trajectory, 0 until interrupted"`
}

func (c *LowLevelCommand) Execute(args []string) error {
	ctx, stop := signalContext()
	defer stop()

	s, err := openSession(ctx, "lowlevel", nil)
	if err != nil {
		return err
	}
	defer s.Close()
	_, err = runLowLevel(ctx, s.robot, s.log, c.Duration)
	return err
}

// Standing and crouched joint angles of one leg: abduction, hip, knee.
var (
	legCrouch = [3]float64{0.0000, 1.0477, -2.0944}
	legStand  = [3]float64{0.0000, 0.7231, -1.4455}
)

// legTarget returns the desired joint angles at tick n of the trajectory:
// 1000 ticks from the initial pose to crouched, then crouched and standing
// alternate every 750 ticks.
func legTarget(n int, initial [types.LegJointNum]float64) [types.LegJointNum]float64 {
	var q [types.LegJointNum]float64
	if n >= 2500 {
		n = 1000 + (n-1000)%1500
	}
	lerp := func(a, b, t float64) float64 {
		t = min(max(t, 0), 1)
		return (1-t)*a + t*b
	}
	for i := range q {
		switch {
		case n < 1000:
			q[i] = lerp(initial[i], legCrouch[i%3], float64(n)/1000)
		case n < 1750:
			q[i] = lerp(legCrouch[i%3], legStand[i%3], float64(n-1000)/700)
		default:
			q[i] = lerp(legStand[i%3], legCrouch[i%3], float64(n-1750)/700)
		}
	}
	return q
}

// runLowLevel switches to LOW level and streams leg commands at 500 Hz. It
// returns the number of commands sent.
func runLowLevel(ctx context.Context, robot *magicdog.Robot, log customlog.Logger, duration time.Duration) (int, error) {
	hl := robot.HighLevelMotionController()
	if err := robot.SetMotionControlLevel(ctx, types.ControllerLevelHigh); err != nil {
		return 0, fmt.Errorf("failed to set motion control level: %w", err)
	}
	if err := changeGait(ctx, hl, log, types.GaitPassive); err != nil {
		return 0, err
	}
	if err := robot.SetMotionControlLevel(ctx, types.ControllerLevelLow); err != nil {
		return 0, fmt.Errorf("failed to set motion control level: %w", err)
	}
	if err := hl.WaitForGait(ctx, types.GaitLowLevelSDK, gaitPoll); err != nil {
		return 0, fmt.Errorf("low level gait not reached: %w", err)
	}

	ll := robot.LowLevelMotionController()
	var (
		mu       sync.Mutex
		first    *types.LegState
		received = make(chan struct{})
		count    atomic.Int64
	)
	err := ll.SubscribeLegState(func(st *types.LegState) {
		mu.Lock()
		if first == nil {
			first = st
			close(received)
		}
		mu.Unlock()
		if count.Add(1)%1000 == 1 {
			log.Infof("Received leg state data")
		}
	})
	if err != nil {
		return 0, fmt.Errorf("failed to subscribe leg state: %w", err)
	}
	defer ll.UnsubscribeLegState()

	log.Infof("Waiting to receive leg state data")
	select {
	case <-received:
	case <-ctx.Done():
		return 0, ctx.Err()
	}

	var initial [types.LegJointNum]float64
	mu.Lock()
	for i, j := range first.State {
		initial[i] = j.Q
	}
	mu.Unlock()

	ticker := time.NewTicker(legPeriod)
	defer ticker.Stop()
	var stopAt <-chan time.Time
	if duration > 0 {
		timer := time.NewTimer(duration)
		defer timer.Stop()
		stopAt = timer.C
	}

	var cmd types.LegJointCommand
	sent := 0
	for {
		q := legTarget(sent, initial)
		cmd.Timestamp = time.Now().UnixNano()
		for i := range cmd.Cmd {
			cmd.Cmd[i] = types.SingleLegJointCommand{QDes: q[i], Kp: 100, Kd: 1.2}
		}
		if err := ll.PublishLegCommand(ctx, &cmd); err != nil {
			if ctx.Err() != nil {
				return sent, nil
			}
			return sent, fmt.Errorf("failed to publish leg command: %w", err)
		}
		sent++

		select {
		case <-ctx.Done():
			log.Infof("Interrupted after %d leg commands", sent)
			return sent, nil
		case <-stopAt:
			log.Infof("Sent %d leg commands, received %d leg states", sent, count.Load())
			return sent, nil
		case <-ticker.C:
		}
	}
}
