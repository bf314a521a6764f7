package main

import (
	"context"
	"fmt"
	"sync"
	"time"

	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/magicdog"
	"github.com/magicdog/sdk/pkg/types"
)

const (
	sendPeriod = 10 * time.Millisecond
	gaitPoll   = 10 * time.Millisecond
	// walkGait is the gait every joystick key switches to first.
	walkGait = types.GaitDownClimbStairs
)

type action int

const (
	actionNone action = iota
	actionRecoveryStand
	actionBalanceStand
	actionLieDown
	actionJump
	actionMove
	actionQuit
)

// binding maps one key to an action. Move keys carry the joystick axes they set.
type binding struct {
	key   string
	label string
	act   action
	axes  types.JoystickCommand
}

var bindings = []binding{
	{key: "1", label: "position control standing", act: actionRecoveryStand},
	{key: "2", label: "force control standing", act: actionBalanceStand},
	{key: "3", label: "lie down", act: actionLieDown},
	{key: "w", label: "forward", act: actionMove, axes: types.JoystickCommand{LeftYAxis: 1}},
	{key: "s", label: "backward", act: actionMove, axes: types.JoystickCommand{LeftYAxis: -1}},
	{key: "a", label: "left", act: actionMove, axes: types.JoystickCommand{LeftXAxis: -1}},
	{key: "d", label: "right", act: actionMove, axes: types.JoystickCommand{LeftXAxis: 1}},
	{key: "q", label: "turn left", act: actionMove, axes: types.JoystickCommand{RightXAxis: -1}},
	{key: "e", label: "turn right", act: actionMove, axes: types.JoystickCommand{RightXAxis: 1}},
	{key: " ", label: "jump", act: actionJump},
	{key: "space", label: "jump", act: actionJump},
	{key: "x", label: "stop", act: actionMove},
	{key: "esc", label: "exit", act: actionQuit},
	{key: "ctrl+c", label: "exit", act: actionQuit},
}

func lookupKey(key string) (binding, bool) {
	for _, b := range bindings {
		if b.key == key {
			return b, true
		}
	}
	return binding{}, false
}

// operator holds the joystick command the sender loop repeats. Keys replace it
// wholesale; the sender always sends the latest one.
type operator struct {
	hl  *magicdog.HighLevelMotionController
	log customlog.Logger

	mu  sync.Mutex
	cmd types.JoystickCommand

	// actions run one at a time; a gait wait can take a while.
	actionMu sync.Mutex
}

func newOperator(hl *magicdog.HighLevelMotionController, log customlog.Logger) *operator {
	return &operator{hl: hl, log: log}
}

func (o *operator) joystick() types.JoystickCommand {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cmd
}

func (o *operator) setJoystick(cmd types.JoystickCommand) {
	o.mu.Lock()
	o.cmd = cmd
	o.mu.Unlock()
}

// prepare puts the robot in HIGH level with the joystick accepted.
func (o *operator) prepare(ctx context.Context, robot *magicdog.Robot) error {
	if err := robot.SetMotionControlLevel(ctx, types.ControllerLevelHigh); err != nil {
		return fmt.Errorf("failed to set motion control level: %w", err)
	}
	if err := o.hl.EnableJoystick(ctx); err != nil {
		return fmt.Errorf("failed to enable joystick: %w", err)
	}
	return nil
}

// apply runs the action bound to b.
func (o *operator) apply(ctx context.Context, b binding) error {
	o.actionMu.Lock()
	defer o.actionMu.Unlock()

	switch b.act {
	case actionRecoveryStand:
		return o.changeGait(ctx, types.GaitStandR)
	case actionBalanceStand:
		return o.changeGait(ctx, types.GaitStandB)
	case actionLieDown:
		o.setJoystick(types.JoystickCommand{})
		return o.trick(ctx, types.ActionLieDown)
	case actionJump:
		if err := o.changeGait(ctx, walkGait); err != nil {
			return err
		}
		o.setJoystick(types.JoystickCommand{})
		return o.trick(ctx, types.ActionHighJump)
	case actionMove:
		if err := o.changeGait(ctx, walkGait); err != nil {
			return err
		}
		o.setJoystick(b.axes)
	}
	return nil
}

func (o *operator) trick(ctx context.Context, action types.TrickAction) error {
	if err := o.hl.ExecuteTrick(ctx, action); err != nil {
		return fmt.Errorf("failed to execute %s: %w", action, err)
	}
	o.log.Infof("Executed %s", action)
	return nil
}

func (o *operator) changeGait(ctx context.Context, gait types.GaitMode) error {
	current, err := o.hl.Gait(ctx)
	if err != nil {
		return fmt.Errorf("failed to get gait: %w", err)
	}
	if current == gait {
		return nil
	}
	if err := o.hl.SetGait(ctx, gait); err != nil {
		return fmt.Errorf("failed to set gait %s: %w", gait, err)
	}
	if err := o.hl.WaitForGait(ctx, gait, gaitPoll); err != nil {
		return fmt.Errorf("gait %s not reached: %w", gait, err)
	}
	o.log.Infof("Gait changed to %s", gait)
	return nil
}

// send repeats the current joystick command every sendPeriod until ctx ends.
// It stops at the first rejected command.
func (o *operator) send(ctx context.Context) error {
	ticker := time.NewTicker(sendPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		if err := o.hl.SendJoystickCommand(ctx, o.joystick()); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed to send joystick command: %w", err)
		}
	}
}
