package magicdog

import (
	"context"
	"time"

	"github.com/magicdog/sdk/pkg/types"
	"github.com/magicdog/sdk/pkg/wire"
)

// HighLevelMotionController drives the robot through gaits, tricks and
// joystick commands.
type HighLevelMotionController struct {
	robot *Robot
}

// SetGait requests a gait change. The robot switches asynchronously; poll
// Gait or use WaitForGait to see the transition complete.
func (c *HighLevelMotionController) SetGait(ctx context.Context, gait types.GaitMode) error {
	if !gait.Valid() {
		return types.Errorf(types.ErrorCodeServiceError, "unknown gait %d", int32(gait))
	}
	return c.robot.call(ctx, wire.MsgMotionSetGait, wire.GaitMessage{Gait: gait}, nil)
}

// Gait returns the current gait.
func (c *HighLevelMotionController) Gait(ctx context.Context) (types.GaitMode, error) {
	var res wire.GaitMessage
	if err := c.robot.call(ctx, wire.MsgMotionGetGait, nil, &res); err != nil {
		return types.GaitNone, err
	}
	return res.Gait, nil
}

// WaitForGait polls Gait every poll until it reports gait. A context that
// ends first yields TIMEOUT.
func (c *HighLevelMotionController) WaitForGait(ctx context.Context, gait types.GaitMode, poll time.Duration) error {
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		current, err := c.Gait(ctx)
		if err == nil && current == gait {
			return nil
		}
		if err != nil && !isTimeout(err) {
			return err
		}
		select {
		case <-ctx.Done():
			return types.Errorf(types.ErrorCodeTimeout, "gait is %s, waiting for %s", current, gait)
		case <-ticker.C:
		}
	}
}

// ExecuteTrick runs a trick action. Most tricks need a standing gait.
func (c *HighLevelMotionController) ExecuteTrick(ctx context.Context, action types.TrickAction) error {
	if !action.Valid() {
		return types.Errorf(types.ErrorCodeServiceError, "unknown trick %d", int32(action))
	}
	return c.robot.call(ctx, wire.MsgMotionExecuteTrick, wire.TrickRequest{Action: action}, nil)
}

// SendJoystickCommand sends one joystick sample. Axes are in [-1, 1] and
// the joystick must be enabled.
func (c *HighLevelMotionController) SendJoystickCommand(ctx context.Context, cmd types.JoystickCommand) error {
	return c.robot.call(ctx, wire.MsgMotionJoystick, cmd, nil)
}

func (c *HighLevelMotionController) EnableJoystick(ctx context.Context) error {
	return c.robot.call(ctx, wire.MsgMotionEnableJoystick, nil, nil)
}

func (c *HighLevelMotionController) DisableJoystick(ctx context.Context) error {
	return c.robot.call(ctx, wire.MsgMotionDisableJoystick, nil, nil)
}

// AllGaitSpeedRatio returns the speed ratios of every gait that has one.
func (c *HighLevelMotionController) AllGaitSpeedRatio(ctx context.Context) (types.AllGaitSpeedRatio, error) {
	var res types.AllGaitSpeedRatio
	err := c.robot.call(ctx, wire.MsgMotionGetSpeedRatio, nil, &res)
	return res, err
}

func (c *HighLevelMotionController) SetGaitSpeedRatio(ctx context.Context, gait types.GaitMode, ratio types.GaitSpeedRatio) error {
	return c.robot.call(ctx, wire.MsgMotionSetSpeedRatio, wire.SpeedRatioRequest{Gait: gait, Ratio: ratio}, nil)
}

func (c *HighLevelMotionController) HeadMotorEnabled(ctx context.Context) (bool, error) {
	var res wire.EnabledResult
	err := c.robot.call(ctx, wire.MsgMotionGetHeadMotor, nil, &res)
	return res.Enabled, err
}

func (c *HighLevelMotionController) EnableHeadMotor(ctx context.Context) error {
	return c.robot.call(ctx, wire.MsgMotionEnableHeadMotor, nil, nil)
}

func (c *HighLevelMotionController) DisableHeadMotor(ctx context.Context) error {
	return c.robot.call(ctx, wire.MsgMotionDisableHeadMotor, nil, nil)
}

// LowLevelMotionController streams joint commands and joint states. The
// robot accepts commands only at the LOW controller level.
type LowLevelMotionController struct {
	*controller
}

// SubscribeLegState delivers every leg state frame to cb. A later call
// replaces cb.
func (c *LowLevelMotionController) SubscribeLegState(cb func(*types.LegState)) error {
	return subscribeVia(c.controller, wire.TopicLegState, cb)
}

func (c *LowLevelMotionController) UnsubscribeLegState() error {
	return c.unsubscribe(wire.TopicLegState)
}

// PublishLegCommand sends one joint command frame.
func (c *LowLevelMotionController) PublishLegCommand(ctx context.Context, cmd *types.LegJointCommand) error {
	return c.robot.send(ctx, wire.EncodeLegCommand(cmd))
}

func isTimeout(err error) bool {
	return types.StatusOf(err).Code == types.ErrorCodeTimeout
}
