package magicdog

import (
	"context"

	"github.com/magicdog/sdk/pkg/types"
	"github.com/magicdog/sdk/pkg/wire"
)

// SlamNavController drives mapping, localization and navigation.
//
// The robot runs one of IDLE, MAPPING, LOCATION or navigation at a time.
// Maps can only be saved while mapping; navigation targets need the grid
// map navigation mode and a loaded map.
type SlamNavController struct {
	*controller
}

func (c *SlamNavController) SwitchToIdle(ctx context.Context) error {
	return c.robot.call(ctx, wire.MsgSlamSwitchToIdle, nil, nil)
}

func (c *SlamNavController) SwitchToLocation(ctx context.Context) error {
	return c.robot.call(ctx, wire.MsgSlamSwitchToLocation, nil, nil)
}

func (c *SlamNavController) StartMapping(ctx context.Context) error {
	return c.robot.call(ctx, wire.MsgSlamStartMapping, nil, nil)
}

func (c *SlamNavController) CancelMapping(ctx context.Context) error {
	return c.robot.call(ctx, wire.MsgSlamCancelMapping, nil, nil)
}

// SaveMap stores the map being built under name, which must be unused.
func (c *SlamNavController) SaveMap(ctx context.Context, name string) error {
	return c.robot.call(ctx, wire.MsgSlamSaveMap, wire.MapNameRequest{Name: name}, nil)
}

func (c *SlamNavController) LoadMap(ctx context.Context, name string) error {
	return c.robot.call(ctx, wire.MsgSlamLoadMap, wire.MapNameRequest{Name: name}, nil)
}

// DeleteMap removes a stored map. The current map cannot be deleted.
func (c *SlamNavController) DeleteMap(ctx context.Context, name string) error {
	return c.robot.call(ctx, wire.MsgSlamDeleteMap, wire.MapNameRequest{Name: name}, nil)
}

func (c *SlamNavController) AllMapInfo(ctx context.Context) (types.AllMapInfo, error) {
	var res types.AllMapInfo
	err := c.robot.call(ctx, wire.MsgSlamGetAllMapInfo, nil, &res)
	return res, err
}

// InitPose seeds localization with pose. Requires LOCATION mode.
func (c *SlamNavController) InitPose(ctx context.Context, pose types.Pose3DEuler) error {
	return c.robot.call(ctx, wire.MsgSlamInitPose, pose, nil)
}

func (c *SlamNavController) CurrentLocalizationInfo(ctx context.Context) (types.LocalizationInfo, error) {
	var res types.LocalizationInfo
	err := c.robot.call(ctx, wire.MsgSlamGetLocalization, nil, &res)
	return res, err
}

func (c *SlamNavController) ActivateNavMode(ctx context.Context, mode types.NavMode) error {
	return c.robot.call(ctx, wire.MsgSlamActivateNavMode, wire.NavModeRequest{Mode: mode}, nil)
}

// SetNavTarget starts a navigation task. Progress is reported through
// NavTaskStatus and the nav status stream.
func (c *SlamNavController) SetNavTarget(ctx context.Context, target types.NavTarget) error {
	return c.robot.call(ctx, wire.MsgSlamSetNavTarget, target, nil)
}

func (c *SlamNavController) PauseNavTask(ctx context.Context) error {
	return c.robot.call(ctx, wire.MsgSlamPauseNav, nil, nil)
}

func (c *SlamNavController) ResumeNavTask(ctx context.Context) error {
	return c.robot.call(ctx, wire.MsgSlamResumeNav, nil, nil)
}

func (c *SlamNavController) CancelNavTask(ctx context.Context) error {
	return c.robot.call(ctx, wire.MsgSlamCancelNav, nil, nil)
}

func (c *SlamNavController) NavTaskStatus(ctx context.Context) (types.NavStatus, error) {
	res := types.NewNavStatus()
	err := c.robot.call(ctx, wire.MsgSlamGetNavStatus, nil, &res)
	return res, err
}

func (c *SlamNavController) SubscribeOdometry(cb func(*types.Odometry)) error {
	return subscribeVia(c.controller, wire.TopicOdometry, cb)
}

func (c *SlamNavController) UnsubscribeOdometry() error { return c.unsubscribe(wire.TopicOdometry) }

func (c *SlamNavController) SubscribeNavStatus(cb func(*types.NavStatus)) error {
	return subscribeVia(c.controller, wire.TopicNavStatus, cb)
}

func (c *SlamNavController) UnsubscribeNavStatus() error { return c.unsubscribe(wire.TopicNavStatus) }
