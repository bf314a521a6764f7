package magicdog

import (
	"context"

	"github.com/magicdog/sdk/pkg/types"
	"github.com/magicdog/sdk/pkg/wire"
)

// StateMonitor reads the battery and fault state of the robot.
type StateMonitor struct {
	robot *Robot
}

func (m *StateMonitor) CurrentState(ctx context.Context) (types.RobotState, error) {
	var res types.RobotState
	err := m.robot.call(ctx, wire.MsgMonitorGetState, nil, &res)
	return res, err
}
