package main

import (
	"context"
	"fmt"

	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/magicdog"
	"github.com/magicdog/sdk/pkg/types"
)

type MonitorCommand struct{}

func (c *MonitorCommand) Execute(args []string) error {
	ctx, stop := signalContext()
	defer stop()

	s, err := openSession(ctx, "monitor", nil)
	if err != nil {
		return err
	}
	defer s.Close()
	_, err = runMonitor(ctx, s.robot, s.log)
	return err
}

func runMonitor(ctx context.Context, robot *magicdog.Robot, log customlog.Logger) (types.RobotState, error) {
	state, err := robot.StateMonitor().CurrentState(ctx)
	if err != nil {
		return state, fmt.Errorf("failed to get current state: %w", err)
	}
	bms := state.BmsData
	log.Infof("health: %.2f, percentage: %.1f, state: %s, power_supply_status: %s",
		bms.BatteryHealth, bms.BatteryPercentage, bms.BatteryState, bms.PowerSupplyStatus)
	for _, fault := range state.Faults {
		log.Infof("code: %d, message: %s", fault.ErrorCode, fault.ErrorMessage)
	}
	return state, nil
}
