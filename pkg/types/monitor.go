package types

// Fault describes one error condition reported by the robot.
type Fault struct {
	ErrorCode    int32  `json:"error_code"`
	ErrorMessage string `json:"error_message"`
}

// BatteryState is the health state reported by the BMS.
type BatteryState int8

const (
	BatteryStateUnknown             BatteryState = 0
	BatteryStateGood                BatteryState = 1
	BatteryStateOverheat            BatteryState = 2
	BatteryStateDead                BatteryState = 3
	BatteryStateOvervoltage         BatteryState = 4
	BatteryStateUnspecFailure       BatteryState = 5
	BatteryStateCold                BatteryState = 6
	BatteryStateWatchdogTimerExpire BatteryState = 7
	BatteryStateSafetyTimerExpire   BatteryState = 8
)

var batteryStateNames = enumTable[BatteryState]{
	BatteryStateUnknown:             "UNKNOWN",
	BatteryStateGood:                "GOOD",
	BatteryStateOverheat:            "OVERHEAT",
	BatteryStateDead:                "DEAD",
	BatteryStateOvervoltage:         "OVERVOLTAGE",
	BatteryStateUnspecFailure:       "UNSPEC_FAILURE",
	BatteryStateCold:                "COLD",
	BatteryStateWatchdogTimerExpire: "WATCHDOG_TIMER_EXPIRE",
	BatteryStateSafetyTimerExpire:   "SAFETY_TIMER_EXPIRE",
}

func (s BatteryState) String() string { return batteryStateNames.name(s) }

// PowerSupplyStatus is the charge/discharge status of the battery.
type PowerSupplyStatus int8

const (
	PowerSupplyUnknown     PowerSupplyStatus = 0
	PowerSupplyCharging    PowerSupplyStatus = 1
	PowerSupplyDischarging PowerSupplyStatus = 2
	PowerSupplyNotCharging PowerSupplyStatus = 3
	PowerSupplyFull        PowerSupplyStatus = 4
)

var powerSupplyNames = enumTable[PowerSupplyStatus]{
	PowerSupplyUnknown:     "UNKNOWN",
	PowerSupplyCharging:    "CHARGING",
	PowerSupplyDischarging: "DISCHARGING",
	PowerSupplyNotCharging: "NOTCHARGING",
	PowerSupplyFull:        "FULL",
}

func (s PowerSupplyStatus) String() string { return powerSupplyNames.name(s) }

// BmsData is a battery management system sample.
type BmsData struct {
	BatteryPercentage float64           `json:"battery_percentage"` // 0..100
	BatteryHealth     float64           `json:"battery_health"`
	BatteryState      BatteryState      `json:"battery_state"`
	PowerSupplyStatus PowerSupplyStatus `json:"power_supply_status"`
}

// RobotState is the snapshot returned by the state monitor.
type RobotState struct {
	Faults  []Fault `json:"faults"`
	BmsData BmsData `json:"bms_data"`
}
