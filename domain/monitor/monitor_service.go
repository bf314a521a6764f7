package monitor

import (
	"sort"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/magicdog/sdk/pkg/config"
	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/types"
	"github.com/magicdog/sdk/pkg/wire"
	"github.com/magicdog/sdk/pkg/zeromq"
)

// Fault codes raised by the simulator itself.
const (
	FaultBatteryLow   int32 = 0x1001
	FaultBatteryEmpty int32 = 0x1002
)

const (
	lowBatteryPercent = 10
	chargeRateFactor  = 2
	batteryHealth     = 98.5
)

// MonitorService simulates the battery management system and the fault list.
type MonitorService struct {
	cfg    config.SimulationConfig
	logger customlog.Logger
	now    func() time.Time

	batteryGauge prometheus.Gauge
	faultGauge   prometheus.Gauge

	mu         sync.Mutex
	percentage float64
	charging   bool
	lastUpdate time.Time
	faults     map[int32]types.Fault
}

// NewMonitorService starts with a full, discharging battery and no faults.
func NewMonitorService(cfg config.SimulationConfig, reg prometheus.Registerer, logger customlog.Logger) *MonitorService {
	factory := promauto.With(reg)
	return &MonitorService{
		cfg:    cfg,
		logger: logger.WithField("service", "monitor"),
		now:    time.Now,
		batteryGauge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "magicdog", Subsystem: "sim", Name: "battery_percentage",
			Help: "Simulated battery charge in percent.",
		}),
		faultGauge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "magicdog", Subsystem: "sim", Name: "active_faults",
			Help: "Number of active faults.",
		}),
		percentage: 100,
		faults:     make(map[int32]types.Fault),
	}
}

// Register installs the monitor.get_state handler.
func (s *MonitorService) Register(server zeromq.Server) {
	server.RegisterHandlerFunc(wire.MsgMonitorGetState, func(*wire.Envelope) (interface{}, error) {
		return s.State(), nil
	})
}

// GetStateHandler handles API requests for the robot state
func (s *MonitorService) GetStateHandler(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "success",
		"state":  s.State(),
	})
}

// SetChargingHandler handles POST /api/charging with body {"charging": bool}
func (s *MonitorService) SetChargingHandler(c *fiber.Ctx) error {
	var req struct {
		Charging bool `json:"charging"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	s.SetCharging(req.Charging)
	return c.JSON(fiber.Map{"status": "success", "state": s.State()})
}

// State returns the current BMS sample and the active faults sorted by code.
func (s *MonitorService) State() types.RobotState {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateLocked()

	st := types.RobotState{
		Faults:  make([]types.Fault, 0, len(s.faults)),
		BmsData: s.bmsLocked(),
	}
	for _, f := range s.faults {
		st.Faults = append(st.Faults, f)
	}
	sort.Slice(st.Faults, func(i, j int) bool { return st.Faults[i].ErrorCode < st.Faults[j].ErrorCode })
	return st
}

// SetCharging plugs or unplugs the charger.
func (s *MonitorService) SetCharging(charging bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateLocked()
	if s.charging != charging {
		s.logger.Infof("Charger %s at %.1f%%", map[bool]string{true: "connected", false: "disconnected"}[charging], s.percentage)
	}
	s.charging = charging
}

// RaiseFault adds or replaces a fault.
func (s *MonitorService) RaiseFault(f types.Fault) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[f.ErrorCode] = f
	s.faultGauge.Set(float64(len(s.faults)))
	s.logger.Warnf("Fault 0x%04x: %s", f.ErrorCode, f.ErrorMessage)
}

// ClearFaults removes every fault. Battery faults come back while the
// condition holds.
func (s *MonitorService) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = make(map[int32]types.Fault)
	s.updateLocked()
}

// updateLocked integrates charge and drain since the last update.
func (s *MonitorService) updateLocked() {
	now := s.now()
	if !s.lastUpdate.IsZero() {
		minutes := now.Sub(s.lastUpdate).Minutes()
		if s.charging {
			s.percentage += chargeRateFactor * s.cfg.BatteryDrainRate * minutes
		} else {
			s.percentage -= s.cfg.BatteryDrainRate * minutes
		}
		if s.percentage > 100 {
			s.percentage = 100
		}
		if s.percentage < 0 {
			s.percentage = 0
		}
	}
	s.lastUpdate = now

	s.setFaultLocked(FaultBatteryLow, "battery low", s.percentage < lowBatteryPercent && s.percentage > 0)
	s.setFaultLocked(FaultBatteryEmpty, "battery empty", s.percentage <= 0)
	s.batteryGauge.Set(s.percentage)
	s.faultGauge.Set(float64(len(s.faults)))
}

func (s *MonitorService) setFaultLocked(code int32, msg string, active bool) {
	if active {
		s.faults[code] = types.Fault{ErrorCode: code, ErrorMessage: msg}
	} else {
		delete(s.faults, code)
	}
}

func (s *MonitorService) bmsLocked() types.BmsData {
	bms := types.BmsData{
		BatteryPercentage: s.percentage,
		BatteryHealth:     batteryHealth,
		BatteryState:      types.BatteryStateGood,
		PowerSupplyStatus: types.PowerSupplyDischarging,
	}
	switch {
	case s.charging && s.percentage >= 100:
		bms.PowerSupplyStatus = types.PowerSupplyFull
	case s.charging:
		bms.PowerSupplyStatus = types.PowerSupplyCharging
	}
	if s.percentage <= 0 {
		bms.BatteryState = types.BatteryStateDead
	}
	return bms
}
