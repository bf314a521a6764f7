package slam

import (
	"math"
	"sort"
	"sync"
	"time"

	"github.com/magicdog/sdk/domain/stream"
	"github.com/magicdog/sdk/pkg/config"
	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/types"
	"github.com/magicdog/sdk/pkg/wire"
	"github.com/magicdog/sdk/pkg/zeromq"
)

// Mode is the SLAM pipeline mode.
type Mode string

const (
	ModeIdle     Mode = "IDLE"
	ModeLocation Mode = "LOCATION"
	ModeMapping  Mode = "MAPPING"
)

const (
	navStatusHz   = 10
	mapSize       = 64
	mapResolution = 0.05
)

// State is a snapshot of the SLAM simulator
type State struct {
	Mode         Mode                   `json:"mode"`
	NavMode      types.NavMode          `json:"nav_mode"`
	CurrentMap   string                 `json:"current_map"`
	Localization types.LocalizationInfo `json:"localization"`
	NavStatus    types.NavStatus        `json:"nav_status"`
}

type navTask struct {
	target    types.NavTarget
	from      types.Pose3DEuler
	status    types.NavStatusType
	remaining time.Duration // travel left when paused
	endsAt    time.Time
}

// SlamService simulates mapping, localization and navigation.
type SlamService struct {
	cfg    config.SimulationConfig
	logger customlog.Logger
	now    func() time.Time

	mu      sync.Mutex
	mode    Mode
	navMode types.NavMode
	maps    map[string]types.MapInfo
	current string
	loc     types.LocalizationInfo
	pose    types.Pose3DEuler
	task    *navTask
	lastID  int32
}

// NewSlamService creates an idle SLAM simulator with no maps.
func NewSlamService(cfg config.SimulationConfig, logger customlog.Logger) *SlamService {
	return &SlamService{
		cfg:     cfg,
		logger:  logger.WithField("service", "slam"),
		now:     time.Now,
		mode:    ModeIdle,
		navMode: types.NavModeIdle,
		maps:    make(map[string]types.MapInfo),
	}
}

func serviceError(format string, args ...interface{}) error {
	return types.Errorf(types.ErrorCodeServiceError, format, args...)
}

// Register installs the slam.* handlers.
func (s *SlamService) Register(server zeromq.Server) {
	noArgs := func(msgType string, fn func() error) {
		server.RegisterHandlerFunc(msgType, func(*wire.Envelope) (interface{}, error) {
			return nil, fn()
		})
	}
	withName := func(msgType string, fn func(string) error) {
		server.RegisterHandlerFunc(msgType, func(env *wire.Envelope) (interface{}, error) {
			var req wire.MapNameRequest
			if err := env.Bind(&req); err != nil {
				return nil, err
			}
			return nil, fn(req.Name)
		})
	}

	noArgs(wire.MsgSlamSwitchToIdle, s.SwitchToIdle)
	noArgs(wire.MsgSlamSwitchToLocation, s.SwitchToLocation)
	noArgs(wire.MsgSlamStartMapping, s.StartMapping)
	noArgs(wire.MsgSlamCancelMapping, s.CancelMapping)
	noArgs(wire.MsgSlamPauseNav, s.PauseNavTask)
	noArgs(wire.MsgSlamResumeNav, s.ResumeNavTask)
	noArgs(wire.MsgSlamCancelNav, s.CancelNavTask)
	withName(wire.MsgSlamSaveMap, s.SaveMap)
	withName(wire.MsgSlamLoadMap, s.LoadMap)
	withName(wire.MsgSlamDeleteMap, s.DeleteMap)

	server.RegisterHandlerFunc(wire.MsgSlamGetAllMapInfo, func(*wire.Envelope) (interface{}, error) {
		return s.AllMapInfo(), nil
	})
	server.RegisterHandlerFunc(wire.MsgSlamInitPose, func(env *wire.Envelope) (interface{}, error) {
		var pose types.Pose3DEuler
		if err := env.Bind(&pose); err != nil {
			return nil, err
		}
		return nil, s.InitPose(pose)
	})
	server.RegisterHandlerFunc(wire.MsgSlamGetLocalization, func(*wire.Envelope) (interface{}, error) {
		return s.LocalizationInfo(), nil
	})
	server.RegisterHandlerFunc(wire.MsgSlamActivateNavMode, func(env *wire.Envelope) (interface{}, error) {
		var req wire.NavModeRequest
		if err := env.Bind(&req); err != nil {
			return nil, err
		}
		return nil, s.ActivateNavMode(req.Mode)
	})
	server.RegisterHandlerFunc(wire.MsgSlamSetNavTarget, func(env *wire.Envelope) (interface{}, error) {
		target := types.NewNavTarget()
		if err := env.Bind(&target); err != nil {
			return nil, err
		}
		return nil, s.SetNavTarget(target)
	})
	server.RegisterHandlerFunc(wire.MsgSlamGetNavStatus, func(*wire.Envelope) (interface{}, error) {
		return s.NavStatus(), nil
	})
}

// SwitchToIdle stops mapping, localization and any navigation task.
func (s *SlamService) SwitchToIdle() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTaskLocked("slam switched to idle")
	s.mode = ModeIdle
	s.navMode = types.NavModeIdle
	s.loc.IsLocalization = false
	return nil
}

// SwitchToLocation starts localization on the current map.
func (s *SlamService) SwitchToLocation() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeMapping {
		return serviceError("mapping in progress")
	}
	if s.current == "" {
		return serviceError("no map loaded")
	}
	s.mode = ModeLocation
	s.loc.IsLocalization = false
	return nil
}

// StartMapping starts building a new map.
func (s *SlamService) StartMapping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeMapping {
		return serviceError("already mapping")
	}
	s.cancelTaskLocked("mapping started")
	s.mode = ModeMapping
	s.navMode = types.NavModeIdle
	s.loc.IsLocalization = false
	s.logger.Infof("Mapping started")
	return nil
}

// CancelMapping drops the map being built.
func (s *SlamService) CancelMapping() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeMapping {
		return serviceError("not mapping")
	}
	s.mode = ModeIdle
	return nil
}

// SaveMap stores the map being built under name and makes it current.
func (s *SlamService) SaveMap(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.mode != ModeMapping:
		return serviceError("maps can only be saved while mapping")
	case name == "":
		return serviceError("map name is empty")
	}
	if _, exists := s.maps[name]; exists {
		return serviceError("map %q already exists", name)
	}
	s.maps[name] = newMap(name)
	s.current = name
	s.mode = ModeIdle
	s.logger.Infof("Saved map %s", name)
	return nil
}

// LoadMap makes name the current map.
func (s *SlamService) LoadMap(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode == ModeMapping {
		return serviceError("mapping in progress")
	}
	if _, ok := s.maps[name]; !ok {
		return serviceError("map %q not found", name)
	}
	if s.current != name {
		s.cancelTaskLocked("map changed")
		s.loc.IsLocalization = false
	}
	s.current = name
	return nil
}

// DeleteMap removes a map other than the current one.
func (s *SlamService) DeleteMap(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.maps[name]; !ok {
		return serviceError("map %q not found", name)
	}
	if name == s.current {
		return serviceError("map %q is in use", name)
	}
	delete(s.maps, name)
	return nil
}

// AllMapInfo lists the stored maps sorted by name.
func (s *SlamService) AllMapInfo() types.AllMapInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := types.AllMapInfo{CurrentMapName: s.current, MapInfos: make([]types.MapInfo, 0, len(s.maps))}
	for _, m := range s.maps {
		all.MapInfos = append(all.MapInfos, m)
	}
	sort.Slice(all.MapInfos, func(i, j int) bool { return all.MapInfos[i].MapName < all.MapInfos[j].MapName })
	return all
}

// InitPose seeds localization. Requires LOCATION mode.
func (s *SlamService) InitPose(pose types.Pose3DEuler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeLocation {
		return serviceError("initial pose needs LOCATION mode, mode is %s", s.mode)
	}
	s.pose = pose
	s.loc = types.LocalizationInfo{IsLocalization: true, Pose: pose}
	return nil
}

func (s *SlamService) LocalizationInfo() types.LocalizationInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked()
	loc := s.loc
	if loc.IsLocalization {
		loc.Pose = s.poseLocked()
	}
	return loc
}

// ActivateNavMode selects the navigation backend. GRID_MAP needs a loaded map.
func (s *SlamService) ActivateNavMode(mode types.NavMode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch mode {
	case types.NavModeIdle:
		s.cancelTaskLocked("navigation deactivated")
	case types.NavModeGridMap:
		if s.mode == ModeMapping {
			return serviceError("mapping in progress")
		}
		if s.current == "" {
			return serviceError("no map loaded")
		}
	default:
		return serviceError("unknown nav mode %d", int32(mode))
	}
	s.navMode = mode
	return nil
}

// SetNavTarget starts a task toward target, replacing any running task.
func (s *SlamService) SetNavTarget(target types.NavTarget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.navMode != types.NavModeGridMap {
		return serviceError("navigation needs GRID_MAP mode")
	}
	if s.current == "" {
		return serviceError("no map loaded")
	}
	s.advanceLocked()
	from := s.poseLocked()
	s.cancelTaskLocked("replaced by a new target")

	if target.ID < 0 {
		s.lastID++
		target.ID = s.lastID
	} else if target.ID > s.lastID {
		s.lastID = target.ID
	}
	s.task = &navTask{
		target: target,
		from:   from,
		status: types.NavStatusRunning,
		endsAt: s.now().Add(s.travel()),
	}
	s.logger.Infof("Navigating to target %d at (%.2f, %.2f)", target.ID, target.Goal.Position[0], target.Goal.Position[1])
	return nil
}

func (s *SlamService) PauseNavTask() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked()
	if s.task == nil || !running(s.task.status) {
		return serviceError("no running navigation task")
	}
	s.task.remaining = s.task.endsAt.Sub(s.now())
	s.pose = s.poseLocked()
	s.task.status = types.NavStatusPause
	return nil
}

func (s *SlamService) ResumeNavTask() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.task == nil || s.task.status != types.NavStatusPause {
		return serviceError("no paused navigation task")
	}
	// The remaining leg starts from where the robot stopped.
	s.task.from = s.pose
	s.task.endsAt = s.now().Add(s.task.remaining)
	s.task.status = types.NavStatusContinue
	return nil
}

func (s *SlamService) CancelNavTask() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked()
	if s.task == nil || s.task.status.Finished() {
		return serviceError("no navigation task to cancel")
	}
	s.cancelTaskLocked("cancelled")
	return nil
}

// NavStatus returns the status of the latest task.
func (s *SlamService) NavStatus() types.NavStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked()
	return s.navStatusLocked()
}

func (s *SlamService) navStatusLocked() types.NavStatus {
	if s.task == nil {
		return types.NewNavStatus()
	}
	return types.NavStatus{ID: s.task.target.ID, Status: s.task.status, Message: s.task.status.String()}
}

func running(st types.NavStatusType) bool {
	return st == types.NavStatusRunning || st == types.NavStatusContinue
}

func (s *SlamService) travel() time.Duration {
	return time.Duration(s.cfg.NavTravelMs) * time.Millisecond
}

// advanceLocked completes a task whose travel time has elapsed.
func (s *SlamService) advanceLocked() {
	if s.task != nil && running(s.task.status) && !s.now().Before(s.task.endsAt) {
		s.task.status = types.NavStatusEndSuccess
		s.pose = s.task.target.Goal
		if s.loc.IsLocalization {
			s.loc.Pose = s.pose
		}
		s.logger.Infof("Reached target %d", s.task.target.ID)
	}
}

func (s *SlamService) cancelTaskLocked(reason string) {
	if s.task == nil || s.task.status.Finished() {
		return
	}
	if running(s.task.status) {
		s.pose = s.poseLocked()
	}
	s.task.status = types.NavStatusCancel
	s.logger.Infof("Navigation task %d cancelled: %s", s.task.target.ID, reason)
}

// poseLocked interpolates the pose along the running task.
func (s *SlamService) poseLocked() types.Pose3DEuler {
	if s.task == nil || !running(s.task.status) {
		return s.pose
	}
	total := s.task.endsAt.Sub(s.now())
	var frac float64
	switch {
	case s.task.status == types.NavStatusContinue && s.task.remaining > 0:
		frac = 1 - float64(total)/float64(s.task.remaining)
	case s.travel() > 0:
		frac = 1 - float64(total)/float64(s.travel())
	default:
		frac = 1
	}
	frac = math.Max(0, math.Min(1, frac))

	var p types.Pose3DEuler
	for i := 0; i < 3; i++ {
		p.Position[i] = s.task.from.Position[i] + frac*(s.task.target.Goal.Position[i]-s.task.from.Position[i])
		p.Orientation[i] = s.task.from.Orientation[i] + frac*(s.task.target.Goal.Orientation[i]-s.task.from.Orientation[i])
	}
	return p
}

// State returns a snapshot for the HTTP API
func (s *SlamService) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked()
	return State{
		Mode:         s.mode,
		NavMode:      s.navMode,
		CurrentMap:   s.current,
		Localization: s.loc,
		NavStatus:    s.navStatusLocked(),
	}
}

// Sources returns the odometry and nav status streams.
func (s *SlamService) Sources() []stream.Source {
	return []stream.Source{
		{Topic: wire.TopicOdometry, Hz: s.cfg.OdometryHz, Sample: func(now time.Time) (interface{}, bool) {
			return s.odometry(now), true
		}},
		{Topic: wire.TopicNavStatus, Hz: navStatusHz, Sample: func(time.Time) (interface{}, bool) {
			s.mu.Lock()
			defer s.mu.Unlock()
			if s.task == nil {
				return nil, false
			}
			s.advanceLocked()
			st := s.navStatusLocked()
			return &st, true
		}},
	}
}

func (s *SlamService) odometry(now time.Time) *types.Odometry {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.advanceLocked()

	pose := s.poseLocked()
	odom := &types.Odometry{
		Header:       types.Header{Stamp: now.UnixNano(), FrameID: "odom"},
		ChildFrameID: "base_link",
		Position:     pose.Position,
		Orientation:  yawQuaternion(pose.Orientation[2]),
	}
	if s.task != nil && running(s.task.status) {
		left := s.task.endsAt.Sub(s.now()).Seconds()
		if left > 0 {
			for i := 0; i < 3; i++ {
				odom.LinearVelocity[i] = (s.task.target.Goal.Position[i] - pose.Position[i]) / left
			}
			odom.AngularVelocity[2] = (s.task.target.Goal.Orientation[2] - pose.Orientation[2]) / left
		}
	}
	return odom
}

func yawQuaternion(yaw float64) [4]float64 {
	return [4]float64{math.Cos(yaw / 2), 0, 0, math.Sin(yaw / 2)}
}

// newMap builds a square room occupancy image: free inside, walls on the border.
func newMap(name string) types.MapInfo {
	img := make([]byte, mapSize*mapSize)
	for y := 0; y < mapSize; y++ {
		for x := 0; x < mapSize; x++ {
			v := byte(254)
			if x == 0 || y == 0 || x == mapSize-1 || y == mapSize-1 {
				v = 0
			}
			img[y*mapSize+x] = v
		}
	}
	half := mapSize * mapResolution / 2
	return types.MapInfo{
		MapName: name,
		MapMetaData: types.MapMetaData{
			Resolution: mapResolution,
			Origin:     types.Pose3DEuler{Position: [3]float64{-half, -half, 0}},
			MapImageData: types.MapImageData{
				Type:         "P5",
				Width:        mapSize,
				Height:       mapSize,
				MaxGrayValue: 255,
				Image:        img,
			},
		},
	}
}
