package types

// NavMode selects the navigation backend.
type NavMode int32

const (
	NavModeIdle    NavMode = 0
	NavModeGridMap NavMode = 1
)

var navModeNames = enumTable[NavMode]{
	NavModeIdle:    "IDLE",
	NavModeGridMap: "GRID_MAP",
}

func (m NavMode) String() string { return navModeNames.name(m) }

// ParseNavMode parses "IDLE" or "GRID_MAP".
func ParseNavMode(s string) (NavMode, error) { return navModeNames.parse("nav mode", s) }

// Pose3DEuler is a position plus roll, pitch, yaw in radians.
type Pose3DEuler struct {
	Position    [3]float64 `json:"position"`
	Orientation [3]float64 `json:"orientation"`
}

// MapImageData is a PGM occupancy image.
type MapImageData struct {
	Type         string `json:"type"` // "P5"
	Width        uint32 `json:"width"`
	Height       uint32 `json:"height"`
	MaxGrayValue uint32 `json:"max_gray_value"`
	Image        []byte `json:"image"`
}

type MapMetaData struct {
	Resolution   float64      `json:"resolution"` // m/pixel
	Origin       Pose3DEuler  `json:"origin"`
	MapImageData MapImageData `json:"map_image_data"`
}

type MapInfo struct {
	MapName     string      `json:"map_name"`
	MapMetaData MapMetaData `json:"map_meta_data"`
}

type AllMapInfo struct {
	CurrentMapName string    `json:"current_map_name"`
	MapInfos       []MapInfo `json:"map_infos"`
}

type LocalizationInfo struct {
	IsLocalization bool        `json:"is_localization"`
	Pose           Pose3DEuler `json:"pose"`
}

// NavTarget is a navigation goal. Use NewNavTarget for the unset id.
type NavTarget struct {
	ID      int32       `json:"id"`
	FrameID string      `json:"frame_id"`
	Goal    Pose3DEuler `json:"goal"`
}

// NewNavTarget returns a target with ID -1.
func NewNavTarget() NavTarget { return NavTarget{ID: -1} }

type NavStatusType int32

const (
	NavStatusNone       NavStatusType = 0
	NavStatusRunning    NavStatusType = 1
	NavStatusEndSuccess NavStatusType = 2
	NavStatusEndFailed  NavStatusType = 3
	NavStatusPause      NavStatusType = 4
	NavStatusContinue   NavStatusType = 5
	NavStatusCancel     NavStatusType = 6
)

var navStatusTypeNames = enumTable[NavStatusType]{
	NavStatusNone:       "NONE",
	NavStatusRunning:    "RUNNING",
	NavStatusEndSuccess: "END_SUCCESS",
	NavStatusEndFailed:  "END_FAILED",
	NavStatusPause:      "PAUSE",
	NavStatusContinue:   "CONTINUE",
	NavStatusCancel:     "CANCEL",
}

func (s NavStatusType) String() string { return navStatusTypeNames.name(s) }

// Finished reports whether the task reached a terminal state.
func (s NavStatusType) Finished() bool {
	return s == NavStatusEndSuccess || s == NavStatusEndFailed || s == NavStatusCancel
}

func ParseNavStatusType(s string) (NavStatusType, error) {
	return navStatusTypeNames.parse("nav status", s)
}

// NavStatus reports progress of the task for target ID; -1 means no target.
type NavStatus struct {
	ID      int32         `json:"id"`
	Status  NavStatusType `json:"status"`
	Message string        `json:"message"`
}

// NewNavStatus returns an idle status with ID -1.
func NewNavStatus() NavStatus { return NavStatus{ID: -1} }

type Odometry struct {
	Header          Header     `json:"header"`
	ChildFrameID    string     `json:"child_frame_id"`
	Position        [3]float64 `json:"position"`
	Orientation     [4]float64 `json:"orientation"` // w, x, y, z
	LinearVelocity  [3]float64 `json:"linear_velocity"`
	AngularVelocity [3]float64 `json:"angular_velocity"`
}
