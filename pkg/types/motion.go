package types

// LegJointNum is the number of leg joints (4 legs x 3 joints).
const LegJointNum = 12

// ControllerLevel selects which motion controller owns the robot.
type ControllerLevel int8

const (
	ControllerLevelUnknown ControllerLevel = 0
	ControllerLevelHigh    ControllerLevel = 1
	ControllerLevelLow     ControllerLevel = 2
)

var controllerLevelNames = enumTable[ControllerLevel]{
	ControllerLevelUnknown: "UNKNOWN",
	ControllerLevelHigh:    "HIGH_LEVEL",
	ControllerLevelLow:     "LOW_LEVEL",
}

func (l ControllerLevel) String() string { return controllerLevelNames.name(l) }

// ParseControllerLevel parses "HIGH_LEVEL", "LOW_LEVEL" or a number.
func ParseControllerLevel(s string) (ControllerLevel, error) {
	return controllerLevelNames.parse("controller level", s)
}

// GaitMode is a locomotion mode of the gait state machine.
type GaitMode int32

const (
	GaitPassive         GaitMode = 0
	GaitStandR          GaitMode = 2
	GaitStandB          GaitMode = 3
	GaitRunFast         GaitMode = 8
	GaitDownClimbStairs GaitMode = 9
	GaitTrot            GaitMode = 10
	GaitPronk           GaitMode = 11
	GaitBound           GaitMode = 12
	GaitAmble           GaitMode = 14
	GaitCrawl           GaitMode = 29
	GaitLowLevelSDK     GaitMode = 30
	GaitWalk            GaitMode = 39
	GaitUpClimbStairs   GaitMode = 56
	GaitRLTerrain       GaitMode = 110
	GaitRLFallRecovery  GaitMode = 111
	GaitRLHandStand     GaitMode = 112
	GaitRLFootStand     GaitMode = 113
	GaitEnterRL         GaitMode = 1001
	GaitDefault         GaitMode = 99
	GaitNone            GaitMode = 9999
)

var gaitModeNames = enumTable[GaitMode]{
	GaitPassive:         "GAIT_PASSIVE",
	GaitStandR:          "GAIT_STAND_R",
	GaitStandB:          "GAIT_STAND_B",
	GaitRunFast:         "GAIT_RUN_FAST",
	GaitDownClimbStairs: "GAIT_DOWN_CLIMB_STAIRS",
	GaitTrot:            "GAIT_TROT",
	GaitPronk:           "GAIT_PRONK",
	GaitBound:           "GAIT_BOUND",
	GaitAmble:           "GAIT_AMBLE",
	GaitCrawl:           "GAIT_CRAWL",
	GaitLowLevelSDK:     "GAIT_LOWLEVL_SDK",
	GaitWalk:            "GAIT_WALK",
	GaitUpClimbStairs:   "GAIT_UP_CLIMB_STAIRS",
	GaitRLTerrain:       "GAIT_RL_TERRAIN",
	GaitRLFallRecovery:  "GAIT_RL_FALL_RECOVERY",
	GaitRLHandStand:     "GAIT_RL_HAND_STAND",
	GaitRLFootStand:     "GAIT_RL_FOOT_STAND",
	GaitEnterRL:         "GAIT_ENTER_RL",
	GaitDefault:         "GAIT_DEFAULT",
	GaitNone:            "GAIT_NONE",
}

func (g GaitMode) String() string { return gaitModeNames.name(g) }

// Valid reports whether g is a known gait.
func (g GaitMode) Valid() bool {
	_, ok := gaitModeNames[g]
	return ok
}

// ParseGaitMode parses a gait name such as "GAIT_TROT" or its numeric id.
func ParseGaitMode(s string) (GaitMode, error) { return gaitModeNames.parse("gait mode", s) }

// GaitModeNames lists every known gait name, sorted.
func GaitModeNames() []string { return gaitModeNames.names() }

// TrickAction is a canned motion the robot can perform.
type TrickAction int32

const (
	ActionNone                TrickAction = 0
	ActionWiggleHip           TrickAction = 26
	ActionSwingBody           TrickAction = 27
	ActionStretch             TrickAction = 28
	ActionStomp               TrickAction = 29
	ActionJumpJack            TrickAction = 30
	ActionSpaceWalk           TrickAction = 31
	ActionImitate             TrickAction = 32
	ActionShakeHead           TrickAction = 33
	ActionPushUp              TrickAction = 34
	ActionCheerUp             TrickAction = 35
	ActionHighFives           TrickAction = 36
	ActionScratch             TrickAction = 37
	ActionHighJump            TrickAction = 38
	ActionSwingDance          TrickAction = 39
	ActionLeapFrog            TrickAction = 40
	ActionBackFlip            TrickAction = 41
	ActionFrontFlip           TrickAction = 42
	ActionSpinJumpLeft        TrickAction = 43
	ActionSpinJumpRight       TrickAction = 44
	ActionJumpFront           TrickAction = 45
	ActionActCute             TrickAction = 46
	ActionBoxing              TrickAction = 47
	ActionSideSomersault      TrickAction = 48
	ActionRandomDance         TrickAction = 49
	ActionLeftSideSomersault  TrickAction = 84
	ActionRightSideSomersault TrickAction = 85
	ActionDance2              TrickAction = 91
	ActionEmergencyStop       TrickAction = 101
	ActionLieDown             TrickAction = 102
	ActionRecoveryStand       TrickAction = 103
	ActionHappyNewYear        TrickAction = 105
	ActionSlowGoFront         TrickAction = 108
	ActionSlowGoBack          TrickAction = 109
	ActionBackHome            TrickAction = 110
	ActionLeaveHome           TrickAction = 111
	ActionTurnAround          TrickAction = 112
	ActionDance               TrickAction = 115
	ActionRollAbout           TrickAction = 116
	ActionShakeRightHand      TrickAction = 117
	ActionShakeLeftHand       TrickAction = 118
	ActionSitDown             TrickAction = 119
)

var trickActionNames = enumTable[TrickAction]{
	ActionNone:                "ACTION_NONE",
	ActionWiggleHip:           "ACTION_WIGGLE_HIP",
	ActionSwingBody:           "ACTION_SWING_BODY",
	ActionStretch:             "ACTION_STRETCH",
	ActionStomp:               "ACTION_STOMP",
	ActionJumpJack:            "ACTION_JUMP_JACK",
	ActionSpaceWalk:           "ACTION_SPACE_WALK",
	ActionImitate:             "ACTION_IMITATE",
	ActionShakeHead:           "ACTION_SHAKE_HEAD",
	ActionPushUp:              "ACTION_PUSH_UP",
	ActionCheerUp:             "ACTION_CHEER_UP",
	ActionHighFives:           "ACTION_HIGH_FIVES",
	ActionScratch:             "ACTION_SCRATCH",
	ActionHighJump:            "ACTION_HIGH_JUMP",
	ActionSwingDance:          "ACTION_SWING_DANCE",
	ActionLeapFrog:            "ACTION_LEAP_FROG",
	ActionBackFlip:            "ACTION_BACK_FLIP",
	ActionFrontFlip:           "ACTION_FRONT_FLIP",
	ActionSpinJumpLeft:        "ACTION_SPIN_JUMP_LEFT",
	ActionSpinJumpRight:       "ACTION_SPIN_JUMP_RIGHT",
	ActionJumpFront:           "ACTION_JUMP_FRONT",
	ActionActCute:             "ACTION_ACT_CUTE",
	ActionBoxing:              "ACTION_BOXING",
	ActionSideSomersault:      "ACTION_SIDE_SOMERSAULT",
	ActionRandomDance:         "ACTION_RANDOM_DANCE",
	ActionLeftSideSomersault:  "ACTION_LEFT_SIDE_SOMERSAULT",
	ActionRightSideSomersault: "ACTION_RIGHT_SIDE_SOMERSAULT",
	ActionDance2:              "ACTION_DANCE2",
	ActionEmergencyStop:       "ACTION_EMERGENCY_STOP",
	ActionLieDown:             "ACTION_LIE_DOWN",
	ActionRecoveryStand:       "ACTION_RECOVERY_STAND",
	ActionHappyNewYear:        "ACTION_HAPPY_NEW_YEAR",
	ActionSlowGoFront:         "ACTION_SLOW_GO_FRONT",
	ActionSlowGoBack:          "ACTION_SLOW_GO_BACK",
	ActionBackHome:            "ACTION_BACK_HOME",
	ActionLeaveHome:           "ACTION_LEAVE_HOME",
	ActionTurnAround:          "ACTION_TURN_AROUND",
	ActionDance:               "ACTION_DANCE",
	ActionRollAbout:           "ACTION_ROLL_ABOUT",
	ActionShakeRightHand:      "ACTION_SHAKE_RIGHT_HAND",
	ActionShakeLeftHand:       "ACTION_SHAKE_LEFT_HAND",
	ActionSitDown:             "ACTION_SIT_DOWN",
}

func (a TrickAction) String() string { return trickActionNames.name(a) }

// Valid reports whether a is a known trick.
func (a TrickAction) Valid() bool {
	_, ok := trickActionNames[a]
	return ok
}

// ParseTrickAction parses a trick name such as "ACTION_LIE_DOWN" or its numeric id ("102").
func ParseTrickAction(s string) (TrickAction, error) {
	return trickActionNames.parse("trick action", s)
}

// JoystickCommand carries the four stick axes, each in [-1, 1].
type JoystickCommand struct {
	LeftXAxis  float64 `json:"left_x_axis"`  // -1 left, 1 right
	LeftYAxis  float64 `json:"left_y_axis"`  // -1 down, 1 up
	RightXAxis float64 `json:"right_x_axis"` // -1 rotate left, 1 rotate right
	RightYAxis float64 `json:"right_y_axis"`
}

// GaitSpeedRatio scales forward, turning and lateral speed for one gait.
type GaitSpeedRatio struct {
	StraightRatio float64 `json:"straight_ratio"`
	TurnRatio     float64 `json:"turn_ratio"`
	LateralRatio  float64 `json:"lateral_ratio"`
}

// AllGaitSpeedRatio holds the speed ratios of every gait.
type AllGaitSpeedRatio struct {
	GaitSpeedRatios map[GaitMode]GaitSpeedRatio `json:"gait_speed_ratios"`
}

// SingleLegJointCommand is the PD target of one joint.
type SingleLegJointCommand struct {
	QDes   float64 `json:"q_des"`   // desired position
	DqDes  float64 `json:"dq_des"`  // desired velocity
	TauDes float64 `json:"tau_des"` // feed-forward torque
	Kp     float64 `json:"kp"`
	Kd     float64 `json:"kd"`
}

// LegJointCommand commands all twelve leg joints at once.
type LegJointCommand struct {
	Timestamp int64                              `json:"timestamp"` // ns
	Cmd       [LegJointNum]SingleLegJointCommand `json:"cmd"`
}

// SingleLegJointState is the measured state of one joint.
type SingleLegJointState struct {
	Q      float64 `json:"q"`
	Dq     float64 `json:"dq"`
	TauEst float64 `json:"tau_est"`
}

// LegState is a sample of all twelve leg joints.
type LegState struct {
	Timestamp int64                            `json:"timestamp"` // ns
	State     [LegJointNum]SingleLegJointState `json:"state"`
}
