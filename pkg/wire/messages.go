package wire

import "github.com/magicdog/sdk/pkg/types"

// Request types.
const (
	MsgRobotConnect    = "robot.connect"
	MsgRobotDisconnect = "robot.disconnect"
	MsgRobotVersion    = "robot.version"
	MsgRobotGetLevel   = "robot.get_level"
	MsgRobotSetLevel   = "robot.set_level"

	MsgMotionSetGait          = "motion.set_gait"
	MsgMotionGetGait          = "motion.get_gait"
	MsgMotionExecuteTrick     = "motion.execute_trick"
	MsgMotionJoystick         = "motion.joystick"
	MsgMotionEnableJoystick   = "motion.enable_joystick"
	MsgMotionDisableJoystick  = "motion.disable_joystick"
	MsgMotionGetSpeedRatio    = "motion.get_speed_ratio"
	MsgMotionSetSpeedRatio    = "motion.set_speed_ratio"
	MsgMotionGetHeadMotor     = "motion.get_head_motor"
	MsgMotionEnableHeadMotor  = "motion.enable_head_motor"
	MsgMotionDisableHeadMotor = "motion.disable_head_motor"

	MsgAudioSwitchTtsModel = "audio.switch_tts_model"
	MsgAudioGetVoiceConfig = "audio.get_voice_config"
	MsgAudioSetVoiceConfig = "audio.set_voice_config"
	MsgAudioPlay           = "audio.play"
	MsgAudioStop           = "audio.stop"
	MsgAudioSetVolume      = "audio.set_volume"
	MsgAudioGetVolume      = "audio.get_volume"
	MsgAudioControlStream  = "audio.control_stream"

	MsgSensorOpenLaserScan  = "sensor.open_laser_scan"
	MsgSensorCloseLaserScan = "sensor.close_laser_scan"
	MsgSensorOpenRgbd       = "sensor.open_rgbd"
	MsgSensorCloseRgbd      = "sensor.close_rgbd"
	MsgSensorOpenBinocular  = "sensor.open_binocular"
	MsgSensorCloseBinocular = "sensor.close_binocular"

	MsgSlamSwitchToIdle     = "slam.switch_to_idle"
	MsgSlamSwitchToLocation = "slam.switch_to_location"
	MsgSlamStartMapping     = "slam.start_mapping"
	MsgSlamCancelMapping    = "slam.cancel_mapping"
	MsgSlamSaveMap          = "slam.save_map"
	MsgSlamLoadMap          = "slam.load_map"
	MsgSlamDeleteMap        = "slam.delete_map"
	MsgSlamGetAllMapInfo    = "slam.get_all_map_info"
	MsgSlamInitPose         = "slam.init_pose"
	MsgSlamGetLocalization  = "slam.get_localization"
	MsgSlamActivateNavMode  = "slam.activate_nav_mode"
	MsgSlamSetNavTarget     = "slam.set_nav_target"
	MsgSlamPauseNav         = "slam.pause_nav"
	MsgSlamResumeNav        = "slam.resume_nav"
	MsgSlamCancelNav        = "slam.cancel_nav"
	MsgSlamGetNavStatus     = "slam.get_nav_status"

	MsgMonitorGetState = "monitor.get_state"
)

// Published topics.
const (
	TopicLegState           = "motion.leg_state"
	TopicImu                = "sensor.imu"
	TopicUltra              = "sensor.ultra"
	TopicHeadTouch          = "sensor.head_touch"
	TopicLaserScan          = "sensor.laser_scan"
	TopicRgbdDepthInfo      = "sensor.rgbd.depth_info"
	TopicRgbdDepthImage     = "sensor.rgbd.depth_image"
	TopicRgbdColorInfo      = "sensor.rgbd.color_info"
	TopicRgbdColorImage     = "sensor.rgbd.color_image"
	TopicBinocularLeftHigh  = "sensor.binocular.left_high"
	TopicBinocularLeftLow   = "sensor.binocular.left_low"
	TopicBinocularRightLow  = "sensor.binocular.right_low"
	TopicDepthImage         = "sensor.depth_image"
	TopicOriginVoice        = "audio.origin_voice"
	TopicBfVoice            = "audio.bf_voice"
	TopicOdometry           = "slam.odometry"
	TopicNavStatus          = "slam.nav_status"
	TopicVoiceConfigUpdated = "audio.config_updated"
)

// Topics lists every published topic.
func Topics() []string {
	return []string{
		TopicLegState, TopicImu, TopicUltra, TopicHeadTouch, TopicLaserScan,
		TopicRgbdDepthInfo, TopicRgbdDepthImage, TopicRgbdColorInfo, TopicRgbdColorImage,
		TopicBinocularLeftHigh, TopicBinocularLeftLow, TopicBinocularRightLow, TopicDepthImage,
		TopicOriginVoice, TopicBfVoice, TopicOdometry, TopicNavStatus, TopicVoiceConfigUpdated,
	}
}

type ConnectRequest struct {
	LocalIP  string `json:"local_ip"`
	ClientID string `json:"client_id"`
}

type VersionResult struct {
	Version string `json:"version"`
}

type LevelMessage struct {
	Level types.ControllerLevel `json:"level"`
}

type GaitMessage struct {
	Gait types.GaitMode `json:"gait"`
}

type TrickRequest struct {
	Action types.TrickAction `json:"action"`
}

type SpeedRatioRequest struct {
	Gait  types.GaitMode       `json:"gait"`
	Ratio types.GaitSpeedRatio `json:"ratio"`
}

type EnabledResult struct {
	Enabled bool `json:"enabled"`
}

type TtsModelRequest struct {
	Type types.TtsType `json:"type"`
}

type VolumeMessage struct {
	Volume int `json:"volume"`
}

// VoiceStreamRequest toggles the raw and beamformed microphone streams.
type VoiceStreamRequest struct {
	Raw bool `json:"raw"`
	Bf  bool `json:"bf"`
}

type MapNameRequest struct {
	Name string `json:"name"`
}

type NavModeRequest struct {
	Mode types.NavMode `json:"mode"`
}
