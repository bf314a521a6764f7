package verify

import (
	"encoding/json"
	"fmt"

	"github.com/magicdog/sdk/pkg/types"
	"github.com/magicdog/sdk/pkg/wire"
)

const structCheckType = "structcheck"

// dtoCase registers a value twice: read back directly, and read back after
// crossing the wire codec.
func dtoCase[T any](s *Suite, name string, build func() T, check func(c *Checker, got T), cross func(T) (T, error)) {
	s.Add(
		Case{Name: name, Run: func(c *Checker) error {
			check(c, build())
			return nil
		}},
		Case{Name: name + " (wire)", Run: func(c *Checker) error {
			got, err := cross(build())
			if err != nil {
				return err
			}
			check(c, got)
			return nil
		}},
	)
}

// viaEnvelope sends v through a serialized request envelope.
func viaEnvelope[T any](v T) (T, error) {
	var out T
	env, err := wire.NewRequest(structCheckType, v)
	if err != nil {
		return out, err
	}
	data, err := json.Marshal(env)
	if err != nil {
		return out, fmt.Errorf("marshal envelope: %w", err)
	}
	parsed, err := wire.ParseEnvelope(data)
	if err != nil {
		return out, err
	}
	err = parsed.Bind(&out)
	return out, err
}

// viaTopic sends v through the stream encoding of topic.
func viaTopic[T any](topic string) func(T) (T, error) {
	return func(v T) (T, error) {
		var out T
		data, err := wire.EncodeTopic(topic, &v)
		if err != nil {
			return out, err
		}
		err = wire.DecodeTopic(topic, data, &out)
		return out, err
	}
}

func seq(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(i) + 1.0
	}
	return out
}

func checkSeq(c *Checker, field string, got []float64) {
	c.Floats(field, seq(len(got)), got)
}

func pose(offset float64) types.Pose3DEuler {
	return types.Pose3DEuler{
		Position:    [3]float64{1 + offset, 2 + offset, 3 + offset},
		Orientation: [3]float64{0.1, 0.2, 0.3},
	}
}

func checkPose(s *Scope, offset float64, got types.Pose3DEuler) {
	want := pose(offset)
	s.Floats("position", want.Position[:], got.Position[:])
	s.Floats("orientation", want.Orientation[:], got.Orientation[:])
}

func header(frame string) types.Header {
	return types.Header{Stamp: 1700000000123456789, FrameID: frame}
}

func checkHeader(s *Scope, frame string, got types.Header) {
	s.Equal("stamp", int64(1700000000123456789), got.Stamp)
	s.Equal("frame_id", frame, got.FrameID)
}

// DTOSuite covers every SDK value type.
func DTOSuite() *Suite {
	s := &Suite{}
	addStatusCases(s)
	addMonitorCases(s)
	addMotionCases(s)
	addAudioCases(s)
	addSensorCases(s)
	addSlamCases(s)
	return s
}

func addStatusCases(s *Suite) {
	dtoCase(s, "Status",
		func() types.Status { return types.NewStatus(types.ErrorCodeServiceError, "volume out of range") },
		func(c *Checker, got types.Status) {
			c.Equal("code", types.ErrorCodeServiceError, got.Code)
			c.Equal("message", "volume out of range", got.Message)
		}, viaEnvelope[types.Status])
}

func addMonitorCases(s *Suite) {
	dtoCase(s, "RobotState",
		func() types.RobotState {
			return types.RobotState{
				Faults: []types.Fault{
					{ErrorCode: 1001, ErrorMessage: "left front motor overheat"},
					{ErrorCode: 2002, ErrorMessage: "battery cold"},
				},
				BmsData: types.BmsData{
					BatteryPercentage: 87.5,
					BatteryHealth:     0.97,
					BatteryState:      types.BatteryStateGood,
					PowerSupplyStatus: types.PowerSupplyDischarging,
				},
			}
		},
		func(c *Checker, got types.RobotState) {
			c.Equal("faults.len", 2, len(got.Faults))
			if len(got.Faults) == 2 {
				c.Equal("faults[0].error_code", int32(1001), got.Faults[0].ErrorCode)
				c.Equal("faults[0].error_message", "left front motor overheat", got.Faults[0].ErrorMessage)
				c.Equal("faults[1].error_code", int32(2002), got.Faults[1].ErrorCode)
				c.Equal("faults[1].error_message", "battery cold", got.Faults[1].ErrorMessage)
			}
			bms := c.Scope("bms_data")
			bms.Float("battery_percentage", 87.5, got.BmsData.BatteryPercentage)
			bms.Float("battery_health", 0.97, got.BmsData.BatteryHealth)
			bms.Equal("battery_state", types.BatteryStateGood, got.BmsData.BatteryState)
			bms.Equal("power_supply_status", types.PowerSupplyDischarging, got.BmsData.PowerSupplyStatus)
		}, viaEnvelope[types.RobotState])
}

func addMotionCases(s *Suite) {
	dtoCase(s, "JoystickCommand",
		func() types.JoystickCommand {
			return types.JoystickCommand{LeftXAxis: -0.5, LeftYAxis: 1, RightXAxis: 0.25, RightYAxis: -1}
		},
		func(c *Checker, got types.JoystickCommand) {
			c.Float("left_x_axis", -0.5, got.LeftXAxis)
			c.Float("left_y_axis", 1, got.LeftYAxis)
			c.Float("right_x_axis", 0.25, got.RightXAxis)
			c.Float("right_y_axis", -1, got.RightYAxis)
		}, viaEnvelope[types.JoystickCommand])

	dtoCase(s, "AllGaitSpeedRatio",
		func() types.AllGaitSpeedRatio {
			all := types.AllGaitSpeedRatio{GaitSpeedRatios: map[types.GaitMode]types.GaitSpeedRatio{}}
			all.GaitSpeedRatios[types.GaitDownClimbStairs] = types.GaitSpeedRatio{StraightRatio: 0.1}
			all.GaitSpeedRatios[types.GaitStandR] = types.GaitSpeedRatio{StraightRatio: 0.5, TurnRatio: 0.6, LateralRatio: 0.7}
			// reassignment wins
			all.GaitSpeedRatios[types.GaitDownClimbStairs] = types.GaitSpeedRatio{StraightRatio: 0.2, TurnRatio: 0.3, LateralRatio: 0.4}
			return all
		},
		func(c *Checker, got types.AllGaitSpeedRatio) {
			c.Equal("len", 2, len(got.GaitSpeedRatios))
			stairs := c.Scope(types.GaitDownClimbStairs.String())
			r := got.GaitSpeedRatios[types.GaitDownClimbStairs]
			stairs.Float("straight_ratio", 0.2, r.StraightRatio)
			stairs.Float("turn_ratio", 0.3, r.TurnRatio)
			stairs.Float("lateral_ratio", 0.4, r.LateralRatio)
			stand := c.Scope(types.GaitStandR.String())
			r = got.GaitSpeedRatios[types.GaitStandR]
			stand.Float("straight_ratio", 0.5, r.StraightRatio)
			stand.Float("turn_ratio", 0.6, r.TurnRatio)
			stand.Float("lateral_ratio", 0.7, r.LateralRatio)
		}, viaEnvelope[types.AllGaitSpeedRatio])

	dtoCase(s, "LegJointCommand",
		func() types.LegJointCommand {
			cmd := types.LegJointCommand{Timestamp: 42}
			for i := range cmd.Cmd {
				f := float64(i) + 1.0
				cmd.Cmd[i] = types.SingleLegJointCommand{QDes: f, DqDes: f / 10, TauDes: -f, Kp: 20, Kd: 0.5}
			}
			return cmd
		},
		func(c *Checker, got types.LegJointCommand) {
			c.Equal("timestamp", int64(42), got.Timestamp)
			for i, j := range got.Cmd {
				f := float64(i) + 1.0
				sc := c.Scope(fmt.Sprintf("cmd[%d]", i))
				sc.Float("q_des", f, j.QDes)
				sc.Float("dq_des", f/10, j.DqDes)
				sc.Float("tau_des", -f, j.TauDes)
				sc.Float("kp", 20, j.Kp)
				sc.Float("kd", 0.5, j.Kd)
			}
		},
		func(cmd types.LegJointCommand) (types.LegJointCommand, error) {
			return wire.DecodeLegCommand(wire.EncodeLegCommand(&cmd))
		})

	dtoCase(s, "LegState",
		func() types.LegState {
			st := types.LegState{Timestamp: 43}
			for i := range st.State {
				f := float64(i) + 1.0
				st.State[i] = types.SingleLegJointState{Q: f, Dq: -f, TauEst: f * 2}
			}
			return st
		},
		func(c *Checker, got types.LegState) {
			c.Equal("timestamp", int64(43), got.Timestamp)
			for i, j := range got.State {
				f := float64(i) + 1.0
				sc := c.Scope(fmt.Sprintf("state[%d]", i))
				sc.Float("q", f, j.Q)
				sc.Float("dq", -f, j.Dq)
				sc.Float("tau_est", f*2, j.TauEst)
			}
		}, viaTopic[types.LegState](wire.TopicLegState))
}

func addAudioCases(s *Suite) {
	dtoCase(s, "TtsCommand",
		func() types.TtsCommand {
			return types.TtsCommand{
				ID:       "weather_alert_001",
				Content:  "今日天气晴朗，温度25度，适合户外活动",
				Priority: types.TtsPriorityHigh,
				Mode:     types.TtsModeAdd,
			}
		},
		func(c *Checker, got types.TtsCommand) {
			c.Equal("id", "weather_alert_001", got.ID)
			c.Equal("content", "今日天气晴朗，温度25度，适合户外活动", got.Content)
			c.Equal("priority", types.TtsPriorityHigh, got.Priority)
			c.Equal("mode", types.TtsModeAdd, got.Mode)
		}, viaEnvelope[types.TtsCommand])

	dtoCase(s, "SetSpeechConfig",
		func() types.SetSpeechConfig {
			return types.SetSpeechConfig{
				SpeakerID:          "zh_female_1",
				Region:             "zh-CN",
				BotID:              "bot_custom",
				IsFrontDoa:         true,
				IsFullduplexEnable: true,
				IsEnable:           true,
				IsDoaEnable:        false,
				SpeakerSpeed:       1.5,
				WakeupName:         "xiaomai",
				CustomBot: types.CustomBotMap{
					"bot_custom": {Name: "Guide", Workflow: "wf_guide", Token: "tok-123"},
				},
			}
		},
		func(c *Checker, got types.SetSpeechConfig) {
			c.Equal("speaker_id", "zh_female_1", got.SpeakerID)
			c.Equal("region", "zh-CN", got.Region)
			c.Equal("bot_id", "bot_custom", got.BotID)
			c.Equal("is_front_doa", true, got.IsFrontDoa)
			c.Equal("is_fullduplex_enable", true, got.IsFullduplexEnable)
			c.Equal("is_enable", true, got.IsEnable)
			c.Equal("is_doa_enable", false, got.IsDoaEnable)
			c.Float("speaker_speed", 1.5, got.SpeakerSpeed)
			c.Equal("wakeup_name", "xiaomai", got.WakeupName)
			bot := c.Scope("custom_bot[bot_custom]")
			info := got.CustomBot["bot_custom"]
			bot.Equal("name", "Guide", info.Name)
			bot.Equal("workflow", "wf_guide", info.Workflow)
			bot.Equal("token", "tok-123", info.Token)
		}, viaEnvelope[types.SetSpeechConfig])

	dtoCase(s, "GetSpeechConfig",
		func() types.GetSpeechConfig {
			var cfg types.GetSpeechConfig
			cfg.SpeakerConfig.Data = map[string][][2]string{
				"zh-CN": {{"zh_female_1", "Xiaomei"}, {"zh_male_1", "Xiaoming"}},
				"en-US": {{"en_female_1", "Emma"}},
			}
			cfg.SpeakerConfig.Selected.Region = "zh-CN"
			cfg.SpeakerConfig.Selected.SpeakerID = "zh_female_1"
			cfg.SpeakerConfig.SpeakerSpeed = 1.2
			cfg.BotConfig.Data = map[string]types.BotInfo{"bot_default": {Name: "Assistant", Workflow: "wf_default"}}
			cfg.BotConfig.CustomData = map[string]types.CustomBotInfo{"bot_custom": {Name: "Guide", Workflow: "wf_guide", Token: "tok-123"}}
			cfg.BotConfig.Selected.BotID = "bot_default"
			cfg.WakeupConfig.Name = "xiaomai"
			cfg.WakeupConfig.Data = map[string]string{"xiaomai": "xiao mai"}
			cfg.DialogConfig = types.DialogConfig{IsFrontDoa: true, IsEnable: true}
			cfg.TtsType = types.TtsTypeDoubao
			return cfg
		},
		func(c *Checker, got types.GetSpeechConfig) {
			sp := c.Scope("speaker_config")
			sp.Equal("data.len", 2, len(got.SpeakerConfig.Data))
			zh := got.SpeakerConfig.Data["zh-CN"]
			sp.Equal("data[zh-CN].len", 2, len(zh))
			if len(zh) == 2 {
				sp.Equal("data[zh-CN][1][0]", "zh_male_1", zh[1][0])
				sp.Equal("data[zh-CN][1][1]", "Xiaoming", zh[1][1])
			}
			sp.Equal("selected.region", "zh-CN", got.SpeakerConfig.Selected.Region)
			sp.Equal("selected.speaker_id", "zh_female_1", got.SpeakerConfig.Selected.SpeakerID)
			sp.Float("speaker_speed", 1.2, got.SpeakerConfig.SpeakerSpeed)

			bot := c.Scope("bot_config")
			bot.Equal("data[bot_default].name", "Assistant", got.BotConfig.Data["bot_default"].Name)
			bot.Equal("data[bot_default].workflow", "wf_default", got.BotConfig.Data["bot_default"].Workflow)
			bot.Equal("custom_data[bot_custom].token", "tok-123", got.BotConfig.CustomData["bot_custom"].Token)
			bot.Equal("selected.bot_id", "bot_default", got.BotConfig.Selected.BotID)

			c.Equal("wakeup_config.name", "xiaomai", got.WakeupConfig.Name)
			c.Equal("wakeup_config.data[xiaomai]", "xiao mai", got.WakeupConfig.Data["xiaomai"])
			c.Equal("dialog_config.is_front_doa", true, got.DialogConfig.IsFrontDoa)
			c.Equal("dialog_config.is_fullduplex_enable", false, got.DialogConfig.IsFullduplexEnable)
			c.Equal("dialog_config.is_enable", true, got.DialogConfig.IsEnable)
			c.Equal("dialog_config.is_doa_enable", false, got.DialogConfig.IsDoaEnable)
			c.Equal("tts_type", types.TtsTypeDoubao, got.TtsType)
		}, viaEnvelope[types.GetSpeechConfig])
}

func addSensorCases(s *Suite) {
	dtoCase(s, "Imu",
		func() types.Imu {
			return types.Imu{
				Timestamp:          7,
				Orientation:        [4]float64{1, 2, 3, 4},
				AngularVelocity:    [3]float64{1, 2, 3},
				LinearAcceleration: [3]float64{1, 2, 3},
				Temperature:        36.5,
			}
		},
		func(c *Checker, got types.Imu) {
			c.Equal("timestamp", int64(7), got.Timestamp)
			checkSeq(c, "orientation", got.Orientation[:])
			checkSeq(c, "angular_velocity", got.AngularVelocity[:])
			checkSeq(c, "linear_acceleration", got.LinearAcceleration[:])
			c.Float("temperature", 36.5, got.Temperature)
		}, viaTopic[types.Imu](wire.TopicImu))

	dtoCase(s, "PointCloud2",
		func() types.PointCloud2 {
			return types.PointCloud2{
				Header: header("lidar"),
				Height: 1,
				Width:  2,
				Fields: []types.PointField{
					{Name: "x", Offset: 0, Datatype: 7, Count: 1},
					{Name: "y", Offset: 4, Datatype: 7, Count: 1},
				},
				IsBigendian: true,
				PointStep:   8,
				RowStep:     16,
				Data:        []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15},
				IsDense:     true,
			}
		},
		func(c *Checker, got types.PointCloud2) {
			checkHeader(c.Scope("header"), "lidar", got.Header)
			c.Equal("height", int32(1), got.Height)
			c.Equal("width", int32(2), got.Width)
			c.Equal("fields.len", 2, len(got.Fields))
			if len(got.Fields) == 2 {
				f := c.Scope("fields[1]")
				f.Equal("name", "y", got.Fields[1].Name)
				f.Equal("offset", int32(4), got.Fields[1].Offset)
				f.Equal("datatype", int8(7), got.Fields[1].Datatype)
				f.Equal("count", int32(1), got.Fields[1].Count)
			}
			c.Equal("is_bigendian", true, got.IsBigendian)
			c.Equal("point_step", int32(8), got.PointStep)
			c.Equal("row_step", int32(16), got.RowStep)
			c.Bytes("data", []byte{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}, got.Data)
			c.Equal("is_dense", true, got.IsDense)
		}, viaEnvelope[types.PointCloud2])

	dtoCase(s, "Image",
		func() types.Image {
			return types.Image{
				Header: header("rgbd_color"), Height: 2, Width: 2, Encoding: "rgb8", Step: 6,
				Data: []byte{255, 0, 0, 0, 255, 0, 0, 0, 255, 255, 255, 255},
			}
		},
		func(c *Checker, got types.Image) {
			checkHeader(c.Scope("header"), "rgbd_color", got.Header)
			c.Equal("height", int32(2), got.Height)
			c.Equal("width", int32(2), got.Width)
			c.Equal("encoding", "rgb8", got.Encoding)
			c.Equal("is_bigendian", false, got.IsBigendian)
			c.Equal("step", int32(6), got.Step)
			c.Bytes("data", []byte{255, 0, 0, 0, 255, 0, 0, 0, 255, 255, 255, 255}, got.Data)
		}, viaTopic[types.Image](wire.TopicRgbdColorImage))

	dtoCase(s, "CameraInfo",
		func() types.CameraInfo {
			info := types.CameraInfo{
				Header: header("rgbd_depth"), Height: 480, Width: 640, DistortionModel: "plumb_bob",
				D: seq(5), BinningX: 1, BinningY: 2, RoiXOffset: 3, RoiYOffset: 4,
				RoiHeight: 240, RoiWidth: 320, RoiDoRectify: true,
			}
			copy(info.K[:], seq(9))
			copy(info.R[:], seq(9))
			copy(info.P[:], seq(12))
			return info
		},
		func(c *Checker, got types.CameraInfo) {
			checkHeader(c.Scope("header"), "rgbd_depth", got.Header)
			c.Equal("height", int32(480), got.Height)
			c.Equal("width", int32(640), got.Width)
			c.Equal("distortion_model", "plumb_bob", got.DistortionModel)
			c.Floats("d", seq(5), got.D)
			checkSeq(c, "k", got.K[:])
			checkSeq(c, "r", got.R[:])
			checkSeq(c, "p", got.P[:])
			c.Equal("binning_x", int32(1), got.BinningX)
			c.Equal("binning_y", int32(2), got.BinningY)
			c.Equal("roi_x_offset", int32(3), got.RoiXOffset)
			c.Equal("roi_y_offset", int32(4), got.RoiYOffset)
			c.Equal("roi_height", int32(240), got.RoiHeight)
			c.Equal("roi_width", int32(320), got.RoiWidth)
			c.Equal("roi_do_rectify", true, got.RoiDoRectify)
		}, viaTopic[types.CameraInfo](wire.TopicRgbdDepthInfo))

	dtoCase(s, "TrinocularCameraFrame",
		func() types.TrinocularCameraFrame {
			return types.TrinocularCameraFrame{
				Header: header("trinocular"), VinTime: 11, DecodeTime: 12,
				ImgflArray: []byte{1}, ImgfArray: []byte{2, 2}, ImgfrArray: []byte{3, 3, 3},
			}
		},
		func(c *Checker, got types.TrinocularCameraFrame) {
			checkHeader(c.Scope("header"), "trinocular", got.Header)
			c.Equal("vin_time", int64(11), got.VinTime)
			c.Equal("decode_time", int64(12), got.DecodeTime)
			c.Bytes("imgfl_array", []byte{1}, got.ImgflArray)
			c.Bytes("imgf_array", []byte{2, 2}, got.ImgfArray)
			c.Bytes("imgfr_array", []byte{3, 3, 3}, got.ImgfrArray)
		}, viaEnvelope[types.TrinocularCameraFrame])

	dtoCase(s, "CompressedImage",
		func() types.CompressedImage {
			return types.CompressedImage{Header: header("binocular_left"), Format: "jpeg", Data: []byte{0xff, 0xd8, 0xff, 0xd9}}
		},
		func(c *Checker, got types.CompressedImage) {
			checkHeader(c.Scope("header"), "binocular_left", got.Header)
			c.Equal("format", "jpeg", got.Format)
			c.Bytes("data", []byte{0xff, 0xd8, 0xff, 0xd9}, got.Data)
		}, viaTopic[types.CompressedImage](wire.TopicBinocularLeftHigh))

	dtoCase(s, "LaserScan",
		func() types.LaserScan {
			return types.LaserScan{
				Header: header("laser"), AngleMin: -180, AngleMax: 179, AngleIncrement: 1,
				TimeIncrement: 2, ScanTime: 100, RangeMin: 0, RangeMax: 30,
				Ranges: seq(4), Intensities: seq(4),
			}
		},
		func(c *Checker, got types.LaserScan) {
			checkHeader(c.Scope("header"), "laser", got.Header)
			c.Equal("angle_min", int32(-180), got.AngleMin)
			c.Equal("angle_max", int32(179), got.AngleMax)
			c.Equal("angle_increment", int32(1), got.AngleIncrement)
			c.Equal("time_increment", int32(2), got.TimeIncrement)
			c.Equal("scan_time", int32(100), got.ScanTime)
			c.Equal("range_min", int32(0), got.RangeMin)
			c.Equal("range_max", int32(30), got.RangeMax)
			c.Floats("ranges", seq(4), got.Ranges)
			c.Floats("intensities", seq(4), got.Intensities)
		}, viaTopic[types.LaserScan](wire.TopicLaserScan))

	layout := func() types.MultiArrayLayout {
		return types.MultiArrayLayout{
			DimSize:    1,
			Dim:        []types.MultiArrayDimension{{Label: "samples", Size: 3, Stride: 3}},
			DataOffset: 0,
		}
	}
	checkLayout := func(s *Scope, got types.MultiArrayLayout) {
		s.Equal("dim_size", int32(1), got.DimSize)
		s.Equal("dim.len", 1, len(got.Dim))
		if len(got.Dim) == 1 {
			s.Equal("dim[0].label", "samples", got.Dim[0].Label)
			s.Equal("dim[0].size", int32(3), got.Dim[0].Size)
			s.Equal("dim[0].stride", int32(3), got.Dim[0].Stride)
		}
		s.Equal("data_offset", int32(0), got.DataOffset)
	}

	dtoCase(s, "Float32MultiArray",
		func() types.Float32MultiArray { return types.Float32MultiArray{Layout: layout(), Data: seq(3)} },
		func(c *Checker, got types.Float32MultiArray) {
			checkLayout(c.Scope("layout"), got.Layout)
			c.Floats("data", seq(3), got.Data)
		}, viaTopic[types.Float32MultiArray](wire.TopicUltra))

	dtoCase(s, "ByteMultiArray",
		func() types.ByteMultiArray { return types.ByteMultiArray{Layout: layout(), Data: []byte{1, 2, 3}} },
		func(c *Checker, got types.ByteMultiArray) {
			checkLayout(c.Scope("layout"), got.Layout)
			c.Bytes("data", []byte{1, 2, 3}, got.Data)
		}, viaTopic[types.ByteMultiArray](wire.TopicOriginVoice))

	dtoCase(s, "HeadTouch",
		func() types.HeadTouch { return types.HeadTouch{Data: -3} },
		func(c *Checker, got types.HeadTouch) {
			c.Equal("data", int8(-3), got.Data)
		}, viaTopic[types.HeadTouch](wire.TopicHeadTouch))
}

func addSlamCases(s *Suite) {
	mapInfo := func(name string) types.MapInfo {
		return types.MapInfo{
			MapName: name,
			MapMetaData: types.MapMetaData{
				Resolution: 0.05,
				Origin:     pose(0),
				MapImageData: types.MapImageData{
					Type: "P5", Width: 2, Height: 2, MaxGrayValue: 255, Image: []byte{0, 100, 205, 255},
				},
			},
		}
	}
	checkMapInfo := func(s *Scope, name string, got types.MapInfo) {
		s.Equal("map_name", name, got.MapName)
		s.Float("resolution", 0.05, got.MapMetaData.Resolution)
		checkPose(s.Scope("origin"), 0, got.MapMetaData.Origin)
		img := got.MapMetaData.MapImageData
		s.Equal("image.type", "P5", img.Type)
		s.Equal("image.width", uint32(2), img.Width)
		s.Equal("image.height", uint32(2), img.Height)
		s.Equal("image.max_gray_value", uint32(255), img.MaxGrayValue)
		s.Bytes("image.image", []byte{0, 100, 205, 255}, img.Image)
	}

	dtoCase(s, "AllMapInfo",
		func() types.AllMapInfo {
			return types.AllMapInfo{
				CurrentMapName: "office",
				MapInfos:       []types.MapInfo{mapInfo("office"), mapInfo("lab")},
			}
		},
		func(c *Checker, got types.AllMapInfo) {
			c.Equal("current_map_name", "office", got.CurrentMapName)
			c.Equal("map_infos.len", 2, len(got.MapInfos))
			if len(got.MapInfos) == 2 {
				checkMapInfo(c.Scope("map_infos[0]"), "office", got.MapInfos[0])
				checkMapInfo(c.Scope("map_infos[1]"), "lab", got.MapInfos[1])
			}
		}, viaEnvelope[types.AllMapInfo])

	dtoCase(s, "LocalizationInfo",
		func() types.LocalizationInfo {
			return types.LocalizationInfo{IsLocalization: true, Pose: pose(1)}
		},
		func(c *Checker, got types.LocalizationInfo) {
			c.Equal("is_localization", true, got.IsLocalization)
			checkPose(c.Scope("pose"), 1, got.Pose)
		}, viaEnvelope[types.LocalizationInfo])

	dtoCase(s, "NavTarget default", types.NewNavTarget,
		func(c *Checker, got types.NavTarget) {
			c.Equal("id", int32(-1), got.ID)
		}, viaEnvelope[types.NavTarget])

	dtoCase(s, "NavTarget",
		func() types.NavTarget {
			t := types.NewNavTarget()
			t.ID = 7
			t.FrameID = "map"
			t.Goal = pose(2)
			return t
		},
		func(c *Checker, got types.NavTarget) {
			c.Equal("id", int32(7), got.ID)
			c.Equal("frame_id", "map", got.FrameID)
			checkPose(c.Scope("goal"), 2, got.Goal)
		}, viaEnvelope[types.NavTarget])

	dtoCase(s, "NavStatus default", types.NewNavStatus,
		func(c *Checker, got types.NavStatus) {
			c.Equal("id", int32(-1), got.ID)
			c.Equal("status", types.NavStatusNone, got.Status)
		}, viaTopic[types.NavStatus](wire.TopicNavStatus))

	dtoCase(s, "NavStatus",
		func() types.NavStatus {
			return types.NavStatus{ID: 7, Status: types.NavStatusEndSuccess, Message: "arrived"}
		},
		func(c *Checker, got types.NavStatus) {
			c.Equal("id", int32(7), got.ID)
			c.Equal("status", types.NavStatusEndSuccess, got.Status)
			c.Equal("message", "arrived", got.Message)
		}, viaTopic[types.NavStatus](wire.TopicNavStatus))

	dtoCase(s, "Odometry",
		func() types.Odometry {
			return types.Odometry{
				Header:          header("odom"),
				ChildFrameID:    "base_link",
				Position:        [3]float64{1, 2, 3},
				Orientation:     [4]float64{1, 2, 3, 4},
				LinearVelocity:  [3]float64{1, 2, 3},
				AngularVelocity: [3]float64{1, 2, 3},
			}
		},
		func(c *Checker, got types.Odometry) {
			checkHeader(c.Scope("header"), "odom", got.Header)
			c.Equal("child_frame_id", "base_link", got.ChildFrameID)
			checkSeq(c, "position", got.Position[:])
			checkSeq(c, "orientation", got.Orientation[:])
			checkSeq(c, "linear_velocity", got.LinearVelocity[:])
			checkSeq(c, "angular_velocity", got.AngularVelocity[:])
		}, viaTopic[types.Odometry](wire.TopicOdometry))
}
