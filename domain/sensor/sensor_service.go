package sensor

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"math"
	"sync"
	"time"

	"github.com/magicdog/sdk/domain/stream"
	"github.com/magicdog/sdk/pkg/config"
	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/types"
	"github.com/magicdog/sdk/pkg/wire"
	"github.com/magicdog/sdk/pkg/zeromq"
)

const (
	gravity   = 9.81
	laserBeam = 360
	roomHalf  = 3.0 // metres from the robot to each wall
	depthMM   = 1500
)

type resolution struct{ w, h int }

var (
	lowRes  = resolution{64, 48}
	highRes = resolution{128, 96}
)

// State reports which optional sensors are open
type State struct {
	LaserScan bool `json:"laser_scan"`
	Rgbd      bool `json:"rgbd"`
	Binocular bool `json:"binocular"`
	HeadTouch int8 `json:"head_touch"`
}

// SensorService simulates the sensor suite. IMU, ultrasonic and head touch
// always stream; the laser, RGBD and binocular cameras stream while open.
type SensorService struct {
	cfg    config.SimulationConfig
	logger customlog.Logger
	start  time.Time

	mu    sync.RWMutex
	state State
}

// NewSensorService creates a sensor simulator with every optional sensor closed
func NewSensorService(cfg config.SimulationConfig, logger customlog.Logger) *SensorService {
	return &SensorService{
		cfg:    cfg,
		logger: logger.WithField("service", "sensor"),
		start:  time.Now(),
	}
}

// Register installs the sensor open/close handlers.
func (s *SensorService) Register(server zeromq.Server) {
	toggle := func(msgType, name string, flag func(*State) *bool, open bool) {
		server.RegisterHandlerFunc(msgType, func(*wire.Envelope) (interface{}, error) {
			s.mu.Lock()
			*flag(&s.state) = open
			s.mu.Unlock()
			s.logger.Infof("%s open=%t", name, open)
			return nil, nil
		})
	}
	laser := func(st *State) *bool { return &st.LaserScan }
	rgbd := func(st *State) *bool { return &st.Rgbd }
	binocular := func(st *State) *bool { return &st.Binocular }

	toggle(wire.MsgSensorOpenLaserScan, "Laser scan", laser, true)
	toggle(wire.MsgSensorCloseLaserScan, "Laser scan", laser, false)
	toggle(wire.MsgSensorOpenRgbd, "RGBD camera", rgbd, true)
	toggle(wire.MsgSensorCloseRgbd, "RGBD camera", rgbd, false)
	toggle(wire.MsgSensorOpenBinocular, "Binocular camera", binocular, true)
	toggle(wire.MsgSensorCloseBinocular, "Binocular camera", binocular, false)
}

// State returns the open flags
func (s *SensorService) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// SetHeadTouch sets the value reported on the head touch stream.
func (s *SensorService) SetHeadTouch(v int8) {
	s.mu.Lock()
	s.state.HeadTouch = v
	s.mu.Unlock()
}

func (s *SensorService) open(flag func(State) bool) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return flag(s.state)
}

// Sources returns every sensor stream.
func (s *SensorService) Sources() []stream.Source {
	laserOpen := func(st State) bool { return st.LaserScan }
	rgbdOpen := func(st State) bool { return st.Rgbd }
	binocularOpen := func(st State) bool { return st.Binocular }

	when := func(flag func(State) bool, sample func(time.Time) interface{}) func(time.Time) (interface{}, bool) {
		return func(now time.Time) (interface{}, bool) {
			if flag != nil && !s.open(flag) {
				return nil, false
			}
			return sample(now), true
		}
	}
	hz := s.cfg.CameraHz

	return []stream.Source{
		{Topic: wire.TopicImu, Hz: s.cfg.ImuHz, Sample: when(nil, s.imu)},
		{Topic: wire.TopicUltra, Hz: s.cfg.UltraHz, Sample: when(nil, s.ultra)},
		{Topic: wire.TopicHeadTouch, Hz: s.cfg.HeadTouchHz, Sample: when(nil, func(time.Time) interface{} {
			return &types.HeadTouch{Data: s.State().HeadTouch}
		})},
		{Topic: wire.TopicLaserScan, Hz: s.cfg.LaserScanHz, Sample: when(laserOpen, s.laserScan)},
		{Topic: wire.TopicRgbdDepthInfo, Hz: hz, Sample: when(rgbdOpen, func(now time.Time) interface{} {
			return cameraInfo(now, "rgbd_depth", lowRes)
		})},
		{Topic: wire.TopicRgbdDepthImage, Hz: hz, Sample: when(rgbdOpen, func(now time.Time) interface{} {
			return depthImage(now, "rgbd_depth", lowRes)
		})},
		{Topic: wire.TopicRgbdColorInfo, Hz: hz, Sample: when(rgbdOpen, func(now time.Time) interface{} {
			return cameraInfo(now, "rgbd_color", lowRes)
		})},
		{Topic: wire.TopicRgbdColorImage, Hz: hz, Sample: when(rgbdOpen, s.colorImage)},
		{Topic: wire.TopicBinocularLeftHigh, Hz: hz, Sample: when(binocularOpen, func(now time.Time) interface{} {
			return s.compressed(now, "binocular_left", highRes)
		})},
		{Topic: wire.TopicBinocularLeftLow, Hz: hz, Sample: when(binocularOpen, func(now time.Time) interface{} {
			return s.compressed(now, "binocular_left", lowRes)
		})},
		{Topic: wire.TopicBinocularRightLow, Hz: hz, Sample: when(binocularOpen, func(now time.Time) interface{} {
			return s.compressed(now, "binocular_right", lowRes)
		})},
		{Topic: wire.TopicDepthImage, Hz: hz, Sample: when(binocularOpen, func(now time.Time) interface{} {
			return depthImage(now, "binocular_depth", lowRes)
		})},
	}
}

// imu sways slowly around the vertical axis.
func (s *SensorService) imu(now time.Time) interface{} {
	t := now.Sub(s.start).Seconds()
	yaw := 0.02 * math.Sin(t)
	return &types.Imu{
		Timestamp:          now.UnixNano(),
		Orientation:        [4]float64{math.Cos(yaw / 2), 0, 0, math.Sin(yaw / 2)},
		AngularVelocity:    [3]float64{0, 0, 0.02 * math.Cos(t)},
		LinearAcceleration: [3]float64{0, 0, gravity},
		Temperature:        36.5,
	}
}

func (s *SensorService) ultra(now time.Time) interface{} {
	return &types.Float32MultiArray{
		Layout: types.MultiArrayLayout{
			DimSize: 1,
			Dim:     []types.MultiArrayDimension{{Label: "front_back", Size: 2, Stride: 2}},
		},
		Data: []float64{roomHalf, roomHalf},
	}
}

// laserScan measures the walls of a square room centred on the robot.
func (s *SensorService) laserScan(now time.Time) interface{} {
	scan := &types.LaserScan{
		Header:         types.Header{Stamp: now.UnixNano(), FrameID: "laser"},
		AngleMin:       -180,
		AngleMax:       179,
		AngleIncrement: 1,
		ScanTime:       int32(1000 / max(s.cfg.LaserScanHz, 1)),
		RangeMin:       0,
		RangeMax:       30,
		Ranges:         make([]float64, laserBeam),
		Intensities:    make([]float64, laserBeam),
	}
	for i := range scan.Ranges {
		a := float64(int(scan.AngleMin)+i) * math.Pi / 180
		scan.Ranges[i] = roomHalf / math.Max(math.Abs(math.Cos(a)), math.Abs(math.Sin(a)))
		scan.Intensities[i] = 100
	}
	return scan
}

func cameraInfo(now time.Time, frame string, res resolution) *types.CameraInfo {
	fx, fy := float64(res.w), float64(res.w)
	cx, cy := float64(res.w)/2, float64(res.h)/2
	return &types.CameraInfo{
		Header:          types.Header{Stamp: now.UnixNano(), FrameID: frame},
		Height:          int32(res.h),
		Width:           int32(res.w),
		DistortionModel: "plumb_bob",
		D:               []float64{0, 0, 0, 0, 0},
		K:               [9]float64{fx, 0, cx, 0, fy, cy, 0, 0, 1},
		R:               [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
		P:               [12]float64{fx, 0, cx, 0, 0, fy, cy, 0, 0, 0, 1, 0},
		RoiHeight:       int32(res.h),
		RoiWidth:        int32(res.w),
	}
}

// depthImage is a flat 16UC1 wall at depthMM millimetres.
func depthImage(now time.Time, frame string, res resolution) *types.Image {
	data := make([]byte, res.w*res.h*2)
	for i := 0; i < len(data); i += 2 {
		data[i] = byte(depthMM & 0xff)
		data[i+1] = byte(depthMM >> 8)
	}
	return &types.Image{
		Header:   types.Header{Stamp: now.UnixNano(), FrameID: frame},
		Height:   int32(res.h),
		Width:    int32(res.w),
		Encoding: "16UC1",
		Step:     int32(res.w * 2),
		Data:     data,
	}
}

func (s *SensorService) colorImage(now time.Time) interface{} {
	img := s.testPattern(now, lowRes)
	data := make([]byte, 0, lowRes.w*lowRes.h*3)
	for y := 0; y < lowRes.h; y++ {
		for x := 0; x < lowRes.w; x++ {
			c := img.RGBAAt(x, y)
			data = append(data, c.R, c.G, c.B)
		}
	}
	return &types.Image{
		Header:   types.Header{Stamp: now.UnixNano(), FrameID: "rgbd_color"},
		Height:   int32(lowRes.h),
		Width:    int32(lowRes.w),
		Encoding: "rgb8",
		Step:     int32(lowRes.w * 3),
		Data:     data,
	}
}

func (s *SensorService) compressed(now time.Time, frame string, res resolution) interface{} {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, s.testPattern(now, res), &jpeg.Options{Quality: 75}); err != nil {
		s.logger.Warnf("JPEG encoding failed: %v", err)
	}
	return &types.CompressedImage{
		Header: types.Header{Stamp: now.UnixNano(), FrameID: frame},
		Format: "jpeg",
		Data:   buf.Bytes(),
	}
}

// testPattern is a colour gradient with a bar sweeping once per second.
func (s *SensorService) testPattern(now time.Time, res resolution) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, res.w, res.h))
	bar := int(now.Sub(s.start).Seconds()*float64(res.w)) % res.w
	for y := 0; y < res.h; y++ {
		for x := 0; x < res.w; x++ {
			c := color.RGBA{R: uint8(255 * x / res.w), G: uint8(255 * y / res.h), B: 128, A: 255}
			if x == bar {
				c = color.RGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetRGBA(x, y, c)
		}
	}
	return img
}
