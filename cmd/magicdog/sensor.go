package main

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/magicdog"
	"github.com/magicdog/sdk/pkg/types"
)

type SensorCommand struct {
	Listen time.Duration `long:"listen" default:"3s" description:"how long to receive sensor data"`
}

func (c *SensorCommand) Execute(args []string) error {
	ctx, stop := signalContext()
	defer stop()

	s, err := openSession(ctx, "sensor", nil)
	if err != nil {
		return err
	}
	defer s.Close()
	_, err = runSensor(ctx, s.robot, s.log, c.Listen)
	return err
}

// frameCounter counts samples per stream and keeps one line about the latest.
type frameCounter struct {
	mu     sync.Mutex
	counts map[string]int
	latest map[string]string
}

func newFrameCounter() *frameCounter {
	return &frameCounter{counts: make(map[string]int), latest: make(map[string]string)}
}

func (f *frameCounter) add(name, format string, args ...interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.counts[name]++
	f.latest[name] = fmt.Sprintf(format, args...)
}

func (f *frameCounter) snapshot() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]int, len(f.counts))
	for k, v := range f.counts {
		out[k] = v
	}
	return out
}

func (f *frameCounter) report(log customlog.Logger) {
	f.mu.Lock()
	defer f.mu.Unlock()
	names := make([]string, 0, len(f.counts))
	for name := range f.counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		log.Infof("%-24s %5d frames, last: %s", name, f.counts[name], f.latest[name])
	}
}

func runSensor(ctx context.Context, robot *magicdog.Robot, log customlog.Logger, listen time.Duration) (map[string]int, error) {
	sc := robot.SensorController()
	frames := newFrameCounter()

	image := func(name string) func(*types.Image) {
		return func(img *types.Image) {
			frames.add(name, "%dx%d %s, %d bytes", img.Width, img.Height, img.Encoding, len(img.Data))
		}
	}
	info := func(name string) func(*types.CameraInfo) {
		return func(ci *types.CameraInfo) {
			frames.add(name, "%dx%d %s fx=%.1f", ci.Width, ci.Height, ci.DistortionModel, ci.K[0])
		}
	}
	compressed := func(name string) func(*types.CompressedImage) {
		return func(img *types.CompressedImage) {
			frames.add(name, "%s, %d bytes", img.Format, len(img.Data))
		}
	}

	subscriptions := []func() error{
		func() error {
			return sc.SubscribeImu(func(imu *types.Imu) {
				frames.add("imu", "acc=(%.2f, %.2f, %.2f) temp=%.1f",
					imu.LinearAcceleration[0], imu.LinearAcceleration[1], imu.LinearAcceleration[2], imu.Temperature)
			})
		},
		func() error {
			return sc.SubscribeUltra(func(u *types.Float32MultiArray) { frames.add("ultra", "%v", u.Data) })
		},
		func() error {
			return sc.SubscribeHeadTouch(func(h *types.HeadTouch) { frames.add("head_touch", "%d", h.Data) })
		},
		func() error {
			return sc.SubscribeLaserScan(func(scan *types.LaserScan) {
				frames.add("laser_scan", "%d ranges, front %.2f m", len(scan.Ranges), frontRange(scan))
			})
		},
		func() error { return sc.SubscribeRgbDepthCameraInfo(info("rgbd_depth_info")) },
		func() error { return sc.SubscribeRgbdDepthImage(image("rgbd_depth_image")) },
		func() error { return sc.SubscribeRgbdColorCameraInfo(info("rgbd_color_info")) },
		func() error { return sc.SubscribeRgbdColorImage(image("rgbd_color_image")) },
		func() error { return sc.SubscribeLeftBinocularHighImg(compressed("binocular_left_high")) },
		func() error { return sc.SubscribeLeftBinocularLowImg(compressed("binocular_left_low")) },
		func() error { return sc.SubscribeRightBinocularLowImg(compressed("binocular_right_low")) },
		func() error { return sc.SubscribeDepthImage(image("depth_image")) },
	}
	for _, subscribe := range subscriptions {
		if err := subscribe(); err != nil {
			return nil, fmt.Errorf("failed to subscribe: %w", err)
		}
	}
	defer sc.Shutdown()

	opens := []struct {
		name  string
		open  func(context.Context) error
		close func(context.Context) error
	}{
		{"laser scan", sc.OpenLaserScan, sc.CloseLaserScan},
		{"RGBD camera", sc.OpenRgbdCamera, sc.CloseRgbdCamera},
		{"binocular camera", sc.OpenBinocularCamera, sc.CloseBinocularCamera},
	}
	for _, o := range opens {
		if err := o.open(ctx); err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", o.name, err)
		}
		log.Infof("Opened %s", o.name)
	}

	if err := sleep(ctx, listen); err != nil {
		log.Infof("Interrupted")
	}

	cleanup, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for _, o := range opens {
		if err := o.close(cleanup); err != nil {
			log.Warnf("Failed to close %s: %v", o.name, err)
		}
	}
	frames.report(log)
	return frames.snapshot(), nil
}

// frontRange is the beam closest to straight ahead.
func frontRange(scan *types.LaserScan) float64 {
	if scan.AngleIncrement == 0 || len(scan.Ranges) == 0 {
		return 0
	}
	i := int(-scan.AngleMin / scan.AngleIncrement)
	if i < 0 || i >= len(scan.Ranges) {
		return 0
	}
	return scan.Ranges[i]
}
