package magicdog

import (
	"context"

	"github.com/magicdog/sdk/pkg/types"
	"github.com/magicdog/sdk/pkg/wire"
)

// SensorController opens the optional sensors and subscribes to their streams.
// IMU, ultrasonic and head touch always stream; the rest stream while open.
type SensorController struct {
	*controller
}

func (c *SensorController) OpenLaserScan(ctx context.Context) error {
	return c.robot.call(ctx, wire.MsgSensorOpenLaserScan, nil, nil)
}

func (c *SensorController) CloseLaserScan(ctx context.Context) error {
	return c.robot.call(ctx, wire.MsgSensorCloseLaserScan, nil, nil)
}

func (c *SensorController) OpenRgbdCamera(ctx context.Context) error {
	return c.robot.call(ctx, wire.MsgSensorOpenRgbd, nil, nil)
}

func (c *SensorController) CloseRgbdCamera(ctx context.Context) error {
	return c.robot.call(ctx, wire.MsgSensorCloseRgbd, nil, nil)
}

func (c *SensorController) OpenBinocularCamera(ctx context.Context) error {
	return c.robot.call(ctx, wire.MsgSensorOpenBinocular, nil, nil)
}

func (c *SensorController) CloseBinocularCamera(ctx context.Context) error {
	return c.robot.call(ctx, wire.MsgSensorCloseBinocular, nil, nil)
}

func (c *SensorController) SubscribeUltra(cb func(*types.Float32MultiArray)) error {
	return subscribeVia(c.controller, wire.TopicUltra, cb)
}

func (c *SensorController) UnsubscribeUltra() error { return c.unsubscribe(wire.TopicUltra) }

func (c *SensorController) SubscribeHeadTouch(cb func(*types.HeadTouch)) error {
	return subscribeVia(c.controller, wire.TopicHeadTouch, cb)
}

func (c *SensorController) UnsubscribeHeadTouch() error { return c.unsubscribe(wire.TopicHeadTouch) }

func (c *SensorController) SubscribeLaserScan(cb func(*types.LaserScan)) error {
	return subscribeVia(c.controller, wire.TopicLaserScan, cb)
}

func (c *SensorController) UnsubscribeLaserScan() error { return c.unsubscribe(wire.TopicLaserScan) }

func (c *SensorController) SubscribeRgbDepthCameraInfo(cb func(*types.CameraInfo)) error {
	return subscribeVia(c.controller, wire.TopicRgbdDepthInfo, cb)
}

func (c *SensorController) UnsubscribeRgbDepthCameraInfo() error {
	return c.unsubscribe(wire.TopicRgbdDepthInfo)
}

func (c *SensorController) SubscribeRgbdDepthImage(cb func(*types.Image)) error {
	return subscribeVia(c.controller, wire.TopicRgbdDepthImage, cb)
}

func (c *SensorController) UnsubscribeRgbdDepthImage() error {
	return c.unsubscribe(wire.TopicRgbdDepthImage)
}

func (c *SensorController) SubscribeRgbdColorCameraInfo(cb func(*types.CameraInfo)) error {
	return subscribeVia(c.controller, wire.TopicRgbdColorInfo, cb)
}

func (c *SensorController) UnsubscribeRgbdColorCameraInfo() error {
	return c.unsubscribe(wire.TopicRgbdColorInfo)
}

func (c *SensorController) SubscribeRgbdColorImage(cb func(*types.Image)) error {
	return subscribeVia(c.controller, wire.TopicRgbdColorImage, cb)
}

func (c *SensorController) UnsubscribeRgbdColorImage() error {
	return c.unsubscribe(wire.TopicRgbdColorImage)
}

func (c *SensorController) SubscribeImu(cb func(*types.Imu)) error {
	return subscribeVia(c.controller, wire.TopicImu, cb)
}

func (c *SensorController) UnsubscribeImu() error { return c.unsubscribe(wire.TopicImu) }

func (c *SensorController) SubscribeLeftBinocularHighImg(cb func(*types.CompressedImage)) error {
	return subscribeVia(c.controller, wire.TopicBinocularLeftHigh, cb)
}

func (c *SensorController) UnsubscribeLeftBinocularHighImg() error {
	return c.unsubscribe(wire.TopicBinocularLeftHigh)
}

func (c *SensorController) SubscribeLeftBinocularLowImg(cb func(*types.CompressedImage)) error {
	return subscribeVia(c.controller, wire.TopicBinocularLeftLow, cb)
}

func (c *SensorController) UnsubscribeLeftBinocularLowImg() error {
	return c.unsubscribe(wire.TopicBinocularLeftLow)
}

func (c *SensorController) SubscribeRightBinocularLowImg(cb func(*types.CompressedImage)) error {
	return subscribeVia(c.controller, wire.TopicBinocularRightLow, cb)
}

func (c *SensorController) UnsubscribeRightBinocularLowImg() error {
	return c.unsubscribe(wire.TopicBinocularRightLow)
}

func (c *SensorController) SubscribeDepthImage(cb func(*types.Image)) error {
	return subscribeVia(c.controller, wire.TopicDepthImage, cb)
}

func (c *SensorController) UnsubscribeDepthImage() error { return c.unsubscribe(wire.TopicDepthImage) }
