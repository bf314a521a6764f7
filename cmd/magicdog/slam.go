package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/magicdog"
	"github.com/magicdog/sdk/pkg/types"
)

type SlamCommand struct {
	MapName  string        `long:"map" default:"office" description:"name of the map to build"`
	Walk     time.Duration `long:"walk" default:"1s" description:"how long to walk while mapping"`
	ImageDir string        `long:"image-dir" description:"write the saved map as a PGM file into this directory"`
}

func (c *SlamCommand) Execute(args []string) error {
	ctx, stop := signalContext()
	defer stop()

	s, err := openSession(ctx, "slam", nil)
	if err != nil {
		return err
	}
	defer s.Close()
	_, err = runSlam(ctx, s.robot, s.log, c.MapName, c.Walk, c.ImageDir)
	return err
}

// runSlam walks the robot around while mapping and saves the map. It returns
// the map list after saving.
func runSlam(ctx context.Context, robot *magicdog.Robot, log customlog.Logger, name string, walk time.Duration, imageDir string) (types.AllMapInfo, error) {
	var all types.AllMapInfo
	if err := robot.SetMotionControlLevel(ctx, types.ControllerLevelHigh); err != nil {
		return all, fmt.Errorf("failed to set motion control level: %w", err)
	}
	hl := robot.HighLevelMotionController()
	sn := robot.SlamNavController()

	if err := changeGait(ctx, hl, log, types.GaitStandR); err != nil {
		return all, err
	}
	if err := sn.StartMapping(ctx); err != nil {
		return all, fmt.Errorf("failed to start mapping: %w", err)
	}
	log.Infof("Mapping started")

	if err := changeGait(ctx, hl, log, types.GaitDownClimbStairs); err != nil {
		return all, err
	}
	if err := hl.EnableJoystick(ctx); err != nil {
		return all, fmt.Errorf("failed to enable joystick: %w", err)
	}
	for _, cmd := range []types.JoystickCommand{{LeftYAxis: 0.5}, {RightXAxis: 0.5}, {}} {
		if err := holdJoystick(ctx, hl, cmd, walk); err != nil {
			sn.CancelMapping(context.Background())
			return all, err
		}
	}

	if err := sn.SaveMap(ctx, name); err != nil {
		sn.CancelMapping(ctx)
		return all, fmt.Errorf("failed to save map %s: %w", name, err)
	}
	log.Infof("Map %s saved", name)

	all, err := sn.AllMapInfo(ctx)
	if err != nil {
		return all, fmt.Errorf("failed to get map info: %w", err)
	}
	log.Infof("Current map: %s", all.CurrentMapName)
	for _, m := range all.MapInfos {
		meta := m.MapMetaData
		log.Infof("Map %s: %dx%d at %.3f m/pixel, origin (%.2f, %.2f, %.2f)",
			m.MapName, meta.MapImageData.Width, meta.MapImageData.Height, meta.Resolution,
			meta.Origin.Position[0], meta.Origin.Position[1], meta.Origin.Orientation[2])
		if imageDir != "" && m.MapName == name {
			path := filepath.Join(imageDir, m.MapName+".pgm")
			if err := writePGM(path, meta.MapImageData); err != nil {
				return all, err
			}
			log.Infof("Map image written to %s", path)
		}
	}

	if err := sn.SwitchToIdle(ctx); err != nil {
		return all, fmt.Errorf("failed to close slam: %w", err)
	}
	return all, changeGait(ctx, hl, log, types.GaitStandR)
}

// writePGM stores a binary (P5) map image.
func writePGM(path string, img types.MapImageData) error {
	if want := int(img.Width) * int(img.Height); len(img.Image) != want {
		return fmt.Errorf("map image has %d pixels, expected %d", len(img.Image), want)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create map image: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	fmt.Fprintf(w, "P5\n%d %d\n%d\n", img.Width, img.Height, img.MaxGrayValue)
	if _, err := w.Write(img.Image); err != nil {
		return fmt.Errorf("failed to write map image: %w", err)
	}
	return w.Flush()
}

type NavigationCommand struct {
	MapName string  `long:"map" default:"office" description:"map to navigate on, built first when missing"`
	X       float64 `short:"x" default:"1.0" description:"target x in metres"`
	Y       float64 `short:"y" default:"0.5" description:"target y in metres"`
	Yaw     float64 `long:"yaw" default:"0" description:"target yaw in radians"`
}

func (c *NavigationCommand) Execute(args []string) error {
	ctx, stop := signalContext()
	defer stop()

	s, err := openSession(ctx, "navigation", nil)
	if err != nil {
		return err
	}
	defer s.Close()

	goal := types.Pose3DEuler{Position: [3]float64{c.X, c.Y, 0}, Orientation: [3]float64{0, 0, c.Yaw}}
	_, err = runNavigation(ctx, s.robot, s.log, c.MapName, goal)
	return err
}

// runNavigation localizes on mapName and drives to goal. It returns the
// final task status.
func runNavigation(ctx context.Context, robot *magicdog.Robot, log customlog.Logger, mapName string, goal types.Pose3DEuler) (types.NavStatus, error) {
	final := types.NewNavStatus()
	if err := robot.SetMotionControlLevel(ctx, types.ControllerLevelHigh); err != nil {
		return final, fmt.Errorf("failed to set motion control level: %w", err)
	}
	hl := robot.HighLevelMotionController()
	sn := robot.SlamNavController()

	if err := changeGait(ctx, hl, log, types.GaitStandR); err != nil {
		return final, err
	}

	all, err := sn.AllMapInfo(ctx)
	if err != nil {
		return final, fmt.Errorf("failed to get map info: %w", err)
	}
	if !hasMap(all, mapName) {
		log.Infof("Map %s not found, building it", mapName)
		if err := sn.StartMapping(ctx); err != nil {
			return final, fmt.Errorf("failed to start mapping: %w", err)
		}
		if err := sn.SaveMap(ctx, mapName); err != nil {
			return final, fmt.Errorf("failed to save map %s: %w", mapName, err)
		}
	}
	if err := sn.LoadMap(ctx, mapName); err != nil {
		return final, fmt.Errorf("failed to load map %s: %w", mapName, err)
	}

	if err := sn.SwitchToLocation(ctx); err != nil {
		return final, fmt.Errorf("failed to switch to localization: %w", err)
	}
	if err := sn.InitPose(ctx, types.Pose3DEuler{}); err != nil {
		return final, fmt.Errorf("failed to initialize pose: %w", err)
	}
	loc, err := sn.CurrentLocalizationInfo(ctx)
	if err != nil {
		return final, fmt.Errorf("failed to get localization: %w", err)
	}
	log.Infof("Localized=%t at (%.2f, %.2f)", loc.IsLocalization, loc.Pose.Position[0], loc.Pose.Position[1])

	if err := sn.ActivateNavMode(ctx, types.NavModeGridMap); err != nil {
		return final, fmt.Errorf("failed to activate navigation: %w", err)
	}
	// The joystick would override navigation.
	if err := hl.DisableJoystick(ctx); err != nil {
		return final, fmt.Errorf("failed to disable joystick: %w", err)
	}

	statuses := make(chan types.NavStatus, 16)
	err = sn.SubscribeNavStatus(func(st *types.NavStatus) {
		select {
		case statuses <- *st:
		default:
		}
	})
	if err != nil {
		return final, fmt.Errorf("failed to subscribe nav status: %w", err)
	}
	defer sn.UnsubscribeNavStatus()

	odometry := make(chan types.Odometry, 1)
	err = sn.SubscribeOdometry(func(o *types.Odometry) {
		select {
		case odometry <- *o:
		default:
		}
	})
	if err != nil {
		return final, fmt.Errorf("failed to subscribe odometry: %w", err)
	}
	defer sn.UnsubscribeOdometry()

	target := types.NewNavTarget()
	target.ID = 1
	target.FrameID = "map"
	target.Goal = goal
	if err := sn.SetNavTarget(ctx, target); err != nil {
		return final, fmt.Errorf("failed to set navigation target: %w", err)
	}
	log.Infof("Navigating to (%.2f, %.2f, yaw %.2f)", goal.Position[0], goal.Position[1], goal.Orientation[2])

	last := types.NavStatusNone
	for {
		select {
		case <-ctx.Done():
			cleanup, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := sn.CancelNavTask(cleanup); err != nil {
				log.Warnf("Failed to cancel navigation: %v", err)
			}
			return final, ctx.Err()
		case o := <-odometry:
			log.Debugf("Odometry (%.2f, %.2f)", o.Position[0], o.Position[1])
		case st := <-statuses:
			if st.ID != target.ID {
				continue
			}
			if st.Status != last {
				log.Infof("Navigation task %d: %s %s", st.ID, st.Status, st.Message)
				last = st.Status
			}
			if st.Status.Finished() {
				final = st
				if err := sn.SwitchToIdle(ctx); err != nil {
					return final, fmt.Errorf("failed to close slam: %w", err)
				}
				if st.Status != types.NavStatusEndSuccess {
					return final, fmt.Errorf("navigation ended with %s: %s", st.Status, st.Message)
				}
				return final, nil
			}
		}
	}
}

func hasMap(all types.AllMapInfo, name string) bool {
	for _, m := range all.MapInfos {
		if m.MapName == name {
			return true
		}
	}
	return false
}
