package api

import (
	"encoding/json"
	"errors"
	"syscall"

	"github.com/gofiber/contrib/websocket"

	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/types"
)

// JoystickSink receives operator joystick samples. teleop.TeleopService
// implements it.
type JoystickSink interface {
	SendCommand(cmd types.JoystickCommand) error
}

// JoystickWebSocketHandler reads JSON JoystickCommand frames from conn and
// forwards them to sink, answering each frame with a JoystickAck.
func JoystickWebSocketHandler(conn *websocket.Conn, logger customlog.Logger, sink JoystickSink) {
	logger.Infof("Joystick WebSocket connected: %s", conn.RemoteAddr())
	var (
		mt  int
		msg []byte
		err error
	)
	for {
		if mt, msg, err = conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.Errorf("Joystick WS read error: %v", err)
			} else if err != websocket.ErrCloseSent && !errors.Is(err, syscall.EPIPE) && !errors.Is(err, syscall.ECONNRESET) {
				logger.Infof("Joystick WS connection closed: %v", err)
			} else {
				logger.Infof("Joystick WS connection closed normally.")
			}
			break
		}

		if mt != websocket.TextMessage {
			logger.Infof("Ignoring non-text Joystick WS message type: %d", mt)
			continue
		}
		ack := handleJoystickFrame(msg, sink)
		if !ack.OK {
			logger.Warnf("Rejected joystick frame: %s", ack.Error)
		}
		if err := conn.WriteJSON(ack); err != nil {
			logger.Warnf("Failed to acknowledge joystick frame: %v", err)
			break
		}
	}
	logger.Infof("Joystick WebSocket disconnected: %s", conn.RemoteAddr())
}

func handleJoystickFrame(msg []byte, sink JoystickSink) JoystickAck {
	var cmd types.JoystickCommand
	if err := json.Unmarshal(msg, &cmd); err != nil {
		return JoystickAck{Error: "malformed joystick frame: " + err.Error()}
	}
	if err := sink.SendCommand(cmd); err != nil {
		return JoystickAck{Error: err.Error()}
	}
	return JoystickAck{OK: true}
}
