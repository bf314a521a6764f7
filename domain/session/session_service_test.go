package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customlog "github.com/magicdog/sdk/pkg/log"
	"github.com/magicdog/sdk/pkg/types"
	"github.com/magicdog/sdk/pkg/wire"
	"github.com/magicdog/sdk/pkg/zeromq"
)

type levelRecorder struct {
	changes [][2]types.ControllerLevel
}

func (r *levelRecorder) OnLevelChange(from, to types.ControllerLevel) {
	r.changes = append(r.changes, [2]types.ControllerLevel{from, to})
}

func newTestSession(t *testing.T) (*SessionService, *levelRecorder, *zeromq.LocalClient) {
	t.Helper()
	logger := customlog.NewNopLogger()
	rec := &levelRecorder{}
	s := NewSessionService("1.2.3", logger, rec)
	bus := zeromq.NewLocalBus(logger)
	t.Cleanup(bus.Close)
	s.Register(bus)
	return s, rec, bus.NewClient(nil)
}

func TestConnectAndDisconnect(t *testing.T) {
	s, _, client := newTestSession(t)
	ctx := context.Background()

	var v wire.VersionResult
	require.NoError(t, client.Call(ctx, wire.MsgRobotConnect, wire.ConnectRequest{ClientID: "b", LocalIP: "10.0.0.2"}, &v))
	assert.Equal(t, "1.2.3", v.Version)
	require.NoError(t, client.Call(ctx, wire.MsgRobotConnect, wire.ConnectRequest{ClientID: "a", LocalIP: "10.0.0.1"}, nil))

	assert.Equal(t, []Client{{ID: "a", LocalIP: "10.0.0.1"}, {ID: "b", LocalIP: "10.0.0.2"}}, s.Clients())

	require.NoError(t, client.Call(ctx, wire.MsgRobotDisconnect, wire.ConnectRequest{ClientID: "a"}, nil))
	require.NoError(t, client.Call(ctx, wire.MsgRobotDisconnect, wire.ConnectRequest{ClientID: "unknown"}, nil))
	assert.Len(t, s.Clients(), 1)

	err := client.Call(ctx, wire.MsgRobotConnect, wire.ConnectRequest{}, nil)
	assert.Equal(t, types.ErrorCodeServiceError, types.StatusOf(err).Code)
}

func TestVersion(t *testing.T) {
	_, _, client := newTestSession(t)
	var v wire.VersionResult
	require.NoError(t, client.Call(context.Background(), wire.MsgRobotVersion, nil, &v))
	assert.Equal(t, "1.2.3", v.Version)
}

func TestSetLevelNotifiesOnChange(t *testing.T) {
	s, rec, client := newTestSession(t)
	ctx := context.Background()

	var lvl wire.LevelMessage
	require.NoError(t, client.Call(ctx, wire.MsgRobotGetLevel, nil, &lvl))
	assert.Equal(t, types.ControllerLevelHigh, lvl.Level)

	require.NoError(t, client.Call(ctx, wire.MsgRobotSetLevel, wire.LevelMessage{Level: types.ControllerLevelLow}, nil))
	require.NoError(t, s.SetLevel(types.ControllerLevelLow))
	assert.Equal(t, types.ControllerLevelLow, s.Level())
	assert.Equal(t, [][2]types.ControllerLevel{{types.ControllerLevelHigh, types.ControllerLevelLow}}, rec.changes)

	err := s.SetLevel(types.ControllerLevelUnknown)
	assert.Equal(t, types.ErrorCodeServiceError, types.StatusOf(err).Code)
	assert.Equal(t, types.ControllerLevelLow, s.Level())
}
