package audio

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magicdog/sdk/pkg/types"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestScheduler() (*TtsScheduler, *fakeClock) {
	s := NewTtsScheduler(100)
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	s.now = clock.Now
	return s, clock
}

func tts(id, content string, p types.TtsPriority, m types.TtsMode) types.TtsCommand {
	return types.TtsCommand{ID: id, Content: content, Priority: p, Mode: m}
}

func ids(cmds []types.TtsCommand) []string {
	out := make([]string, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, c.ID)
	}
	return out
}

func outcomes(st TtsState) map[string]string {
	out := make(map[string]string)
	for _, e := range st.History {
		out[e.ID] = e.Outcome
	}
	return out
}

func TestPlayRejectsBadCommands(t *testing.T) {
	s, _ := newTestScheduler()
	for name, cmd := range map[string]types.TtsCommand{
		"no id":      tts("", "hi", types.TtsPriorityLow, types.TtsModeAdd),
		"no content": tts("a", "", types.TtsPriorityLow, types.TtsModeAdd),
		"priority":   tts("a", "hi", types.TtsPriority(7), types.TtsModeAdd),
		"mode":       tts("a", "hi", types.TtsPriorityLow, types.TtsMode(9)),
	} {
		err := s.Play(cmd)
		assert.Equal(t, types.ErrorCodeServiceError, types.StatusOf(err).Code, name)
	}
	assert.False(t, s.Speaking())
}

func TestDurationFollowsRuneCount(t *testing.T) {
	s, clock := newTestScheduler()
	// Four runes, twelve bytes.
	require.NoError(t, s.Play(tts("zh", "你好世界", types.TtsPriorityLow, types.TtsModeAdd)))

	clock.Advance(399 * time.Millisecond)
	assert.True(t, s.Speaking())
	clock.Advance(time.Millisecond)
	assert.False(t, s.Speaking())
	assert.Equal(t, OutcomeFinished, outcomes(s.State())["zh"])
}

func TestAddQueuesBehindPlaying(t *testing.T) {
	s, clock := newTestScheduler()
	require.NoError(t, s.Play(tts("a", "aaaa", types.TtsPriorityMiddle, types.TtsModeAdd)))
	require.NoError(t, s.Play(tts("b", "bb", types.TtsPriorityMiddle, types.TtsModeAdd)))

	st := s.State()
	require.NotNil(t, st.Playing)
	assert.Equal(t, "a", st.Playing.ID)
	assert.Equal(t, []string{"b"}, ids(st.Queued))

	// a ends at 400ms, b starts then and ends at 600ms.
	clock.Advance(500 * time.Millisecond)
	st = s.State()
	require.NotNil(t, st.Playing)
	assert.Equal(t, "b", st.Playing.ID)
	clock.Advance(100 * time.Millisecond)
	assert.False(t, s.Speaking())
}

func TestClearTopInterruptsSamePriority(t *testing.T) {
	s, _ := newTestScheduler()
	require.NoError(t, s.Play(tts("a", "aaaa", types.TtsPriorityLow, types.TtsModeAdd)))
	require.NoError(t, s.Play(tts("b", "bbbb", types.TtsPriorityLow, types.TtsModeAdd)))
	require.NoError(t, s.Play(tts("c", "cc", types.TtsPriorityLow, types.TtsModeClearTop)))

	st := s.State()
	require.NotNil(t, st.Playing)
	assert.Equal(t, "c", st.Playing.ID)
	assert.Empty(t, st.Queued)
	got := outcomes(st)
	assert.Equal(t, OutcomeInterrupted, got["a"])
	assert.Equal(t, OutcomeCleared, got["b"])
}

func TestClearBufferKeepsPlaying(t *testing.T) {
	s, _ := newTestScheduler()
	require.NoError(t, s.Play(tts("a", "aaaa", types.TtsPriorityLow, types.TtsModeAdd)))
	require.NoError(t, s.Play(tts("b", "bbbb", types.TtsPriorityLow, types.TtsModeAdd)))
	require.NoError(t, s.Play(tts("c", "cc", types.TtsPriorityLow, types.TtsModeClearBuffer)))

	st := s.State()
	require.NotNil(t, st.Playing)
	assert.Equal(t, "a", st.Playing.ID)
	assert.Equal(t, []string{"c"}, ids(st.Queued))
	assert.Equal(t, OutcomeCleared, outcomes(st)["b"])
}

func TestHigherPriorityInterrupts(t *testing.T) {
	s, clock := newTestScheduler()
	require.NoError(t, s.Play(tts("chat", "aaaa", types.TtsPriorityLow, types.TtsModeAdd)))
	require.NoError(t, s.Play(tts("later", "bb", types.TtsPriorityLow, types.TtsModeAdd)))
	require.NoError(t, s.Play(tts("alert", "battery", types.TtsPriorityHigh, types.TtsModeAdd)))

	st := s.State()
	require.NotNil(t, st.Playing)
	assert.Equal(t, "alert", st.Playing.ID)
	assert.Equal(t, OutcomeInterrupted, outcomes(st)["chat"])
	assert.Equal(t, []string{"later"}, ids(st.Queued))

	// A less urgent request waits.
	require.NoError(t, s.Play(tts("prompt", "p", types.TtsPriorityMiddle, types.TtsModeAdd)))
	assert.Equal(t, []string{"prompt", "later"}, ids(s.State().Queued))

	clock.Advance(700 * time.Millisecond)
	st = s.State()
	require.NotNil(t, st.Playing)
	assert.Equal(t, "prompt", st.Playing.ID)
}

func TestStopDropsEverything(t *testing.T) {
	s, _ := newTestScheduler()
	require.NoError(t, s.Play(tts("a", "aaaa", types.TtsPriorityLow, types.TtsModeAdd)))
	require.NoError(t, s.Play(tts("b", "bbbb", types.TtsPriorityHigh, types.TtsModeAdd)))
	require.NoError(t, s.Play(tts("c", "cc", types.TtsPriorityMiddle, types.TtsModeAdd)))

	s.Stop()
	st := s.State()
	assert.Nil(t, st.Playing)
	assert.Empty(t, st.Queued)
	got := outcomes(st)
	assert.Equal(t, OutcomeStopped, got["b"])
	assert.Equal(t, OutcomeStopped, got["c"])
	assert.Equal(t, OutcomeInterrupted, got["a"])
}

func TestHistoryIsBounded(t *testing.T) {
	s, clock := newTestScheduler()
	for i := 0; i < historySize+10; i++ {
		require.NoError(t, s.Play(tts("x", "x", types.TtsPriorityLow, types.TtsModeAdd)))
		clock.Advance(time.Second)
	}
	assert.Len(t, s.State().History, historySize)
}
