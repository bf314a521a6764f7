package audio

import (
	"sync"
	"time"
	"unicode/utf8"

	"github.com/magicdog/sdk/pkg/types"
)

// Outcomes recorded in the TTS history.
const (
	OutcomeFinished    = "finished"
	OutcomeInterrupted = "interrupted"
	OutcomeCleared     = "cleared"
	OutcomeStopped     = "stopped"
)

const historySize = 64

const numPriorities = int(types.TtsPriorityLow) + 1

// TtsEvent records how a request left the scheduler.
type TtsEvent struct {
	ID      string    `json:"id"`
	Outcome string    `json:"outcome"`
	At      time.Time `json:"at"`
}

// TtsState is a snapshot of the scheduler.
type TtsState struct {
	Playing *types.TtsCommand  `json:"playing,omitempty"`
	Queued  []types.TtsCommand `json:"queued"`
	History []TtsEvent         `json:"history"`
}

type utterance struct {
	cmd    types.TtsCommand
	endsAt time.Time
}

// TtsScheduler plays TTS requests one at a time. Each priority has its own
// queue; a more urgent request interrupts a less urgent one. Speaking time
// is proportional to the rune count of the content.
type TtsScheduler struct {
	perRune time.Duration
	now     func() time.Time

	mu      sync.Mutex
	playing *utterance
	queues  [numPriorities][]types.TtsCommand
	history []TtsEvent
}

// NewTtsScheduler creates an idle scheduler.
func NewTtsScheduler(msPerRune int) *TtsScheduler {
	return &TtsScheduler{
		perRune: time.Duration(msPerRune) * time.Millisecond,
		now:     time.Now,
	}
}

// Play merges cmd into the queues according to its mode.
func (t *TtsScheduler) Play(cmd types.TtsCommand) error {
	switch {
	case cmd.ID == "":
		return types.Errorf(types.ErrorCodeServiceError, "tts command without id")
	case cmd.Content == "":
		return types.Errorf(types.ErrorCodeServiceError, "tts command %s has no content", cmd.ID)
	case !cmd.Priority.Valid():
		return types.Errorf(types.ErrorCodeServiceError, "invalid tts priority %d", cmd.Priority)
	case !cmd.Mode.Valid():
		return types.Errorf(types.ErrorCodeServiceError, "invalid tts mode %d", cmd.Mode)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.advanceLocked(now)

	p := cmd.Priority
	switch cmd.Mode {
	case types.TtsModeClearTop:
		t.clearQueueLocked(p, now)
		if t.playing != nil && t.playing.cmd.Priority == p {
			t.recordLocked(t.playing.cmd.ID, OutcomeInterrupted, now)
			t.playing = nil
		}
	case types.TtsModeClearBuffer:
		t.clearQueueLocked(p, now)
	}

	if t.playing != nil && p < t.playing.cmd.Priority {
		t.recordLocked(t.playing.cmd.ID, OutcomeInterrupted, now)
		t.playing = nil
	}
	t.queues[p] = append(t.queues[p], cmd)
	if t.playing == nil {
		t.startNextLocked(now)
	}
	return nil
}

// Stop drops the playing request and every queued one.
func (t *TtsScheduler) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	t.advanceLocked(now)
	if t.playing != nil {
		t.recordLocked(t.playing.cmd.ID, OutcomeStopped, now)
		t.playing = nil
	}
	for p := range t.queues {
		for _, cmd := range t.queues[p] {
			t.recordLocked(cmd.ID, OutcomeStopped, now)
		}
		t.queues[p] = nil
	}
}

// State returns what is playing, what is queued in play order and the
// recent history.
func (t *TtsScheduler) State() TtsState {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.advanceLocked(t.now())
	st := TtsState{Queued: []types.TtsCommand{}, History: append([]TtsEvent(nil), t.history...)}
	if t.playing != nil {
		cmd := t.playing.cmd
		st.Playing = &cmd
	}
	for p := range t.queues {
		st.Queued = append(st.Queued, t.queues[p]...)
	}
	return st
}

// Speaking reports whether a request is playing.
func (t *TtsScheduler) Speaking() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.advanceLocked(t.now())
	return t.playing != nil
}

// advanceLocked finishes every utterance whose end lies before now and
// starts its successor at the moment it ended.
func (t *TtsScheduler) advanceLocked(now time.Time) {
	for t.playing != nil && !now.Before(t.playing.endsAt) {
		end := t.playing.endsAt
		t.recordLocked(t.playing.cmd.ID, OutcomeFinished, end)
		t.playing = nil
		t.startNextLocked(end)
	}
}

func (t *TtsScheduler) startNextLocked(at time.Time) {
	for p := range t.queues {
		if len(t.queues[p]) == 0 {
			continue
		}
		cmd := t.queues[p][0]
		t.queues[p] = t.queues[p][1:]
		d := time.Duration(utf8.RuneCountInString(cmd.Content)) * t.perRune
		t.playing = &utterance{cmd: cmd, endsAt: at.Add(d)}
		return
	}
}

func (t *TtsScheduler) clearQueueLocked(p types.TtsPriority, now time.Time) {
	for _, cmd := range t.queues[p] {
		t.recordLocked(cmd.ID, OutcomeCleared, now)
	}
	t.queues[p] = nil
}

func (t *TtsScheduler) recordLocked(id, outcome string, at time.Time) {
	t.history = append(t.history, TtsEvent{ID: id, Outcome: outcome, At: at})
	if len(t.history) > historySize {
		t.history = t.history[len(t.history)-historySize:]
	}
}
