package match

import (
	"sort"
	"time"

	"github.com/trailhunt-games/trailhunt/internal/database/snapshot/model"
	"github.com/trailhunt-games/trailhunt/internal/trailhunt/resource"
)

// Snapshot captures the persistable aggregate: players, question text,
// game state, judged set, mute flag and time limit. The round clock and
// the card pool are session-local and stay out; a restored session always
// comes back with the question hidden and the clock stopped.
func (r *Session) Snapshot() model.Snapshot {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	m := model.Snapshot{
		QuestionsText: r.questionsText,
		Stage:         uint8(r.stage),
		QuestionIndex: r.questionIndex,
		PlayerIndex:   r.playerIndex,
		CardOpen:      r.cardOpen,
		CardOutcome:   uint8(r.cardOutcome),
		Muted:         r.muted,
		TimeLimit:     r.timeLimit,
		SavedAt:       time.Now(),
	}

	m.Players = make([]*model.Player, len(r.players))
	for i, player := range r.players {
		cp := *player
		m.Players[i] = &cp
	}

	m.Log = make([]model.LogEntry, len(r.log))
	copy(m.Log, r.log)

	m.Judged = make([]string, 0, len(r.judged))
	for id := range r.judged {
		m.Judged = append(m.Judged, id)
	}
	sort.Strings(m.Judged)

	return m
}

// NewFromSnapshot rebuilds a session from a stored snapshot. Fields are
// applied independently; anything out of range falls back to its default.
// A snapshot claiming the playing stage with zero players is repaired
// back to setup. An open card draw is re-dealt for its outcome since
// pools are never persisted.
func NewFromSnapshot(config Config, m model.Snapshot) *Session {
	r := NewSession(config)

	r.players = make([]*model.Player, 0, len(m.Players))
	for _, player := range m.Players {
		if player == nil {
			continue
		}
		cp := *player
		r.players = append(r.players, &cp)
	}

	if len(ParseQuestions(m.QuestionsText)) > 0 {
		r.questionsText = m.QuestionsText
	}

	if m.TimeLimit >= resource.MinTimeLimit && m.TimeLimit <= resource.MaxTimeLimit {
		r.timeLimit = m.TimeLimit
		r.timeLeft = m.TimeLimit
	}

	switch Stage(m.Stage) {
	case StagePlaying, StageEnded:
		r.stage = Stage(m.Stage)
	default:
		r.stage = StageSetup
	}

	if r.stage == StagePlaying && len(r.players) == 0 {
		r.stage = StageSetup
	}

	if total := len(ParseQuestions(r.questionsText)); m.QuestionIndex >= 0 && m.QuestionIndex < total {
		r.questionIndex = m.QuestionIndex
	}

	if m.PlayerIndex >= 0 && m.PlayerIndex < len(r.players) {
		r.playerIndex = m.PlayerIndex
	}

	r.log = make([]model.LogEntry, len(m.Log))
	copy(r.log, m.Log)

	r.muted = m.Muted

	for _, id := range m.Judged {
		r.judged[id] = struct{}{}
	}

	if r.stage == StagePlaying && m.CardOpen {
		outcome := Outcome(m.CardOutcome)
		if outcome == OutcomeCorrect || outcome == OutcomeIncorrect {
			r.cardOutcome = outcome
			r.pool = GeneratePool(outcome)
			r.cardOpen = true
		}
	}

	return r
}
