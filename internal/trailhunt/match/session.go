package match

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/trailhunt-games/trailhunt/internal/database/snapshot/model"
	"github.com/trailhunt-games/trailhunt/internal/strpool"
	"github.com/trailhunt-games/trailhunt/internal/trailhunt/resource"
)

// Stage is the top-level session lifecycle.
type Stage uint8

const (
	StageSetup Stage = iota + 1
	StagePlaying
	StageEnded
)

func (s Stage) String() string {
	switch s {
	case StageSetup:
		return "setup"
	case StagePlaying:
		return "playing"
	case StageEnded:
		return "ended"
	}
	return "unknown"
}

// Phase is the per-round sub-state nested inside the playing stage.
type Phase uint8

const (
	// PhaseHidden awaits the operator revealing the question
	PhaseHidden Phase = iota + 1
	// PhaseTiming counts the round clock down
	PhaseTiming
	// PhaseExpired froze the clock at zero until the next reveal or reset
	PhaseExpired
)

func (p Phase) String() string {
	switch p {
	case PhaseHidden:
		return "hidden"
	case PhaseTiming:
		return "timing"
	case PhaseExpired:
		return "expired"
	}
	return "unknown"
}

// Outcome is the operator's verdict on a player's answer.
type Outcome uint8

const (
	OutcomeNone Outcome = iota
	OutcomeCorrect
	OutcomeIncorrect
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCorrect:
		return "correct"
	case OutcomeIncorrect:
		return "incorrect"
	}
	return ""
}

// ParseOutcome maps the wire value to an Outcome.
func ParseOutcome(s string) (Outcome, error) {
	switch s {
	case "correct":
		return OutcomeCorrect, nil
	case "incorrect":
		return OutcomeIncorrect, nil
	}
	return OutcomeNone, fmt.Errorf("%w: outcome must be correct or incorrect", ErrValidation)
}

// Cue names a sound the browser should synthesize. The session only
// emits the name; audio is a collaborator concern.
type Cue string

const (
	CueCorrect Cue = "correct"
	CueWrong   Cue = "wrong"
	CueTimeout Cue = "timeout"
	CueCard    Cue = "card"
)

var (
	ErrValidation     = fmt.Errorf("validation errors")
	ErrStage          = fmt.Errorf("operation not allowed in this stage")
	ErrPhase          = fmt.Errorf("operation not allowed in this phase")
	ErrAlreadyJudged  = fmt.Errorf("player already judged this round")
	ErrDrawOpen       = fmt.Errorf("a card draw is already open")
	ErrNoActiveDraw   = fmt.Errorf("no active card draw")
	ErrCardNotFound   = fmt.Errorf("card not found in the current draw")
	ErrPlayerNotFound = fmt.Errorf("player not found")
)

// Config carries the session collaborators. Both callbacks are optional
// and are always invoked outside the session lock.
type Config struct {
	// ChangedFn runs after every committed transition, including timer
	// ticks. The orchestrator saves a snapshot and re-renders from it.
	ChangedFn func()

	// CueFn receives sound cue names. Not called while muted.
	CueFn func(cue Cue)

	// TickInterval overrides the one-second round clock, for tests.
	TickInterval time.Duration
}

// NewSession creates a fresh session in the setup stage with the default
// question set and time limit.
func NewSession(config Config) *Session {
	return &Session{
		config:        config,
		stage:         StageSetup,
		phase:         PhaseHidden,
		questionsText: resource.DefaultQuestionsText(),
		timeLimit:     resource.DefaultTimeLimit,
		timeLeft:      resource.DefaultTimeLimit,
		judged:        map[string]struct{}{},
	}
}

// Session owns the whole game aggregate: players, question text, stage,
// round sub-state, clock, card draw and log. One operator mutates it
// through the exported operations; the countdown goroutine feeds Tick.
type Session struct {
	mtx    sync.RWMutex
	config Config

	players       []*model.Player
	questionsText string
	log           []model.LogEntry
	muted         bool
	timeLimit     int

	stage         Stage
	questionIndex int
	playerIndex   int

	phase    Phase
	judged   map[string]struct{}
	timeLeft int
	timerOn  bool
	clock    *countdown

	cardOpen    bool
	cardOutcome Outcome
	pool        []LuckyCard

	turnMessage string
}

// NewPlayer builds a player with a fresh stable id.
func NewPlayer(name string) *model.Player {
	return &model.Player{
		ID:   uuid.New().String(),
		Name: name,
	}
}

// AddPlayer registers a player during setup.
func (r *Session) AddPlayer(name string) (*model.Player, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: player name is required", ErrValidation)
	}

	r.mtx.Lock()
	if r.stage != StageSetup {
		r.mtx.Unlock()
		return nil, ErrStage
	}

	player := NewPlayer(name)
	r.players = append(r.players, player)
	r.mtx.Unlock()

	r.changed()

	return player, nil
}

// RemovePlayer drops a player by id during setup.
func (r *Session) RemovePlayer(id string) error {
	r.mtx.Lock()
	if r.stage != StageSetup {
		r.mtx.Unlock()
		return ErrStage
	}

	idx := -1
	for i, player := range r.players {
		if player.ID == id {
			idx = i
			break
		}
	}

	if idx == -1 {
		r.mtx.Unlock()
		return ErrPlayerNotFound
	}

	r.players = append(r.players[:idx], r.players[idx+1:]...)
	r.mtx.Unlock()

	r.changed()

	return nil
}

// SetQuestionsText replaces the raw question text during setup.
func (r *Session) SetQuestionsText(text string) error {
	r.mtx.Lock()
	if r.stage != StageSetup {
		r.mtx.Unlock()
		return ErrStage
	}

	r.questionsText = text
	r.mtx.Unlock()

	r.changed()

	return nil
}

// ApplyGeneratedQuestions replaces the question text wholesale with a
// generated list and logs where it came from. No merging happens; a
// failed generation never reaches this point.
func (r *Session) ApplyGeneratedQuestions(topic string, questions []string) error {
	if len(questions) == 0 {
		return fmt.Errorf("%w: generated question list is empty", ErrValidation)
	}

	r.mtx.Lock()
	if r.stage != StageSetup {
		r.mtx.Unlock()
		return ErrStage
	}

	r.questionsText = strings.Join(questions, "\n")
	r.appendLog(resource.SystemActor, fmt.Sprintf(resource.TextGeneratedMsg, len(questions), topic))
	r.mtx.Unlock()

	r.changed()

	return nil
}

// SetTimeLimit sets the per-question countdown, bounded to [5,300] seconds.
func (r *Session) SetTimeLimit(seconds int) error {
	if seconds < resource.MinTimeLimit || seconds > resource.MaxTimeLimit {
		return fmt.Errorf(
			"%w: time limit must be between %d and %d seconds",
			ErrValidation, resource.MinTimeLimit, resource.MaxTimeLimit,
		)
	}

	r.mtx.Lock()
	if r.stage != StageSetup {
		r.mtx.Unlock()
		return ErrStage
	}

	r.timeLimit = seconds
	r.timeLeft = seconds
	r.mtx.Unlock()

	r.changed()

	return nil
}

// ToggleMute flips the mute flag and reports the new value.
func (r *Session) ToggleMute() bool {
	r.mtx.Lock()
	r.muted = !r.muted
	muted := r.muted
	r.mtx.Unlock()

	r.changed()

	return muted
}

func (r *Session) Muted() bool {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return r.muted
}

// Start begins the game from setup. It requires at least one player and
// one non-blank question line, resets the round sub-state and clock, logs
// the opening entry and folds any pending effects left over from a
// restored or aborted session. An ended session only leaves through the
// full reset.
func (r *Session) Start() error {
	r.mtx.Lock()
	if len(r.players) == 0 {
		r.mtx.Unlock()
		return fmt.Errorf("%w: at least one player is required", ErrValidation)
	}

	if len(ParseQuestions(r.questionsText)) == 0 {
		r.mtx.Unlock()
		return fmt.Errorf("%w: at least one question is required", ErrValidation)
	}

	if r.stage != StageSetup {
		r.mtx.Unlock()
		return ErrStage
	}

	r.stopClock()
	r.judged = map[string]struct{}{}
	r.phase = PhaseHidden
	r.timeLeft = r.timeLimit
	r.questionIndex = 0
	r.playerIndex = 0
	r.closeDraw()
	r.stage = StagePlaying
	r.appendLog(resource.SystemActor, resource.TextGameStartedMsg)
	r.fold()
	r.mtx.Unlock()

	r.changed()

	return nil
}

// Reveal uncovers the current question and starts the countdown.
func (r *Session) Reveal() error {
	r.mtx.Lock()
	if r.stage != StagePlaying {
		r.mtx.Unlock()
		return ErrStage
	}

	if r.phase != PhaseHidden {
		r.mtx.Unlock()
		return ErrPhase
	}

	r.phase = PhaseTiming
	r.timeLeft = r.timeLimit
	r.timerOn = true
	r.startClock()
	r.mtx.Unlock()

	r.changed()

	return nil
}

// Judge records the operator's verdict for one player: it stops the
// clock and opens a fresh card draw scoped to the outcome. The score is
// untouched until a card is resolved.
func (r *Session) Judge(playerIdx int, outcome Outcome) ([]LuckyCard, error) {
	if outcome != OutcomeCorrect && outcome != OutcomeIncorrect {
		return nil, fmt.Errorf("%w: outcome must be correct or incorrect", ErrValidation)
	}

	r.mtx.Lock()
	if r.stage != StagePlaying {
		r.mtx.Unlock()
		return nil, ErrStage
	}

	if r.phase != PhaseTiming && r.phase != PhaseExpired {
		r.mtx.Unlock()
		return nil, ErrPhase
	}

	if playerIdx < 0 || playerIdx >= len(r.players) {
		r.mtx.Unlock()
		return nil, ErrPlayerNotFound
	}

	if r.cardOpen {
		r.mtx.Unlock()
		return nil, ErrDrawOpen
	}

	if _, ok := r.judged[r.players[playerIdx].ID]; ok {
		r.mtx.Unlock()
		return nil, ErrAlreadyJudged
	}

	r.timerOn = false
	r.stopClock()
	r.playerIndex = playerIdx
	r.cardOutcome = outcome
	r.pool = GeneratePool(outcome)
	r.cardOpen = true

	pool := make([]LuckyCard, len(r.pool))
	copy(pool, r.pool)
	r.mtx.Unlock()

	if outcome == OutcomeCorrect {
		r.cue(CueCorrect)
	} else {
		r.cue(CueWrong)
	}
	r.changed()

	return pool, nil
}

// Resolve consumes one card from the open draw for the player chosen at
// judge time. Immediate cards hit the score, deferred cards accumulate on
// the pending effect. The draw closes, so a second pick is rejected.
func (r *Session) Resolve(cardID string) (LuckyCard, error) {
	r.mtx.Lock()
	if !r.cardOpen {
		r.mtx.Unlock()
		return LuckyCard{}, ErrNoActiveDraw
	}

	var card LuckyCard
	found := false
	for _, c := range r.pool {
		if c.ID == cardID {
			card = c
			found = true
			break
		}
	}

	if !found {
		r.mtx.Unlock()
		return LuckyCard{}, ErrCardNotFound
	}

	player := r.players[r.playerIndex]
	if card.Kind == CardNow {
		player.Score += card.Val
	} else {
		player.PendingEffect += card.Val
	}

	r.judged[player.ID] = struct{}{}
	r.appendLog(player.Name, fmt.Sprintf(resource.TextCardDrawnMsg, r.questionIndex+1, card.Text))
	r.closeDraw()
	r.mtx.Unlock()

	r.cue(CueCard)
	r.changed()

	return card, nil
}

// Advance moves to the next question: it clears the judged set, resets
// the clock and folds every player's pending effect into their score. If
// no questions remain it ends the game instead; that terminal advance
// intentionally skips the fold, same as Finish, so the final scores are
// exactly the state after the last resolved card.
func (r *Session) Advance() error {
	r.mtx.Lock()
	if r.stage != StagePlaying {
		r.mtx.Unlock()
		return ErrStage
	}

	if r.phase == PhaseHidden {
		r.mtx.Unlock()
		return ErrPhase
	}

	r.timerOn = false
	r.stopClock()
	r.judged = map[string]struct{}{}
	r.timeLeft = r.timeLimit
	r.phase = PhaseHidden
	r.closeDraw()

	if r.questionIndex+1 >= len(ParseQuestions(r.questionsText)) {
		r.stage = StageEnded
		r.turnMessage = ""
		r.appendLog(resource.SystemActor, resource.TextGameEndedMsg)
	} else {
		r.questionIndex++
		r.fold()
	}
	r.mtx.Unlock()

	r.changed()

	return nil
}

// Finish ends the game early. Pending effects from the current round are
// dropped, not folded.
func (r *Session) Finish() error {
	r.mtx.Lock()
	if r.stage != StagePlaying {
		r.mtx.Unlock()
		return ErrStage
	}

	r.timerOn = false
	r.stopClock()
	r.closeDraw()
	r.turnMessage = ""
	r.stage = StageEnded
	r.appendLog(resource.SystemActor, resource.TextGameEndedMsg)
	r.mtx.Unlock()

	r.changed()

	return nil
}

// Quit aborts to setup, keeping players, question text and log so the
// session can be restarted.
func (r *Session) Quit() error {
	r.mtx.Lock()
	if r.stage != StagePlaying {
		r.mtx.Unlock()
		return ErrStage
	}

	r.timerOn = false
	r.stopClock()
	r.closeDraw()
	r.phase = PhaseHidden
	r.turnMessage = ""
	r.stage = StageSetup
	r.mtx.Unlock()

	r.changed()

	return nil
}

// Reset wipes the session back to first-boot defaults: no players, the
// default question set and time limit, empty log. The mute flag survives.
func (r *Session) Reset() {
	r.mtx.Lock()
	r.timerOn = false
	r.stopClock()
	r.players = nil
	r.questionsText = resource.DefaultQuestionsText()
	r.timeLimit = resource.DefaultTimeLimit
	r.timeLeft = resource.DefaultTimeLimit
	r.log = nil
	r.judged = map[string]struct{}{}
	r.phase = PhaseHidden
	r.questionIndex = 0
	r.playerIndex = 0
	r.closeDraw()
	r.turnMessage = ""
	r.stage = StageSetup
	r.mtx.Unlock()

	r.changed()
}

// Tick consumes one second of the round clock. At zero it freezes the
// clock, marks the round expired and emits the timeout cue exactly once.
// The return value tells the tick source whether to keep running.
func (r *Session) Tick() bool {
	r.mtx.Lock()
	if r.stage != StagePlaying || !r.timerOn || r.phase != PhaseTiming {
		r.mtx.Unlock()
		return false
	}

	r.timeLeft--
	expired := false
	if r.timeLeft <= 0 {
		r.timeLeft = 0
		r.timerOn = false
		r.phase = PhaseExpired
		r.appendLog(resource.SystemActor, resource.TextTimeIsUpMsg)
		expired = true
	}

	running := r.timerOn
	r.mtx.Unlock()

	if expired {
		r.cue(CueTimeout)
	}
	r.changed()

	return running
}

// TimeLeft reports the seconds remaining on the round clock.
func (r *Session) TimeLeft() int {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return r.timeLeft
}

// CurrentStage reports the lifecycle stage.
func (r *Session) CurrentStage() Stage {
	r.mtx.RLock()
	defer r.mtx.RUnlock()
	return r.stage
}

// Stop tears the clock down, for shutdown.
func (r *Session) Stop() {
	r.mtx.Lock()
	r.timerOn = false
	r.stopClock()
	r.mtx.Unlock()
}

// fold moves every nonzero pending effect into the owning player's score
// and logs one aggregated line. Held lock required.
func (r *Session) fold() {
	buf := strpool.Get()
	defer strpool.Put(buf)

	for _, player := range r.players {
		if player.PendingEffect == 0 {
			continue
		}

		if buf.Len() > 0 {
			buf.WriteString(", ")
		}
		buf.WriteString(player.Name)
		buf.WriteString(" ")
		buf.WriteString(fmt.Sprintf("%+d", player.PendingEffect))

		player.Score += player.PendingEffect
		player.PendingEffect = 0
	}

	if buf.Len() == 0 {
		r.turnMessage = ""
		return
	}

	effects := buf.String()
	r.turnMessage = fmt.Sprintf(resource.TextOldMagicMsg, effects)
	r.appendLog(resource.SystemActor, fmt.Sprintf(resource.TextFoldAppliedMsg, effects))
}

// appendLog prepends an entry, newest first. Held lock required.
func (r *Session) appendLog(actor, message string) {
	entry := model.LogEntry{
		ID:      uuid.New().String(),
		Time:    time.Now().Format("15:04"),
		Message: actor + ": " + message,
	}
	r.log = append([]model.LogEntry{entry}, r.log...)
}

// closeDraw discards the current card pool. Held lock required.
func (r *Session) closeDraw() {
	r.cardOpen = false
	r.cardOutcome = OutcomeNone
	r.pool = nil
}

// startClock replaces the tick source. Held lock required.
func (r *Session) startClock() {
	r.stopClock()
	r.clock = newCountdown(r.config.TickInterval)
	go r.clock.run(r.Tick)
}

// stopClock tears the tick source down. Held lock required.
func (r *Session) stopClock() {
	if r.clock != nil {
		r.clock.stop()
		r.clock = nil
	}
}

func (r *Session) changed() {
	if r.config.ChangedFn != nil {
		r.config.ChangedFn()
	}
}

func (r *Session) cue(c Cue) {
	r.mtx.RLock()
	muted := r.muted
	fn := r.config.CueFn
	r.mtx.RUnlock()

	if muted || fn == nil {
		return
	}

	fn(c)
}
