package match

import (
	"sort"

	"github.com/trailhunt-games/trailhunt/internal/database/snapshot/model"
)

// PlayerView is a player as shown on the operator board.
type PlayerView struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Score         int    `json:"score"`
	PendingEffect int    `json:"pendingEffect"`
	Judged        bool   `json:"judged"`
}

// View is the full projection pushed to the browser after every change.
// The question text itself is included only once revealed.
type View struct {
	Stage string `json:"stage"`
	Phase string `json:"phase"`

	QuestionsText string `json:"questionsText"`
	QuestionIndex int    `json:"questionIndex"`
	QuestionTotal int    `json:"questionTotal"`
	Question      string `json:"question,omitempty"`

	TimeLeft  int  `json:"timeLeft"`
	TimeLimit int  `json:"timeLimit"`
	Muted     bool `json:"muted"`

	TurnMessage string `json:"turnMessage,omitempty"`

	Players []PlayerView `json:"players"`
	// Ranking is filled on the ended stage: score descending, ties in
	// insertion order
	Ranking []PlayerView `json:"ranking,omitempty"`

	Log []model.LogEntry `json:"log"`

	CardOpen    bool        `json:"cardOpen"`
	CardOutcome string      `json:"cardOutcome,omitempty"`
	Cards       []LuckyCard `json:"cards,omitempty"`
}

// RenderView projects the session for display.
func (r *Session) RenderView() View {
	r.mtx.RLock()
	defer r.mtx.RUnlock()

	questions := ParseQuestions(r.questionsText)

	view := View{
		Stage:         r.stage.String(),
		Phase:         r.phase.String(),
		QuestionsText: r.questionsText,
		QuestionIndex: r.questionIndex,
		QuestionTotal: len(questions),
		TimeLeft:      r.timeLeft,
		TimeLimit:     r.timeLimit,
		Muted:         r.muted,
		TurnMessage:   r.turnMessage,
		CardOpen:      r.cardOpen,
		CardOutcome:   r.cardOutcome.String(),
	}

	if r.stage == StagePlaying && r.phase != PhaseHidden && r.questionIndex < len(questions) {
		view.Question = questions[r.questionIndex]
	}

	view.Players = make([]PlayerView, len(r.players))
	for i, player := range r.players {
		_, judged := r.judged[player.ID]
		view.Players[i] = PlayerView{
			ID:            player.ID,
			Name:          player.Name,
			Score:         player.Score,
			PendingEffect: player.PendingEffect,
			Judged:        judged,
		}
	}

	if r.stage == StageEnded {
		view.Ranking = rankPlayers(view.Players)
	}

	view.Log = make([]model.LogEntry, len(r.log))
	copy(view.Log, r.log)

	if r.cardOpen {
		view.Cards = make([]LuckyCard, len(r.pool))
		copy(view.Cards, r.pool)
	}

	return view
}

func rankPlayers(players []PlayerView) []PlayerView {
	ranking := make([]PlayerView, len(players))
	copy(ranking, players)

	// stable keeps insertion order between equal scores
	sort.SliceStable(ranking, func(i, j int) bool {
		return ranking[i].Score > ranking[j].Score
	})

	return ranking
}
