package model

import (
	"time"

	"github.com/trailhunt-games/trailhunt/internal/trailhunt/resource"
)

type Player struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
	// score delta scheduled for the start of the next question round
	PendingEffect int `json:"pendingEffect"`
}

type LogEntry struct {
	ID      string `json:"id"`
	Time    string `json:"time"`
	Message string `json:"message"`
}

// Snapshot is the single persisted record of a session. Loading starts
// from Default and unmarshals the stored bytes over it, so fields absent
// from an older save keep their defaults.
type Snapshot struct {
	Players       []*Player  `json:"players"`
	QuestionsText string     `json:"questionsText"`
	Stage         uint8      `json:"stage"`
	QuestionIndex int        `json:"currentQuestionIndex"`
	PlayerIndex   int        `json:"currentPlayerIndex"`
	Log           []LogEntry `json:"log"`
	CardOpen      bool       `json:"isCardModalOpen"`
	CardOutcome   uint8      `json:"cardModalType"`
	Muted         bool       `json:"isMuted"`
	TimeLimit     int        `json:"timeLimit"`
	Judged        []string   `json:"judgedPlayerIds"`

	SavedAt time.Time `json:"savedAt"`
}

func Default() Snapshot {
	return Snapshot{
		QuestionsText: resource.DefaultQuestionsText(),
		TimeLimit:     resource.DefaultTimeLimit,
	}
}
