package resource

import (
	"strings"

	"github.com/enescakir/emoji"
)

const (
	ProjectName    = "trailhunt"
	ProjectVersion = "1.0.0"

	// countdown bounds per question, seconds
	DefaultTimeLimit = 30
	MinTimeLimit     = 5
	MaxTimeLimit     = 300
)

// actor name used for log entries the game writes about itself
var SystemActor = "Trail Guide"

// manage text messages
var (
	TextGameStartedMsg = "The adventure begins! " + emoji.EvergreenTree.String()
	TextGameEndedMsg   = "The adventure is over " + emoji.Trophy.String()
	TextTimeIsUpMsg    = "Time is up! " + emoji.AlarmClock.String()
	TextOldMagicMsg    = emoji.Sparkles.String() + " Old magic: %s"
	TextFoldAppliedMsg = "Applied old magic: %s"
	TextCardDrawnMsg   = "[Q %d] Received: %s"
	TextGeneratedMsg   = "Brought back %d questions about: %s"
)

// default question set shown at first boot and after a full reset
var defaultQuestions = []string{
	"Question 1: What is $1 + 1$?",
	"Question 2: Solve $x^2 - 4 = 0$",
	"Question 3: What is the capital of Vietnam?",
	"Question 4: Area of a circle with radius $r=3$: $S = \\pi r^2$",
	"Question 5: Who was the first person to walk on the moon?",
}

func DefaultQuestionsText() string {
	return strings.Join(defaultQuestions, "\n")
}

// CardSpec describes one face of the lucky draw pool. Deferred cards
// apply their value at the start of the next question round.
type CardSpec struct {
	Val      int
	Text     string
	Deferred bool
}

var CorrectCards = []CardSpec{
	{Val: 5, Text: "+5 acorns"},
	{Val: 10, Text: "+10 acorns"},
	{Val: 20, Text: emoji.GlowingStar.String() + " +20 acorns"},
	{Val: 5, Text: "+5 acorns (next turn)", Deferred: true},
}

var IncorrectCards = []CardSpec{
	{Val: -5, Text: "-5 acorns"},
	{Val: -10, Text: "-10 acorns"},
	{Val: -20, Text: emoji.Tornado.String() + " -20 acorns"},
	{Val: -5, Text: "-5 acorns (next turn)", Deferred: true},
}
