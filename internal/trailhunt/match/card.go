package match

import (
	"github.com/google/uuid"
	"github.com/trailhunt-games/trailhunt/internal/trailhunt/resource"
	"github.com/valyala/fastrand"
)

// CardKind says when a drawn card takes effect.
type CardKind string

const (
	// CardNow applies the value to the player's score immediately
	CardNow CardKind = "now"
	// CardNext schedules the value for the start of the next round
	CardNext CardKind = "next"
)

// LuckyCard is one face of the draw offered after judging a player.
// Cards are generated fresh per judging event and never persisted.
type LuckyCard struct {
	ID   string   `json:"id"`
	Val  int      `json:"val"`
	Text string   `json:"text"`
	Kind CardKind `json:"type"`
}

// GeneratePool builds the four-card pool for an outcome: three immediate
// cards of growing magnitude and one deferred card, values positive for a
// correct answer and negative otherwise. The order is a uniform random
// permutation (Fisher-Yates), so no position hints at a card's value.
func GeneratePool(outcome Outcome) []LuckyCard {
	specs := resource.CorrectCards
	if outcome == OutcomeIncorrect {
		specs = resource.IncorrectCards
	}

	cards := make([]LuckyCard, 0, len(specs))
	for _, spec := range specs {
		kind := CardNow
		if spec.Deferred {
			kind = CardNext
		}

		cards = append(cards, LuckyCard{
			ID:   uuid.New().String(),
			Val:  spec.Val,
			Text: spec.Text,
			Kind: kind,
		})
	}

	shuffleCards(cards)

	return cards
}

func shuffleCards(cards []LuckyCard) {
	for i := len(cards) - 1; i > 0; i-- {
		j := int(fastrand.Uint32n(uint32(i + 1)))
		cards[i], cards[j] = cards[j], cards[i]
	}
}
