package ops

import (
	"context"

	"github.com/lattice-kb/lattice/internal/errors"
	"github.com/lattice-kb/lattice/internal/node"
)

// GenerateCardsInput contains parameters for the GenerateCards operation.
// Exactly one of SourceID or Text must be set.
type GenerateCardsInput struct {
	// SourceID generates cards from an existing node's searchable content and
	// links each card derived_from it.
	SourceID string `json:"source_id,omitempty"`

	// Text generates cards from raw text; the cards are not linked.
	Text string `json:"text,omitempty"`
}

// GenerateCardsOutput contains the result of the GenerateCards operation.
type GenerateCardsOutput struct {
	Cards []*node.Node `json:"cards"`
	Total int          `json:"total"`
}

// GenerateCards asks the configured generator for front/back pairs and
// persists each as a flashcard.
func GenerateCards(ctx context.Context, env *Env, input GenerateCardsInput) (*GenerateCardsOutput, error) {
	if env.Generator == nil {
		return nil, errors.NewInvalidRequest("no card generator configured")
	}
	if (input.SourceID == "") == (input.Text == "") {
		return nil, errors.NewInvalidRequest("specify either source_id or text")
	}

	text := input.Text
	if input.SourceID != "" {
		source, err := env.Store.FindByID(input.SourceID, false)
		if err != nil {
			return nil, err
		}
		text = source.Detail.SearchText()
	}

	drafts, err := env.Generator.Generate(ctx, text)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	cards := make([]*node.Node, 0, len(drafts))
	for _, draft := range drafts {
		card, err := CreateCard(env, CreateCardInput{
			Front:    draft.Front,
			Back:     draft.Back,
			SourceID: input.SourceID,
		})
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}

	return &GenerateCardsOutput{Cards: cards, Total: len(cards)}, nil
}
