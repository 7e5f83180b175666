package ops

import (
	"context"
	"fmt"
	"time"

	"github.com/lattice-kb/lattice/internal/errors"
	"github.com/lattice-kb/lattice/internal/node"
	"github.com/lattice-kb/lattice/internal/srs"
)

// DueCardsInput contains parameters for the DueCards operation.
type DueCardsInput struct {
	// AsOf defaults to the current time.
	AsOf  *time.Time `json:"as_of,omitempty"`
	Limit int        `json:"limit,omitempty"`
}

// DueCardsOutput contains the result of the DueCards operation.
type DueCardsOutput struct {
	Items []*node.Node `json:"items"`
	Total int          `json:"total"`
}

// DueCards returns flashcards due as of the given instant, most overdue
// first.
func DueCards(env *Env, input DueCardsInput) (*DueCardsOutput, error) {
	asOf := time.Now()
	if input.AsOf != nil {
		asOf = *input.AsOf
	}
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultDueLimit
	}
	if limit > MaxDueLimit {
		limit = MaxDueLimit
	}

	cards, err := env.Store.FindDueFlashcards(asOf, limit)
	if err != nil {
		return nil, err
	}
	return &DueCardsOutput{Items: cards, Total: len(cards)}, nil
}

// ReviewCardInput contains parameters for the ReviewCard operation.
type ReviewCardInput struct {
	ID      string `json:"id"`
	Quality int    `json:"quality"`
}

// ReviewCard applies one review step to a flashcard, persists the new
// schedule, and re-indexes.
func ReviewCard(env *Env, input ReviewCardInput) (*node.Node, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	current, err := env.Store.FindByID(input.ID, false)
	if err != nil {
		return nil, err
	}

	reviewed, err := srs.ReviewCard(current, input.Quality, time.Now())
	if err != nil {
		return nil, err
	}

	if err := env.Store.Update(reviewed); err != nil {
		return nil, err
	}
	if err := env.Index.IndexNode(reviewed); err != nil {
		return nil, err
	}
	return reviewed, nil
}

// GradeAnswerInput contains parameters for the GradeAnswer operation.
type GradeAnswerInput struct {
	ID     string `json:"id"`
	Answer string `json:"answer"`
}

// GradeAnswerOutput contains the result of the GradeAnswer operation.
type GradeAnswerOutput struct {
	Card    *node.Node  `json:"card"`
	Grade   GradeResult `json:"grade"`
	Quality int         `json:"quality"`
}

// GradeAnswer sends the answer to the configured grader, maps its score to a
// review quality, and runs the review.
func GradeAnswer(ctx context.Context, env *Env, input GradeAnswerInput) (*GradeAnswerOutput, error) {
	if env.Grader == nil {
		return nil, errors.NewInvalidRequest("no grader configured")
	}
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	current, err := env.Store.FindByID(input.ID, false)
	if err != nil {
		return nil, err
	}
	fc, ok := current.Detail.(*node.Flashcard)
	if !ok {
		return nil, errors.NewValidation(fmt.Sprintf("cannot grade a %s node", current.Kind))
	}

	grade, err := env.Grader.Grade(ctx, fc.Front, fc.Back, input.Answer)
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	quality, err := QualityFromScore(grade.Score)
	if err != nil {
		return nil, err
	}

	reviewed, err := ReviewCard(env, ReviewCardInput{ID: input.ID, Quality: quality})
	if err != nil {
		return nil, err
	}

	return &GradeAnswerOutput{Card: reviewed, Grade: grade, Quality: quality}, nil
}

// QualityFromScore maps a grader score to a review quality:
// 1 -> 5, 0.5 -> 3, 0 -> 0.
func QualityFromScore(score float64) (int, error) {
	switch score {
	case 1:
		return 5, nil
	case 0.5:
		return 3, nil
	case 0:
		return 0, nil
	default:
		return 0, errors.NewInvalidRequest(fmt.Sprintf("grader score must be 0, 0.5, or 1, got %v", score))
	}
}
