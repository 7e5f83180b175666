// Package srs implements the SuperMemo-2 spaced-repetition algorithm over a
// flashcard's review state.
package srs

import (
	"fmt"
	"math"
	"time"

	"github.com/lattice-kb/lattice/internal/errors"
	"github.com/lattice-kb/lattice/internal/node"
)

// MinEaseFactor is the floor the ease factor never drops below.
const MinEaseFactor = 1.3

// Review applies one SM-2 review step to a schedule and returns the new
// schedule. Pure and total for quality in 0..5; the quality range is enforced
// by ReviewCard before this is reached.
//
// quality < 3 counts as a failure: repetitions reset to 0 and the interval
// drops to 1 day, but the ease factor is left untouched. On success the
// repetition count increments, the interval follows the 1, 6,
// round(previous*ease) progression, and the ease factor is adjusted from the
// supplied quality and clamped at the 1.3 floor.
func Review(s node.Schedule, quality int, now time.Time) node.Schedule {
	if quality < 3 {
		s.Repetitions = 0
		s.IntervalDays = 1
	} else {
		s.Repetitions++
		switch {
		case s.Repetitions == 1:
			s.IntervalDays = 1
		case s.Repetitions == 2:
			s.IntervalDays = 6
		default:
			s.IntervalDays = int(math.Round(float64(s.IntervalDays) * s.EaseFactor))
		}

		q := float64(quality)
		s.EaseFactor += 0.1 - (5-q)*(0.08+(5-q)*0.02)
		if s.EaseFactor < MinEaseFactor {
			s.EaseFactor = MinEaseFactor
		}
	}

	s.DueAt = now.Add(time.Duration(s.IntervalDays) * 24 * time.Hour)
	reviewed := now
	s.LastReviewedAt = &reviewed
	return s
}

// IsDue reports whether the schedule is due as of the given instant. The
// boundary is inclusive: a card due exactly at asOf is due.
func IsDue(s node.Schedule, asOf time.Time) bool {
	return !s.DueAt.After(asOf)
}

// ReviewCard is the boundary around Review: it validates the quality range
// and the node's variant, then returns a new flashcard node carrying the
// reviewed schedule with the version incremented and UpdatedAt set to now.
// The input node is not modified.
func ReviewCard(n *node.Node, quality int, now time.Time) (*node.Node, error) {
	if quality < 0 || quality > 5 {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("quality must be between 0 and 5, got %d", quality))
	}
	fc, ok := n.Detail.(*node.Flashcard)
	if !ok {
		return nil, errors.NewValidation(fmt.Sprintf("cannot review a %s node", n.Kind))
	}

	now = now.Truncate(time.Second)
	reviewed := *fc
	reviewed.Schedule = Review(fc.Schedule, quality, now)

	out := n.NextVersion(now)
	out.Detail = &reviewed
	return &out, nil
}
