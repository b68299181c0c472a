package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSubmission(t *testing.T) {
	singles := func(w, l int) Submission {
		return Submission{Mode: ModeSingles, Winners: []string{"a"}, Losers: []string{"b"}, ScoreWinner: w, ScoreLoser: l}
	}

	tests := []struct {
		name    string
		sub     Submission
		wantErr bool
		field   string
	}{
		{name: "valid singles", sub: singles(11, 5)},
		{name: "valid deuce game", sub: singles(15, 13)},
		{name: "valid doubles", sub: Submission{Mode: ModeDoubles, Winners: []string{"a", "b"}, Losers: []string{"c", "d"}, ScoreWinner: 11, ScoreLoser: 0}},
		{name: "unknown mode", sub: Submission{Mode: "triples", Winners: []string{"a"}, Losers: []string{"b"}, ScoreWinner: 11, ScoreLoser: 5}, wantErr: true, field: "mode"},
		{name: "negative score", sub: singles(11, -1), wantErr: true, field: "score"},
		{name: "tie", sub: singles(11, 11), wantErr: true, field: "score"},
		{name: "loser scored more", sub: singles(5, 11), wantErr: true, field: "score"},
		{name: "margin of one", sub: singles(11, 10), wantErr: true, field: "score"},
		{name: "below eleven", sub: singles(9, 3), wantErr: true, field: "score"},
		{name: "singles with two per side", sub: Submission{Mode: ModeSingles, Winners: []string{"a", "b"}, Losers: []string{"c", "d"}, ScoreWinner: 11, ScoreLoser: 5}, wantErr: true, field: "teams"},
		{name: "doubles uneven", sub: Submission{Mode: ModeDoubles, Winners: []string{"a", "b"}, Losers: []string{"c"}, ScoreWinner: 11, ScoreLoser: 5}, wantErr: true, field: "teams"},
		{name: "duplicate across teams", sub: Submission{Mode: ModeSingles, Winners: []string{"a"}, Losers: []string{"a"}, ScoreWinner: 11, ScoreLoser: 5}, wantErr: true, field: "teams"},
		{name: "duplicate within team", sub: Submission{Mode: ModeDoubles, Winners: []string{"a", "a"}, Losers: []string{"c", "d"}, ScoreWinner: 11, ScoreLoser: 5}, wantErr: true, field: "teams"},
		{name: "empty player id", sub: Submission{Mode: ModeSingles, Winners: []string{""}, Losers: []string{"b"}, ScoreWinner: 11, ScoreLoser: 5}, wantErr: true, field: "teams"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSubmission(tt.sub)
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestValidateMatch_FriendlyCarriesNoDelta(t *testing.T) {
	m := &Match{Mode: ModeSingles, Winners: []string{"a"}, Losers: []string{"b"}, ScoreWinner: 11, ScoreLoser: 2, IsFriendly: true, RatingDelta: 5}
	err := ValidateMatch(m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))

	m.RatingDelta = 0
	assert.NoError(t, ValidateMatch(m))
}
