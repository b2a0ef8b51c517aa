package ranks

import (
	"testing"

	"github.com/jason-s-yu/peekmatch/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestRankToDifficulty(t *testing.T) {
	assert.Equal(t, models.DifficultyEasy, RankToDifficulty(Beginner))
	assert.Equal(t, models.DifficultyMedium, RankToDifficulty("Skilled"), "lookup is case insensitive")
	assert.Equal(t, models.DifficultyHard, RankToDifficulty(Master))
	assert.Equal(t, models.DifficultyExpert, RankToDifficulty(Legend))
	assert.Equal(t, models.DifficultyMedium, RankToDifficulty("unranked"))
}

func TestDifficultyToRanks(t *testing.T) {
	assert.Nil(t, DifficultyToRanks(""), "no difficulty means no filter")
	assert.Nil(t, DifficultyToRanks("impossible"))

	for _, d := range []string{models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard, models.DifficultyExpert} {
		r := DifficultyToRanks(d)
		assert.NotEmpty(t, r, d)
		// every difficulty includes at least one rank that maps straight back to it
		found := false
		for _, rank := range r {
			if RankToDifficulty(rank) == d {
				found = true
			}
		}
		assert.True(t, found, "difficulty %s should round-trip through one of its ranks", d)
	}
}

func TestDifficultyToRanksReturnsCopy(t *testing.T) {
	r := DifficultyToRanks(models.DifficultyEasy)
	r[0] = "mutated"
	assert.Equal(t, Beginner, DifficultyToRanks(models.DifficultyEasy)[0])
}
