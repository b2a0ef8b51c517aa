package deck

import (
	"context"
	"math/rand"
	"testing"

	"github.com/jason-s-yu/peekmatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardDeckComposition(t *testing.T) {
	b := NewStandardBuilder(rand.NewSource(1))
	res, err := b.Build(context.Background(), "room-1", Config{IncludeJokers: true}, "")
	require.NoError(t, err)

	assert.Len(t, res.Cards, 54)
	assert.Equal(t, TypeStandard, res.Summary.DeckType)
	assert.Equal(t, 54, res.Summary.TotalCards)
	assert.Equal(t, 4, res.Summary.RankCounts[models.RankKing])
	assert.Equal(t, 2, res.Summary.RankCounts[models.RankJoker])

	seen := make(map[string]bool)
	for _, c := range res.Cards {
		assert.False(t, seen[c.ID], "card ids must be unique")
		seen[c.ID] = true
		assert.Equal(t, Points(c.Rank), c.Points)
	}
}

func TestDeckTypeOverrideWins(t *testing.T) {
	b := NewStandardBuilder(rand.NewSource(2))
	res, err := b.Build(context.Background(), "room-1", Config{DeckType: TypeStandard}, TypeDemo)
	require.NoError(t, err)
	assert.Equal(t, TypeDemo, res.Summary.DeckType)
	assert.Len(t, res.Cards, 20)
}

func TestUnknownDeckType(t *testing.T) {
	b := NewStandardBuilder(nil)
	_, err := b.Build(context.Background(), "room-1", Config{DeckType: "tarot"}, "")
	assert.Error(t, err)
}

func TestPointsAndPowers(t *testing.T) {
	assert.Equal(t, 1, Points(models.RankAce))
	assert.Equal(t, 7, Points("7"))
	assert.Equal(t, 10, Points(models.RankKing))
	assert.Equal(t, 0, Points(models.RankJoker))
	assert.Equal(t, PowerPeek, SpecialPower(models.RankQueen))
	assert.Equal(t, PowerSwap, SpecialPower(models.RankJack))
	assert.Empty(t, SpecialPower("9"))
	assert.True(t, IsNumberRank("10"))
	assert.False(t, IsNumberRank(models.RankAce))
}
