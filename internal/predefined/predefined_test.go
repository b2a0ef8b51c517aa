package predefined

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jason-s-yu/peekmatch/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSourceLoadsYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hands.yaml")
	content := `enabled: true
hands:
  0:
    - {rank: ace, suit: hearts}
    - {rank: "2", suit: spades}
  2:
    - {rank: joker, suit: red}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := FileSource{Path: path}.LoadConfig(context.Background())
	require.NoError(t, err)
	assert.True(t, cfg.Enabled)
	require.Len(t, cfg.Hands[0], 2)
	assert.Equal(t, models.CardSpec{Rank: "2", Suit: "spades"}, cfg.Hands[0][1])
	assert.Equal(t, models.CardSpec{Rank: models.RankJoker, Suit: "red"}, cfg.Hands[2][0])
}

func TestFileSourceMissingFileIsDisabled(t *testing.T) {
	cfg, err := FileSource{Path: filepath.Join(t.TempDir(), "absent.yaml")}.LoadConfig(context.Background())
	require.NoError(t, err)
	assert.False(t, cfg.Enabled)
}

func TestFileSourceBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enabled: [oops"), 0o600))
	_, err := FileSource{Path: path}.LoadConfig(context.Background())
	assert.Error(t, err)
}

func TestMissingSpecs(t *testing.T) {
	cards := []models.Card{
		{ID: "a", Rank: models.RankAce, Suit: "hearts"},
		{ID: "b", Rank: "2", Suit: "spades"},
	}
	ok := Config{Enabled: true, Hands: map[int][]models.CardSpec{
		0: {{Rank: models.RankAce, Suit: "hearts"}},
		1: {{Rank: "2", Suit: "spades"}},
	}}
	assert.Empty(t, MissingSpecs(ok, cards))

	bad := Config{Enabled: true, Hands: map[int][]models.CardSpec{
		0: {{Rank: models.RankAce, Suit: "hearts"}},
		1: {{Rank: models.RankKing, Suit: "clubs"}},
	}}
	assert.Equal(t, []models.CardSpec{{Rank: models.RankKing, Suit: "clubs"}}, MissingSpecs(bad, cards))
}
