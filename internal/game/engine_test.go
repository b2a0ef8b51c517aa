package game

import (
	"context"
	"testing"

	"github.com/jason-s-yu/peekmatch/internal/models"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingEngineRecordsHandOff(t *testing.T) {
	logger, hook := test.NewNullLogger()
	st := &models.MatchState{GameID: "g1", Phase: models.PhasePlayerTurn, Players: []*models.Player{{ID: "a"}, {ID: "b"}}}

	require.NoError(t, LoggingEngine{Logger: logger}.InitializeRound(context.Background(), "room-1", st))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, "g1", entry.Data["game_id"])
	assert.Equal(t, 2, entry.Data["players"])
}
