package game

import (
	"context"

	"github.com/jason-s-yu/peekmatch/internal/models"
	"github.com/sirupsen/logrus"
)

// LoggingEngine is the RoundInitializer used until a turn engine is mounted. It records
// the hand-off and leaves the state in player_turn.
type LoggingEngine struct {
	Logger logrus.FieldLogger
}

func (e LoggingEngine) InitializeRound(_ context.Context, roomID string, st *models.MatchState) error {
	logger := e.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	logger.WithFields(logrus.Fields{
		"room_id": roomID,
		"game_id": st.GameID,
		"players": len(st.Players),
		"phase":   st.Phase,
	}).Info("Round handed to turn engine")
	return nil
}
