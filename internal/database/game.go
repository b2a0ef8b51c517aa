// internal/database/game.go
package database

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/peekmatch/internal/cache"
	"github.com/jason-s-yu/peekmatch/internal/models"
)

// MatchRecorder persists match rows and their initial snapshots.
type MatchRecorder struct {
	DB DBTX
}

// UpsertInitialGameState stores the unmasked deck and hands of a freshly dealt match.
func (r *MatchRecorder) UpsertInitialGameState(ctx context.Context, snap models.InitialSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal initial snapshot: %w", err)
	}
	q := `
		INSERT INTO games (id, room_id, status, initial_game_state, start_time)
		VALUES ($1, $2, 'in_progress', $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET initial_game_state = EXCLUDED.initial_game_state,
		    status = 'in_progress'
	`
	err = pgx.BeginTxFunc(ctx, r.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, e := tx.Exec(ctx, q, snap.GameID, snap.RoomID, data, snap.CreatedAt)
		return e
	})
	if err != nil {
		return fmt.Errorf("upsert initial game state for %s: %w", snap.GameID, err)
	}
	return nil
}

// InsertActions writes a batch of action records in one transaction, creating the game row
// for records whose match has no snapshot yet.
func (r *MatchRecorder) InsertActions(ctx context.Context, recs []cache.ActionRecord) error {
	if len(recs) == 0 {
		return nil
	}
	return pgx.BeginTxFunc(ctx, r.DB, pgx.TxOptions{}, func(tx pgx.Tx) error {
		for _, rec := range recs {
			if err := insertActionTx(ctx, tx, rec); err != nil {
				return fmt.Errorf("insert action %s#%d: %w", rec.GameID, rec.ActionIndex, err)
			}
		}
		return nil
	})
}

func insertActionTx(ctx context.Context, tx pgx.Tx, rec cache.ActionRecord) error {
	upsertGameQ := `
		INSERT INTO games (id, room_id, status, start_time)
		VALUES ($1, $2, 'in_progress', NOW())
		ON CONFLICT (id) DO NOTHING
	`
	if _, err := tx.Exec(ctx, upsertGameQ, rec.GameID, rec.RoomID); err != nil {
		return err
	}

	payload, err := json.Marshal(rec.ActionPayload)
	if err != nil {
		return err
	}
	insertQ := `
		INSERT INTO game_actions (game_id, action_index, actor_id, action_type, action_payload, created_at)
		VALUES ($1, $2, $3, $4, $5, to_timestamp($6::double precision / 1000))
		ON CONFLICT (game_id, action_index) DO NOTHING
	`
	_, err = tx.Exec(ctx, insertQ, rec.GameID, rec.ActionIndex, rec.ActorID, rec.ActionType, payload, rec.Timestamp)
	return err
}

// MarkAbandoned flags an in-progress match as abandoned. It reports whether a row changed.
func (r *MatchRecorder) MarkAbandoned(ctx context.Context, gameID string) (bool, error) {
	q := `
		UPDATE games
		SET status = 'abandoned', end_time = NOW()
		WHERE id = $1 AND status = 'in_progress'
	`
	tag, err := r.DB.Exec(ctx, q, gameID)
	if err != nil {
		return false, fmt.Errorf("mark game %s abandoned: %w", gameID, err)
	}
	return tag.RowsAffected() > 0, nil
}
