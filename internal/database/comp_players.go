package database

import (
	"context"
	"fmt"

	"github.com/jason-s-yu/peekmatch/internal/models"
	"github.com/jason-s-yu/peekmatch/internal/roster"
)

// CompPlayerSource serves comp player accounts from the comp_players table.
type CompPlayerSource struct {
	DB DBTX
}

var _ roster.CompSource = (*CompPlayerSource)(nil)

const fetchCompPlayersQ = `
	SELECT user_id, username, email, rank, level, COALESCE(profile_picture, '')
	FROM comp_players
	WHERE is_active
	  AND (cardinality($2::text[]) = 0 OR rank = ANY($2::text[]))
	ORDER BY random()
	LIMIT $1
`

// FetchCompPlayers returns up to count random active comp players whose rank is in rankFilter.
// A nil or empty filter matches every rank.
func (s *CompPlayerSource) FetchCompPlayers(ctx context.Context, count int, rankFilter []string) (roster.FetchResult, error) {
	if count <= 0 {
		return roster.FetchResult{Success: true}, nil
	}
	if rankFilter == nil {
		rankFilter = []string{}
	}

	rows, err := s.DB.Query(ctx, fetchCompPlayersQ, count, rankFilter)
	if err != nil {
		return roster.FetchResult{}, fmt.Errorf("query comp players: %w", err)
	}
	defer rows.Close()

	var players []models.CompPlayerRecord
	for rows.Next() {
		var rec models.CompPlayerRecord
		if err := rows.Scan(&rec.UserID, &rec.Username, &rec.Email, &rec.Rank, &rec.Level, &rec.ProfilePicture); err != nil {
			return roster.FetchResult{}, fmt.Errorf("scan comp player: %w", err)
		}
		players = append(players, rec)
	}
	if err := rows.Err(); err != nil {
		return roster.FetchResult{}, fmt.Errorf("iterate comp players: %w", err)
	}
	return roster.FetchResult{Success: true, Players: players, Count: len(players)}, nil
}
