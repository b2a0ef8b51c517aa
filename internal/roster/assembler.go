// Package roster assembles the seat list of a match from joined humans and computer players.
package roster

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/peekmatch/internal/models"
	"github.com/jason-s-yu/peekmatch/internal/ranks"
	"github.com/sirupsen/logrus"
)

// FetchResult is the comp player source response.
type FetchResult struct {
	Success bool
	Players []models.CompPlayerRecord
	Count   int
}

// CompSource returns up to count comp players whose rank is in rankFilter (nil = any rank).
type CompSource interface {
	FetchCompPlayers(ctx context.Context, count int, rankFilter []string) (FetchResult, error)
}

// Request describes the room a roster is assembled for.
type Request struct {
	RoomID   string
	Joined   []*models.Player
	Settings models.RoomSettings
}

// Assembler fills empty seats. Source may be nil, in which case only local CPU seats are created.
type Assembler struct {
	Source CompSource
	Logger logrus.FieldLogger
	Now    func() time.Time
}

// NewAssembler returns an assembler backed by source.
func NewAssembler(source CompSource, logger logrus.FieldLogger) *Assembler {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Assembler{Source: source, Logger: logger, Now: time.Now}
}

// Assemble returns the ordered seat list: joined players first, then filled seats.
// It never fails; an unavailable comp source degrades to local CPU seats.
func (a *Assembler) Assemble(ctx context.Context, req Request) []*models.Player {
	log := a.Logger.WithField("room_id", req.RoomID)

	seats := make([]*models.Player, 0, max(req.Settings.TargetSeats(), len(req.Joined)))
	names := newNameSet()
	for _, p := range req.Joined {
		resetSeat(p)
		seats = append(seats, p)
		names.take(p.Name)
	}

	needed := req.Settings.TargetSeats() - len(req.Joined)
	if needed <= 0 {
		return seats
	}

	if req.Settings.IsPracticeMode {
		difficulty := req.Settings.PracticeDifficulty
		if difficulty == "" {
			difficulty = models.DifficultyMedium
		}
		seats = append(seats, a.cpuSeats(needed, difficulty, names)...)
		log.WithField("cpu_seats", needed).Info("Filled practice room with CPU seats")
		return seats
	}

	comps := a.fetchWithFallback(ctx, log, needed, ranks.DifficultyToRanks(req.Settings.Difficulty))
	now := a.now()
	for _, rec := range comps {
		if len(seats)-len(req.Joined) >= needed {
			break
		}
		seats = append(seats, a.compSeat(rec, now, names))
	}

	if short := needed - (len(seats) - len(req.Joined)); short > 0 {
		log.WithFields(logrus.Fields{"needed": needed, "comp_seats": needed - short, "cpu_seats": short}).
			Warn("Comp player source came up short, filling with CPU seats")
		seats = append(seats, a.cpuSeats(short, models.DifficultyMedium, names)...)
	}
	return seats
}

// fetchWithFallback asks the source with the rank filter, then once more without it if
// nothing came back. Errors count as zero results. Duplicate user ids are dropped.
func (a *Assembler) fetchWithFallback(ctx context.Context, log logrus.FieldLogger, count int, filter []string) []models.CompPlayerRecord {
	if a.Source == nil {
		return nil
	}
	recs := a.fetch(ctx, log, count, filter)
	if len(recs) == 0 && len(filter) > 0 {
		log.WithField("rank_filter", filter).Info("No comp players for rank filter, retrying without filter")
		recs = a.fetch(ctx, log, count, nil)
	}

	seen := make(map[string]bool, len(recs))
	out := recs[:0]
	for _, r := range recs {
		if r.UserID == "" || seen[r.UserID] {
			continue
		}
		seen[r.UserID] = true
		out = append(out, r)
	}
	return out
}

func (a *Assembler) fetch(ctx context.Context, log logrus.FieldLogger, count int, filter []string) []models.CompPlayerRecord {
	res, err := a.Source.FetchCompPlayers(ctx, count, filter)
	if err != nil {
		log.WithError(err).Warn("Comp player source unavailable")
		return nil
	}
	if !res.Success {
		return nil
	}
	return res.Players
}

func (a *Assembler) compSeat(rec models.CompPlayerRecord, now time.Time, names *nameSet) *models.Player {
	id := fmt.Sprintf("comp_%s_%d", rec.UserID, now.UnixMilli())
	p := models.NewSeat(id, names.unique(rec.Username), false, ranks.RankToDifficulty(rec.Rank))
	p.Comp = &models.CompProfile{
		UserID:         rec.UserID,
		Rank:           rec.Rank,
		Level:          rec.Level,
		ProfilePicture: rec.ProfilePicture,
	}
	return p
}

func (a *Assembler) cpuSeats(n int, difficulty string, names *nameSet) []*models.Player {
	out := make([]*models.Player, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.NewSeat("cpu_"+uuid.NewString(), names.nextCPU(), false, difficulty))
	}
	return out
}

func (a *Assembler) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// resetSeat puts a joined player into the initial seat shape without touching identity.
func resetSeat(p *models.Player) {
	p.Status = models.StatusWaiting
	p.Points = 0
	p.IsActive = true
	p.Hand = []models.Card{}
	p.KnownCards = make(map[string]map[string]models.Card)
	p.CollectionRank = ""
	p.CollectionRankCards = []models.Card{}
	p.CardsToPeek = []models.Card{}
}
