// Package ranks maps comp player skill ranks to AI difficulties and back.
package ranks

import (
	"strings"

	"github.com/jason-s-yu/peekmatch/internal/models"
)

// Skill ranks in ascending order.
const (
	Beginner    = "beginner"
	Novice      = "novice"
	Apprentice  = "apprentice"
	Skilled     = "skilled"
	Expert      = "expert"
	Master      = "master"
	Grandmaster = "grandmaster"
	Legend      = "legend"
)

// Ordered lists every rank from weakest to strongest.
var Ordered = []string{Beginner, Novice, Apprentice, Skilled, Expert, Master, Grandmaster, Legend}

var rankDifficulty = map[string]string{
	Beginner:    models.DifficultyEasy,
	Novice:      models.DifficultyEasy,
	Apprentice:  models.DifficultyMedium,
	Skilled:     models.DifficultyMedium,
	Expert:      models.DifficultyHard,
	Master:      models.DifficultyHard,
	Grandmaster: models.DifficultyExpert,
	Legend:      models.DifficultyExpert,
}

// compatible ranks per room difficulty; neighbouring tiers overlap so that small
// comp pools still produce candidates.
var difficultyRanks = map[string][]string{
	models.DifficultyEasy:   {Beginner, Novice, Apprentice},
	models.DifficultyMedium: {Novice, Apprentice, Skilled, Expert},
	models.DifficultyHard:   {Skilled, Expert, Master, Grandmaster},
	models.DifficultyExpert: {Master, Grandmaster, Legend},
}

// DifficultyToRanks returns the skill ranks compatible with a room difficulty.
// Unknown or empty difficulties return nil, meaning "no filter".
func DifficultyToRanks(difficulty string) []string {
	r, ok := difficultyRanks[strings.ToLower(difficulty)]
	if !ok {
		return nil
	}
	out := make([]string, len(r))
	copy(out, r)
	return out
}

// RankToDifficulty returns the AI difficulty for a skill rank. Unknown ranks play at medium.
func RankToDifficulty(rank string) string {
	if d, ok := rankDifficulty[strings.ToLower(rank)]; ok {
		return d
	}
	return models.DifficultyMedium
}
