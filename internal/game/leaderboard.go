package game

import (
	"sort"

	"live-quiz-service/internal/models"
)

// rankPlayers orders players by score descending, ties broken by join
// order. The sort is fully deterministic: repeated calls over the same
// scores always produce the same ranking.
func rankPlayers(players []*Player) []models.LeaderboardEntry {
	sorted := make([]*Player, len(players))
	copy(sorted, players)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Score != sorted[j].Score {
			return sorted[i].Score > sorted[j].Score
		}
		return sorted[i].joinSeq < sorted[j].joinSeq
	})

	entries := make([]models.LeaderboardEntry, len(sorted))
	for i, p := range sorted {
		entries[i] = models.LeaderboardEntry{
			Rank:     i + 1,
			PlayerID: p.ID,
			Name:     p.Name,
			Animal:   p.Animal,
			Score:    p.Score,
		}
	}
	return entries
}

// rankTeams groups players by animal and ranks the aggregated scores with
// the same rule: score descending, ties broken by the earliest-joined
// member of the team.
func rankTeams(players []*Player) []models.TeamEntry {
	type team struct {
		animal   string
		score    int
		earliest int
		members  []string
	}

	byAnimal := make(map[string]*team)
	var order []*team
	for _, p := range players {
		t, ok := byAnimal[p.Animal]
		if !ok {
			t = &team{animal: p.Animal, earliest: p.joinSeq}
			byAnimal[p.Animal] = t
			order = append(order, t)
		}
		t.score += p.Score
		if p.joinSeq < t.earliest {
			t.earliest = p.joinSeq
		}
		t.members = append(t.members, p.Name)
	}

	sort.SliceStable(order, func(i, j int) bool {
		if order[i].score != order[j].score {
			return order[i].score > order[j].score
		}
		return order[i].earliest < order[j].earliest
	})

	entries := make([]models.TeamEntry, len(order))
	for i, t := range order {
		entries[i] = models.TeamEntry{
			Rank:    i + 1,
			Animal:  t.animal,
			Score:   t.score,
			Members: t.members,
		}
	}
	return entries
}
