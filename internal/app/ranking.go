package app

import (
	"sort"

	"github.com/emilhornlund/quiz-game-service/internal/domain"
)

// Rank orders players by descending total score. Ties break by join order,
// the earlier joiner ranking higher; the order is deterministic for any
// input permutation.
func Rank(players []*domain.Participant) []domain.RankedPlayer {
	sorted := append([]*domain.Participant(nil), players...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].TotalScore != sorted[j].TotalScore {
			return sorted[i].TotalScore > sorted[j].TotalScore
		}
		return sorted[i].JoinOrder < sorted[j].JoinOrder
	})

	ranked := make([]domain.RankedPlayer, len(sorted))
	for i, p := range sorted {
		ranked[i] = domain.RankedPlayer{
			Position: i + 1,
			PlayerID: p.ID,
			Nickname: p.Nickname,
			Score:    p.TotalScore,
			Streak:   p.Streak,
		}
	}
	return ranked
}

// TopNWithSelf truncates a ranked list to the first n entries, appending the
// selfID entry last if it ranks below the cut. Pass an empty selfID for a
// plain top-n view.
func TopNWithSelf(ranked []domain.RankedPlayer, n int, selfID string) []domain.RankedPlayer {
	if len(ranked) <= n {
		return append([]domain.RankedPlayer(nil), ranked...)
	}
	top := append([]domain.RankedPlayer(nil), ranked[:n]...)
	if selfID == "" {
		return top
	}
	for _, entry := range top {
		if entry.PlayerID == selfID {
			return top
		}
	}
	for _, entry := range ranked[n:] {
		if entry.PlayerID == selfID {
			return append(top, entry)
		}
	}
	return top
}
