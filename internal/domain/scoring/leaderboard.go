// Package scoring computes contest standings from accepted submission history.
package scoring

import (
	"sort"

	"tle_judge/internal/domain/model"
)

type standing struct {
	entry  model.LeaderboardEntry
	solved map[string]struct{}
}

// Rank folds accepted submissions, which must be ordered by creation time
// ascending, into ranked leaderboard rows. Only the first accepted submission
// of a user on a problem earns credit.
//
// Rows are ordered by score descending, then by the time of the last credited
// submission ascending, then by username. Users with equal score and equal
// last credited time share a rank.
func Rank(accepted []model.AcceptedSubmission) []model.LeaderboardEntry {
	byUser := make(map[string]*standing)
	var order []*standing

	for _, sub := range accepted {
		st, ok := byUser[sub.UserID]
		if !ok {
			st = &standing{
				entry: model.LeaderboardEntry{
					UserID:           sub.UserID,
					Username:         sub.Username,
					SolvedProblemIDs: []string{},
				},
				solved: make(map[string]struct{}),
			}
			byUser[sub.UserID] = st
			order = append(order, st)
		}
		if _, done := st.solved[sub.ProblemID]; done {
			continue
		}
		st.solved[sub.ProblemID] = struct{}{}
		st.entry.Score++
		st.entry.SolvedProblemIDs = append(st.entry.SolvedProblemIDs, sub.ProblemID)
		st.entry.LastAcceptedAt = sub.CreatedAt
	}

	rows := make([]model.LeaderboardEntry, 0, len(order))
	for _, st := range order {
		st.entry.ProblemsSolved = len(st.solved)
		rows = append(rows, st.entry)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.LastAcceptedAt.Equal(b.LastAcceptedAt) {
			return a.LastAcceptedAt.Before(b.LastAcceptedAt)
		}
		if a.Username != b.Username {
			return a.Username < b.Username
		}
		return a.UserID < b.UserID
	})

	for i := range rows {
		if i > 0 && rows[i].Score == rows[i-1].Score && rows[i].LastAcceptedAt.Equal(rows[i-1].LastAcceptedAt) {
			rows[i].Rank = rows[i-1].Rank
			continue
		}
		rows[i].Rank = i + 1
	}
	return rows
}
