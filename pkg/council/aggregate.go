package council

import (
	"math"
	"sort"

	"github.com/conclave-ai/conclave/pkg/models"
)

// AggregateRankings computes the Borda-style mean rank per candidate.
// Each parsed label at 1-based position r contributes rank r to the
// personality it maps to; labels outside the bijection are dropped.
// Rows are sorted ascending by average rank (lower is better), ties
// keeping Stage 1 order.
func AggregateRankings(stage2 []models.Stage2Result, labels *LabelMap) []models.AggregateRanking {
	type tally struct {
		name  string
		sum   int
		count int
	}
	tallies := make(map[string]*tally)

	// Seed in label order so tie-breaks are deterministic.
	order := make([]string, 0, len(labels.Labels()))
	for _, l := range labels.Labels() {
		target, _ := labels.Target(l)
		if _, seen := tallies[target.PersonalityID]; !seen {
			tallies[target.PersonalityID] = &tally{name: target.PersonalityName}
			order = append(order, target.PersonalityID)
		}
	}

	for _, vote := range stage2 {
		for pos, l := range vote.Ranking {
			target, ok := labels.Target(l)
			if !ok {
				continue
			}
			t := tallies[target.PersonalityID]
			t.sum += pos + 1
			t.count++
		}
	}

	rows := make([]models.AggregateRanking, 0, len(order))
	for _, id := range order {
		t := tallies[id]
		if t.count == 0 {
			continue
		}
		rows = append(rows, models.AggregateRanking{
			PersonalityID:   id,
			PersonalityName: t.name,
			AverageRank:     math.Round(float64(t.sum)/float64(t.count)*100) / 100,
			RankingsCount:   t.count,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].AverageRank < rows[j].AverageRank
	})
	return rows
}
