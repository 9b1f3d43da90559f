package council

import (
	"time"

	"github.com/google/uuid"

	"github.com/conclave-ai/conclave/pkg/models"
)

// BuildVotes flattens Stage 2 results into normalized vote rows: one
// per (voter, position, label). Positions whose label has no mapping
// are dropped.
func BuildVotes(conversationID string, turnNumber int, stage2 []models.Stage2Result, labels *LabelMap) []models.Vote {
	now := time.Now().UTC()
	var votes []models.Vote
	for _, voter := range stage2 {
		for pos, l := range voter.Ranking {
			target, ok := labels.Target(l)
			if !ok {
				continue
			}
			votes = append(votes, models.Vote{
				ID:                     uuid.New().String(),
				ConversationID:         conversationID,
				TurnNumber:             turnNumber,
				VoterModel:             voter.Model,
				CandidatePersonalityID: target.PersonalityID,
				CandidateModel:         target.Model,
				Rank:                   pos + 1,
				Label:                  l,
				Reasoning:              voter.RawText,
				CreatedAt:              now,
			})
		}
	}
	return votes
}
