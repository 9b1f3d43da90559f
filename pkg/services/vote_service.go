package services

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/conclave-ai/conclave/pkg/config"
	"github.com/conclave-ai/conclave/pkg/council"
	"github.com/conclave-ai/conclave/pkg/llm"
	"github.com/conclave-ai/conclave/pkg/models"
	"github.com/conclave-ai/conclave/pkg/store"
)

const feedbackVoteLimit = 50

// feedbackQuery fetches the most recent reasoned votes for one
// candidate.
const feedbackQuery = `SELECT voter_model, rank, reasoning, created_at
FROM votes
WHERE org_id = $1 AND candidate_personality_id = $2 AND reasoning IS NOT NULL AND reasoning <> ''
ORDER BY created_at DESC LIMIT $3`

// VoteService persists per-vote records in SQL and session headers in
// the append-only tenant log, and derives the league tables.
type VoteService struct {
	db       *sql.DB
	log      *store.VotingLogStore
	upstream council.LLM
	resolver *config.Resolver
}

// NewVoteService creates the service. upstream and resolver are only
// needed for feedback synthesis and may be nil in write-only use.
func NewVoteService(db *sql.DB, log *store.VotingLogStore, upstream council.LLM, resolver *config.Resolver) *VoteService {
	return &VoteService{db: db, log: log, upstream: upstream, resolver: resolver}
}

// RecordTurnVotes writes the normalized vote rows in one transaction
// and appends the session header to the tenant's voting log.
func (s *VoteService) RecordTurnVotes(ctx context.Context, orgID string, session models.VotingSession) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, v := range session.Votes {
		_, err := tx.ExecContext(ctx, insertVoteQuery,
			v.ID, orgID, v.ConversationID, v.TurnNumber, v.VoterModel,
			v.CandidatePersonalityID, v.CandidateModel, v.Rank, v.Label, v.Reasoning, v.CreatedAt)
		if err != nil {
			return fmt.Errorf("failed to insert vote: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit votes: %w", err)
	}

	if err := s.log.Append(orgID, session); err != nil {
		return fmt.Errorf("failed to append voting log: %w", err)
	}
	return nil
}

const insertVoteQuery = `INSERT INTO votes
(id, org_id, conversation_id, turn_number, voter_model, candidate_personality_id, candidate_model, rank, label, reasoning, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

// leagueQuery aggregates votes per candidate. The org filter is
// dropped for the instance-wide view.
const leagueQuery = `SELECT candidate_personality_id,
	COUNT(DISTINCT conversation_id) AS sessions,
	COUNT(*) AS votes_received,
	COUNT(*) FILTER (WHERE rank = 1) AS wins,
	AVG(rank) AS average_rank
FROM votes WHERE org_id = $1
GROUP BY candidate_personality_id`

const instanceLeagueQuery = `SELECT candidate_personality_id,
	COUNT(DISTINCT conversation_id) AS sessions,
	COUNT(*) AS votes_received,
	COUNT(*) FILTER (WHERE rank = 1) AS wins,
	AVG(rank) AS average_rank
FROM votes
GROUP BY candidate_personality_id`

// LeagueTable computes the tenant league table. Active personalities
// with no votes yet appear as zero rows so new council members are
// visible from day one.
func (s *VoteService) LeagueTable(ctx context.Context, orgID string, active []models.Personality) ([]models.LeagueRow, error) {
	rows, err := s.queryLeague(ctx, leagueQuery, orgID)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(active))
	for _, p := range active {
		names[p.ID] = p.Name
	}

	seen := make(map[string]bool, len(rows))
	for i := range rows {
		seen[rows[i].PersonalityID] = true
		if name, ok := names[rows[i].PersonalityID]; ok {
			rows[i].PersonalityName = name
		}
	}
	for _, p := range active {
		if !seen[p.ID] {
			rows = append(rows, models.LeagueRow{PersonalityID: p.ID, PersonalityName: p.Name})
		}
	}

	sortLeague(rows)
	return rows, nil
}

// InstanceLeagueTable aggregates across all tenants by personality id.
// names supplies display names where known.
func (s *VoteService) InstanceLeagueTable(ctx context.Context, names map[string]string) ([]models.LeagueRow, error) {
	rows, err := s.queryLeague(ctx, instanceLeagueQuery)
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if name, ok := names[rows[i].PersonalityID]; ok {
			rows[i].PersonalityName = name
		}
	}
	sortLeague(rows)
	return rows, nil
}

func (s *VoteService) queryLeague(ctx context.Context, query string, args ...any) ([]models.LeagueRow, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query league table: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.LeagueRow
	for rows.Next() {
		var row models.LeagueRow
		var avg float64
		if err := rows.Scan(&row.PersonalityID, &row.Sessions, &row.VotesReceived, &row.Wins, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan league row: %w", err)
		}
		row.PersonalityName = row.PersonalityID
		row.AverageRank = round2(avg)
		if row.Sessions > 0 {
			row.WinRate = round2(float64(row.Wins) / float64(row.Sessions) * 100)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func sortLeague(rows []models.LeagueRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].WinRate != rows[j].WinRate {
			return rows[i].WinRate > rows[j].WinRate
		}
		return rows[i].AverageRank < rows[j].AverageRank
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// VotingHistory returns the tenant's session headers newest-first with
// usernames resolved from the lookup table.
func (s *VoteService) VotingHistory(ctx context.Context, orgID string) ([]models.VotingSession, error) {
	sessions, err := s.log.List(orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to read voting history: %w", err)
	}

	usernames := make(map[string]string)
	for i := range sessions {
		if sessions[i].UserID == "" {
			sessions[i].Username = "Anonymous/Legacy"
			continue
		}
		name, ok := usernames[sessions[i].UserID]
		if !ok {
			name = s.lookupUsername(ctx, sessions[i].UserID)
			usernames[sessions[i].UserID] = name
		}
		sessions[i].Username = name
	}
	return sessions, nil
}

func (s *VoteService) lookupUsername(ctx context.Context, userID string) string {
	var username string
	err := s.db.QueryRowContext(ctx, `SELECT username FROM users WHERE id = $1`, userID).Scan(&username)
	if err != nil {
		return "Unknown User"
	}
	return username
}

// FeedbackSummary renders the candidate's recent reasoned votes and
// asks the chairman model for a synthesis of the recurring feedback.
func (s *VoteService) FeedbackSummary(ctx context.Context, orgID, personalityID string) (string, error) {
	name := personalityID
	personalities, err := s.resolver.ResolvePersonalities(orgID)
	if err != nil {
		return "", err
	}
	found := false
	for _, p := range personalities {
		if p.ID == personalityID {
			name = p.Name
			found = true
			break
		}
	}
	if !found {
		return "", ErrNotFound
	}

	rows, err := s.db.QueryContext(ctx, feedbackQuery, orgID, personalityID, feedbackVoteLimit)
	if err != nil {
		return "", fmt.Errorf("failed to query feedback votes: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []string
	for rows.Next() {
		var voterModel, reasoning string
		var rank int
		var createdAt time.Time
		if err := rows.Scan(&voterModel, &rank, &reasoning, &createdAt); err != nil {
			return "", fmt.Errorf("failed to scan feedback vote: %w", err)
		}
		entries = append(entries, fmt.Sprintf("[%s] %s ranked this personality #%d:\n%s",
			createdAt.Format("2006-01-02"), voterModel, rank, reasoning))
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "No peer feedback recorded yet.", nil
	}

	prompts, err := s.resolver.ResolvePrompts(orgID)
	if err != nil {
		return "", err
	}
	modelCfg, err := s.resolver.ResolveModels(orgID)
	if err != nil {
		return "", err
	}
	up, err := s.resolver.ResolveUpstream(orgID)
	if err != nil {
		return "", err
	}

	prompt := prompts.Value(models.PromptFeedbackSynthesis)
	prompt = strings.ReplaceAll(prompt, "{personality_name}", name)
	prompt = strings.ReplaceAll(prompt, "{feedback_log}", strings.Join(entries, "\n\n"))

	res := s.upstream.Query(ctx, modelCfg.ChairmanModel,
		[]llm.Message{{Role: "user", Content: prompt}}, up.APIKey, up.BaseURL, llm.QueryOptions{})
	if res == nil {
		return "", fmt.Errorf("feedback synthesis failed upstream")
	}
	return res.Content, nil
}
