// Package models defines the shared domain types for the deliberation
// engine: conversations, council stage results, personalities, votes,
// and caller identity.
package models

import "time"

// Role identifies who authored a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ProcessingState guards a conversation against overlapping turns.
// Exactly one turn may run per conversation at a time.
type ProcessingState string

const (
	ProcessingIdle    ProcessingState = "idle"
	ProcessingRunning ProcessingState = "running"
)

// Stage1Result is one personality's proposal from the Propose stage.
type Stage1Result struct {
	PersonalityID   string `json:"personality_id"`
	PersonalityName string `json:"personality_name"`
	Model           string `json:"model"`
	Response        string `json:"response"`
}

// Stage2Result is one personality's peer ranking from the Rank stage.
// Ranking holds the parsed anonymized labels in ranked order; RawText
// preserves the model output the ranking was parsed from.
type Stage2Result struct {
	VoterPersonalityID   string   `json:"voter_personality_id"`
	VoterPersonalityName string   `json:"voter_personality_name"`
	Model                string   `json:"model"`
	RawText              string   `json:"raw_text"`
	Ranking              []string `json:"ranking"`
}

// Stage3Result is the chairman synthesis. Contributors is populated
// only when a consensus strategy produced an attribution block.
type Stage3Result struct {
	Model        string        `json:"model"`
	Response     string        `json:"response"`
	Contributors []Contributor `json:"contributors,omitempty"`
}

// Contributor is one entry of the attribution block extracted from a
// consensus-strategy synthesis.
type Contributor struct {
	Name         string `json:"name"`
	Label        string `json:"label,omitempty"`
	Contribution string `json:"contribution,omitempty"`
}

// AggregateRanking is one row of the per-turn Borda aggregation:
// the mean rank a candidate personality received across all voters.
type AggregateRanking struct {
	PersonalityID   string  `json:"personality_id"`
	PersonalityName string  `json:"personality_name"`
	AverageRank     float64 `json:"average_rank"`
	RankingsCount   int     `json:"rankings_count"`
}

// Message is one entry in a conversation transcript. User messages
// carry Content only; assistant messages carry the three stage payloads.
type Message struct {
	Role      Role           `json:"role"`
	Content   string         `json:"content,omitempty"`
	Stage1    []Stage1Result `json:"stage1,omitempty"`
	Stage2    []Stage2Result `json:"stage2,omitempty"`
	Stage3    *Stage3Result  `json:"stage3,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// Conversation is a full transcript plus its mutable scalar fields
// (title and processing state). Messages are append-only.
type Conversation struct {
	ID              string          `json:"id"`
	OwnerUserID     string          `json:"owner_user_id"`
	OrgID           string          `json:"org_id"`
	Title           string          `json:"title"`
	CreatedAt       time.Time       `json:"created_at"`
	Messages        []Message       `json:"messages"`
	ProcessingState ProcessingState `json:"processing_state"`
}

// TurnNumber returns the 1-based number of the turn that the latest
// user message belongs to.
func (c *Conversation) TurnNumber() int {
	n := 0
	for _, m := range c.Messages {
		if m.Role == RoleUser {
			n++
		}
	}
	return n
}

// ConversationSummary is the metadata-only listing view.
type ConversationSummary struct {
	ID           string    `json:"id"`
	OwnerUserID  string    `json:"owner_user_id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	MessageCount int       `json:"message_count"`
}
