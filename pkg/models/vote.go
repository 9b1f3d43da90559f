package models

import "time"

// Vote is one durable peer-vote record: voter × candidate × rank for
// one turn of one conversation.
type Vote struct {
	ID                     string    `json:"id"`
	ConversationID         string    `json:"conversation_id"`
	TurnNumber             int       `json:"turn_number"`
	VoterModel             string    `json:"voter_model"`
	CandidatePersonalityID string    `json:"candidate_personality_id"`
	CandidateModel         string    `json:"candidate_model"`
	Rank                   int       `json:"rank"`
	Label                  string    `json:"label"`
	Reasoning              string    `json:"reasoning,omitempty"`
	CreatedAt              time.Time `json:"created_at"`
}

// VotingSession is the append-only log header written once per turn,
// carrying the votes cast in that turn.
type VotingSession struct {
	ID                string    `json:"id"`
	ConversationID    string    `json:"conversation_id"`
	ConversationTitle string    `json:"conversation_title"`
	TurnNumber        int       `json:"turn_number"`
	UserID            string    `json:"user_id,omitempty"`
	Username          string    `json:"username,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	Votes             []Vote    `json:"votes"`
}

// LeagueRow is one aggregated league-table entry for a candidate
// personality. WinRate is a percentage.
type LeagueRow struct {
	PersonalityID   string  `json:"personality_id"`
	PersonalityName string  `json:"personality_name"`
	Sessions        int     `json:"sessions"`
	VotesReceived   int     `json:"votes_received"`
	Wins            int     `json:"wins"`
	AverageRank     float64 `json:"average_rank"`
	WinRate         float64 `json:"win_rate"`
}
