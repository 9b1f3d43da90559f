// Package events defines the per-turn event stream: typed payloads
// published by the session manager and drained by the SSE transport.
//
// Ordering guarantee within one turn:
//
//	stage_start(1) → stage1_complete →
//	stage_start(2) → stage2_complete →
//	stage_start(3) → stage3_complete → [title_complete] → complete
//
// title_complete may arrive anywhere after stage_start(1) because the
// title task runs in parallel with Stage 1, but always before
// complete. error is terminal and replaces the rest of the sequence.
package events

import "github.com/conclave-ai/conclave/pkg/models"

// Event types.
const (
	TypeStageStart     = "stage_start"
	TypeStage1Complete = "stage1_complete"
	TypeStage2Complete = "stage2_complete"
	TypeStage3Complete = "stage3_complete"
	TypeTitleComplete  = "title_complete"
	TypeComplete       = "complete"
	TypeError          = "error"
)

// Metadata accompanies stage2_complete and complete events.
type Metadata struct {
	LabelToModel      map[string]string         `json:"label_to_model,omitempty"`
	AggregateRankings []models.AggregateRanking `json:"aggregate_rankings,omitempty"`
}

// Event is one SSE record. Only the fields relevant to the event type
// are set; everything else is omitted from the JSON body.
type Event struct {
	Type    string                `json:"type"`
	Stage   int                   `json:"stage,omitempty"`   // stage_start
	Stage1  []models.Stage1Result `json:"stage1,omitempty"`  // stage1_complete
	Stage2  []models.Stage2Result `json:"stage2,omitempty"`  // stage2_complete
	Stage3  *models.Stage3Result  `json:"stage3,omitempty"`  // stage3_complete
	Title   string                `json:"title,omitempty"`   // title_complete
	Message string                `json:"message,omitempty"` // error
	Meta    *Metadata             `json:"metadata,omitempty"`
}

// StageStart announces the beginning of a numbered stage.
func StageStart(stage int) Event {
	return Event{Type: TypeStageStart, Stage: stage}
}

// Stage1Complete carries the collected proposals.
func Stage1Complete(results []models.Stage1Result) Event {
	return Event{Type: TypeStage1Complete, Stage1: results}
}

// Stage2Complete carries the votes plus the anonymization metadata.
func Stage2Complete(results []models.Stage2Result, meta *Metadata) Event {
	return Event{Type: TypeStage2Complete, Stage2: results, Meta: meta}
}

// Stage3Complete carries the synthesized answer.
func Stage3Complete(result *models.Stage3Result) Event {
	return Event{Type: TypeStage3Complete, Stage3: result}
}

// TitleComplete carries the generated conversation title.
func TitleComplete(title string) Event {
	return Event{Type: TypeTitleComplete, Title: title}
}

// Complete is the terminal success event.
func Complete(meta *Metadata) Event {
	return Event{Type: TypeComplete, Meta: meta}
}

// Error is the terminal failure event.
func Error(message string) Event {
	return Event{Type: TypeError, Message: message}
}
