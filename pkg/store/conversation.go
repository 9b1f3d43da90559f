package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/conclave-ai/conclave/pkg/models"
)

// ConversationStore keeps transcripts as one JSON file per
// conversation under <root>/orgs/<org_id>/conversations/. Messages are
// append-only; only title and processing_state mutate in place.
//
// File writes are not otherwise synchronized: the processing_state
// single-writer invariant (BeginTurn/EndTurn) is what prevents
// concurrent writers on one conversation.
type ConversationStore struct {
	root string

	// turnMu serializes the read-check-write in BeginTurn.
	turnMu sync.Mutex
}

// NewConversationStore creates a store rooted at dataDir.
func NewConversationStore(dataDir string) *ConversationStore {
	return &ConversationStore{root: dataDir}
}

func (s *ConversationStore) dir(orgID string) (string, error) {
	return safeJoin(s.root, "orgs", orgID, "conversations")
}

func (s *ConversationStore) path(orgID, id string) (string, error) {
	dir, err := s.dir(orgID)
	if err != nil {
		return "", err
	}
	return safeJoin(dir, id+".json")
}

// Create starts a new empty conversation for the caller.
func (s *ConversationStore) Create(orgID, userID string) (*models.Conversation, error) {
	conv := &models.Conversation{
		ID:              uuid.New().String(),
		OwnerUserID:     userID,
		OrgID:           orgID,
		Title:           "New Conversation",
		CreatedAt:       time.Now().UTC(),
		Messages:        []models.Message{},
		ProcessingState: models.ProcessingIdle,
	}
	if err := s.write(orgID, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// Get loads a conversation. Returns ErrNotFound when no transcript
// exists in the tenant's directory — a conversation belonging to
// another tenant is indistinguishable from a missing one.
func (s *ConversationStore) Get(orgID, id string) (*models.Conversation, error) {
	path, err := s.path(orgID, id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read conversation: %w", err)
	}

	var conv models.Conversation
	if err := json.Unmarshal(data, &conv); err != nil {
		return nil, fmt.Errorf("corrupt conversation file %s: %w", path, err)
	}
	return &conv, nil
}

// List returns metadata summaries for the tenant, newest first.
func (s *ConversationStore) List(orgID string) ([]models.ConversationSummary, error) {
	dir, err := s.dir(orgID)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.ConversationSummary{}, nil
		}
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}

	summaries := make([]models.ConversationSummary, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		id := entry.Name()[:len(entry.Name())-len(".json")]
		conv, err := s.Get(orgID, id)
		if err != nil {
			continue
		}
		summaries = append(summaries, models.ConversationSummary{
			ID:           conv.ID,
			OwnerUserID:  conv.OwnerUserID,
			Title:        conv.Title,
			CreatedAt:    conv.CreatedAt,
			MessageCount: len(conv.Messages),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].CreatedAt.After(summaries[j].CreatedAt)
	})
	return summaries, nil
}

// AppendUserMessage appends a user message and returns the post-append
// conversation, so callers build LLM history from a snapshot that
// already includes the new message.
func (s *ConversationStore) AppendUserMessage(orgID, id, content string) (*models.Conversation, error) {
	conv, err := s.Get(orgID, id)
	if err != nil {
		return nil, err
	}
	conv.Messages = append(conv.Messages, models.Message{
		Role:      models.RoleUser,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
	if err := s.write(orgID, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

// AppendAssistantMessage appends an assistant message carrying the
// three stage payloads.
func (s *ConversationStore) AppendAssistantMessage(orgID, id string, msg models.Message) error {
	conv, err := s.Get(orgID, id)
	if err != nil {
		return err
	}
	msg.Role = models.RoleAssistant
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	conv.Messages = append(conv.Messages, msg)
	return s.write(orgID, conv)
}

// SetTitle updates the conversation title.
func (s *ConversationStore) SetTitle(orgID, id, title string) error {
	conv, err := s.Get(orgID, id)
	if err != nil {
		return err
	}
	conv.Title = title
	return s.write(orgID, conv)
}

// BeginTurn flips processing_state to running, failing with
// ErrConflict when a turn is already in flight.
func (s *ConversationStore) BeginTurn(orgID, id string) error {
	s.turnMu.Lock()
	defer s.turnMu.Unlock()

	conv, err := s.Get(orgID, id)
	if err != nil {
		return err
	}
	if conv.ProcessingState == models.ProcessingRunning {
		return ErrConflict
	}
	conv.ProcessingState = models.ProcessingRunning
	return s.write(orgID, conv)
}

// EndTurn resets processing_state to idle.
func (s *ConversationStore) EndTurn(orgID, id string) error {
	conv, err := s.Get(orgID, id)
	if err != nil {
		return err
	}
	conv.ProcessingState = models.ProcessingIdle
	return s.write(orgID, conv)
}

// Delete removes a conversation transcript.
func (s *ConversationStore) Delete(orgID, id string) error {
	path, err := s.path(orgID, id)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// RecoverStaleTurns resets conversations left in processing_state
// running by a crash. Called once at startup; returns the number of
// conversations recovered.
func (s *ConversationStore) RecoverStaleTurns() (int, error) {
	orgsDir := filepath.Join(s.root, "orgs")
	orgs, err := os.ReadDir(orgsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to scan orgs: %w", err)
	}

	recovered := 0
	for _, org := range orgs {
		if !org.IsDir() {
			continue
		}
		summaries, err := s.List(org.Name())
		if err != nil {
			continue
		}
		for _, sum := range summaries {
			conv, err := s.Get(org.Name(), sum.ID)
			if err != nil || conv.ProcessingState != models.ProcessingRunning {
				continue
			}
			if err := s.EndTurn(org.Name(), sum.ID); err == nil {
				recovered++
			}
		}
	}
	return recovered, nil
}

func (s *ConversationStore) write(orgID string, conv *models.Conversation) error {
	path, err := s.path(orgID, conv.ID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create conversations dir: %w", err)
	}

	data, err := json.MarshalIndent(conv, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode conversation: %w", err)
	}

	// Write-then-rename so readers never see a partial transcript.
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write conversation: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit conversation: %w", err)
	}
	return nil
}
