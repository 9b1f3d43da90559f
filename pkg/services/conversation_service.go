// Package services is the business-logic layer between the HTTP
// handlers and the stores: ownership and tenant checks, vote
// aggregation, and tenant configuration administration.
package services

import (
	"errors"
	"fmt"

	"github.com/conclave-ai/conclave/pkg/models"
	"github.com/conclave-ai/conclave/pkg/store"
)

// ConversationService guards the transcript store with ownership and
// tenant checks. Every read and write is scoped to the caller's org;
// a conversation owned by another user surfaces as forbidden, one in
// another tenant as not found.
type ConversationService struct {
	store *store.ConversationStore
}

// NewConversationService creates the service over a transcript store.
func NewConversationService(s *store.ConversationStore) *ConversationService {
	return &ConversationService{store: s}
}

// Create starts an empty conversation owned by the caller.
func (s *ConversationService) Create(caller models.Caller) (*models.Conversation, error) {
	return s.store.Create(caller.OrgID, caller.UserID)
}

// Get returns a conversation the caller may read.
func (s *ConversationService) Get(caller models.Caller, id string) (*models.Conversation, error) {
	conv, err := s.store.Get(caller.OrgID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load conversation: %w", err)
	}
	if err := s.authorize(caller, conv.OwnerUserID); err != nil {
		return nil, err
	}
	return conv, nil
}

// List returns the caller's conversations, newest first. Org admins
// see the whole tenant.
func (s *ConversationService) List(caller models.Caller) ([]models.ConversationSummary, error) {
	summaries, err := s.store.List(caller.OrgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	if caller.IsAdmin {
		return summaries, nil
	}

	own := make([]models.ConversationSummary, 0, len(summaries))
	for _, sum := range summaries {
		if sum.OwnerUserID == caller.UserID {
			own = append(own, sum)
		}
	}
	return own, nil
}

// Delete removes a conversation the caller owns.
func (s *ConversationService) Delete(caller models.Caller, id string) error {
	if _, err := s.Get(caller, id); err != nil {
		return err
	}
	if err := s.store.Delete(caller.OrgID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

// authorize enforces the ownership rule shared by all accessors.
func (s *ConversationService) authorize(caller models.Caller, ownerID string) error {
	if ownerID != caller.UserID && !caller.IsAdmin {
		return ErrForbidden
	}
	return nil
}
