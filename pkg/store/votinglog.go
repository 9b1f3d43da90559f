package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/conclave-ai/conclave/pkg/models"
)

// VotingLogStore is the append-only per-tenant voting-session log,
// kept as <root>/orgs/<org_id>/voting_history.json.
type VotingLogStore struct {
	root string
	mu   sync.Mutex
}

// NewVotingLogStore creates a log store rooted at dataDir.
func NewVotingLogStore(dataDir string) *VotingLogStore {
	return &VotingLogStore{root: dataDir}
}

func (s *VotingLogStore) path(orgID string) (string, error) {
	dir, err := safeJoin(s.root, "orgs", orgID)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "voting_history.json"), nil
}

// Append adds one voting-session header to the tenant's log.
func (s *VotingLogStore) Append(orgID string, session models.VotingSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.read(orgID)
	if err != nil {
		return err
	}
	sessions = append(sessions, session)

	path, err := s.path(orgID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create org dir: %w", err)
	}

	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode voting log: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write voting log: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("failed to commit voting log: %w", err)
	}
	return nil
}

// List returns the tenant's session headers, newest first.
func (s *VotingLogStore) List(orgID string) ([]models.VotingSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions, err := s.read(orgID)
	if err != nil {
		return nil, err
	}

	// Stored oldest-first; reverse for newest-first reads.
	out := make([]models.VotingSession, 0, len(sessions))
	for i := len(sessions) - 1; i >= 0; i-- {
		out = append(out, sessions[i])
	}
	return out, nil
}

func (s *VotingLogStore) read(orgID string) ([]models.VotingSession, error) {
	path, err := s.path(orgID)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []models.VotingSession{}, nil
		}
		return nil, fmt.Errorf("failed to read voting log: %w", err)
	}

	var sessions []models.VotingSession
	if err := json.Unmarshal(data, &sessions); err != nil {
		return nil, fmt.Errorf("corrupt voting log %s: %w", path, err)
	}
	return sessions, nil
}
