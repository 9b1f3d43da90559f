package models

// Caller is the validated identity consumed from the auth collaborator.
type Caller struct {
	UserID          string `json:"user_id"`
	Username        string `json:"username"`
	OrgID           string `json:"org_id"`
	IsAdmin         bool   `json:"is_admin"`
	IsInstanceAdmin bool   `json:"is_instance_admin"`
}
