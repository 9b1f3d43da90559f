package api

// SendMessageRequest is the body for both message endpoints.
type SendMessageRequest struct {
	Content string `json:"content"`
}

// UpdatePromptRequest is the body for PUT /config/prompts/:role.
// IsDefault=true discards the tenant override for the role.
type UpdatePromptRequest struct {
	Value     string `json:"value"`
	IsDefault bool   `json:"is_default"`
}

// UpdateModelsRequest is the body for PUT /config/models. Empty fields
// clear the corresponding override.
type UpdateModelsRequest struct {
	ChairmanModel string `json:"chairman_model"`
	RankingModel  string `json:"ranking_model"`
	TitleModel    string `json:"title_model"`
}

// SetDisabledRequest is the body for PUT /personalities/:id/disabled.
type SetDisabledRequest struct {
	Disabled bool `json:"disabled"`
}

// UpdateUpstreamRequest is the body for PUT /config/upstream. An empty
// APIKey leaves the stored key untouched.
type UpdateUpstreamRequest struct {
	BaseURL string `json:"base_url"`
	APIKey  string `json:"api_key"`
}
