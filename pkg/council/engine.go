package council

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/conclave-ai/conclave/pkg/config"
	"github.com/conclave-ai/conclave/pkg/llm"
	"github.com/conclave-ai/conclave/pkg/models"
)

// Fixed payloads for the two failure modes a turn can end in.
const (
	AllModelsFailedMessage = "Error: All models failed to respond. Please try again."
	SynthesisFailedMessage = "Error: Unable to generate final synthesis."
)

const timeLayout = "2006-01-02 15:04:05"

// LLM is the upstream surface the engine needs. Satisfied by
// *llm.Client; tests substitute a fake.
type LLM interface {
	Query(ctx context.Context, model string, messages []llm.Message, apiKey, baseURL string, opts llm.QueryOptions) *llm.Result
}

// TurnConfig is the fully resolved tenant configuration for one turn.
type TurnConfig struct {
	Personalities []models.Personality
	Prompts       models.SystemPrompts
	Models        models.ModelConfig
	APIKey        string
	BaseURL       string

	// StrategyID selects a consensus strategy for Stage 3; empty means
	// plain chairman synthesis.
	StrategyID string
}

// Engine runs the deliberation stages. It is stateless across turns;
// all per-turn inputs arrive through TurnConfig.
type Engine struct {
	llm        LLM
	strategies *StrategyCatalog
	log        *slog.Logger
	now        func() time.Time
}

// NewEngine creates an engine over the given upstream client and
// strategy catalog.
func NewEngine(upstream LLM, strategies *StrategyCatalog) *Engine {
	return &Engine{
		llm:        upstream,
		strategies: strategies,
		log:        slog.With("component", "council"),
		now:        time.Now,
	}
}

// chain builds one upstream message list: system prompt and the user
// query both carry the time anchor, the only authoritative time signal
// the models see.
func (e *Engine) chain(system string, history []llm.Message, query string) []llm.Message {
	anchor := e.now().Format(timeLayout)
	note := "Current date and time: " + anchor
	if system != "" {
		note = system + "\n\n" + note
	}
	msgs := make([]llm.Message, 0, len(history)+2)
	msgs = append(msgs, llm.Message{Role: "system", Content: note})
	msgs = append(msgs, history...)
	msgs = append(msgs, llm.Message{
		Role:    "user",
		Content: fmt.Sprintf("[%s] %s", anchor, query),
	})
	return msgs
}

// RunStage1 fans the query out to every active personality in
// parallel and collects the successful proposals in personality order.
// Failed upstream calls leave gaps, not errors; siblings proceed.
func (e *Engine) RunStage1(ctx context.Context, cfg TurnConfig, history []llm.Message, query string) []models.Stage1Result {
	slots := make([]*models.Stage1Result, len(cfg.Personalities))

	var g errgroup.Group
	for i, p := range cfg.Personalities {
		g.Go(func() error {
			system := cfg.Prompts.Value(models.PromptBase) + "\n\n" +
				config.FormatPersonalityPrompt(p, cfg.Prompts, true)
			res := e.llm.Query(ctx, p.Model, e.chain(system, history, query), cfg.APIKey, cfg.BaseURL,
				llm.QueryOptions{Temperature: p.Temperature})
			if res == nil {
				return nil
			}
			slots[i] = &models.Stage1Result{
				PersonalityID:   p.ID,
				PersonalityName: p.Name,
				Model:           p.Model,
				Response:        res.Content,
			}
			return nil
		})
	}
	_ = g.Wait()

	results := make([]models.Stage1Result, 0, len(slots))
	for _, slot := range slots {
		if slot != nil {
			results = append(results, *slot)
		}
	}
	e.log.Info("Stage 1 complete",
		"personalities", len(cfg.Personalities),
		"responses", len(results))
	return results
}

// RunStage2 has every active personality rank the anonymized Stage 1
// proposals, excluding its own. Voters whose upstream call fails are
// simply absent from the result.
func (e *Engine) RunStage2(ctx context.Context, cfg TurnConfig, query string, stage1 []models.Stage1Result, labels *LabelMap) []models.Stage2Result {
	slots := make([]*models.Stage2Result, len(cfg.Personalities))

	var g errgroup.Group
	for i, p := range cfg.Personalities {
		g.Go(func() error {
			responsesText, excluded := filteredResponses(p.ID, labels)
			peerText := "different models (anonymized)"
			if excluded {
				peerText = "your peers (anonymized)"
			}

			prompt := formatTemplate(cfg.Prompts.Value(models.PromptRanking), map[string]string{
				"user_query":     query,
				"responses_text": responsesText,
				"peer_text":      peerText,
			})
			// Ranking uses the plain personality prompt, without the
			// Stage 1 response-structure sections.
			system := cfg.Prompts.Value(models.PromptBase) + "\n\n" +
				config.FormatPersonalityPrompt(p, cfg.Prompts, false)

			model := p.Model
			if model == "" {
				model = cfg.Models.RankingModel
			}
			res := e.llm.Query(ctx, model, e.chain(system, nil, prompt), cfg.APIKey, cfg.BaseURL,
				llm.QueryOptions{Temperature: p.Temperature})
			if res == nil {
				return nil
			}
			slots[i] = &models.Stage2Result{
				VoterPersonalityID:   p.ID,
				VoterPersonalityName: p.Name,
				Model:                model,
				RawText:              res.Content,
				Ranking:              ParseRanking(res.Content),
			}
			return nil
		})
	}
	_ = g.Wait()

	results := make([]models.Stage2Result, 0, len(slots))
	for _, slot := range slots {
		if slot != nil {
			results = append(results, *slot)
		}
	}
	e.log.Info("Stage 2 complete", "voters", len(results))
	return results
}

// filteredResponses renders the labeled response pack a voter sees,
// with its own proposal removed. Reports whether anything was removed.
func filteredResponses(voterID string, labels *LabelMap) (string, bool) {
	var blocks []string
	excluded := false
	for _, l := range labels.Labels() {
		target, _ := labels.Target(l)
		if target.PersonalityID == voterID {
			excluded = true
			continue
		}
		blocks = append(blocks, fmt.Sprintf("Response %s:\n%s", l, target.Response))
	}
	return strings.Join(blocks, "\n\n"), excluded
}

// RunStage3 synthesizes the final answer: the chairman prompt by
// default, or the tenant's consensus strategy when one is selected.
func (e *Engine) RunStage3(ctx context.Context, cfg TurnConfig, query string, stage1 []models.Stage1Result, stage2 []models.Stage2Result, labels *LabelMap) models.Stage3Result {
	if len(stage1) == 0 {
		return models.Stage3Result{
			Model:    cfg.Models.ChairmanModel,
			Response: AllModelsFailedMessage,
		}
	}
	if cfg.StrategyID != "" {
		return e.runConsensus(ctx, cfg, query, stage1, stage2, labels)
	}

	prompt := formatTemplate(cfg.Prompts.Value(models.PromptChairman), map[string]string{
		"user_query":          query,
		"stage1_text":         stage1Text(stage1),
		"voting_details_text": votingDetailsText(stage2, labels),
	})

	res := e.llm.Query(ctx, cfg.Models.ChairmanModel, e.chain("", nil, prompt), cfg.APIKey, cfg.BaseURL, llm.QueryOptions{})
	if res == nil {
		e.log.Warn("Stage 3 synthesis failed", "model", cfg.Models.ChairmanModel)
		return models.Stage3Result{
			Model:    cfg.Models.ChairmanModel,
			Response: SynthesisFailedMessage,
		}
	}
	return models.Stage3Result{
		Model:    cfg.Models.ChairmanModel,
		Response: res.Content,
	}
}

// runConsensus is the alternate Stage 3: a strategy template over the
// raw proposals and reviews, followed by contributor extraction.
func (e *Engine) runConsensus(ctx context.Context, cfg TurnConfig, query string, stage1 []models.Stage1Result, stage2 []models.Stage2Result, labels *LabelMap) models.Stage3Result {
	var reviews []string
	for _, vote := range stage2 {
		reviews = append(reviews, fmt.Sprintf("Reviewer %s:\n%s", vote.VoterPersonalityName, vote.RawText))
	}

	prompt := formatTemplate(e.strategies.Template(cfg.StrategyID), map[string]string{
		"user_query":     query,
		"proposals_text": labeledProposals(labels),
		"reviews_text":   strings.Join(reviews, "\n\n"),
	})

	res := e.llm.Query(ctx, cfg.Models.ChairmanModel, e.chain("", nil, prompt), cfg.APIKey, cfg.BaseURL, llm.QueryOptions{})
	if res == nil {
		return models.Stage3Result{
			Model:    cfg.Models.ChairmanModel,
			Response: SynthesisFailedMessage,
		}
	}

	cleaned, contributors := ParseAttribution(res.Content)
	return models.Stage3Result{
		Model:        cfg.Models.ChairmanModel,
		Response:     cleaned,
		Contributors: contributors,
	}
}

func labeledProposals(labels *LabelMap) string {
	var blocks []string
	for _, l := range labels.Labels() {
		target, _ := labels.Target(l)
		blocks = append(blocks, fmt.Sprintf("Response %s:\n%s", l, target.Response))
	}
	return strings.Join(blocks, "\n\n")
}

// stage1Text renders the proposals for the chairman, with real
// personality names restored.
func stage1Text(stage1 []models.Stage1Result) string {
	blocks := make([]string, 0, len(stage1))
	for _, res := range stage1 {
		blocks = append(blocks, fmt.Sprintf("Model: %s\nResponse: %s", res.PersonalityName, res.Response))
	}
	return strings.Join(blocks, "\n\n")
}

// votingDetailsText renders each voter's parsed ranking with names
// resolved through the label map; unknown labels render as "Unknown".
func votingDetailsText(stage2 []models.Stage2Result, labels *LabelMap) string {
	var blocks []string
	for _, vote := range stage2 {
		var b strings.Builder
		fmt.Fprintf(&b, "Voter: %s", vote.VoterPersonalityName)
		for i, l := range vote.Ranking {
			name := "Unknown"
			if target, ok := labels.Target(l); ok {
				name = target.PersonalityName
			}
			fmt.Fprintf(&b, "\n   %d. %s (%s)", i+1, name, l)
		}
		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// GenerateTitle derives a conversation title from the first user
// query. Always returns a usable title; failures fall back to the
// default.
func (e *Engine) GenerateTitle(ctx context.Context, cfg TurnConfig, query string) string {
	prompt := formatTemplate(cfg.Prompts.Value(models.PromptTitle), map[string]string{
		"user_query": query,
	})
	res := e.llm.Query(ctx, cfg.Models.TitleModel, []llm.Message{{Role: "user", Content: prompt}},
		cfg.APIKey, cfg.BaseURL, llm.QueryOptions{})
	if res == nil {
		return DefaultTitle
	}
	return CleanTitle(res.Content)
}
