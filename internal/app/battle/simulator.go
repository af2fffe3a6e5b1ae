// Package battle runs batches of simulated negotiations under admission
// control, scores them, and persists the results.
package battle

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirschrockalot/goat-sales-app-sub005/internal/domain"
	"github.com/sirschrockalot/goat-sales-app-sub005/internal/infra/llm"
)

// Simulator produces one finished conversation for a persona on a model
// tier. The returned cost covers every completion call the run made.
type Simulator interface {
	Run(ctx context.Context, persona domain.Persona, tier domain.Tier, objection string) (domain.Transcript, float64, error)
}

// agentPrompt is the sales agent's fixed system prompt.
const agentPrompt = `You are an elite sales representative negotiating a wholesale real-estate
assignment. Work the buyer's objections, protect your margin, and drive
toward a verbal agreement on the closing memorandum. Keep each reply to a
few sentences. Never break character.`

// ConversationSimulator drives a turn-based negotiation between the sales
// agent and a synthetic buyer persona over the completion provider.
type ConversationSimulator struct {
	client   llm.CompletionClient
	models   map[domain.Tier]string
	maxTurns int // exchanges (one agent + one buyer utterance each)
}

// NewConversationSimulator creates a simulator. models maps tiers to
// provider model names; maxTurns bounds the conversation length.
func NewConversationSimulator(client llm.CompletionClient, models map[domain.Tier]string, maxTurns int) *ConversationSimulator {
	if maxTurns <= 0 {
		maxTurns = 6
	}
	return &ConversationSimulator{client: client, models: models, maxTurns: maxTurns}
}

// Run simulates one negotiation. When objection is non-empty it is pinned
// as the buyer's opening line so every scenario child battles the same
// resistance.
func (s *ConversationSimulator) Run(ctx context.Context, persona domain.Persona, tier domain.Tier, objection string) (domain.Transcript, float64, error) {
	model, ok := s.models[tier]
	if !ok {
		return nil, 0, fmt.Errorf("no model configured for tier %q", tier)
	}

	var transcript domain.Transcript
	var totalCost float64

	if objection != "" {
		transcript = append(transcript, domain.Turn{Role: "buyer", Content: objection})
	}

	for turn := 0; turn < s.maxTurns; turn++ {
		agentLine, cost, err := s.speak(ctx, model, agentPrompt, transcript, "agent")
		if err != nil {
			return nil, totalCost, fmt.Errorf("agent turn %d: %w", turn+1, err)
		}
		totalCost += cost
		transcript = append(transcript, domain.Turn{Role: "agent", Content: agentLine})

		buyerLine, cost, err := s.speak(ctx, model, buyerPrompt(persona), transcript, "buyer")
		if err != nil {
			return nil, totalCost, fmt.Errorf("buyer turn %d: %w", turn+1, err)
		}
		totalCost += cost
		transcript = append(transcript, domain.Turn{Role: "buyer", Content: buyerLine})

		if strings.Contains(buyerLine, "[DEAL]") || strings.Contains(buyerLine, "[NO DEAL]") {
			break
		}
	}

	return transcript, totalCost, nil
}

// speak runs one completion for the given speaker. The transcript is
// mapped so the speaker's own prior lines are assistant turns and the
// counterpart's lines are user turns.
func (s *ConversationSimulator) speak(ctx context.Context, model, system string, transcript domain.Transcript, speaker string) (string, float64, error) {
	messages := []llm.Message{{Role: "system", Content: system}}
	for _, t := range transcript {
		role := "user"
		if t.Role == speaker {
			role = "assistant"
		}
		messages = append(messages, llm.Message{Role: role, Content: t.Content})
	}
	if len(messages) == 1 {
		messages = append(messages, llm.Message{Role: "user", Content: "Begin the conversation."})
	}

	text, usage, err := s.client.Complete(ctx, llm.Request{
		Model:       model,
		Messages:    messages,
		Temperature: 0.8,
		MaxTokens:   256,
	})
	if err != nil {
		return "", usage.CostUSD, err
	}
	return strings.TrimSpace(text), usage.CostUSD, nil
}

// buyerPrompt assembles the persona's behavioral system prompt with its
// traits and attack patterns.
func buyerPrompt(p domain.Persona) string {
	var b strings.Builder
	b.WriteString(p.SystemPrompt)
	if len(p.Traits) > 0 {
		fmt.Fprintf(&b, "\n\nTraits: %s.", strings.Join(p.Traits, ", "))
	}
	if len(p.AttackPatterns) > 0 {
		fmt.Fprintf(&b, "\nPressure the agent with: %s.", strings.Join(p.AttackPatterns, "; "))
	}
	b.WriteString("\n\nIf the agent genuinely wins you over, verbally agree to the closing memorandum and end your reply with [DEAL]. If you decide to walk away for good, end with [NO DEAL]. Otherwise keep resisting.")
	return b.String()
}
