// Package chat wires history, budgeting, and the completion client into
// one send-a-message operation.
package chat

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bkyoung/chatgate/internal/adapter/llm"
	"github.com/bkyoung/chatgate/internal/domain"
	"github.com/bkyoung/chatgate/internal/usecase/budget"
)

// HistoryMessage is one stored message as handed over by the history
// source: author display name, text, and timestamp, oldest-first.
type HistoryMessage struct {
	Author  string
	Content string
	SentAt  time.Time
}

// HistorySource supplies the most recent messages of a conversation.
// The implementation lives outside this module.
type HistorySource interface {
	Recent(ctx context.Context, conversationID string, limit int) ([]HistoryMessage, error)
}

// Completer is the slice of the completion client the service needs.
type Completer interface {
	Stream(ctx context.Context, messages []domain.Message) <-chan llm.StreamEvent
	Complete(ctx context.Context, messages []domain.Message) <-chan llm.StreamEvent
	FetchModels(ctx context.Context) ([]domain.ModelInfo, error)
}

// Provider pairs a completion client with the model it is configured for.
type Provider struct {
	Client Completer
	Model  string
}

// Deps captures the collaborators for the chat service.
type Deps struct {
	Providers map[string]Provider
	Budget    *budget.Calculator

	// History is optional; without it every request is a fresh
	// conversation.
	History HistorySource

	// AssistantName is the author display name under which the
	// assistant's own messages are stored; everything else maps to the
	// user role.
	AssistantName string
}

// Service coordinates one completion request end to end.
type Service struct {
	providers     map[string]Provider
	budget        *budget.Calculator
	history       HistorySource
	assistantName string
}

// NewService creates the chat service.
func NewService(deps Deps) *Service {
	calc := deps.Budget
	if calc == nil {
		calc = budget.NewCalculator(nil, nil)
	}
	name := deps.AssistantName
	if name == "" {
		name = "assistant"
	}
	return &Service{
		providers:     deps.Providers,
		budget:        calc,
		history:       deps.History,
		assistantName: name,
	}
}

// Request describes one completion request.
type Request struct {
	Provider     string
	Conversation string
	Prompt       string
	SystemPrompt string
	HistoryLimit int
	Streaming    bool
}

// Result carries the event stream and the budgeting decision that shaped
// the request.
type Result struct {
	Events <-chan llm.StreamEvent
	Budget budget.Decision
}

// Run builds the message list for the request — system prompt, as much
// recent history as the model's context window allows, then the new
// prompt — and starts the completion.
func (s *Service) Run(ctx context.Context, req Request) (Result, error) {
	provider, ok := s.providers[req.Provider]
	if !ok {
		return Result{}, fmt.Errorf("unknown provider %q", req.Provider)
	}

	var history []HistoryMessage
	if s.history != nil && req.HistoryLimit > 0 && req.Conversation != "" {
		recent, err := s.history.Recent(ctx, req.Conversation, req.HistoryLimit)
		if err != nil {
			return Result{}, fmt.Errorf("load history: %w", err)
		}
		history = recent
	}

	decision := s.budget.MaxMessages(provider.Model, s.fullText(req, history), len(history))
	if decision.Truncated && decision.Allowed < len(history) {
		history = history[len(history)-decision.Allowed:]
	}

	messages := make([]domain.Message, 0, len(history)+2)
	if req.SystemPrompt != "" {
		messages = append(messages, domain.Message{Role: domain.RoleSystem, Content: req.SystemPrompt})
	}
	for _, m := range history {
		role := domain.RoleUser
		if m.Author == s.assistantName {
			role = domain.RoleAssistant
		}
		messages = append(messages, domain.Message{Role: role, Content: m.Content})
	}
	messages = append(messages, domain.Message{Role: domain.RoleUser, Content: req.Prompt})

	var events <-chan llm.StreamEvent
	if req.Streaming {
		events = provider.Client.Stream(ctx, messages)
	} else {
		events = provider.Client.Complete(ctx, messages)
	}
	return Result{Events: events, Budget: decision}, nil
}

// Models lists the models advertised by a configured provider.
func (s *Service) Models(ctx context.Context, providerName string) ([]domain.ModelInfo, error) {
	provider, ok := s.providers[providerName]
	if !ok {
		return nil, fmt.Errorf("unknown provider %q", providerName)
	}
	return provider.Client.FetchModels(ctx)
}

// fullText joins everything that would be sent for budgeting purposes.
func (s *Service) fullText(req Request, history []HistoryMessage) string {
	var b strings.Builder
	if req.SystemPrompt != "" {
		b.WriteString(req.SystemPrompt)
		b.WriteByte('\n')
	}
	for _, m := range history {
		b.WriteString(m.Content)
		b.WriteByte('\n')
	}
	b.WriteString(req.Prompt)
	return b.String()
}
