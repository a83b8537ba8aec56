// Package routing wraps the chat-completions client with the fixed
// request shape of the experiment and a typed per-prompt error, so the
// runner can skip failed prompts without caring about the transport.
package routing

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"

	"github.com/routerlab/routerbench/internal/model"
	"github.com/routerlab/routerbench/pkg/azureopenai"
)

const systemPrompt = "You are a helpful assistant."

// Sampling parameters are fixed for the whole experiment so that the
// only variable between profile runs is the routing profile itself.
var (
	temperature      = 0.7
	topP             = 0.95
	frequencyPenalty = 0.0
	presencePenalty  = 0.0
)

const maxTokens = 8192

// CallError is a failed routing call. It carries the identifier of the
// prompt that triggered it; the runner logs it and moves on, never
// retrying the prompt.
type CallError struct {
	PromptID int
	Cause    error
}

func (e *CallError) Error() string {
	return fmt.Sprintf("routing: prompt %d: %v", e.PromptID, e.Cause)
}

func (e *CallError) Unwrap() error {
	return e.Cause
}

// Router issues routing calls for a single profile. The profile is a
// construction parameter even though the remote deployment decides the
// actual routing: binding it here keeps every result record tagged with
// the profile that produced it.
type Router struct {
	client  azureopenai.Client
	profile string
}

// New creates a Router bound to one profile.
func New(client azureopenai.Client, profile string) *Router {
	return &Router{client: client, profile: profile}
}

// Profile returns the profile this router is bound to.
func (r *Router) Profile() string {
	return r.profile
}

// Route sends one prompt through the router deployment. Exactly one
// request is made; any transport error, non-2xx status, or empty choice
// list comes back as a *CallError.
func (r *Router) Route(ctx context.Context, rec model.PromptRecord) (*model.RoutedResponse, error) {
	resp, err := r.client.ChatCompletion(ctx, azureopenai.ChatCompletionRequest{
		Messages: []azureopenai.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: rec.Text},
		},
		MaxTokens:        maxTokens,
		Temperature:      &temperature,
		TopP:             &topP,
		FrequencyPenalty: &frequencyPenalty,
		PresencePenalty:  &presencePenalty,
	})
	if err != nil {
		return nil, &CallError{PromptID: rec.ID, Cause: err}
	}

	if len(resp.Choices) == 0 {
		return nil, &CallError{PromptID: rec.ID, Cause: eris.New("empty response choices")}
	}

	return &model.RoutedResponse{
		Model: resp.Model,
		Text:  resp.Choices[0].Message.Content,
	}, nil
}
