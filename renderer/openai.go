package renderer

import (
	"context"

	openai "github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	asierrors "github.com/cognilex/asi/internal/errors"
	"github.com/cognilex/asi/internal/profile"
	"github.com/cognilex/asi/scaffold"
)

const systemPrompt = "You are a precise writer. Follow the coverage and prohibition instructions exactly."

// OpenAIRenderer renders scaffolding through an OpenAI-compatible chat API.
type OpenAIRenderer struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
}

// NewOpenAIRenderer creates a renderer from the profile. Requests are rate
// limited client-side to the configured requests-per-second.
func NewOpenAIRenderer(p *profile.Profile) (*OpenAIRenderer, error) {
	if !p.IsRendererEnabled() {
		return nil, asierrors.RendererUnavailable("no renderer API key configured")
	}

	clientConfig := openai.DefaultConfig(p.RendererAPIKey)
	if p.RendererBaseURL != "" {
		clientConfig.BaseURL = p.RendererBaseURL
	}

	rps := p.RendererRPS
	if rps <= 0 {
		rps = 1
	}

	return &OpenAIRenderer{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   p.RendererModel,
		limiter: rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

// Render implements Renderer.
func (r *OpenAIRenderer) Render(ctx context.Context, sc *scaffold.Scaffolding) (string, error) {
	if err := r.limiter.Wait(ctx); err != nil {
		return "", err
	}

	resp, err := r.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildPrompt(sc)},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", asierrors.RendererUnavailable("empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}
