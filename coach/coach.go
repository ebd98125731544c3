// Package coach wraps the hosted generative-language provider behind a
// single-shot prompt-in/text-out interface. The provider being absent or
// failing never fails a request: callers always get usable text back.
package coach

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"

	"callreview/auth"
	"callreview/call"
)

const (
	defaultModel    = shared.ResponsesModel("gpt-4o-mini")
	providerTimeout = 30 * time.Second

	systemPrompt = "You are an experienced sales coach. Answer in plain, supportive prose."

	// notConfiguredReply is returned whenever no provider credential is
	// available; the rest of the product keeps working without the AI
	// feature.
	notConfiguredReply = "Sorry, the AI chatbot is not configured. Please contact your administrator to set up the API key."
)

// Generator is the single-shot provider call the assistant depends on.
type Generator interface {
	Generate(ctx context.Context, system, user string) (string, error)
}

// Reply is the assistant's answer. Degraded marks advisory/apology text
// produced instead of a real model reply, so callers can expose the
// distinction without breaking the always-200 chat contract.
type Reply struct {
	Text     string
	Degraded bool
}

// Assistant builds coaching prompts and forwards them to the provider.
type Assistant struct {
	generator Generator
}

// NewAssistant constructs an assistant backed by the OpenAI Responses API.
// An empty API key yields an unconfigured assistant that still answers
// every request with the fixed advisory reply.
func NewAssistant(apiKey string) *Assistant {
	if apiKey == "" {
		return &Assistant{}
	}
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &Assistant{generator: &openAIGenerator{client: &client, model: defaultModel}}
}

// NewAssistantWithGenerator wires a custom generator, used by tests.
func NewAssistantWithGenerator(g Generator) *Assistant {
	return &Assistant{generator: g}
}

// Configured reports whether a provider credential was supplied.
func (a *Assistant) Configured() bool {
	return a.generator != nil
}

// ChatAboutCall answers a question about one specific call.
func (a *Assistant) ChatAboutCall(ctx context.Context, message string, record call.CallAnalysis) Reply {
	return a.generate(ctx, buildCallPrompt(message, record))
}

// GeneralChat answers a sales-practice question with no call context. The
// framing varies by role.
func (a *Assistant) GeneralChat(ctx context.Context, message string, role auth.Role) Reply {
	roleContext := "sales representative"
	if role == auth.RoleManager {
		roleContext = "sales manager"
	}
	return a.generate(ctx, buildGeneralPrompt(message, roleContext))
}

func (a *Assistant) generate(ctx context.Context, prompt string) Reply {
	if !a.Configured() {
		return Reply{Text: notConfiguredReply, Degraded: true}
	}

	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()

	text, err := a.generator.Generate(ctx, systemPrompt, prompt)
	if err != nil {
		return Reply{
			Text:     fmt.Sprintf("Sorry, I encountered an error while processing your question: %v", err),
			Degraded: true,
		}
	}

	return Reply{Text: text}
}

// openAIGenerator is the real provider binding.
type openAIGenerator struct {
	client *openai.Client
	model  shared.ResponsesModel
}

func (g *openAIGenerator) Generate(ctx context.Context, system, user string) (string, error) {
	resp, err := g.client.Responses.New(ctx, responses.ResponseNewParams{
		Model: g.model,
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(system, responses.EasyInputMessageRoleSystem),
				responses.ResponseInputItemParamOfMessage(user, responses.EasyInputMessageRoleUser),
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("call provider: %w", err)
	}

	output := strings.TrimSpace(resp.OutputText())
	if output == "" {
		return "", errors.New("model returned an empty response")
	}

	return output, nil
}
