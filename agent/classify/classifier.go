// Package classify implements the LLM-backed intent classifier and the
// credential extractor behind the contract interfaces. Agents depend only on
// those interfaces, so tests swap in deterministic stubs.
package classify

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go"
	"github.com/rs/zerolog/log"

	contractx "github.com/bancoagil/atendimento/agent/contract"
	promptx "github.com/bancoagil/atendimento/agent/prompt"
)

// historyWindow caps how much conversation context goes to the model.
const historyWindow = 10

// Classifier asks the chat model for exactly one label out of a fixed set.
type Classifier struct {
	client *openaisdk.Client
	model  string
	prompt string
}

func NewClassifier(client *openaisdk.Client, model string) (*Classifier, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: nil llm client", contractx.ErrValidation)
	}
	model = strings.TrimSpace(model)
	if model == "" {
		return nil, fmt.Errorf("%w: classifier model is required", contractx.ErrValidation)
	}
	return &Classifier{
		client: client,
		model:  model,
		prompt: promptx.LoadPromptSet().Classifier,
	}, nil
}

// Classify returns one of labels, or "outros" when the model answers with
// anything outside the set. Transport failures return an error; callers fall
// back to the default label.
func (c *Classifier) Classify(ctx context.Context, text string, history []contractx.Message, labels []string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return contractx.IntentOther, nil
	}

	system := strings.Replace(c.prompt, "{labels}", strings.Join(labels, ", "), 1)

	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(history)+2)
	messages = append(messages, openaisdk.SystemMessage(system))
	for _, msg := range tail(history, historyWindow) {
		switch msg.Role {
		case "assistant":
			messages = append(messages, openaisdk.AssistantMessage(msg.Text))
		default:
			messages = append(messages, openaisdk.UserMessage(msg.Text))
		}
	}
	messages = append(messages, openaisdk.UserMessage(text))

	resp, err := c.client.Chat.Completions.New(ctx, openaisdk.ChatCompletionNewParams{
		Model:    openaisdk.ChatModel(c.model),
		Messages: messages,
	})
	if err != nil {
		return "", fmt.Errorf("%w: classify: %v", contractx.ErrExternalService, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: classify returned no choices", contractx.ErrExternalService)
	}

	answer := strings.ToLower(strings.TrimSpace(resp.Choices[0].Message.Content))
	for _, label := range labels {
		if strings.Contains(answer, label) {
			return label, nil
		}
	}
	log.Debug().Str("answer", answer).Msg("classifier answered outside label set")
	return contractx.IntentOther, nil
}

func tail(history []contractx.Message, n int) []contractx.Message {
	if len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}
