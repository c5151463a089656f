package classify

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/bancoagil/atendimento/agent/contract"
	promptx "github.com/bancoagil/atendimento/agent/prompt"
)

// Extractor pulls CPF and birthdate out of free text through a structured
// prompt -> model -> JSON parse graph.
type Extractor struct {
	runner compose.Runnable[map[string]any, extractorLLMOutput]
}

type extractorLLMOutput struct {
	CPF       string `json:"cpf"`
	Birthdate string `json:"birthdate"`
}

func NewExtractor(ctx context.Context, chatModel einomodel.BaseChatModel) (*Extractor, error) {
	runner, err := compileExtractorGraph(ctx, chatModel, promptx.LoadPromptSet().Extractor)
	if err != nil {
		return nil, fmt.Errorf("%w: compile extractor graph: %v", contractx.ErrExternalService, err)
	}
	return &Extractor{runner: runner}, nil
}

func (e *Extractor) Extract(ctx context.Context, text string) (contractx.Credentials, error) {
	if strings.TrimSpace(text) == "" {
		return contractx.Credentials{}, nil
	}

	out, err := e.runner.Invoke(ctx, map[string]any{"input": text})
	if err != nil {
		return contractx.Credentials{}, fmt.Errorf("%w: extract credentials: %v", contractx.ErrExternalService, err)
	}
	return contractx.Credentials{
		CPF:       strings.TrimSpace(out.CPF),
		Birthdate: strings.TrimSpace(out.Birthdate),
	}, nil
}

func compileExtractorGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
) (compose.Runnable[map[string]any, extractorLLMOutput], error) {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)

	parser := schema.NewMessageJSONParser[extractorLLMOutput](&schema.MessageJSONParseConfig{
		ParseFrom: schema.MessageParseFromContent,
	})

	graph := compose.NewGraph[map[string]any, extractorLLMOutput]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add extractor prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add extractor model node: %w", err)
	}
	if err := graph.AddLambdaNode("parse_json", compose.MessageParser(parser)); err != nil {
		return nil, fmt.Errorf("add extractor parser node: %w", err)
	}

	edges := [][2]string{
		{compose.START, "prompt"},
		{"prompt", "model"},
		{"model", "parse_json"},
		{"parse_json", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add extractor edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("triage.credential_extractor"))
	if err != nil {
		return nil, fmt.Errorf("compile extractor graph: %w", err)
	}
	return runner, nil
}
