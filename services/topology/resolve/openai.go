// Copyright (C) 2025 AppLens AI (eng@applens.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package resolve

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/sashabaranov/go-openai"
)

const originSystemPrompt = "You map log excerpts to the microservice the error " +
	"originated in. Answer with exactly one service id from the candidate list, " +
	"nothing else. If none fits, answer NONE."

// OpenAIResolver asks a chat model to pick the origin service out of the
// snapshot's candidate list. Every answer is validated against the
// lexical index, and any failure (transport, empty answer, id not in
// the snapshot) falls back to the index, so the engine's behavior stays
// well defined with or without a reachable model.
type OpenAIResolver struct {
	client *openai.Client
	model  string
	index  *IndexResolver
}

// NewOpenAIResolver reads OPENAI_API_KEY from the environment or the
// container secret mount, mirroring the rest of the platform.
func NewOpenAIResolver(index *IndexResolver) (*OpenAIResolver, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	model := os.Getenv("OPENAI_MODEL")
	if apiKey == "" {
		secretPath := "/run/secrets/openai_api_key"
		apiKeyBytes, err := os.ReadFile(secretPath)
		if err != nil {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
		apiKey = strings.TrimSpace(string(apiKeyBytes))
		slog.Info("Read the OpenAI API Key from container secrets")
	}
	if model == "" {
		model = "gpt-4o-mini"
		slog.Warn("OPENAI_MODEL not set, defaulting to gpt-4o-mini")
	}
	return &OpenAIResolver{
		client: openai.NewClient(apiKey),
		model:  model,
		index:  index,
	}, nil
}

// Resolve asks the model to name the origin service; the lexical index
// answers whenever the model cannot.
func (r *OpenAIResolver) Resolve(ctx context.Context, text string) (string, error) {
	candidates := r.index.IDs()
	if len(candidates) == 0 {
		return "", ErrNoMatch
	}

	prompt := fmt.Sprintf("Candidate services:\n%s\n\nLog excerpt:\n%s",
		strings.Join(candidates, "\n"), text)
	req := openai.ChatCompletionRequest{
		Model:       r.model,
		Temperature: 0,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: originSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	}

	resp, err := r.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Warn("OpenAI origin resolution failed, falling back to lexical index", "error", err)
		return r.index.Resolve(ctx, text)
	}
	if len(resp.Choices) == 0 {
		slog.Warn("OpenAI returned no choices, falling back to lexical index")
		return r.index.Resolve(ctx, text)
	}

	answer := strings.ToLower(strings.TrimSpace(resp.Choices[0].Message.Content))
	if answer == "" || answer == "none" {
		return r.index.Resolve(ctx, text)
	}

	// The model only gets a vote, not authority: its answer must name a
	// real snapshot id.
	if id, err := r.index.Resolve(ctx, answer); err == nil {
		return id, nil
	}
	slog.Warn("OpenAI answer not in snapshot, falling back to lexical index", "answer", answer)
	return r.index.Resolve(ctx, text)
}
