package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// Agent produces bot replies with a Gemini model, keeping one chat per
// session in memory.
type Agent struct {
	client            *genai.Client
	model             string
	systemInstruction string

	mu    sync.Mutex
	chats map[string]*genai.Chat
}

func New(client *genai.Client, model string, systemInstruction string) *Agent {
	return &Agent{
		client:            client,
		model:             model,
		systemInstruction: systemInstruction,
		chats:             make(map[string]*genai.Chat),
	}
}

func (a *Agent) getChat(ctx context.Context, sessionID string) (*genai.Chat, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if chat, ok := a.chats[sessionID]; ok {
		return chat, nil
	}

	var cfg *genai.GenerateContentConfig
	if a.systemInstruction != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: &genai.Content{
				Parts: []*genai.Part{{Text: a.systemInstruction}},
			},
		}
	}

	chat, err := a.client.Chats.Create(ctx, a.model, cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("agent: create chat: %w", err)
	}

	a.chats[sessionID] = chat
	return chat, nil
}

// Reply sends prompt in the session's chat and returns the model's text.
func (a *Agent) Reply(ctx context.Context, sessionID string, prompt string) (string, error) {
	if a.client == nil {
		return "", errors.New("agent: client is required")
	}

	chat, err := a.getChat(ctx, sessionID)
	if err != nil {
		return "", err
	}

	resp, err := chat.SendMessage(ctx, genai.Part{Text: prompt})
	if err != nil {
		return "", fmt.Errorf("agent: send message: %w", err)
	}

	return responseText(resp)
}

// Reset drops the session's chat; the next Reply starts a new one.
func (a *Agent) Reset(sessionID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.chats, sessionID)
}

// responseText joins the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", errors.New("agent: empty response")
	}

	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}

		var sb strings.Builder
		for _, part := range candidate.Content.Parts {
			if part == nil || part.Thought {
				continue
			}
			sb.WriteString(part.Text)
		}

		return sb.String(), nil
	}

	return "", errors.New("agent: response has no candidates")
}
