package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"ElectionWatcher/internal/config"
	"ElectionWatcher/internal/ports"
)

// Translator localizes district names through an OpenAI-compatible chat API.
type Translator struct {
	endpoint     string
	model        string
	apiKey       string
	language     string
	replacements map[string]string
	client       *resty.Client
}

var _ ports.Translator = (*Translator)(nil)

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// NewTranslator builds a client from configuration.
func NewTranslator(cfg config.TranslatorConfig) *Translator {
	client := resty.New()
	client.SetTimeout(20 * time.Second)
	return &Translator{
		endpoint:     cfg.Endpoint,
		model:        cfg.Model,
		apiKey:       cfg.APIKey,
		language:     cfg.Language,
		replacements: cfg.Replacements,
		client:       client,
	}
}

// Translate returns text rendered in the configured language.
func (t *Translator) Translate(ctx context.Context, text string) (string, error) {
	if t == nil {
		return "", fmt.Errorf("translator is nil")
	}
	if t.apiKey == "" || t.endpoint == "" || t.model == "" {
		return "", fmt.Errorf("translator misconfigured")
	}

	var out chatResponse
	res, err := t.client.R().
		SetContext(ctx).
		SetAuthToken(t.apiKey).
		SetBody(chatRequest{
			Model: t.model,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt(t.language)},
				{Role: "user", Content: text},
			},
		}).
		SetResult(&out).
		Post(t.endpoint)
	if err != nil {
		return "", fmt.Errorf("send translation: %w", err)
	}

	if res.StatusCode() >= 400 {
		return "", fmt.Errorf("translation error %s: %s", res.Status(), strings.TrimSpace(res.String()))
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("translation returned no choices")
	}

	translated := strings.TrimSpace(out.Choices[0].Message.Content)
	if translated == "" {
		return "", fmt.Errorf("translation returned empty text")
	}
	for from, to := range t.replacements {
		translated = strings.ReplaceAll(translated, from, to)
	}
	return translated, nil
}

func systemPrompt(language string) string {
	language = strings.TrimSpace(language)
	if language == "" {
		language = "Sinhala"
	}
	return fmt.Sprintf("Translate the Sri Lankan electoral district or division name to %s. Reply with the name only.", language)
}
