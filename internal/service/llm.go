package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

// Sentinel errors translated to HTTP statuses at the API boundary.
var (
	// ErrMissingAPIKey means the Gemini credential is not configured.
	ErrMissingAPIKey = errors.New("GEMINI_API_KEY or GEMINI_API_KEY_FILE must be set")
	// ErrRateLimited means the upstream capability rejected the call
	// with a rate-limit or quota response.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// CapabilityClient is the narrow surface of the external AI service:
// free-form text in, free-form text out, optionally with an image.
type CapabilityClient interface {
	UnderstandText(ctx context.Context, prompt string) (string, error)
	UnderstandImage(ctx context.Context, image []byte, mimeType, prompt string) (string, error)
}

const defaultGeminiModel = "gemini-1.5-flash"

// GeminiService calls the Gemini generateContent REST API.
type GeminiService struct {
	apiURL string
	model  string
	client *http.Client
}

// NewGeminiService creates a client with a bounded per-call timeout.
// The API key is resolved on every call, not here, so a missing
// credential surfaces as a request-time error rather than a startup
// crash.
func NewGeminiService() *GeminiService {
	apiURL := os.Getenv("GEMINI_API_URL")
	if apiURL == "" {
		apiURL = "https://generativelanguage.googleapis.com/v1beta/models"
	}

	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = defaultGeminiModel
	}

	return &GeminiService{
		apiURL: apiURL,
		model:  model,
		client: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// geminiPart is one piece of a request turn: text or inline media.
type geminiPart struct {
	Text       string            `json:"text,omitempty"`
	InlineData *geminiInlineData `json:"inline_data,omitempty"`
}

type geminiInlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiRequest struct {
	Contents         []geminiContent `json:"contents"`
	GenerationConfig map[string]any  `json:"generationConfig"`
}

// UnderstandText sends a text prompt and returns the model's raw reply.
func (s *GeminiService) UnderstandText(ctx context.Context, prompt string) (string, error) {
	return s.generate(ctx, []geminiPart{{Text: prompt}})
}

// UnderstandImage sends a prompt together with inline image bytes.
func (s *GeminiService) UnderstandImage(ctx context.Context, image []byte, mimeType, prompt string) (string, error) {
	parts := []geminiPart{
		{Text: prompt},
		{InlineData: &geminiInlineData{
			MimeType: mimeType,
			Data:     base64.StdEncoding.EncodeToString(image),
		}},
	}
	return s.generate(ctx, parts)
}

func (s *GeminiService) generate(ctx context.Context, parts []geminiPart) (string, error) {
	apiKey, err := resolveAPIKey()
	if err != nil {
		return "", err
	}

	reqBody := geminiRequest{
		Contents: []geminiContent{{Parts: parts}},
		GenerationConfig: map[string]any{
			"temperature":     0.2,
			"maxOutputTokens": 2048,
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/%s:generateContent?key=%s", s.apiURL, s.model, apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", fmt.Errorf("%w: %s", ErrRateLimited, strings.TrimSpace(string(body)))
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("[GeminiService] API request failed with status %d: %s", resp.StatusCode, string(body))
		return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no response from API")
	}

	return result.Candidates[0].Content.Parts[0].Text, nil
}

// resolveAPIKey reads the credential from the environment or from the
// file named by GEMINI_API_KEY_FILE. Checked on every call so each
// request independently observes the current configuration.
func resolveAPIKey() (string, error) {
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		return key, nil
	}

	keyFile := os.Getenv("GEMINI_API_KEY_FILE")
	if keyFile == "" {
		return "", ErrMissingAPIKey
	}

	keyBytes, err := os.ReadFile(keyFile)
	if err != nil {
		return "", fmt.Errorf("failed to read API key file: %w", err)
	}

	key := strings.TrimSpace(string(keyBytes))
	if key == "" {
		return "", ErrMissingAPIKey
	}
	return key, nil
}
