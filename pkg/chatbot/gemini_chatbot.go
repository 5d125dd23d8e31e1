package chatbot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// Minimal Gemini REST client. We talk to generativelanguage.googleapis.com
// directly instead of pulling the full SDK: two request shapes cover
// everything the assistant needs.

type GeminiChatParts struct {
	Text string `json:"text"`
}

type GeminiChatContent struct {
	Parts []*GeminiChatParts `json:"parts"`
	Role  string             `json:"role"`
}

// GeminiSchema is the subset of the responseSchema grammar we use:
// strings, arrays of strings and flat objects.
type GeminiSchema struct {
	Type       string                   `json:"type"`
	Items      *GeminiSchema            `json:"items,omitempty"`
	Properties map[string]*GeminiSchema `json:"properties,omitempty"`
	Nullable   bool                     `json:"nullable,omitempty"`
}

type GeminiGenerationConfig struct {
	ResponseMimeType string        `json:"responseMimeType,omitempty"`
	ResponseSchema   *GeminiSchema `json:"responseSchema,omitempty"`
}

type GeminiChatRequest struct {
	Contents         []*GeminiChatContent    `json:"contents"`
	GenerationConfig *GeminiGenerationConfig `json:"generationConfig,omitempty"`
}

type GeminiChatCandidate struct {
	Content *GeminiChatContent `json:"content"`
}

type GeminiChatResponse struct {
	Candidates []*GeminiChatCandidate `json:"candidates"`
}

const (
	ChatMessageRoleUser  = "user"
	ChatMessageRoleModel = "model"

	generateContentURL = "https://generativelanguage.googleapis.com/v1beta/models/%s:generateContent"
)

// Client calls the Gemini generateContent endpoint with a fixed model.
type Client struct {
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
	}
}

// GenerateContent sends a single user prompt and returns the model text.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (string, error) {
	payload := GeminiChatRequest{
		Contents: []*GeminiChatContent{
			{
				Parts: []*GeminiChatParts{{Text: prompt}},
				Role:  ChatMessageRoleUser,
			},
		},
	}
	return c.call(ctx, payload)
}

// GenerateStructured sends a prompt with a JSON responseSchema and returns
// the raw JSON bytes, cleaned of any markdown code fence the model wraps
// around them.
func (c *Client) GenerateStructured(ctx context.Context, prompt string, schema *GeminiSchema) ([]byte, error) {
	payload := GeminiChatRequest{
		Contents: []*GeminiChatContent{
			{
				Parts: []*GeminiChatParts{{Text: prompt}},
				Role:  ChatMessageRoleUser,
			},
		},
		GenerationConfig: &GeminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		},
	}

	text, err := c.call(ctx, payload)
	if err != nil {
		return nil, err
	}
	return TrimCodeFence([]byte(text)), nil
}

func (c *Client) call(ctx context.Context, payload GeminiChatRequest) (string, error) {
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(
		ctx,
		"POST",
		fmt.Sprintf(generateContentURL, c.model),
		bytes.NewBuffer(payloadJson),
	)
	if err != nil {
		return "", err
	}

	req.Header.Set("x-goog-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return "", err
	}

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf(
			"status error, got status %d. with response body %s",
			res.StatusCode,
			string(resBody),
		)
	}

	var geminiRes GeminiChatResponse
	err = json.Unmarshal(resBody, &geminiRes)
	if err != nil {
		return "", err
	}

	if len(geminiRes.Candidates) == 0 ||
		geminiRes.Candidates[0].Content == nil ||
		len(geminiRes.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty candidates in response body %s", string(resBody))
	}

	return geminiRes.Candidates[0].Content.Parts[0].Text, nil
}

// TrimCodeFence strips a ```json ... ``` wrapper the model sometimes adds
// even in JSON mode.
func TrimCodeFence(raw []byte) []byte {
	raw = bytes.TrimSpace(raw)
	raw = bytes.TrimPrefix(raw, []byte("```json"))
	raw = bytes.TrimPrefix(raw, []byte("```"))
	raw = bytes.TrimSuffix(raw, []byte("```"))
	return bytes.TrimSpace(raw)
}
