package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"ai-manuscript-be/internal/constant"
	"ai-manuscript-be/pkg/chatbot"
)

// contentClient is the slice of the Gemini client the gateway needs.
type contentClient interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
	GenerateStructured(ctx context.Context, prompt string, schema *chatbot.GeminiSchema) ([]byte, error)
}

// geminiGateway implements Gateway against the Gemini REST API.
type geminiGateway struct {
	client contentClient
}

func NewGeminiGateway(client *chatbot.Client) Gateway {
	return &geminiGateway{client: client}
}

var genresSchema = &chatbot.GeminiSchema{
	Type:  "ARRAY",
	Items: &chatbot.GeminiSchema{Type: "STRING"},
}

var summarySchema = &chatbot.GeminiSchema{
	Type: "OBJECT",
	Properties: map[string]*chatbot.GeminiSchema{
		"found":               {Type: "BOOLEAN"},
		"title":               {Type: "STRING", Nullable: true},
		"summary":             {Type: "STRING", Nullable: true},
		"clarificationNeeded": {Type: "STRING", Nullable: true},
	},
}

func (g *geminiGateway) Analyze(ctx context.Context, manuscript, question string) (string, error) {
	prompt := fmt.Sprintf(constant.AnalyzePromptV1, manuscript, question)
	return g.client.GenerateContent(ctx, prompt)
}

func (g *geminiGateway) GenerateGenresAndTags(ctx context.Context, manuscript string) ([]string, error) {
	prompt := fmt.Sprintf(constant.GenresPromptV1, manuscript)

	raw, err := g.client.GenerateStructured(ctx, prompt, genresSchema)
	if err != nil {
		return nil, err
	}

	var genres []string
	if err := json.Unmarshal(raw, &genres); err != nil {
		// Schema violation from the model. Keep the picker flow alive
		// with an empty list instead of failing the whole interaction.
		return []string{}, nil
	}
	return genres, nil
}

func (g *geminiGateway) GenerateChapterSummary(ctx context.Context, manuscript, description string) (*SummaryResult, error) {
	prompt := fmt.Sprintf(constant.ChapterSummaryPromptV1, manuscript, description)

	raw, err := g.client.GenerateStructured(ctx, prompt, summarySchema)
	if err != nil {
		return nil, err
	}

	var result SummaryResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("parse error: %w | raw: %s", err, string(raw))
	}
	if result.Found && (result.Title == "" || result.Summary == "") {
		return nil, fmt.Errorf("summary response marked found without title or summary: %s", string(raw))
	}
	return &result, nil
}

func (g *geminiGateway) GenerateAnnotation(ctx context.Context, manuscript, priorAnnotation, feedback string) (string, error) {
	var prompt string
	if feedback == "" {
		prompt = fmt.Sprintf(constant.AnnotationPromptV1, manuscript)
	} else {
		prompt = fmt.Sprintf(constant.AnnotationRefinePromptV1, manuscript, priorAnnotation, feedback)
	}
	return g.client.GenerateContent(ctx, prompt)
}
