package service

import (
	"context"
	"fmt"
	"strings"

	"formpilot/internal/config"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// Sentinel answers returned in place of errors
const (
	NoAnswerGenerated    = "No answer generated"
	AnswerGenerationFail = "Error generating answer"
)

// DefaultAnswerContext frames the prompt when the caller gives none
const DefaultAnswerContext = "You are filling out a survey as an ordinary respondent."

// contentGenerator is the part of the genai client used here
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// AnswerService writes short free-text answers via Gemini
type AnswerService struct {
	config  *config.AIConfig
	models  contentGenerator
	context string
	logger  *zap.Logger
}

// NewAnswerService creates the answer generator. Without an API key every
// call returns NoAnswerGenerated.
func NewAnswerService(ctx context.Context, cfg *config.AIConfig, logger *zap.Logger) (*AnswerService, error) {
	s := &AnswerService{
		config:  cfg,
		context: DefaultAnswerContext,
		logger:  logger.Named("answers"),
	}
	if !cfg.IsEnabled() {
		s.logger.Warn("GEMINI_API_KEY not set, free-text generation disabled")
		return s, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	s.models = client.Models
	return s, nil
}

// SetContext changes the respondent description sent with every prompt
func (s *AnswerService) SetContext(c string) {
	if strings.TrimSpace(c) != "" {
		s.context = c
	}
}

// Generate answers one question title in one or two sentences
func (s *AnswerService) Generate(ctx context.Context, questionTitle string) string {
	if s.models == nil {
		return NoAnswerGenerated
	}

	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		genai.NewContentFromText(BuildAnswerPrompt(s.context, questionTitle), genai.RoleUser),
	}
	var genCfg *genai.GenerateContentConfig
	if s.config.Temperature > 0 {
		genCfg = &genai.GenerateContentConfig{Temperature: genai.Ptr(s.config.Temperature)}
	}

	resp, err := s.models.GenerateContent(ctx, s.config.Model, contents, genCfg)
	if err != nil {
		s.logger.Warn("answer generation failed", zap.String("question", questionTitle), zap.Error(err))
		return AnswerGenerationFail
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return NoAnswerGenerated
	}
	return text
}

// BuildAnswerPrompt renders the prompt for one question
func BuildAnswerPrompt(respondent, questionTitle string) string {
	return fmt.Sprintf("Context: %s\nQuestion: \"%s\"\n\nProvide a natural, human-like short answer (1-2 sentences) to this question. Do not start with \"Answer:\" or quotes.",
		respondent, questionTitle)
}
