package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"

	"github.com/aurahq/aura/internal/models"
)

const instructionBlock = `You are an internal knowledge assistant.
Only answer using the provided context.
If the answer is not in the context, return:
{"answer": null, "reason": "insufficient_context"}
Always cite document IDs.
Return JSON only with this schema:
{"answer": "...", "citations": ["document_id"], "confidence": 0.0-1.0}`

// GeneratorConfig represents the configuration for the generation engine.
type GeneratorConfig struct {
	Model           string
	BaseURL         string
	MaxOutputTokens int
	Temperature     float64
}

// Generator asks the language model to answer a question from an assembled
// context and normalizes whatever comes back into a well-shaped Answer.
type Generator struct {
	config GeneratorConfig
	model  llms.Model
	log    *slog.Logger
}

// NewGeneratorWithConfig creates a Generator backed by an Ollama-compatible
// chat endpoint.
func NewGeneratorWithConfig(config GeneratorConfig) (*Generator, error) {
	if config.Model == "" {
		config.Model = "mistral"
	}
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:11434"
	}

	model, err := ollama.New(
		ollama.WithModel(config.Model),
		ollama.WithServerURL(config.BaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize generation model: %w", err)
	}

	return NewGeneratorWithModel(config, model), nil
}

// NewGeneratorWithModel wires a Generator over an already-constructed model.
func NewGeneratorWithModel(config GeneratorConfig, model llms.Model) *Generator {
	if config.MaxOutputTokens == 0 {
		config.MaxOutputTokens = 500
	}
	if config.Temperature == 0 {
		config.Temperature = 0.1
	}

	return &Generator{
		config: config,
		model:  model,
		log:    slog.Default().With("component", "generator"),
	}
}

// Generate builds the prompt, calls the model and returns the normalized
// answer. Malformed model output never produces an error, only transport
// failures do.
func (g *Generator) Generate(ctx context.Context, contextStr, question string) (models.Answer, error) {
	// Some target models have no system-role channel, so the instruction
	// block is merged into the single user message.
	prompt := instructionBlock + "\n\n" + buildUserPrompt(contextStr, question)

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	resp, err := g.model.GenerateContent(ctx, content,
		llms.WithMaxTokens(g.config.MaxOutputTokens),
		llms.WithTemperature(g.config.Temperature),
	)
	if err != nil {
		return models.Answer{}, classifyProviderErr("generate", err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return models.Answer{}, fmt.Errorf("generate: empty response from model")
	}

	raw := resp.Choices[0].Content
	g.log.Debug("model output received", "output_len", len(raw))

	return ParseAnswer(raw), nil
}

func buildUserPrompt(contextStr, question string) string {
	return fmt.Sprintf(`Context:
%s

---

Question: %s

Instructions:
- Answer ONLY using the context above.
- Cite the Document IDs used.
- If the context does not contain the answer, return: {"answer": null, "reason": "insufficient_context"}
- Return valid JSON only.`, contextStr, question)
}

// ParseAnswer turns untrusted model output into a fully-defaulted Answer.
// Code-fence lines are stripped before parsing; if the remainder still is
// not valid JSON the raw text becomes the answer with zero confidence.
// Missing keys default rather than fail. Pure function.
func ParseAnswer(raw string) models.Answer {
	cleaned := stripFences(raw)

	var decoded map[string]any
	if err := json.Unmarshal([]byte(cleaned), &decoded); err != nil {
		fallback := raw
		return models.Answer{
			Answer:     &fallback,
			Citations:  []string{},
			Confidence: 0.0,
			Reason:     nil,
		}
	}

	return normalizeAnswer(decoded)
}

// stripFences removes lines that are pure markdown fence delimiters, e.g. a
// leading "```json" and a trailing "```".
func stripFences(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}

	var kept []string
	for _, line := range strings.Split(cleaned, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "```") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// normalizeAnswer reads the decoded JSON with per-field defaults so a model
// that omits keys still yields a well-shaped Answer.
func normalizeAnswer(decoded map[string]any) models.Answer {
	answer := models.Answer{
		Citations:  []string{},
		Confidence: 0.0,
	}

	if v, ok := decoded["answer"].(string); ok {
		answer.Answer = &v
	}
	if list, ok := decoded["citations"].([]any); ok {
		for _, item := range list {
			if s, ok := item.(string); ok {
				answer.Citations = append(answer.Citations, s)
			}
		}
	}
	if v, ok := decoded["confidence"].(float64); ok {
		answer.Confidence = v
	}
	if v, ok := decoded["reason"].(string); ok {
		answer.Reason = &v
	}

	return answer
}
