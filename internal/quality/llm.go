package quality

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/spiffcs/claimwatch/internal/model"
)

const analyzerSystemPrompt = `You are a helpful assistant that evaluates open-source contributors to help maintainers judge whether an assigned issue is at risk of being abandoned.
Respond with a JSON object containing:
- commentQuality: 0-10, how substantive and helpful the contributor's comments are
- behavioralConsistency: 0-10, how consistent their activity pattern is
- engagementAuthenticity: 0-10, how genuine their engagement appears (not drive-by claiming)
- claimRisk: 0-10, the risk that they claim work and abandon it (higher = riskier)
- tags: array of short descriptive tags (e.g. "responsive", "ghost", "newcomer")

Respond ONLY with the JSON object, no other text.`

// LLMAnalyzer implements Analyzer against the Anthropic API.
type LLMAnalyzer struct {
	client anthropic.Client
}

// NewLLMAnalyzer creates an Anthropic-backed analyzer.
func NewLLMAnalyzer(apiKey string) (*LLMAnalyzer, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("quality-analysis API key not provided. Set the ANTHROPIC_API_KEY environment variable")
	}

	return &LLMAnalyzer{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
	}, nil
}

// Analyze scores a contributor. Errors are returned to the caller, which
// falls back to neutral sub-scores; the analyzer never blocks scoring.
func (l *LLMAnalyzer) Analyze(ctx context.Context, payload Payload) (*Analysis, error) {
	prompt := buildPrompt(payload)

	message, err := l.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.ModelClaudeSonnet4_5_20250929,
		MaxTokens: 400,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		System: []anthropic.TextBlockParam{
			{Text: analyzerSystemPrompt},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call quality analyzer: %w", err)
	}

	var responseText string
	for _, block := range message.Content {
		if block.Type == "text" {
			responseText = block.Text
			break
		}
	}

	analysis, err := parseAnalysis(responseText)
	if err != nil {
		return nil, err
	}

	analysis.Clamp()
	return analysis, nil
}

// parseAnalysis decodes the model response, tolerating extra text around
// the JSON object.
func parseAnalysis(responseText string) (*Analysis, error) {
	var analysis Analysis
	if err := json.Unmarshal([]byte(responseText), &analysis); err == nil {
		return &analysis, nil
	}

	start := strings.Index(responseText, "{")
	end := strings.LastIndex(responseText, "}")
	if start >= 0 && end > start {
		if err := json.Unmarshal([]byte(responseText[start:end+1]), &analysis); err == nil {
			return &analysis, nil
		}
	}

	return nil, fmt.Errorf("failed to parse quality analysis response")
}

func buildPrompt(payload Payload) string {
	var sb strings.Builder
	sb.WriteString("Evaluate this GitHub contributor:\n\n")
	sb.WriteString(fmt.Sprintf("Handle: %s\n", payload.Handle))
	sb.WriteString(fmt.Sprintf("Days since last public activity: %d\n", payload.DaysInactive))

	if len(payload.EventCounts) > 0 {
		sb.WriteString("\nRecent event counts:\n")
		for _, kind := range model.AllEventKinds {
			if count := payload.EventCounts[kind]; count > 0 {
				sb.WriteString(fmt.Sprintf("  %s: %d\n", kind, count))
			}
		}
	}

	if len(payload.Comments) > 0 {
		sb.WriteString("\nRecent comments on the claimed issue:\n")
		for i, comment := range payload.Comments {
			if i == 10 {
				break
			}
			sb.WriteString(fmt.Sprintf("---\n%s\n", comment.Body))
		}
	}

	return sb.String()
}
