package reflection

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"patternforge/internal/logging"
	"patternforge/internal/types"
)

// =============================================================================
// GOOGLE GENAI REFLECTOR
// =============================================================================

// GenAIReflector improves fragments through Google's Gemini API. Scaffold
// and swap context are rendered into the prompt by this client; the
// engine never embeds them in the code payload.
type GenAIReflector struct {
	client *genai.Client
	model  string
}

// NewGenAIReflector creates a Gemini-backed reflector.
func NewGenAIReflector(apiKey, model string) (*GenAIReflector, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey: apiKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GenAIReflector{client: client, model: model}, nil
}

const improverSystemPrompt = `You are a code improvement engine for a pattern library.
You receive one code fragment and must return an improved version of it.

Rules:
1. Preserve the fragment's observable behavior unless a swap directive says otherwise.
2. Fix syntax errors, unbalanced delimiters, and obvious defects first.
3. Keep the fragment self-contained: no new imports or external dependencies.
4. Return ONLY the improved code inside a single fenced code block.`

// Improve sends the fragment to Gemini, looping until the estimated
// coherence reaches the target or the loop budget runs out.
func (r *GenAIReflector) Improve(ctx context.Context, req types.ImproveRequest) (types.ImproveResult, error) {
	timer := logging.StartTimer(logging.CategoryReflection, "genai improve")
	defer timer.Stop()

	budget := req.MaxLoops
	if budget <= 0 {
		budget = 1
	}

	code := req.Code
	initial := EstimateCoherence(code)
	loops := 0

	for i := 0; i < budget; i++ {
		prompt := r.buildPrompt(req, code)

		resp, err := r.client.Models.GenerateContent(ctx, r.model,
			genai.Text(prompt),
			&genai.GenerateContentConfig{
				SystemInstruction: genai.NewContentFromText(improverSystemPrompt, genai.RoleUser),
			})
		if err != nil {
			return types.ImproveResult{}, fmt.Errorf("GenAI improve failed: %w", err)
		}
		loops++

		improved := extractCodeBlock(resp.Text())
		if improved == "" || improved == code {
			break
		}
		code = improved
		if EstimateCoherence(code) >= req.TargetCoherence {
			break
		}
	}

	final := EstimateCoherence(code)
	logging.ReflectionDebug("genai improve: loops=%d initial=%.2f final=%.2f", loops, initial, final)

	return types.ImproveResult{
		Code:  code,
		Loops: loops,
		Dimensions: map[string]float64{
			"structure":     structureScore(code),
			"documentation": docScore(code),
		},
		Trajectory: types.Trajectory{
			Initial:     initial,
			Final:       final,
			Improvement: final - initial,
		},
	}, nil
}

// buildPrompt renders the structured improve request as prompt sections.
func (r *GenAIReflector) buildPrompt(req types.ImproveRequest, code string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "Language: %s\n", req.Language)
	if req.Description != "" {
		fmt.Fprintf(&sb, "Purpose: %s\n", req.Description)
	}
	if len(req.Tags) > 0 {
		fmt.Fprintf(&sb, "Tags: %s\n", strings.Join(req.Tags, ", "))
	}
	fmt.Fprintf(&sb, "Latitude: %.3f\n", req.CascadeBoost)

	if req.SwapDirective != nil {
		fmt.Fprintf(&sb, "\nApply this structural rewrite: %s\n%s\n",
			req.SwapDirective.Name, req.SwapDirective.Hint)
	}
	if req.Scaffold != nil {
		fmt.Fprintf(&sb, "\nA healthy sibling pattern (coherence %.2f) for structural guidance:\n```%s\n%s\n```\n",
			req.Scaffold.Coherence, req.Language, req.Scaffold.Code)
	}

	fmt.Fprintf(&sb, "\nFragment to improve:\n```%s\n%s\n```\n", req.Language, code)
	return sb.String()
}

// extractCodeBlock pulls the first fenced code block from a response,
// falling back to the trimmed response when no fence is present.
func extractCodeBlock(text string) string {
	start := strings.Index(text, "```")
	if start < 0 {
		return strings.TrimSpace(text)
	}
	rest := text[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}
