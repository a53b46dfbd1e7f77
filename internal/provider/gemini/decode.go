package gemini

import "strings"

const defaultFinishReason = "STOP"

// generateResponse is the part of a generateContent answer the router uses.
type generateResponse struct {
	Text             string
	PromptTokens     int
	CandidatesTokens int
	TotalTokens      int
	FinishReason     string
	SafetyRatings    []any
}

// decodeGenerateResponse navigates a loosely shaped generateContent body.
// Field rules:
//   - text: candidates[0].content.parts[*].text joined with one space; a
//     missing candidates, content or parts key yields ""; a part without
//     text contributes "".
//   - usageMetadata.promptTokenCount, candidatesTokenCount, totalTokenCount:
//     0 when absent or not numeric. totalTokenCount is passed through even
//     when it disagrees with the other two.
//   - candidates[0].finishReason: "STOP" when absent.
//   - candidates[0].safetyRatings: empty list when absent.
func decodeGenerateResponse(doc map[string]any) generateResponse {
	out := generateResponse{
		FinishReason:  defaultFinishReason,
		SafetyRatings: []any{},
	}

	if candidate, ok := firstCandidate(doc); ok {
		out.Text = joinParts(candidate)
		if reason, ok := candidate["finishReason"].(string); ok {
			out.FinishReason = reason
		}
		if ratings, ok := candidate["safetyRatings"].([]any); ok {
			out.SafetyRatings = ratings
		}
	}

	usage, _ := doc["usageMetadata"].(map[string]any)
	out.PromptTokens = intField(usage, "promptTokenCount")
	out.CandidatesTokens = intField(usage, "candidatesTokenCount")
	out.TotalTokens = intField(usage, "totalTokenCount")

	return out
}

func firstCandidate(doc map[string]any) (map[string]any, bool) {
	candidates, ok := doc["candidates"].([]any)
	if !ok || len(candidates) == 0 {
		return nil, false
	}
	candidate, ok := candidates[0].(map[string]any)
	return candidate, ok
}

func joinParts(candidate map[string]any) string {
	content, ok := candidate["content"].(map[string]any)
	if !ok {
		return ""
	}
	parts, ok := content["parts"].([]any)
	if !ok {
		return ""
	}

	texts := make([]string, 0, len(parts))
	for _, raw := range parts {
		part, _ := raw.(map[string]any)
		text, _ := part["text"].(string)
		texts = append(texts, text)
	}
	return strings.Join(texts, " ")
}

func intField(m map[string]any, key string) int {
	if v, ok := m[key].(float64); ok && v > 0 {
		return int(v)
	}
	return 0
}
