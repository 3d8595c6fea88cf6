package tracker

import (
	"context"
	"errors"
	"strings"
)

// ErrLLMDisabled is returned when no LLM client was configured.
var ErrLLMDisabled = errors.New("tracker: LLM client not configured (set LLM_API_KEY)")

// stripFences removes markdown code fences from LLM output.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// CallLLM sends a prompt using the configured temperature and max_tokens.
func CallLLM(ctx context.Context, prompt string) (string, error) {
	if cfg.LLMClient == nil {
		return "", ErrLLMDisabled
	}
	reg.Incr(MetricLLMCalls)
	resp, err := cfg.LLMClient.Complete(ctx, "", prompt)
	if err != nil {
		reg.Incr(MetricLLMErrors)
		return "", err
	}
	return stripFences(resp), nil
}
