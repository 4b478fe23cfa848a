package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// generate runs one model operation end to end: up to maxRetries structured
// attempts with exponential backoff, then one direct plain call with the
// fallback model, then the caller-supplied synthetic fallback. normalize
// fills defaults for missing fields and returns warnings for anything it had
// to repair.
func generate[T any](ctx context.Context, s *Service, operation, prompt string, normalize func(*T) []string) (T, bool) {
	var zero T

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			s.backoff(attempt)
		}

		raw, err := s.complete(ctx, s.model, prompt, true)
		if err != nil {
			s.logger.Error("model call failed",
				zap.String("operation", operation),
				zap.Int("attempt", attempt+1),
				zap.Error(err))
			continue
		}

		result, err := decode[T](raw)
		if err != nil {
			s.logger.Error("failed to parse model response",
				zap.String("operation", operation),
				zap.Int("attempt", attempt+1),
				zap.Error(err),
				zap.String("response", raw))
			continue
		}

		for _, warning := range normalize(&result) {
			s.logger.Warn("incomplete model response",
				zap.String("operation", operation),
				zap.String("field", warning))
		}
		s.sink.Record(operation, raw)
		return result, true
	}

	// Structured attempts exhausted; try one plain single-shot call.
	raw, err := s.complete(ctx, s.fallbackModel, prompt, false)
	if err == nil {
		if result, decodeErr := decode[T](raw); decodeErr == nil {
			normalize(&result)
			s.sink.Record(operation+"_fallback", raw)
			return result, true
		} else {
			s.logger.Error("failed to parse fallback response",
				zap.String("operation", operation),
				zap.Error(decodeErr))
		}
	} else {
		s.logger.Error("fallback model call failed",
			zap.String("operation", operation),
			zap.Error(err))
	}

	return zero, false
}

// complete makes one chat completion call, respecting the shared minimum
// interval between requests.
func (s *Service) complete(ctx context.Context, model, prompt string, structured bool) (string, error) {
	s.throttle()

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
		MaxTokens:   s.maxTokens,
		Temperature: float32(s.temperature),
	}
	if structured {
		req.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := s.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("model returned empty content")
	}
	return content, nil
}

// throttle delays the caller so requests stay at least minInterval apart.
func (s *Service) throttle() {
	s.mu.Lock()
	wait := s.minInterval - time.Since(s.lastRequest)
	if wait > 0 {
		s.lastRequest = time.Now().Add(wait)
	} else {
		s.lastRequest = time.Now()
	}
	s.mu.Unlock()

	if wait > 0 {
		s.sleep(wait)
	}
}

// backoff sleeps 1s, 2s, 4s... plus up to a second of jitter, capped at 60s.
func (s *Service) backoff(attempt int) {
	delay := baseDelay * time.Duration(1<<(attempt-1))
	delay += time.Duration(rand.Int63n(int64(time.Second)))
	if delay > maxDelay {
		delay = maxDelay
	}
	s.logger.Info("retrying model call",
		zap.Duration("delay", delay),
		zap.Int("attempt", attempt+1))
	s.sleep(delay)
}

// decode unmarshals a model response, tolerating markdown fences and prose
// around the JSON object.
func decode[T any](raw string) (T, error) {
	var out T
	if err := json.Unmarshal([]byte(extractJSON(raw)), &out); err != nil {
		return out, err
	}
	return out, nil
}

// extractJSON slices out the outermost JSON object from a response that may
// wrap it in ```json fences or surrounding text.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return raw
	}
	return raw[start : end+1]
}
