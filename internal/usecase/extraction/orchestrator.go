package extraction

import (
	"context"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-scribe/errors"
	"github.com/johnquangdev/meeting-scribe/pkg/ai"
	"github.com/johnquangdev/meeting-scribe/pkg/config"
)

// Provider is one chat-completion backend. Satisfied by *ai.ChatClient.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req ai.CompletionRequest) (string, error)
}

// GenerateResult is the outcome of one generation call.
type GenerateResult struct {
	Content      string
	ProviderUsed string
	IsFallback   bool
	Latency      time.Duration
}

// Orchestrator runs generation against the primary provider with retries,
// falling back to the secondary provider when the primary is exhausted.
type Orchestrator struct {
	primary  Provider
	fallback Provider
	cfg      *config.LLMConfig
	logger   *zap.Logger
}

// NewOrchestrator creates a generation orchestrator. The fallback provider
// may be nil when only one provider is configured.
func NewOrchestrator(primary, fallback Provider, cfg *config.LLMConfig, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		primary:  primary,
		fallback: fallback,
		cfg:      cfg,
		logger:   logger,
	}
}

// Generate runs one extraction call. The primary provider is retried with
// exponential backoff; if it stays down the fallback provider gets one
// attempt before the call fails outward.
func (o *Orchestrator) Generate(ctx context.Context, system, prompt string) (*GenerateResult, error) {
	start := time.Now()

	req := ai.CompletionRequest{
		SystemPrompt: system,
		Prompt:       prompt,
		Temperature:  o.cfg.Temperature,
		MaxTokens:    o.cfg.MaxOutputTokens,
		JSONMode:     o.cfg.StructuredOutput,
	}

	var content string
	primaryFn := func() error {
		var err error
		content, err = o.primary.Complete(ctx, req)
		return err
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxInterval = 10 * time.Second
	bo.MaxElapsedTime = 45 * time.Second

	primaryErr := backoff.Retry(primaryFn, backoff.WithContext(bo, ctx))
	if primaryErr == nil {
		return &GenerateResult{
			Content:      content,
			ProviderUsed: o.primary.Name(),
			Latency:      time.Since(start),
		}, nil
	}

	if o.logger != nil {
		o.logger.Warn("❌ Primary provider exhausted, trying fallback",
			zap.String("provider", o.primary.Name()),
			zap.Error(primaryErr),
		)
	}

	if o.fallback == nil {
		return nil, apperrors.ErrProviderFailed(o.primary.Name(), primaryErr)
	}

	content, fallbackErr := o.fallback.Complete(ctx, req)
	if fallbackErr != nil {
		return nil, apperrors.ErrAllProvidersFailed(primaryErr, fallbackErr)
	}

	if o.logger != nil {
		o.logger.Info("✅ Fallback provider succeeded",
			zap.String("provider", o.fallback.Name()),
		)
	}

	return &GenerateResult{
		Content:      content,
		ProviderUsed: o.fallback.Name(),
		IsFallback:   true,
		Latency:      time.Since(start),
	}, nil
}

// Repair sends a dedicated low-temperature call asking the model to fix a
// schema-violating output. Runs against the primary provider only, with
// the cheaper repair model.
func (o *Orchestrator) Repair(ctx context.Context, rawOutput string, violations []FieldViolation) (string, error) {
	req := ai.CompletionRequest{
		SystemPrompt: "You fix malformed JSON documents. Return only the corrected JSON object.",
		Prompt:       BuildRepairPrompt(rawOutput, violations),
		Temperature:  0.0,
		MaxTokens:    o.cfg.MaxOutputTokens,
		JSONMode:     true,
		Model:        o.cfg.RepairModel,
	}

	content, err := o.primary.Complete(ctx, req)
	if err != nil {
		return "", apperrors.ErrRepairFailed(err)
	}
	return content, nil
}

// ExtractJSON pulls a JSON object out of a model response. Models wrap
// output in prose or markdown fences despite JSON mode, so extraction is
// layered: the raw text as-is, then a fenced code block, then the outermost
// brace pair.
func ExtractJSON(content string) (string, bool) {
	trimmed := strings.TrimSpace(content)

	if strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}") {
		return trimmed, true
	}

	if fenced, ok := extractFencedBlock(trimmed); ok {
		return fenced, true
	}

	start := strings.Index(trimmed, "{")
	end := strings.LastIndex(trimmed, "}")
	if start != -1 && end > start {
		return trimmed[start : end+1], true
	}

	return "", false
}

func extractFencedBlock(content string) (string, bool) {
	for _, marker := range []string{"```json", "```"} {
		idx := strings.Index(content, marker)
		if idx == -1 {
			continue
		}
		rest := content[idx+len(marker):]
		closing := strings.Index(rest, "```")
		if closing == -1 {
			continue
		}
		block := strings.TrimSpace(rest[:closing])
		if strings.HasPrefix(block, "{") {
			return block, true
		}
	}
	return "", false
}
