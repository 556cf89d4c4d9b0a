package services

import (
	"context"

	"go.uber.org/zap"
)

// PushMessage is the provider-facing payload, assembled from a PushJob.
type PushMessage struct {
	Title    string
	Body     string
	Data     map[string]string
	Badge    *int
	Sound    string
	ImageURL string
}

// ProviderResult is the provider's per-batch outcome. InvalidTokens holds the
// subset of failed tokens the provider reports as permanently unregistered.
// Those get deactivated; other failures are transient and left alone.
type ProviderResult struct {
	SuccessCount  int      `json:"success_count"`
	FailureCount  int      `json:"failure_count"`
	InvalidTokens []string `json:"invalid_tokens"`
}

// PushProvider is the external push gateway. A nil provider means pushes are
// not configured and every job completes as a no-op.
type PushProvider interface {
	Send(ctx context.Context, tokens []string, msg PushMessage) (*ProviderResult, error)
}

// PushWorker consumes queued jobs: it resolves the target tokens, makes one
// batched provider call and feeds permanently invalid tokens back into the
// registry. Provider-reported per-token failures are terminal for the job;
// only an error from the call itself is retryable by the queue.
type PushWorker struct {
	provider PushProvider
	tokens   *DeviceTokenService
	log      *zap.Logger
}

func NewPushWorker(provider PushProvider, tokens *DeviceTokenService, log *zap.Logger) *PushWorker {
	return &PushWorker{provider: provider, tokens: tokens, log: log}
}

// Handle adapts Process to the queue's handler signature.
func (w *PushWorker) Handle(ctx context.Context, job PushJob) error {
	_, err := w.Process(ctx, job)
	return err
}

func (w *PushWorker) Process(ctx context.Context, job PushJob) (*ProviderResult, error) {
	if w.provider == nil {
		return &ProviderResult{InvalidTokens: []string{}}, nil
	}

	tokens := job.Tokens
	if len(tokens) == 0 {
		resolved, err := w.tokens.ActiveTokens(ctx, job.UserID)
		if err != nil {
			return nil, err
		}
		tokens = resolved
	}
	if len(tokens) == 0 {
		return &ProviderResult{InvalidTokens: []string{}}, nil
	}

	res, err := w.provider.Send(ctx, tokens, PushMessage{
		Title:    job.Title,
		Body:     job.Body,
		Data:     job.Data,
		Badge:    job.Badge,
		Sound:    job.Sound,
		ImageURL: job.ImageURL,
	})
	if err != nil {
		return nil, err
	}

	if len(res.InvalidTokens) > 0 {
		if err := w.tokens.RemoveInvalidTokens(ctx, res.InvalidTokens); err != nil {
			w.log.Error("failed to deactivate invalid tokens",
				zap.Int("count", len(res.InvalidTokens)),
				zap.Error(err))
		}
	}

	w.log.Debug("push batch delivered",
		zap.String("user_id", job.UserID),
		zap.Int("success", res.SuccessCount),
		zap.Int("failure", res.FailureCount),
		zap.Int("invalid", len(res.InvalidTokens)))

	return res, nil
}
