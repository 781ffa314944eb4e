package memory

import (
	"context"

	"go.uber.org/zap"

	"github.com/flexonb/mindhack/internal/logging"
	"github.com/flexonb/mindhack/internal/policy"
)

// RedactingStore masks PII in turn content before it reaches the wrapped
// store.
type RedactingStore struct {
	Store
	logger *zap.Logger
}

func NewRedactingStore(inner Store, logger *zap.Logger) *RedactingStore {
	return &RedactingStore{Store: inner, logger: logging.OrNop(logger)}
}

func (s *RedactingStore) SaveTurn(ctx context.Context, record TurnRecord) error {
	if redacted, kinds := policy.RedactPII(record.Content); len(kinds) > 0 {
		record.Content = redacted
		record.PIIRedacted = true
		s.logger.Info("redacted pii from transcript turn",
			zap.String("session_id", record.SessionID),
			zap.String("role", string(record.Role)),
			zap.Strings("kinds", kinds))
	}
	return s.Store.SaveTurn(ctx, record)
}
