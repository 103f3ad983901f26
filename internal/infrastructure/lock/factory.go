package lock

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/siatbridge/backend/internal/domain/shared"
	"github.com/siatbridge/backend/internal/infrastructure/config"
)

// NewLocker creates the locker the configuration asks for. The redis backend
// requires a reachable Redis instance; the memory backend only serializes
// within one process.
func NewLocker(cfg *config.Config, logger *zap.Logger) (shared.Locker, error) {
	switch cfg.Lock.Backend {
	case "redis":
		locker, err := NewRedisLocker(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis locker: %w", err)
		}
		logger.Info("using Redis issuance lock")
		return locker, nil
	case "memory":
		logger.Info("using in-process issuance lock")
		return NewMemoryLocker(), nil
	default:
		return nil, fmt.Errorf("unknown lock backend %q", cfg.Lock.Backend)
	}
}
