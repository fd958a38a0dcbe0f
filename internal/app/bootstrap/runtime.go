package bootstrap

import (
	"context"
	"crypto/tls"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/smilecare-dental/internal/booking"
	appconfig "github.com/wolfman30/smilecare-dental/internal/config"
	"github.com/wolfman30/smilecare-dental/pkg/logging"
)

// BuildRedisClient returns a configured Redis client or nil when disabled.
// With verify set, an unreachable server also yields nil.
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildSessionStore picks the wizard session store: Redis when a client is
// available, otherwise process memory.
func BuildSessionStore(redisClient *redis.Client, cfg *appconfig.Config, logger *logging.Logger) booking.SessionStore {
	if logger == nil {
		logger = logging.Default()
	}
	ttl := booking.DefaultSessionTTL
	if cfg != nil && cfg.WizardSessionTTL > 0 {
		ttl = cfg.WizardSessionTTL
	}
	if redisClient != nil {
		logger.Info("wizard sessions stored in redis", "ttl", ttl.String())
		return booking.NewRedisSessionStore(redisClient, ttl)
	}
	logger.Info("wizard sessions stored in memory", "ttl", ttl.String())
	return booking.NewMemorySessionStore(ttl)
}
