package global

import (
	"os"
	"strconv"
	"time"

	"CipherChat/tools/ids"
)

// GatewayConfig holds the delivery-core tunables. Defaults are production
// values; tests construct their own.
type GatewayConfig struct {
	ListenAddr string

	// Presence: how long a user may stay without any open handle before
	// peers are told they went offline.
	OfflineGrace time.Duration

	// Outbox: per-user buffer for events generated while offline.
	OutboxCap        int
	OutboxTTL        time.Duration
	OutboxSweepEvery time.Duration

	// Per-connection writer.
	SendQueueSize int
	WriteWait     time.Duration
	PongWait      time.Duration
	PingInterval  time.Duration
	ReadLimit     int64
}

func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		ListenAddr:       envOr("LISTEN_ADDR", ":8080"),
		OfflineGrace:     10 * time.Second,
		OutboxCap:        100,
		OutboxTTL:        5 * time.Minute,
		OutboxSweepEvery: time.Minute,
		SendQueueSize:    256,
		WriteWait:        10 * time.Second,
		PongWait:         75 * time.Second,
		PingInterval:     25 * time.Second,
		ReadLimit:        1 << 20, // 1MB
	}
}

func ConfigIds() {
	node := int64(1)
	if v := os.Getenv("NODE_ID"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			node = n
		}
	}
	ids.SetNodeID(node)
}

// GetJwtSecret returns the shared HMAC secret the account service signs with.
func GetJwtSecret() []byte {
	if v := os.Getenv("JWT_SECRET"); v != "" {
		return []byte(v)
	}
	return []byte("mN9b1f8zPq+W2xjX/45sKcVd0TfyoG+3Hp5Z8q9Rj1o=")
}

type MongoConfig struct {
	Uri      string
	Database string
	Username string
	Password string
}

func GetMongoConfig() MongoConfig {
	return MongoConfig{
		Uri:      envOr("MONGO_URI", "mongodb://localhost:27017"),
		Database: envOr("MONGO_DB", "cipherchat"),
		Username: os.Getenv("MONGO_USER"),
		Password: os.Getenv("MONGO_PASSWORD"),
	}
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
}

// GetRedisConfig: the redis history mirror is optional; it is on only when
// REDIS_ADDR is set.
func GetRedisConfig() RedisConfig {
	addr := os.Getenv("REDIS_ADDR")
	return RedisConfig{
		Addr:     addr,
		Password: os.Getenv("REDIS_PASSWORD"),
		DB:       0,
		Enabled:  addr != "",
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
