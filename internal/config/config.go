package config

import (
	"strconv"
	"time"
)

// EngineConfig holds the tunables for the shared execution engine, sourced
// from the environment with the same fallback convention the rest of the
// codebase uses (GetEnvWithFallback).
type EngineConfig struct {
	// PoolSize bounds concurrent plugin executions. 0 means "use
	// engine.DefaultPoolSize()".
	PoolSize int64
	// Timeout is the per-plugin hard cap.
	Timeout time.Duration
	// Deadline, if non-zero, bounds an entire scan run.
	Deadline time.Duration
	// RateLimitPerSecond throttles plugin submission into the engine; 0
	// disables rate limiting.
	RateLimitPerSecond float64
	// RateBurst is the token-bucket burst size paired with RateLimitPerSecond.
	RateBurst int
}

// LoadEngineConfig reads engine tunables from the environment (or an .env
// file, loaded once via LoadEnvOnce), falling back to sane defaults.
func LoadEngineConfig() EngineConfig {
	LoadEnvOnce()

	poolSize, _ := strconv.ParseInt(GetEnvWithFallback("VULNSCAN_POOL_SIZE", "0"), 10, 64)
	timeoutSeconds, _ := strconv.Atoi(GetEnvWithFallback("VULNSCAN_PLUGIN_TIMEOUT_SECONDS", "3600"))
	deadlineSeconds, _ := strconv.Atoi(GetEnvWithFallback("VULNSCAN_SCAN_DEADLINE_SECONDS", "0"))
	rateLimit, _ := strconv.ParseFloat(GetEnvWithFallback("VULNSCAN_RATE_LIMIT_PER_SECOND", "0"), 64)
	rateBurst, _ := strconv.Atoi(GetEnvWithFallback("VULNSCAN_RATE_BURST", "1"))

	return EngineConfig{
		PoolSize:           poolSize,
		Timeout:            time.Duration(timeoutSeconds) * time.Second,
		Deadline:           time.Duration(deadlineSeconds) * time.Second,
		RateLimitPerSecond: rateLimit,
		RateBurst:          rateBurst,
	}
}
