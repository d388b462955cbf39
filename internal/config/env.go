// SPDX-License-Identifier: MIT

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/greysonlalonde/js-utilities/internal/log"
)

// Environment variable keys.
const (
	EnvDataDir         = "JSUTIL_DATA_DIR"
	EnvDefinitions     = "JSUTIL_DEFINITIONS"
	EnvManifest        = "JSUTIL_MANIFEST"
	EnvOutputDir       = "JSUTIL_OUTPUT_DIR"
	EnvWorkers         = "JSUTIL_WORKERS"
	EnvListen          = "JSUTIL_LISTEN"
	EnvAPIToken        = "JSUTIL_API_TOKEN" // #nosec G101 -- env key name, not a credential
	EnvRateLimit       = "JSUTIL_RATE_LIMIT"
	EnvPipelineEnabled = "JSUTIL_PIPELINE"
	EnvPipelineTrace   = "JSUTIL_PIPELINE_TRACE"
	EnvCacheBackend    = "JSUTIL_CACHE_BACKEND"
	EnvCachePath       = "JSUTIL_CACHE_PATH"
	EnvRedisAddr       = "JSUTIL_REDIS_ADDR"
	EnvCacheTTL        = "JSUTIL_CACHE_TTL"
	EnvHistoryDB       = "JSUTIL_HISTORY_DB"
	EnvHistoryKeep     = "JSUTIL_HISTORY_KEEP"
	EnvOTLPEndpoint    = "JSUTIL_OTLP_ENDPOINT"
	EnvOTLPProtocol    = "JSUTIL_OTLP_PROTOCOL"
	EnvOTLPSampleRate  = "JSUTIL_OTLP_SAMPLE_RATE"
)

// fromEnv resolves key against the process environment. Unset or empty
// variables fall back to def silently; unparseable values fall back
// with a warning. Raw values are never logged, so token-bearing keys
// need no special casing.
func fromEnv[T any](key string, def T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return def
	}
	v, err := parse(raw)
	if err != nil {
		log.WithComponent("config").Warn().
			Str("key", key).
			Err(err).
			Msg("unparseable environment variable, using default")
		return def
	}
	return v
}

// ParseString reads key from the environment, or def when unset or
// empty.
func ParseString(key, def string) string {
	return fromEnv(key, def, func(s string) (string, error) { return s, nil })
}

// ParseInt reads a base-10 integer from the environment.
func ParseInt(key string, def int) int {
	return fromEnv(key, def, strconv.Atoi)
}

// ParseDuration reads a Go duration string (e.g. "90s", "24h") from
// the environment.
func ParseDuration(key string, def time.Duration) time.Duration {
	return fromEnv(key, def, time.ParseDuration)
}

// ParseFloat reads a decimal number from the environment.
func ParseFloat(key string, def float64) float64 {
	return fromEnv(key, def, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

// ParseBool reads a boolean from the environment. Accepted spellings
// are true/false, 1/0 and yes/no in any case.
func ParseBool(key string, def bool) bool {
	return fromEnv(key, def, parseBool)
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("not a boolean: %q", s)
}
