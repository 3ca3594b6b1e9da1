/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"rwa-registry-go/internal/models"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	readTimeout, err := getEnvDuration("SERVER_READ_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	writeTimeout, err := getEnvDuration("SERVER_WRITE_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 20*time.Second)
	if err != nil {
		return nil, err
	}

	maxRetryElapsed, err := getEnvDuration("EVENTS_MAX_RETRY_ELAPSED", 2*time.Minute)
	if err != nil {
		return nil, err
	}

	rateLimitRPS, err := getEnvFloat("RATE_LIMIT_RPS", 50)
	if err != nil {
		return nil, err
	}

	tokenSymbols, err := getEnvMap("FORMANCE_TOKEN_SYMBOLS")
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Enabled:         getEnvBool("DATABASE_ENABLED", true),
			Path:            getEnvString("DATABASE_PATH", "registry.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Server: models.ServerConfig{
			Addr:            getEnvString("SERVER_ADDR", ":8080"),
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
			MaxConnections:  getEnvInt("SERVER_MAX_CONNECTIONS", 1024),
			AdminToken:      getEnvString("ADMIN_TOKEN", ""),
			RateLimitRPS:    rateLimitRPS,
			RateLimitBurst:  getEnvInt("RATE_LIMIT_BURST", 100),
			GinMode:         getEnvString("GIN_MODE", "release"),
		},
		Formance: models.FormanceConfig{
			StackURL:     getEnvString("FORMANCE_STACK_URL", ""),
			ClientID:     getEnvString("FORMANCE_CLIENT_ID", ""),
			ClientSecret: getEnvString("FORMANCE_CLIENT_SECRET", ""),
			LedgerName:   getEnvString("FORMANCE_LEDGER", "rwa-registry"),
			TokenSymbols: tokenSymbols,
		},
		Events: models.EventsConfig{
			NatsURL:          getEnvString("NATS_URL", ""),
			SubjectPrefix:    getEnvString("NATS_SUBJECT_PREFIX", "rwa.events"),
			BufferSize:       getEnvInt("EVENTS_BUFFER_SIZE", 1024),
			Workers:          getEnvInt("EVENTS_WORKERS", 4),
			MaxRetryElapsed:  maxRetryElapsed,
			NatsConnectName:  getEnvString("NATS_CONNECTION_NAME", "rwa-registry"),
			NatsReconnectMax: getEnvInt("NATS_MAX_RECONNECTS", 60),
		},
		Reconciler: models.ReconcilerConfig{
			Schedule: getEnvString("RECONCILE_SCHEDULE", "@every 5m"),
		},
		ComplianceFile: getEnvString("COMPLIANCE_FILE", "compliance.yaml"),
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number for %s: %q (%w)", key, value, err)
		}
		return f, nil
	}
	return defaultValue, nil
}

// getEnvMap parses a comma separated list of key=value pairs
func getEnvMap(key string) (map[string]string, error) {
	result := map[string]string{}
	value := os.Getenv(key)
	if value == "" {
		return result, nil
	}
	for _, pair := range strings.Split(value, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || strings.TrimSpace(k) == "" || strings.TrimSpace(v) == "" {
			return nil, fmt.Errorf("invalid entry for %s: %q (expected key=value)", key, pair)
		}
		result[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return result, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
