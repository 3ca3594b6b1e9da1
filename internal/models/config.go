package models

import "time"

// Config represents the application configuration
type Config struct {
	Database       DatabaseConfig
	Server         ServerConfig
	Formance       FormanceConfig
	Events         EventsConfig
	Reconciler     ReconcilerConfig
	ComplianceFile string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Enabled         bool
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	MaxConnections  int
	AdminToken      string
	RateLimitRPS    float64
	RateLimitBurst  int
	GinMode         string
}

// FormanceConfig holds the settings of the optional Formance ledger mirror
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
	// TokenSymbols maps payment token identities, such as contract
	// addresses, to the asset symbol used in the ledger.
	TokenSymbols map[string]string
}

// Enabled reports whether a Formance stack has been configured
func (c FormanceConfig) Enabled() bool {
	return c.StackURL != ""
}

// EventsConfig holds event fan-out settings
type EventsConfig struct {
	NatsURL          string
	SubjectPrefix    string
	BufferSize       int
	Workers          int
	MaxRetryElapsed  time.Duration
	NatsConnectName  string
	NatsReconnectMax int
}

// ReconcilerConfig holds invariant checker settings
type ReconcilerConfig struct {
	Schedule string
}
