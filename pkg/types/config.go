// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "pubmed-assistant/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// PubMedConfig holds settings for the citation search client.
type PubMedConfig struct {
	HTTPConfig `yaml:",inline"`

	// Tool identifies this application to the NCBI E-utilities.
	Tool string `json:"tool" yaml:"tool"`

	// Email is sent with every E-utilities request per NCBI usage policy.
	Email string `json:"email" yaml:"email"`

	// APIKey raises the NCBI rate limit when set.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// PageSize is the number of records fetched per page (default 50).
	PageSize int `json:"page_size" yaml:"page_size"`
}

// AIConfig holds settings for the language model client.
type AIConfig struct {
	// Model is the AI model identifier (e.g. "claude-sonnet-4-5-20250929").
	Model string `json:"model" yaml:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// MaxRetries is the number of retry attempts for failed API calls (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// MailConfig holds settings for outbound one-time-passcode email.
type MailConfig struct {
	// Host is the SMTP submission host (e.g. "smtp.gmail.com").
	Host string `json:"host" yaml:"host"`

	// Port is the SMTP submission port (default 587).
	Port int `json:"port" yaml:"port"`

	// From is the sender address, also used as the SMTP username.
	From string `json:"from" yaml:"from"`

	// Password is the SMTP password or app password.
	Password string `json:"password,omitempty" yaml:"password,omitempty"`
}

// StoreConfig holds filesystem locations for durable state.
type StoreConfig struct {
	// DatabasePath is the path of the credentials SQLite database
	// (default "users.db").
	DatabasePath string `json:"database_path" yaml:"database_path"`

	// PreferencesDir is the directory of per-user preference documents
	// (default "user_preferences").
	PreferencesDir string `json:"preferences_dir" yaml:"preferences_dir"`
}

// ServerConfig holds settings for the web UI.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr"`
}

// AppConfig groups all component configurations.
type AppConfig struct {
	Server ServerConfig `json:"server" yaml:"server"`
	PubMed PubMedConfig `json:"pubmed" yaml:"pubmed"`
	AI     AIConfig     `json:"ai" yaml:"ai"`
	Mail   MailConfig   `json:"mail" yaml:"mail"`
	Store  StoreConfig  `json:"store" yaml:"store"`
}
