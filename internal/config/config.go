package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Config holds application configuration.
type Config struct {
	// Subreddit is the topic whose recent comments are scanned.
	Subreddit string `json:"subreddit"`

	// RedditBaseURL is the API root for comment listings.
	RedditBaseURL string `json:"reddit_base_url"`

	// UserAgent is sent with every Reddit request. Reddit throttles generic agents hard.
	UserAgent string `json:"user_agent"`

	// FetchLimit caps the number of comments read per invocation.
	FetchLimit int `json:"fetch_limit"`

	// HTTPTimeoutSeconds bounds a single Reddit request.
	HTTPTimeoutSeconds int `json:"http_timeout_seconds"`

	// RequestsPerSecond throttles listing page fetches.
	RequestsPerSecond float64 `json:"requests_per_second"`

	// MaxRetries bounds retries on 429 and 5xx responses.
	MaxRetries int `json:"max_retries"`

	// LogLevel is one of trace|debug|info|warn|error.
	LogLevel string `json:"log_level,omitempty"`

	// LogFormat is "console" or "json".
	LogFormat string `json:"log_format,omitempty"`

	// AllowedPaths is an allowlist of directories for import/export operations.
	// Paths outside ~/.acrobot/exports require either being in this list or AllowUnsafePaths=true.
	// Paths should be absolute (relative paths are ignored).
	AllowedPaths []string `json:"allowed_paths,omitempty"`

	// AllowUnsafePaths disables directory restrictions for import/export.
	// Symlink and extension checks still apply.
	AllowUnsafePaths bool `json:"allow_unsafe_paths,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`

	// DisabledTypes excludes every MCP tool of a type (e.g. "scan" drops scan_run
	// and scan_candidates).
	DisabledTypes []string `json:"disabled_types,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Subreddit:          "rust",
		RedditBaseURL:      "https://www.reddit.com",
		UserAgent:          "acrobot/0.1 (acronym glossary bot)",
		FetchLimit:         100,
		HTTPTimeoutSeconds: 10,
		RequestsPerSecond:  1,
		MaxRetries:         3,
		LogLevel:           "info",
		LogFormat:          "console",
	}
}

// BaseDir returns the acrobot home directory: $ACROBOT_HOME if set, else ~/.acrobot.
func BaseDir() (string, error) {
	if dir := strings.TrimSpace(os.Getenv("ACROBOT_HOME")); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".acrobot"), nil
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both the global directory and the nearest repo
// .acrobot directory found by walking upward from startDir.
// Repo config takes precedence for scalar values; arrays are merged (deduplicated).
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .acrobot/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	if startDir == "" {
		return ""
	}
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".acrobot", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the path is empty or the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		Subreddit:          firstString(overlay.Subreddit, base.Subreddit),
		RedditBaseURL:      firstString(overlay.RedditBaseURL, base.RedditBaseURL),
		UserAgent:          firstString(overlay.UserAgent, base.UserAgent),
		LogLevel:           firstString(overlay.LogLevel, base.LogLevel),
		LogFormat:          firstString(overlay.LogFormat, base.LogFormat),
		FetchLimit:         firstInt(overlay.FetchLimit, base.FetchLimit),
		HTTPTimeoutSeconds: firstInt(overlay.HTTPTimeoutSeconds, base.HTTPTimeoutSeconds),
		MaxRetries:         firstInt(overlay.MaxRetries, base.MaxRetries),
		DBMaxOpenConns:     firstInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns:     firstInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
	}

	result.RequestsPerSecond = overlay.RequestsPerSecond
	if result.RequestsPerSecond == 0 {
		result.RequestsPerSecond = base.RequestsPerSecond
	}

	// Booleans: overlay wins if true, else base
	result.AllowUnsafePaths = base.AllowUnsafePaths || overlay.AllowUnsafePaths

	result.AllowedPaths = mergeStringSlice(base.AllowedPaths, overlay.AllowedPaths)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)
	result.DisabledTypes = mergeStringSlice(base.DisabledTypes, overlay.DisabledTypes)

	return result
}

func firstString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return strings.TrimSpace(overlay)
	}
	return base
}

func firstInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
