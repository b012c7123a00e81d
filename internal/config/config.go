package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// DefaultEmptyNotice is the markdown shown for frames with no diagnostic
// content when empty-source notation is enabled.
const DefaultEmptyNotice = "_No additional details are available for this frame._"

// Config holds application configuration.
type Config struct {
	// EventMaxBytes is the maximum accepted size of one event payload
	EventMaxBytes int `json:"event_max_bytes"`

	// Org is the organization slug used for capability lookups
	Org string `json:"org,omitempty"`

	// FirstPartyPrefixes lists Java package prefixes considered first-party.
	// Deployment-specific; with no prefixes configured, every Java frame
	// falls through to standard panel composition.
	FirstPartyPrefixes []string `json:"first_party_prefixes,omitempty"`

	// EmptySourceNotation controls whether frames without diagnostic content
	// render a placeholder notice instead of nothing. A pointer so that an
	// explicit false in an overlay file is distinguishable from unset.
	EmptySourceNotation *bool `json:"empty_source_notation,omitempty"`

	// EmptyNotice is the markdown text of that placeholder
	EmptyNotice string `json:"empty_notice,omitempty"`

	// SourceLinkEndpoint is the URL of the source-link lookup service.
	// Empty disables lookups regardless of capabilities.
	SourceLinkEndpoint string `json:"source_link_endpoint,omitempty"`

	// SourceLinkTimeoutMS bounds one lookup in milliseconds
	SourceLinkTimeoutMS int `json:"source_link_timeout_ms,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// If set to 1, all database access is serialized (reduces "database is
	// locked" errors). 0 means use sql.DB default.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	// 0 means use sql.DB default. Typically set equal to DBMaxOpenConns.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	// Unknown tool names are logged as warnings.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	enabled := true
	return &Config{
		EventMaxBytes:       1 << 20,
		Org:                 "default",
		EmptySourceNotation: &enabled,
		EmptyNotice:         DefaultEmptyNotice,
		SourceLinkTimeoutMS: 5000,
	}
}

// EmptySourceEnabled reports whether empty-source notation is on.
// Unset means the default (enabled).
func (c *Config) EmptySourceEnabled() bool {
	if c.EmptySourceNotation == nil {
		return true
	}
	return *c.EmptySourceNotation
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
// The baseDir parameter allows tests to use t.TempDir() instead of ~/.faultline.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both global (~/.faultline) and repo
// (.faultline) directories. Repo config is found by walking upward from
// startDir to find the nearest .faultline/config.json. Repo config takes
// precedence for scalar values; arrays are merged (deduplicated).
// Either or both configs may be missing.
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repoConfigPath := FindRepoConfig(startDir)
	repo, err := loadFileRaw(repoConfigPath)
	if err != nil {
		return nil, err
	}

	// Apply defaults, then global, then repo
	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest
// .faultline/config.json. Returns the path if found, or empty string.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".faultline", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root, not found
			return ""
		}
		dir = parent
	}
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
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
	result := &Config{}

	// Scalars: overlay wins if non-zero, else base
	result.EventMaxBytes = overlay.EventMaxBytes
	if result.EventMaxBytes == 0 {
		result.EventMaxBytes = base.EventMaxBytes
	}

	result.Org = overlay.Org
	if result.Org == "" {
		result.Org = base.Org
	}

	result.EmptyNotice = overlay.EmptyNotice
	if result.EmptyNotice == "" {
		result.EmptyNotice = base.EmptyNotice
	}

	result.SourceLinkEndpoint = overlay.SourceLinkEndpoint
	if result.SourceLinkEndpoint == "" {
		result.SourceLinkEndpoint = base.SourceLinkEndpoint
	}

	result.SourceLinkTimeoutMS = overlay.SourceLinkTimeoutMS
	if result.SourceLinkTimeoutMS == 0 {
		result.SourceLinkTimeoutMS = base.SourceLinkTimeoutMS
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	// Pointer booleans: overlay wins if set, else base
	result.EmptySourceNotation = overlay.EmptySourceNotation
	if result.EmptySourceNotation == nil {
		result.EmptySourceNotation = base.EmptySourceNotation
	}

	// Arrays: merge and deduplicate
	result.FirstPartyPrefixes = mergeStringSlice(base.FirstPartyPrefixes, overlay.FirstPartyPrefixes)
	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
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
