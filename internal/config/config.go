package config

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is the application name used for XDG directory paths.
	AppName = "usercrawl"

	// DefaultTimeout bounds each fetch and each mothership request.
	DefaultTimeout = 30 * time.Second

	// DefaultMaxLinks is the to-crawl queue capacity of a worker.
	DefaultMaxLinks = 10

	// DefaultSubmitPolicy submits all results once after the queue drains.
	DefaultSubmitPolicy = SubmitPolicyOnce

	// DefaultBatchSize runs one worker at a time.
	DefaultBatchSize = 1

	// DefaultUserAgent identifies usercrawl in HTTP requests.
	DefaultUserAgent = "usercrawl/1.0 (+https://github.com/nao1215/usercrawl)"

	// DefaultMaxBodySize limits the response body read per page.
	DefaultMaxBodySize = 5 * 1024 * 1024 // 5MB
)

// Submit policy names accepted by Validate.
const (
	SubmitPolicyOnce    = "once"
	SubmitPolicyPerPage = "per-page"
)

// Config holds all options of a crawl invocation.
type Config struct {
	// Seeds are the user page URLs, one worker each.
	Seeds []string

	// MothershipURL is the base URL of the result collection endpoint.
	MothershipURL string

	// MothershipToken is sent as a bearer token when non-empty.
	MothershipToken string

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// MaxLinks is the to-crawl queue capacity. Zero disables link following.
	MaxLinks int

	// SubmitPolicy is "once" or "per-page".
	SubmitPolicy string

	// UserAgent is the User-Agent header for page fetches.
	UserAgent string

	// MaxBodySize is the maximum response body size in bytes.
	// Zero means DefaultMaxBodySize.
	MaxBodySize int64

	// ProxyAddress is an optional SOCKS5 proxy in "host:port" form.
	ProxyAddress string

	// BatchSize is the number of workers run concurrently.
	BatchSize int

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the explicit config file path, or "" to search for
	// .usercrawl in the current and home directories.
	ConfigFilePath string

	// SiteConfigs is the loaded config file. It is never nil after the CLI
	// builds the Config.
	SiteConfigs *File

	// JSONReport selects the JSON report. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects the Markdown report.
	MarkdownReport bool

	// ReportFile is the report destination; "" means stdout.
	ReportFile string

	// SaveToDB archives each finished run in the SQLite database.
	SaveToDB bool

	// DBDir is the directory holding the database. Defaults to XDGDataDir.
	DBDir string
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		Timeout:      DefaultTimeout,
		MaxLinks:     DefaultMaxLinks,
		SubmitPolicy: DefaultSubmitPolicy,
		UserAgent:    DefaultUserAgent,
		MaxBodySize:  DefaultMaxBodySize,
		BatchSize:    DefaultBatchSize,
		DBDir:        XDGDataDir(),
		SiteConfigs:  NewFile(),
	}
}

// XDGDataDir returns the XDG data directory for usercrawl.
// On Linux: ~/.local/share/usercrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for usercrawl.
// On Linux: ~/.config/usercrawl
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeed
	}
	for _, seed := range c.Seeds {
		if !isHTTPURL(seed) {
			return fmt.Errorf("%w: %q", ErrInvalidSeed, seed)
		}
	}

	if strings.TrimSpace(c.MothershipURL) == "" {
		return ErrNoMothership
	}
	if !isHTTPURL(c.MothershipURL) {
		return fmt.Errorf("%w: mothership URL %q", ErrNoMothership, c.MothershipURL)
	}

	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.MaxLinks < 0 {
		return ErrInvalidMaxLinks
	}
	if c.BatchSize <= 0 {
		return ErrInvalidBatchSize
	}

	switch strings.ToLower(c.SubmitPolicy) {
	case "", SubmitPolicyOnce, SubmitPolicyPerPage:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidSubmitPolicy, c.SubmitPolicy)
	}

	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}

	return nil
}

// ApplyFile copies mothership settings and the default site settings from f
// into c for every field not already set on the command line. The set
// function reports whether a flag was given explicitly.
func (c *Config) ApplyFile(f *File, set func(flag string) bool) {
	if f == nil {
		return
	}
	if set == nil {
		set = func(string) bool { return false }
	}
	c.SiteConfigs = f

	if !set("mothership") && f.Mothership.URL != "" {
		c.MothershipURL = f.Mothership.URL
	}
	if !set("token") && f.Mothership.Token != "" {
		c.MothershipToken = f.Mothership.Token
	}
	if !set("max-links") && f.Defaults.MaxLinks != nil {
		c.MaxLinks = *f.Defaults.MaxLinks
	}
	if !set("user-agent") && f.Defaults.UserAgent != "" {
		c.UserAgent = f.Defaults.UserAgent
	}
}

// isHTTPURL reports whether s parses as an absolute http(s) URL with a host.
func isHTTPURL(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}
