package config

import (
	"maps"
	"strings"
)

// SiteConfig holds settings applied to requests for one host.
type SiteConfig struct {
	// Headers are extra HTTP headers sent to this host, for example a
	// Cookie to skip an interstitial page.
	Headers map[string]string `yaml:"headers,omitempty"`

	// UserAgent overrides the global User-Agent for this host.
	UserAgent string `yaml:"userAgent,omitempty"`

	// MaxLinks overrides the queue capacity for seeds on this host.
	// A pointer so that an explicit 0 can be told apart from unset.
	MaxLinks *int `yaml:"maxLinks,omitempty"`
}

// Mothership holds the result collection endpoint settings.
type Mothership struct {
	// URL is the base URL; results are posted to <URL>/results.
	URL string `yaml:"url,omitempty"`

	// Token is an optional bearer token.
	Token string `yaml:"token,omitempty"`
}

// File is the structure of the .usercrawl configuration file.
type File struct {
	// Mothership configures where results are submitted.
	Mothership Mothership `yaml:"mothership,omitempty"`

	// Defaults applies to every host unless overridden in Sites.
	Defaults SiteConfig `yaml:"defaults,omitempty"`

	// Sites maps a host name (e.g. "old.reddit.com") to its settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`
}

// NewFile returns an empty File.
func NewFile() *File {
	return &File{Sites: make(map[string]SiteConfig)}
}

// SiteConfig returns the settings for host, merging the site entry over the
// defaults. Host matching ignores case. The returned Headers map is a copy.
func (f *File) SiteConfig(host string) SiteConfig {
	result := SiteConfig{
		Headers:   maps.Clone(f.Defaults.Headers),
		UserAgent: f.Defaults.UserAgent,
		MaxLinks:  f.Defaults.MaxLinks,
	}

	site, ok := f.Site(host)
	if !ok {
		return result
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		maps.Copy(result.Headers, site.Headers)
	}
	if site.UserAgent != "" {
		result.UserAgent = site.UserAgent
	}
	if site.MaxLinks != nil {
		result.MaxLinks = site.MaxLinks
	}
	return result
}

// Headers returns the merged extra headers for host. Its signature matches
// crawler.HeaderFunc.
func (f *File) Headers(host string) map[string]string {
	return f.SiteConfig(host).Headers
}

// Site returns the entry for host without merging defaults. Host matching
// ignores case.
func (f *File) Site(host string) (SiteConfig, bool) {
	if site, ok := f.Sites[host]; ok {
		return site, true
	}
	for name, site := range f.Sites {
		if strings.EqualFold(name, host) {
			return site, true
		}
	}
	return SiteConfig{}, false
}
