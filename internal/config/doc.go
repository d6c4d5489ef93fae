// Package config provides the configuration of a usercrawl run.
//
// Config is a flat struct filled from CLI flags and validated once before
// any network access. File is the optional YAML file (.usercrawl) that
// supplies the mothership endpoint and per-host site settings such as extra
// headers, a User-Agent, or a queue capacity.
package config
