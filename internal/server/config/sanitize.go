package config

import (
	"maps"
	"net/url"
	"strings"
)

// Sanitize returns a copy of the config with sensitive fields masked.
//
// This is used for logging configuration without exposing secrets.
func Sanitize(cfg *ServerConfig) *ServerConfig {
	sanitized := *cfg
	sanitized.Server.HTTP.CORSOrigins = append([]string(nil), cfg.Server.HTTP.CORSOrigins...)
	sanitized.Metrics.RemoteWrite.Labels = maps.Clone(cfg.Metrics.RemoteWrite.Labels)

	if raw := sanitized.Metrics.RemoteWrite.URL; raw != "" {
		sanitized.Metrics.RemoteWrite.URL = maskURL(raw)
	}

	return &sanitized
}

// maskURL hides the password part of a URL's userinfo.
func maskURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "****"
	}
	if u.User == nil {
		return raw
	}
	if pw, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), maskSecret(pw))
	}
	return u.String()
}

// maskSecret masks a secret value for safe logging.
func maskSecret(s string) string {
	if len(s) <= 4 {
		return "****"
	}
	return s[:2] + strings.Repeat("*", len(s)-4) + s[len(s)-2:]
}
