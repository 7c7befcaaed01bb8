package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "server.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Server.Port),
		})
	}

	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Server.Bind != "" && !slices.Contains(validBinds, cfg.Server.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "server.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Server.Bind),
		})
	}

	if cfg.WhatsApp.PhoneNumberID == "" {
		issues = append(issues, ValidationIssue{
			Path:    "whatsapp.phoneNumberId",
			Message: "phone number ID is required",
		})
	}
	if cfg.WhatsApp.AccessToken == "" {
		issues = append(issues, ValidationIssue{
			Path:    "whatsapp.accessToken",
			Message: "access token is required (set INTAKE_WHATSAPP_ACCESS_TOKEN or use ${VAR})",
		})
	}
	if cfg.WhatsApp.VerifyToken == "" {
		issues = append(issues, ValidationIssue{
			Path:    "whatsapp.verifyToken",
			Message: "verify token is required for webhook verification",
		})
	}

	if cfg.Session.TTLMinutes < 1 {
		issues = append(issues, ValidationIssue{
			Path:    "session.ttlMinutes",
			Message: fmt.Sprintf("TTL must be at least 1 minute, got %d", cfg.Session.TTLMinutes),
		})
	}
	validStores := []string{"sqlite", "memory"}
	if cfg.Session.Store != "" && !slices.Contains(validStores, cfg.Session.Store) {
		issues = append(issues, ValidationIssue{
			Path:    "session.store",
			Message: fmt.Sprintf("must be one of %v, got %q", validStores, cfg.Session.Store),
		})
	}

	if cfg.Classifier.MinReportLength < 1 {
		issues = append(issues, ValidationIssue{
			Path:    "classifier.minReportLength",
			Message: "minimum report length must be positive",
		})
	}
	seen := map[string]bool{}
	for i, rule := range cfg.Classifier.Categories {
		path := fmt.Sprintf("classifier.categories[%d]", i)
		if rule.Slug == "" {
			issues = append(issues, ValidationIssue{Path: path + ".slug", Message: "slug is required"})
			continue
		}
		if seen[rule.Slug] {
			issues = append(issues, ValidationIssue{
				Path:    path + ".slug",
				Message: fmt.Sprintf("duplicate category slug %q", rule.Slug),
			})
		}
		seen[rule.Slug] = true
		if len(rule.Keywords) == 0 {
			issues = append(issues, ValidationIssue{
				Path:    path + ".keywords",
				Message: fmt.Sprintf("category %q has no keywords", rule.Slug),
			})
		}
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	return issues
}
