package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func validConfig() Config {
	cfg := Defaults()
	cfg.WhatsApp.PhoneNumberID = "12345"
	cfg.WhatsApp.AccessToken = "token"
	cfg.WhatsApp.VerifyToken = "verify"
	return cfg
}

func TestValidate_OK(t *testing.T) {
	cfg := validConfig()
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_MissingCredentials(t *testing.T) {
	cfg := Defaults()
	issues := Validate(&cfg)

	paths := make([]string, 0, len(issues))
	for _, issue := range issues {
		paths = append(paths, issue.Path)
	}
	assert.Contains(t, paths, "whatsapp.phoneNumberId")
	assert.Contains(t, paths, "whatsapp.accessToken")
	assert.Contains(t, paths, "whatsapp.verifyToken")
}

func TestValidate_BadPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 70000
	issues := Validate(&cfg)
	assert.Len(t, issues, 1)
	assert.Equal(t, "server.port", issues[0].Path)
}

func TestValidate_BadSessionStore(t *testing.T) {
	cfg := validConfig()
	cfg.Session.Store = "redis"
	issues := Validate(&cfg)
	assert.Len(t, issues, 1)
	assert.Equal(t, "session.store", issues[0].Path)
}

func TestValidate_DuplicateCategorySlug(t *testing.T) {
	cfg := validConfig()
	cfg.Classifier.Categories = append(cfg.Classifier.Categories, CategoryRule{
		Slug: "water", Name: "Water again", Keywords: []string{"aqua"},
	})
	issues := Validate(&cfg)
	assert.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "duplicate")
}

func TestValidate_CategoryWithoutKeywords(t *testing.T) {
	cfg := validConfig()
	cfg.Classifier.Categories = []CategoryRule{{Slug: "misc", Name: "Misc"}}
	issues := Validate(&cfg)
	assert.Len(t, issues, 1)
	assert.Contains(t, issues[0].Message, "no keywords")
}
