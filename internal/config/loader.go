package config

import (
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// envVarPattern matches ${VAR_NAME} patterns in strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// expandEnvVars replaces ${VAR} patterns with environment variable values.
// Unset variables are left unchanged.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := match[2 : len(match)-1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})
}

// expandSensitiveFields processes environment variable references in
// credential fields so tokens can be stored as ${ENV_VAR}.
func expandSensitiveFields(cfg *Config) {
	cfg.WhatsApp.AccessToken = expandEnvVars(cfg.WhatsApp.AccessToken)
	cfg.WhatsApp.VerifyToken = expandEnvVars(cfg.WhatsApp.VerifyToken)
}

// applyDefaults fills zero-valued fields after a file load. List-valued
// classifier tables are only defaulted when entirely absent so a partial
// override replaces the table wholesale.
func applyDefaults(cfg *Config) {
	def := Defaults()

	if cfg.Server.Port == 0 {
		cfg.Server.Port = def.Server.Port
	}
	if cfg.Server.Bind == "" {
		cfg.Server.Bind = def.Server.Bind
	}
	if cfg.WhatsApp.BaseURL == "" {
		cfg.WhatsApp.BaseURL = def.WhatsApp.BaseURL
	}
	if cfg.WhatsApp.TimeoutSeconds == 0 {
		cfg.WhatsApp.TimeoutSeconds = def.WhatsApp.TimeoutSeconds
	}
	if cfg.Session.TTLMinutes == 0 {
		cfg.Session.TTLMinutes = def.Session.TTLMinutes
	}
	if cfg.Session.Store == "" {
		cfg.Session.Store = def.Session.Store
	}
	if cfg.Intake.DefaultLocation == "" {
		cfg.Intake.DefaultLocation = def.Intake.DefaultLocation
	}
	if len(cfg.Classifier.Greetings) == 0 {
		cfg.Classifier.Greetings = def.Classifier.Greetings
	}
	if len(cfg.Classifier.IssueKeywords) == 0 {
		cfg.Classifier.IssueKeywords = def.Classifier.IssueKeywords
	}
	if cfg.Classifier.MinReportLength == 0 {
		cfg.Classifier.MinReportLength = def.Classifier.MinReportLength
	}
	if len(cfg.Classifier.Gazetteer) == 0 {
		cfg.Classifier.Gazetteer = def.Classifier.Gazetteer
	}
	if len(cfg.Classifier.Categories) == 0 {
		cfg.Classifier.Categories = def.Classifier.Categories
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
}

// applyEnvOverrides lets a few environment variables override file values.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("INTAKE_WHATSAPP_ACCESS_TOKEN"); v != "" {
		cfg.WhatsApp.AccessToken = v
	}
	if v := os.Getenv("INTAKE_WHATSAPP_VERIFY_TOKEN"); v != "" {
		cfg.WhatsApp.VerifyToken = v
	}
	if v := os.Getenv("INTAKE_DB_PATH"); v != "" {
		cfg.Store.Path = v
	}
}

// Load reads the config file, applies defaults and environment overrides,
// and returns a merged Config. A missing file produces defaults only.
func Load(path string) (Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnvOverrides(&cfg)
			expandSensitiveFields(&cfg)
			return cfg, nil
		}
		return cfg, err
	}

	cfg = Config{}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, &ConfigError{Message: "failed to parse config: " + err.Error()}
	}

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)
	expandSensitiveFields(&cfg)
	return cfg, nil
}
