package config

// Config is the root configuration for the intake service.
type Config struct {
	Server     ServerConfig     `yaml:"server,omitempty"`
	WhatsApp   WhatsAppConfig   `yaml:"whatsapp,omitempty"`
	Session    SessionConfig    `yaml:"session,omitempty"`
	Store      StoreConfig      `yaml:"store,omitempty"`
	Intake     IntakeConfig     `yaml:"intake,omitempty"`
	Classifier ClassifierConfig `yaml:"classifier,omitempty"`
	Logging    LoggingConfig    `yaml:"logging,omitempty"`
}

// ServerConfig controls the webhook HTTP server.
type ServerConfig struct {
	Port           int    `yaml:"port,omitempty"`
	Bind           string `yaml:"bind,omitempty"` // "loopback" | "lan" | "custom"
	CustomBindHost string `yaml:"customBindHost,omitempty"`
}

// WhatsAppConfig holds messaging provider credentials and endpoints.
// AccessToken and VerifyToken may be given as ${ENV_VAR} references.
type WhatsAppConfig struct {
	BaseURL        string `yaml:"baseUrl,omitempty"`
	PhoneNumberID  string `yaml:"phoneNumberId,omitempty"`
	AccessToken    string `yaml:"accessToken,omitempty"`
	VerifyToken    string `yaml:"verifyToken,omitempty"`
	TimeoutSeconds int    `yaml:"timeoutSeconds,omitempty"`
}

// SessionConfig defines conversation session behavior.
type SessionConfig struct {
	TTLMinutes int    `yaml:"ttlMinutes,omitempty"`
	Store      string `yaml:"store,omitempty"` // "sqlite" | "memory"
}

// StoreConfig controls SQLite persistence.
type StoreConfig struct {
	Path string `yaml:"path,omitempty"`
}

// IntakeConfig controls issue creation behavior.
type IntakeConfig struct {
	DefaultLocation string `yaml:"defaultLocation,omitempty"` // region fallback for direct reports
	FrontendURL     string `yaml:"frontendUrl,omitempty"`     // tracking link base in confirmations
}

// ClassifierConfig holds the heuristic vocabularies. Every table has a
// default reproducing the platform's standard set; overriding any list
// replaces it wholesale.
type ClassifierConfig struct {
	Greetings       []string       `yaml:"greetings,omitempty"`
	IssueKeywords   []string       `yaml:"issueKeywords,omitempty"`
	MinReportLength int            `yaml:"minReportLength,omitempty"`
	Gazetteer       []string       `yaml:"gazetteer,omitempty"`
	Categories      []CategoryRule `yaml:"categories,omitempty"`
}

// CategoryRule maps a reporting category to its inference keywords and its
// menu presentation. Order matters: category inference returns the first
// rule with a matching keyword.
type CategoryRule struct {
	Slug        string   `yaml:"slug"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description,omitempty"`
	Section     string   `yaml:"section,omitempty"`
	Keywords    []string `yaml:"keywords"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug"
}
