package config

import "fmt"

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s", e.Message)
}

// Defaults returns a Config with sensible defaults applied. The classifier
// tables carry the platform's standard vocabularies for the Federal Capital
// Territory deployment.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 8084,
			Bind: "loopback",
		},
		WhatsApp: WhatsAppConfig{
			BaseURL:        "https://graph.facebook.com/v18.0",
			TimeoutSeconds: 10,
		},
		Session: SessionConfig{
			TTLMinutes: 60,
			Store:      "sqlite",
		},
		Intake: IntakeConfig{
			DefaultLocation: "FCT",
		},
		Classifier: ClassifierConfig{
			Greetings: []string{
				"hi", "hello", "hey",
				"good morning", "good afternoon", "good evening",
				"hola", "start", "begin", "help", "info",
			},
			IssueKeywords: []string{
				"problem", "issue", "broken", "not working", "damage", "repair",
				"water", "electricity", "road", "pothole", "trash", "garbage",
				"security", "crime", "emergency", "help", "complaint", "report",
				"flooding", "burst", "outage", "fault", "blocked", "overflow",
			},
			MinReportLength: 10,
			Gazetteer: []string{
				"Kubwa", "Gwarinpa", "Garki", "Wuse", "Maitama", "Asokoro",
				"Utako", "Jabi", "Life Camp", "Karu", "Nyanya", "Gwagwalada",
				"Airport Road", "Ahmadu Bello Way", "Constitution Avenue",
			},
			Categories: []CategoryRule{
				{
					Slug: "water", Name: "Water & Sanitation",
					Description: "Pipe bursts, water shortage, drainage",
					Section:     "Infrastructure",
					Keywords:    []string{"water", "pipe", "burst", "leak", "borehole", "tap", "drainage", "sewage"},
				},
				{
					Slug: "electricity", Name: "Electricity",
					Description: "Power outages, faulty equipment",
					Section:     "Infrastructure",
					Keywords:    []string{"light", "power", "electricity", "transformer", "cable", "outage"},
				},
				{
					Slug: "roads", Name: "Roads & Transport",
					Description: "Potholes, traffic lights, bridges",
					Section:     "Infrastructure",
					Keywords:    []string{"road", "pothole", "traffic", "bridge", "street", "highway"},
				},
				{
					Slug: "security", Name: "Security",
					Description: "Safety concerns, crime reports",
					Section:     "Public Services",
					Keywords:    []string{"security", "crime", "robbery", "theft", "police", "safety"},
				},
				{
					Slug: "healthcare", Name: "Healthcare",
					Description: "Hospital services, medical facilities",
					Section:     "Public Services",
					Keywords:    []string{"hospital", "clinic", "health", "medical", "doctor", "ambulance"},
				},
				{
					Slug: "environment", Name: "Environment",
					Description: "Waste management, pollution",
					Section:     "Public Services",
					Keywords:    []string{"waste", "garbage", "trash", "cleaning", "pollution", "dump"},
				},
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// CategorySlugs returns the ordered slugs of all configured categories.
func (c ClassifierConfig) CategorySlugs() []string {
	slugs := make([]string, 0, len(c.Categories))
	for _, rule := range c.Categories {
		slugs = append(slugs, rule.Slug)
	}
	return slugs
}
