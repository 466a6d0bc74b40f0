package config

type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func NewMailConfig() *MailConfig {
	return &MailConfig{
		Host:     getEnv("SMTP_HOST", ""),
		Port:     getIntEnv("SMTP_PORT", 587),
		Username: getEnv("SMTP_USER", ""),
		Password: getEnv("SMTP_PASSWORD", ""),
		From:     getEnv("SMTP_FROM", "no-reply@magneto.local"),
	}
}

// Enabled reports whether outgoing mail goes to an SMTP server
func (c *MailConfig) Enabled() bool {
	return c.Host != ""
}
