package config

import "time"

// OsintConfig carries the threat-intel provider settings.
type OsintConfig struct {
	Timeout          time.Duration
	VirusTotalAPIKey string
	WhoisAPIKey      string
	PhishTankAppKey  string
	DNSServer        string
	DNSTimeout       time.Duration
}

// ServerConfig carries the SMTP content-filter settings.
type ServerConfig struct {
	FilterType     string
	ListenAddress  string
	BlockPhishing  bool
	Owner          string
	StatusHeader   string
	ScoreHeader    string
	ReasonHeader   string
	SubjectPrefix  string
	ModifySubject  bool
	PostfixEnabled bool
	PostfixAddress string
	PostfixPort    int
	MaxBodySize    int
}

// APIConfig carries the HTTP API settings.
type APIConfig struct {
	ListenAddress string
	CORSOrigins   []string
	DefaultOwner  string
}

// GetOsint returns the threat-intel provider configuration.
func (c *Config) GetOsint() OsintConfig {
	timeout, err := c.GetDuration("osint.timeout")
	if err != nil {
		timeout = 20 * time.Second
	}
	dnsTimeout, err := c.GetDuration("osint.dns.timeout")
	if err != nil {
		dnsTimeout = 10 * time.Second
	}
	return OsintConfig{
		Timeout:          timeout,
		VirusTotalAPIKey: c.GetString("osint.virustotal.api_key"),
		WhoisAPIKey:      c.GetString("osint.whois.api_key"),
		PhishTankAppKey:  c.GetString("osint.phishtank.app_key"),
		DNSServer:        c.GetString("osint.dns.server"),
		DNSTimeout:       dnsTimeout,
	}
}

// GetServer returns the SMTP content-filter configuration.
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		FilterType:     c.GetString("server.filter_type"),
		ListenAddress:  c.GetString("server.listen_address"),
		BlockPhishing:  c.GetBool("server.block_phishing"),
		Owner:          c.GetString("server.owner"),
		StatusHeader:   c.GetString("server.headers.status"),
		ScoreHeader:    c.GetString("server.headers.score"),
		ReasonHeader:   c.GetString("server.headers.reason"),
		SubjectPrefix:  c.GetString("server.subject_prefix"),
		ModifySubject:  c.GetBool("server.modify_subject"),
		PostfixEnabled: c.GetBool("server.postfix.enabled"),
		PostfixAddress: c.GetString("server.postfix.address"),
		PostfixPort:    c.GetInt("server.postfix.port"),
		MaxBodySize:    c.GetInt("server.max_body_size"),
	}
}

// GetAPI returns the HTTP API configuration.
func (c *Config) GetAPI() APIConfig {
	return APIConfig{
		ListenAddress: c.GetString("api.listen_address"),
		CORSOrigins:   c.GetStringSlice("api.cors_origins"),
		DefaultOwner:  c.GetString("api.default_owner"),
	}
}
