package config

import "time"

const (
	gatewayURLEnvVar     = "SUPABASE_URL"
	serviceKeyEnvVar     = "SUPABASE_SERVICE_KEY"
	gatewayTimeoutEnvVar = "GATEWAY_TIMEOUT"

	codeHostTokenEnvVar   = "GITHUB_TOKEN"
	codeHostURLEnvVar     = "GITHUB_API_URL"
	codeHostTimeoutEnvVar = "CODEHOST_TIMEOUT"
)

// Gateway locates the database REST/RPC gateway. The service key is sent on
// every call and never leaves the backend.
type Gateway struct {
	URL        string        `yaml:"url"`
	ServiceKey string        `yaml:"service_key"`
	Timeout    time.Duration `yaml:"timeout"`
}

func defaultGateway() Gateway {
	return Gateway{Timeout: 10 * time.Second}
}

func (g *Gateway) loadEnv() error {
	var err error
	g.URL = GetEnv(gatewayURLEnvVar, g.URL)
	g.ServiceKey = GetEnv(serviceKeyEnvVar, g.ServiceKey)
	g.Timeout, err = durationFromEnv(gatewayTimeoutEnvVar, g.Timeout)
	return err
}

// CodeHost configures the read-only code hosting proxy. Token is optional.
type CodeHost struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

func defaultCodeHost() CodeHost {
	return CodeHost{
		BaseURL: "https://api.github.com",
		Timeout: 10 * time.Second,
	}
}

func (c *CodeHost) loadEnv() error {
	var err error
	c.BaseURL = GetEnv(codeHostURLEnvVar, c.BaseURL)
	c.Token = GetEnv(codeHostTokenEnvVar, c.Token)
	c.Timeout, err = durationFromEnv(codeHostTimeoutEnvVar, c.Timeout)
	return err
}
