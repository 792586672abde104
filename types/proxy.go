package types

import (
	"fmt"
	"strconv"
	"strings"
)

// ProxyEndpoint is a resolved proxy endpoint the fetch engine can dial.
type ProxyEndpoint struct {
	// Host is the proxy host.
	Host string `json:"host" msgpack:"host" yaml:"host"`
	// Port is the proxy port (1-65535).
	Port int `json:"port" msgpack:"port" yaml:"port"`
	// Username is the optional username for authentication.
	Username *string `json:"username,omitempty" msgpack:"username,omitempty" yaml:"username,omitempty"`
	// Password is the optional password for authentication.
	Password *string `json:"password,omitempty" msgpack:"password,omitempty" yaml:"password,omitempty"`
}

// Validate checks host, port range, and that credentials come as a pair.
func (p *ProxyEndpoint) Validate() error {
	if p.Host == "" {
		return fmt.Errorf("proxy host is required")
	}
	if p.Port < 1 || p.Port > 65535 {
		return fmt.Errorf("invalid port %d: must be between 1 and 65535", p.Port)
	}
	hasUsername := p.Username != nil && *p.Username != ""
	hasPassword := p.Password != nil && *p.Password != ""
	if hasUsername != hasPassword {
		return fmt.Errorf("username and password must be provided together")
	}
	return nil
}

// Redact returns a copy of the endpoint without the password.
func (p *ProxyEndpoint) Redact() ProxyEndpointRedacted {
	return ProxyEndpointRedacted{
		Host:     p.Host,
		Port:     p.Port,
		Username: p.Username,
	}
}

// Addr returns the host:port form, safe for logging.
func (p *ProxyEndpoint) Addr() string {
	return fmt.Sprintf("%s:%d", p.Host, p.Port)
}

// ProxyEndpointRedacted is a proxy endpoint without password, used anywhere
// the endpoint is reported back to users.
type ProxyEndpointRedacted struct {
	Host     string  `json:"host" msgpack:"host"`
	Port     int     `json:"port" msgpack:"port"`
	Username *string `json:"username,omitempty" msgpack:"username,omitempty"`
}

// ParseProxyLine parses the flat proxy-file form "host:port:user:pass".
// The credential pair is optional: "host:port" is accepted.
func ParseProxyLine(line string) (*ProxyEndpoint, error) {
	parts := strings.Split(strings.TrimSpace(line), ":")
	if len(parts) != 2 && len(parts) != 4 {
		return nil, fmt.Errorf("invalid proxy line %q: want host:port or host:port:user:pass", line)
	}

	port, err := strconv.Atoi(parts[1])
	if err != nil {
		return nil, fmt.Errorf("invalid proxy port %q: %w", parts[1], err)
	}

	ep := &ProxyEndpoint{Host: parts[0], Port: port}
	if len(parts) == 4 {
		user, pass := parts[2], parts[3]
		ep.Username = &user
		ep.Password = &pass
	}

	if err := ep.Validate(); err != nil {
		return nil, err
	}
	return ep, nil
}
