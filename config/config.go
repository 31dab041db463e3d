// Package config loads the YAML document that declares what the client
// role probes and which ports the server role keeps listening.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// WildcardHost is the bind address used for bare port declarations.
const WildcardHost = "0.0.0.0"

var (
	// ErrInvalidPort is returned for port values that are not in 1..65535.
	ErrInvalidPort = errors.New("invalid port")

	// ErrMalformedPort is returned for server port specifiers that are
	// neither a bare port nor a single "host:port" pair.
	ErrMalformedPort = errors.New("malformed port specifier")
)

// Config is the parsed configuration document. Both sections are optional;
// a nil section means it was not declared at all.
type Config struct {
	Client *Client `yaml:"client"`
	Server *Server `yaml:"server"`
}

// Client is the `client` section.
type Client struct {
	// Targets is nil when the section has no `targets` key.
	Targets *Targets `yaml:"targets"`
}

// Server is the `server` section.
type Server struct {
	Ports []ServerPort `yaml:"ports"`
}

// Target is a host with the ports to probe, in declared order. Ports are
// kept as raw scalars so one bad value only invalidates itself.
type Target struct {
	Host  string
	Ports []string
}

// Targets keeps the order in which hosts appear under `client.targets`.
type Targets []Target

type targetBody struct {
	Ports []yaml.Node `yaml:"ports"`
}

// UnmarshalYAML decodes the host mapping pair by pair so the declaration
// order survives, which a Go map would lose.
func (t *Targets) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: targets must be a mapping of host to ports", node.Line)
	}

	out := make(Targets, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]

		var body targetBody
		if value.ShortTag() != "!!null" {
			if err := value.Decode(&body); err != nil {
				return fmt.Errorf("target %s: %w", key.Value, err)
			}
		}

		target := Target{Host: key.Value, Ports: make([]string, 0, len(body.Ports))}
		for _, p := range body.Ports {
			if p.Kind != yaml.ScalarNode {
				return fmt.Errorf("target %s: line %d: port must be a scalar", key.Value, p.Line)
			}
			target.Ports = append(target.Ports, p.Value)
		}

		out = append(out, target)
	}

	*t = out
	return nil
}

// ServerPort is one entry of `server.ports`: either a bare port or a
// "host:port" string.
type ServerPort string

// UnmarshalYAML accepts any scalar; validation happens in ParseServerPort.
func (p *ServerPort) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: server port must be a scalar", node.Line)
	}
	*p = ServerPort(node.Value)
	return nil
}

// BindAddr is a resolved server bind address.
type BindAddr struct {
	Host string
	Port uint16
}

func (a BindAddr) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(int(a.Port)))
}

// Load reads and decodes the configuration file at path.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("no configuration file given")
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	return Parse(content)
}

// Parse decodes a configuration document. An empty document yields a
// Config with both sections nil.
func Parse(content []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return &cfg, nil
}

// ParsePort validates a port scalar.
func ParsePort(s string) (uint16, error) {
	port, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil || port == 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidPort, s)
	}
	return uint16(port), nil
}

// ParseServerPort resolves a server port specifier. A bare port binds on
// WildcardHost. Bracketed IPv6 literals such as "[::1]:80" are accepted.
func ParseServerPort(spec ServerPort) (BindAddr, error) {
	s := strings.TrimSpace(string(spec))

	var host, port string
	switch {
	case strings.HasPrefix(s, "["):
		h, p, err := net.SplitHostPort(s)
		if err != nil {
			return BindAddr{}, fmt.Errorf("%w: %q", ErrMalformedPort, s)
		}
		host, port = h, p
	case strings.Count(s, ":") == 0:
		host, port = WildcardHost, s
	case strings.Count(s, ":") == 1:
		host, port, _ = strings.Cut(s, ":")
	default:
		return BindAddr{}, fmt.Errorf("%w: %q", ErrMalformedPort, s)
	}

	if host == "" {
		host = WildcardHost
	}

	p, err := ParsePort(port)
	if err != nil {
		return BindAddr{}, fmt.Errorf("%w: %q: %w", ErrMalformedPort, s, err)
	}

	return BindAddr{Host: host, Port: p}, nil
}
