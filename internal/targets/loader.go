// Package targets reads the YAML targets file and turns it into validated
// domain targets. Nothing malformed leaves this package.
package targets

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/hamed0406/downtimebench/internal/domain"
)

var ErrNoTargets = errors.New("no targets defined in the targets file")

// allowedArgs lists the args each kind accepts; every one of them is required.
var allowedArgs = map[domain.Kind][]string{
	domain.KindHTTP: {"url"},
	domain.KindTCP:  {"host", "port"},
}

type rawFile struct {
	Targets []rawTarget `yaml:"targets"`
}

type rawTarget struct {
	Name string               `yaml:"name"`
	Type string               `yaml:"type"`
	Args map[string]yaml.Node `yaml:"args"`
}

// Load reads and validates the targets file at path.
func Load(path string) ([]domain.Target, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read targets file %q: %w", path, err)
	}
	return Parse(content)
}

// Parse decodes a targets document. Every malformed target is reported.
func Parse(content []byte) ([]domain.Target, error) {
	var raw rawFile
	if err := yaml.Unmarshal(content, &raw); err != nil {
		return nil, fmt.Errorf("parse targets file: %w", err)
	}
	if len(raw.Targets) == 0 {
		return nil, ErrNoTargets
	}

	var errs error
	out := make([]domain.Target, 0, len(raw.Targets))
	for i, rt := range raw.Targets {
		t, err := rt.toTarget()
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("target #%d %q (%s): %w", i+1, rt.Name, rt.Type, err))
			continue
		}
		out = append(out, t)
	}
	if errs != nil {
		return nil, errs
	}
	if err := domain.ValidateTargets(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (rt rawTarget) toTarget() (domain.Target, error) {
	kind := domain.Kind(rt.Type)
	allowed, ok := allowedArgs[kind]
	if !ok {
		return domain.Target{}, fmt.Errorf("unsupported type %q. Supported types: %s", rt.Type, supportedTypes())
	}

	unknown := make([]string, 0)
	for key := range rt.Args {
		if !contains(allowed, key) {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return domain.Target{}, fmt.Errorf("unknown arg %q. Allowed args: %s", unknown[0], strings.Join(allowed, ", "))
	}

	t := domain.Target{Name: rt.Name, Kind: kind}
	var err error
	switch kind {
	case domain.KindHTTP:
		t.URL, err = rt.stringArg("url")
	case domain.KindTCP:
		if t.Host, err = rt.stringArg("host"); err != nil {
			break
		}
		t.Port, err = rt.portArg("port")
	}
	if err != nil {
		return domain.Target{}, err
	}
	return t, nil
}

func (rt rawTarget) stringArg(name string) (string, error) {
	node, ok := rt.Args[name]
	if !ok {
		return "", fmt.Errorf("missing required arg %q", name)
	}
	if node.Kind != yaml.ScalarNode || node.ShortTag() != "!!str" {
		return "", fmt.Errorf("%q must be a string", name)
	}
	return node.Value, nil
}

func (rt rawTarget) portArg(name string) (int, error) {
	node, ok := rt.Args[name]
	if !ok {
		return 0, fmt.Errorf("missing required arg %q", name)
	}
	if node.Kind != yaml.ScalarNode || node.ShortTag() != "!!int" {
		return 0, fmt.Errorf("%q must be a number", name)
	}
	var port int64
	if err := node.Decode(&port); err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("%q must be a valid port number (1-65535)", name)
	}
	return int(port), nil
}

func supportedTypes() string {
	names := make([]string, 0, len(domain.Kinds))
	for _, k := range domain.Kinds {
		names = append(names, string(k))
	}
	return strings.Join(names, ", ")
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
