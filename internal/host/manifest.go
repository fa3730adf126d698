// Package host runs external kudubot services the way a kudubot host does:
// write the message to a file, invoke the service binary, read back the
// response and the (possibly rewritten) message.
package host

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest describes how to start one external service.
type Manifest struct {
	Name string `yaml:"name"`
	// Command precedes the executable, e.g. [python3] or [java, -jar].
	Command        []string `yaml:"command,omitempty"`
	Executable     string   `yaml:"executable"`
	TimeoutSeconds int      `yaml:"timeoutSeconds,omitempty"`
	// Database is passed to the service as the optional fourth argument.
	Database string `yaml:"database,omitempty"`
}

// LoadManifest reads a YAML manifest. A relative executable containing a
// path separator is resolved against the manifest's directory; a bare name
// is looked up in PATH.
func LoadManifest(path string) (*Manifest, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("manifest path: %w", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	if m.Executable != "" && !filepath.IsAbs(m.Executable) && strings.ContainsRune(m.Executable, filepath.Separator) {
		m.Executable = filepath.Join(filepath.Dir(path), m.Executable)
	}
	if m.Name == "" {
		m.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if err := m.Validate(); err != nil {
		return nil, fmt.Errorf("manifest %s: %w", path, err)
	}
	return &m, nil
}

func (m *Manifest) Validate() error {
	var errs []string
	if m.Name == "" {
		errs = append(errs, "name is required")
	}
	if strings.ContainsAny(m.Name, `/\`) || m.Name == "." || m.Name == ".." {
		errs = append(errs, fmt.Sprintf("name %q must be a plain directory name", m.Name))
	}
	if m.Executable == "" {
		errs = append(errs, "executable is required")
	}
	if m.TimeoutSeconds < 0 {
		errs = append(errs, "timeoutSeconds must not be negative")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Argv builds the full command line for one invocation.
func (m *Manifest) Argv(mode, messagePath, responsePath string) []string {
	argv := make([]string, 0, len(m.Command)+5)
	argv = append(argv, m.Command...)
	argv = append(argv, m.Executable, mode, messagePath, responsePath)
	if m.Database != "" {
		argv = append(argv, m.Database)
	}
	return argv
}
