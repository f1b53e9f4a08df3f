// Package manifest handles luasm.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// FileName is the name of the project file.
const FileName = "luasm.toml"

// Manifest represents a luasm.toml project configuration.
type Manifest struct {
	Project Project   `toml:"project"`
	Build   Build     `toml:"build"`
	Unit    []UnitDef `toml:"unit"`
	Log     Log       `toml:"log"`

	// Dir is the directory containing the luasm.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name string `toml:"name"`
}

// Build configures where assembled chunks are written.
type Build struct {
	OutDir string `toml:"out-dir"`
}

// UnitDef is one [[unit]] table: an assembler source file and the chunk
// it produces. Output is relative to the build directory.
type UnitDef struct {
	Source string `toml:"source"`
	Output string `toml:"output"`
}

// Log configures logging for commands run inside the project.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Unit is a build unit with absolute paths.
type Unit struct {
	Source string
	Output string
}

// Load parses a luasm.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	// Defaults
	if m.Build.OutDir == "" {
		m.Build.OutDir = "build"
	}
	for i := range m.Unit {
		u := &m.Unit[i]
		if u.Source == "" {
			return nil, fmt.Errorf("%s: unit %d has no source", path, i+1)
		}
		if u.Output == "" {
			base := filepath.Base(u.Source)
			u.Output = strings.TrimSuffix(base, filepath.Ext(base)) + ".luac"
		}
	}

	seen := make(map[string]string)
	for _, u := range m.Units() {
		if prev, ok := seen[u.Output]; ok {
			return nil, fmt.Errorf("%s: units %s and %s both write %s", path, prev, u.Source, u.Output)
		}
		seen[u.Output] = u.Source
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a luasm.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// OutDir returns the absolute build directory.
func (m *Manifest) OutDir() string {
	return m.resolve(m.Dir, m.Build.OutDir)
}

// Units returns the build units with sources resolved against the project
// directory and outputs against the build directory.
func (m *Manifest) Units() []Unit {
	out := m.OutDir()
	units := make([]Unit, 0, len(m.Unit))
	for _, u := range m.Unit {
		units = append(units, Unit{
			Source: m.resolve(m.Dir, u.Source),
			Output: m.resolve(out, u.Output),
		})
	}
	return units
}

// LogFile returns the absolute log file path, or "" to log to stderr.
func (m *Manifest) LogFile() string {
	if m.Log.File == "" {
		return ""
	}
	return m.resolve(m.Dir, m.Log.File)
}

func (m *Manifest) resolve(base, p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(base, p)
}
