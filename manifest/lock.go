package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// LockFileName is written into the build directory by luasm build.
const LockFileName = "luasm.lock"

// LockFile records the inputs and outputs of the last build, so unchanged
// units can be skipped.
type LockFile struct {
	Units []LockedUnit `toml:"unit"`
}

// LockedUnit is the build record of one unit. Digests are hex SHA-256.
type LockedUnit struct {
	Source       string `toml:"source"`
	SourceDigest string `toml:"source-digest"`
	Output       string `toml:"output"`
	OutputDigest string `toml:"output-digest"`
}

// LockFilePath returns the path of the lock file in the build directory.
func (m *Manifest) LockFilePath() string {
	return filepath.Join(m.OutDir(), LockFileName)
}

// ReadLock reads a lock file. A missing file yields nil, nil.
func ReadLock(path string) (*LockFile, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var lf LockFile
	if err := toml.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return &lf, nil
}

// WriteLock writes lf to path, creating the directory if needed.
func WriteLock(path string, lf *LockFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(lf); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return f.Close()
}

// FindUnit returns the record for the unit with the given source path, or nil.
func (lf *LockFile) FindUnit(source string) *LockedUnit {
	if lf == nil {
		return nil
	}
	for i := range lf.Units {
		if lf.Units[i].Source == source {
			return &lf.Units[i]
		}
	}
	return nil
}
