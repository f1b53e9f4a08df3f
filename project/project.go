// Package project builds every unit listed in a luasm.toml manifest.
package project

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"

	"github.com/chazu/luasm/assembler"
	"github.com/chazu/luasm/manifest"
	"github.com/chazu/luasm/pkg/luac"
)

var log = commonlog.GetLogger("luasm.project")

// Options controls a build.
type Options struct {
	// Force rebuilds units even when the lock file says they are current.
	Force bool
}

// Result describes what happened to one unit.
type Result struct {
	Unit    manifest.Unit
	Skipped bool // output was already current
	Size    int  // bytes written
}

// Build assembles the units of m into its build directory and updates the
// lock file. It stops at the first unit that fails; the error names the
// unit's source file and wraps the assembler error.
func Build(m *manifest.Manifest, opts Options) ([]Result, error) {
	lock, err := manifest.ReadLock(m.LockFilePath())
	if err != nil {
		return nil, fmt.Errorf("reading lock file: %w", err)
	}

	var results []Result
	next := &manifest.LockFile{}
	for _, u := range m.Units() {
		res, rec, err := buildUnit(u, lock.FindUnit(u.Source), opts)
		if err != nil {
			return results, err
		}
		results = append(results, res)
		next.Units = append(next.Units, rec)
	}

	if err := manifest.WriteLock(m.LockFilePath(), next); err != nil {
		return results, fmt.Errorf("writing lock file: %w", err)
	}
	return results, nil
}

func buildUnit(u manifest.Unit, prev *manifest.LockedUnit, opts Options) (Result, manifest.LockedUnit, error) {
	res := Result{Unit: u}

	src, err := os.ReadFile(u.Source)
	if err != nil {
		return res, manifest.LockedUnit{}, err
	}
	rec := manifest.LockedUnit{
		Source:       u.Source,
		SourceDigest: digest(src),
		Output:       u.Output,
	}

	if !opts.Force && prev != nil && prev.SourceDigest == rec.SourceDigest && prev.Output == u.Output {
		if out, err := os.ReadFile(u.Output); err == nil && digest(out) == prev.OutputDigest {
			log.Debugf("%s is up to date", u.Output)
			res.Skipped = true
			return res, *prev, nil
		}
	}

	c, err := assembler.Parse(string(src))
	if err != nil {
		return res, rec, fmt.Errorf("%s: %w", u.Source, err)
	}
	data, err := luac.Marshal(c)
	if err != nil {
		return res, rec, fmt.Errorf("%s: %w", u.Source, err)
	}

	if err := os.MkdirAll(filepath.Dir(u.Output), 0755); err != nil {
		return res, rec, err
	}
	if err := os.WriteFile(u.Output, data, 0644); err != nil {
		return res, rec, err
	}
	log.Infof("assembled %s -> %s (%d bytes)", u.Source, u.Output, len(data))

	rec.OutputDigest = digest(data)
	res.Size = len(data)
	return res, rec, nil
}

func digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
