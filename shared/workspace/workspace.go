// Package workspace manages request-scoped temporary directories for
// downloaded audio and caption artifacts.
package workspace

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const dirPrefix = "quiz_media_"

// Workspace is an isolated directory owned by exactly one request. Callers
// must defer Release immediately after a successful Acquire.
type Workspace struct {
	dir string
}

// Acquire creates a fresh workspace under root.
func Acquire(root string) (*Workspace, error) {
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create workspace root %s: %w", root, err)
	}

	dir := filepath.Join(root, dirPrefix+uuid.NewString())
	if err := os.Mkdir(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	return &Workspace{dir: dir}, nil
}

func (w *Workspace) Dir() string {
	return w.dir
}

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Release removes the workspace and everything in it. It is safe to call
// more than once.
func (w *Workspace) Release() {
	if w == nil || w.dir == "" {
		return
	}
	if err := os.RemoveAll(w.dir); err != nil {
		logrus.WithError(err).WithField("workspace", w.dir).Warn("Failed to remove workspace")
		return
	}
	w.dir = ""
}

// Sweeper removes workspaces left behind by a process that died mid-request.
type Sweeper struct {
	Root   string
	MaxAge time.Duration
}

func (s *Sweeper) Name() string {
	return "Workspace Sweeper"
}

// Run deletes workspace directories under Root older than MaxAge.
func (s *Sweeper) Run(ctx context.Context) error {
	entries, err := os.ReadDir(s.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to list workspace root %s: %w", s.Root, err)
	}

	cutoff := time.Now().Add(-s.MaxAge)
	removed := 0
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), dirPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.Root, entry.Name())
		if err := os.RemoveAll(path); err != nil {
			logrus.WithError(err).WithField("workspace", path).Warn("Failed to sweep stale workspace")
			continue
		}
		removed++
	}

	if removed > 0 {
		logrus.WithField("removed", removed).Info("Swept stale workspaces")
	}
	return nil
}
