// Package inbox imports notes dropped as markdown files into a watched
// capture directory. Each imported file becomes a note and is removed
// from the directory afterwards.
package inbox

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/halvard/othala/internal/noteservice"
)

// settleDelay gives the writing process time to finish before the file
// is read. Editors and sync clients often write in several chunks.
const settleDelay = 200 * time.Millisecond

// Watch sweeps dir once, then processes fsnotify events until ctx is
// cancelled. Only top-level .md files are imported; subdirectories are
// ignored.
func Watch(ctx context.Context, svc *noteservice.Service, dir string, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(dir); err != nil {
		return err
	}

	logger.Info("inbox: started", slog.String("dir", dir))
	sweep(ctx, svc, dir, logger)

	// pending holds files seen recently; their timers fire after the
	// settle delay so partially written files are not imported.
	pending := make(map[string]*time.Timer)
	due := make(chan string, 16)

	defer func() {
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("inbox: stopped")
			return nil

		case path := <-due:
			delete(pending, path)
			importFile(ctx, svc, path, logger)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !strings.HasSuffix(ev.Name, ".md") {
				continue
			}
			if t, exists := pending[ev.Name]; exists {
				t.Reset(settleDelay)
				continue
			}
			path := ev.Name
			pending[path] = time.AfterFunc(settleDelay, func() {
				select {
				case due <- path:
				case <-ctx.Done():
				}
			})

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("inbox: watch error", slog.String("error", watchErr.Error()))
		}
	}
}

// sweep imports files already present when the watcher starts.
func sweep(ctx context.Context, svc *noteservice.Service, dir string, logger *slog.Logger) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logger.Warn("inbox: sweep failed", slog.String("error", err.Error()))
		return
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		importFile(ctx, svc, filepath.Join(dir, e.Name()), logger)
	}
}

func importFile(ctx context.Context, svc *noteservice.Service, path string, logger *slog.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("inbox: read failed", slog.String("path", path), slog.String("error", err.Error()))
		}
		return
	}

	title, content := splitTitle(string(data), path)
	note, err := svc.CreateUnique(ctx, title, content)
	if err != nil {
		logger.Warn("inbox: import failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}

	if err := os.Remove(path); err != nil {
		logger.Warn("inbox: cleanup failed", slog.String("path", path), slog.String("error", err.Error()))
	}
	logger.Info("inbox: imported",
		slog.String("path", filepath.Base(path)),
		slog.String("id", note.ID),
		slog.String("title", note.Title))
}

// splitTitle takes the first "# " heading as the title, removing that
// line from the content. Without one, the filename stem is the title and
// the whole file is the content.
func splitTitle(text, path string) (title, content string) {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if after, ok := strings.CutPrefix(trimmed, "# "); ok {
			rest := append(append([]string{}, lines[:i]...), lines[i+1:]...)
			return strings.TrimSpace(after), strings.TrimSpace(strings.Join(rest, "\n"))
		}
		break
	}
	stem := strings.TrimSuffix(filepath.Base(path), ".md")
	return stem, strings.TrimSpace(text)
}
