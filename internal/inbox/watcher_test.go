package inbox

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/halvard/othala/internal/noteservice"
	"github.com/halvard/othala/internal/testutil"
)

func inboxTestEnv(t *testing.T) (string, *noteservice.Service) {
	t.Helper()
	db := testutil.TestDB(t)
	return t.TempDir(), noteservice.NewService(db, nil)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func hasTitle(svc *noteservice.Service, want string) func() bool {
	return func() bool {
		titles, _ := svc.Titles(context.Background())
		for _, title := range titles {
			if title == want {
				return true
			}
		}
		return false
	}
}

func TestWatch_InitialSweep(t *testing.T) {
	dir, svc := inboxTestEnv(t)
	_ = os.WriteFile(filepath.Join(dir, "existing.md"), []byte("# Swept Note\n\nbody"), 0o644)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, svc, dir, quietLogger())

	eventually(t, 5*time.Second, 50*time.Millisecond,
		hasTitle(svc, "Swept Note"), "pre-existing file not imported")

	eventually(t, 2*time.Second, 50*time.Millisecond, func() bool {
		_, err := os.Stat(filepath.Join(dir, "existing.md"))
		return os.IsNotExist(err)
	}, "imported file not removed")
}

func TestWatch_DroppedFileImported(t *testing.T) {
	dir, svc := inboxTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, svc, dir, quietLogger())
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "dropped.md"), []byte("no heading here"), 0o644)

	// Title falls back to the filename stem.
	eventually(t, 5*time.Second, 50*time.Millisecond,
		hasTitle(svc, "dropped"), "dropped file not imported")
}

func TestWatch_IgnoresNonMarkdown(t *testing.T) {
	dir, svc := inboxTestEnv(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go Watch(ctx, svc, dir, quietLogger())
	time.Sleep(100 * time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "image.png"), []byte("binary"), 0o644)
	time.Sleep(500 * time.Millisecond)

	titles, err := svc.Titles(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(titles) != 0 {
		t.Errorf("titles = %v, want none", titles)
	}
	if _, err := os.Stat(filepath.Join(dir, "image.png")); err != nil {
		t.Errorf("non-markdown file was touched: %v", err)
	}
}

func TestSplitTitle(t *testing.T) {
	tests := []struct {
		name        string
		text        string
		path        string
		wantTitle   string
		wantContent string
	}{
		{"heading", "# My Note\n\nbody text", "x/ignored.md", "My Note", "body text"},
		{"heading after blank lines", "\n\n# Later\ncontent", "x/f.md", "Later", "content"},
		{"no heading", "just text", "x/capture.md", "capture", "just text"},
		{"body before heading wins filename", "intro\n# Not A Title", "x/note.md", "note", "intro\n# Not A Title"},
		{"empty file", "", "x/empty.md", "empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, content := splitTitle(tt.text, tt.path)
			if title != tt.wantTitle || content != tt.wantContent {
				t.Errorf("splitTitle = (%q, %q), want (%q, %q)", title, content, tt.wantTitle, tt.wantContent)
			}
		})
	}
}
