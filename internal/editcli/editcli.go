// Package editcli is a line-oriented terminal front end for the note
// editor. It speaks a small colon-command language:
//
//	:p          print the current view
//	:m / :r     switch to markdown / rendered mode
//	:t TITLE    change the title
//	:links      show missing link targets
//	:d          clear the buffer
//	:w          save and exit
//	:q          cancel and exit
//
// Any other line is appended to the buffer in markdown mode, or applied
// as an HTML fragment replacing the document in rendered mode.
package editcli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/halvard/othala/internal/editor"
	"github.com/halvard/othala/internal/noteclient"
)

// Store is the note API surface the editor needs.
type Store interface {
	Get(ctx context.Context, id string) (*noteclient.Note, error)
	Titles(ctx context.Context) ([]string, error)
	UpdateNote(ctx context.Context, id, title, content string) error
}

// Editor runs one editing session over a line protocol.
type Editor struct {
	store    Store
	renderer editor.Renderer
	opts     []editor.Option
}

// New creates an Editor. opts are passed through to the underlying
// driver (tests shorten the debounce).
func New(store Store, renderer editor.Renderer, opts ...editor.Option) *Editor {
	return &Editor{store: store, renderer: renderer, opts: opts}
}

// Run edits the note with the given id, reading commands from in and
// writing feedback to out. It returns when the session is saved,
// cancelled, or in runs dry (which cancels).
func (e *Editor) Run(ctx context.Context, noteID string, in io.Reader, out io.Writer) error {
	note, err := e.store.Get(ctx, noteID)
	if err != nil {
		return fmt.Errorf("load note: %w", err)
	}
	titles, err := e.store.Titles(ctx)
	if err != nil {
		return fmt.Errorf("load titles: %w", err)
	}

	drv := editor.NewDriver(editor.Config{
		NoteID:         note.ID,
		Title:          note.Title,
		Content:        note.Content,
		ExistingTitles: titles,
	}, e.renderer, e.store, e.opts...)
	defer func() {
		if !drv.View().Closed {
			drv.Cancel()
		}
	}()

	fmt.Fprintf(out, "editing %q\n", note.Title)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		line := scanner.Text()
		switch {
		case line == ":q":
			drv.Cancel()
			fmt.Fprintln(out, "cancelled")
			return nil

		case line == ":w":
			drv.Save()
			if err := e.awaitSave(ctx, drv, out); err != nil {
				return err
			}
			if drv.View().Closed {
				fmt.Fprintln(out, "saved")
				return nil
			}
			// Save failed; session stays open for a retry.

		case line == ":p":
			printView(out, drv.View())

		case line == ":m":
			drv.SwitchMode(editor.ModeMarkdown)
			fmt.Fprintln(out, "mode: markdown")

		case line == ":r":
			drv.SwitchMode(editor.ModeRendered)
			fmt.Fprintln(out, "mode: rendered")

		case line == ":links":
			fmt.Fprintln(out, drv.View().MissingSummary())

		case line == ":d":
			drv.RawEdit("")
			fmt.Fprintln(out, "cleared")

		case strings.HasPrefix(line, ":t "):
			drv.TitleEdit(strings.TrimSpace(strings.TrimPrefix(line, ":t ")))

		default:
			v := drv.View()
			if v.Mode == editor.ModeRendered {
				drv.RenderedEdit(line)
			} else if v.RawText == "" {
				drv.RawEdit(line)
			} else {
				drv.RawEdit(v.RawText + "\n" + line)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	drv.Cancel()
	return nil
}

// awaitSave polls until the in-flight save settles one way or the other.
func (e *Editor) awaitSave(ctx context.Context, drv *editor.Driver, out io.Writer) error {
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		v := drv.View()
		if v.Closed {
			return nil
		}
		if v.SaveError != "" {
			fmt.Fprintf(out, "save failed: %s\n", v.SaveError)
			return nil
		}
		time.Sleep(10 * time.Millisecond)
	}
	return errors.New("save timed out")
}

func printView(out io.Writer, v editor.View) {
	fmt.Fprintf(out, "-- %s [%s]\n", v.Title, v.Mode)
	if v.Mode == editor.ModeRendered {
		fmt.Fprintln(out, v.RenderedHTML)
	} else {
		fmt.Fprintln(out, v.RawText)
	}
	fmt.Fprintln(out, v.MissingSummary())
}
