// Package editor implements the dual-view note editing engine: a state
// machine that keeps a rendered view and a raw-markup view of one note
// consistent while the user edits either, re-deriving missing-link state
// after every mutation.
//
// The raw-markup buffer is the single source of truth; the rendered view
// is a derived, possibly stale projection of it. The rendered side only
// ever writes to the buffer through the unrender reverse transform.
package editor

import (
	"strings"

	"github.com/halvard/othala/internal/unrender"
	"github.com/halvard/othala/internal/wikilink"
)

// Mode identifies which of the two views is active.
type Mode int

const (
	ModeRendered Mode = iota
	ModeMarkdown
)

func (m Mode) String() string {
	if m == ModeMarkdown {
		return "markdown"
	}
	return "rendered"
}

// Surface identifies an input surface for focus commands.
type Surface int

const (
	SurfaceRendered Surface = iota
	SurfaceMarkdown
	SurfaceTitle
)

// Command is a side effect requested by a transition. The session never
// performs effects itself; its owner executes them and feeds completions
// back via CompleteRender and CompleteSave.
type Command interface{ command() }

// RenderCommand asks for the markup snapshot to be rendered. Seq tags
// the request so a late response can be recognised as stale.
type RenderCommand struct {
	Seq    uint64
	Markup string
}

// SaveCommand asks for the note to be persisted.
type SaveCommand struct {
	NoteID  string
	Title   string
	Content string
}

// FocusCommand asks for input focus to move to a surface.
type FocusCommand struct{ Surface Surface }

// ReloadCommand asks for navigation to the note's read view after a
// successful save.
type ReloadCommand struct{ NoteID string }

// CloseCommand asks for the editor to be torn down without saving.
type CloseCommand struct{}

func (RenderCommand) command() {}
func (SaveCommand) command()   {}
func (FocusCommand) command()  {}
func (ReloadCommand) command() {}
func (CloseCommand) command()  {}

// Config carries the per-session inputs that the hosting page used to
// inject as globals: the note under edit and the existing-title
// snapshot. The snapshot is immutable for the session's lifetime.
type Config struct {
	NoteID         string
	Title          string
	Content        string
	ExistingTitles []string
}

// Session is the editor state machine. Methods are transitions: each
// mutates state synchronously and returns the side-effect commands the
// caller must execute. Session is not safe for concurrent use; Driver
// provides the locked, asynchronous harness around it.
type Session struct {
	noteID string
	titles wikilink.TitleSet

	mode     Mode
	title    string
	buffer   string
	rendered string
	missing  []string

	saving    bool
	saveError string
	closed    bool

	renderSeq      uint64
	renderSnapshot string
}

// NewSession opens an editing session. The initial mode is Rendered, so
// the returned commands request a first render and focus the rendered
// surface.
func NewSession(cfg Config) (*Session, []Command) {
	s := &Session{
		noteID: cfg.NoteID,
		titles: wikilink.NewTitleSet(cfg.ExistingTitles),
		mode:   ModeRendered,
		title:  cfg.Title,
		buffer: cfg.Content,
	}
	s.refreshMissing()
	return s, []Command{s.issueRender(), FocusCommand{SurfaceRendered}}
}

func (s *Session) issueRender() Command {
	s.renderSeq++
	s.renderSnapshot = s.buffer
	return RenderCommand{Seq: s.renderSeq, Markup: s.buffer}
}

// refreshMissing re-derives missing-link state from the buffer. Called
// after every mutation so the display invariant holds whenever state
// settles.
func (s *Session) refreshMissing() {
	s.missing = wikilink.Missing(wikilink.Extract(s.buffer), s.titles, s.title)
}

// RawEdit replaces the buffer with text typed into the raw surface.
func (s *Session) RawEdit(text string) []Command {
	if s.closed {
		return nil
	}
	s.buffer = text
	s.refreshMissing()
	return nil
}

// RenderedEdit reconstructs the buffer from an edited rendered fragment
// via the reverse transform. The rendered view itself is not re-rendered
// mid-edit; only a mode switch does that.
func (s *Session) RenderedEdit(fragment string) []Command {
	if s.closed {
		return nil
	}
	s.buffer = unrender.HTMLToMarkup(fragment)
	s.refreshMissing()
	return nil
}

// TitleEdit updates the working title. The title is not part of the
// buffer but affects self-reference exclusion in missing links.
func (s *Session) TitleEdit(title string) []Command {
	if s.closed {
		return nil
	}
	s.title = title
	s.refreshMissing()
	return nil
}

// SwitchMode activates the target view. Switching to Rendered requests a
// fresh render of the buffer; switching to Markdown needs none, since
// the buffer is already authoritative.
func (s *Session) SwitchMode(target Mode) []Command {
	if s.closed || target == s.mode {
		return nil
	}
	s.mode = target
	s.refreshMissing()
	if target == ModeRendered {
		return []Command{s.issueRender(), FocusCommand{SurfaceRendered}}
	}
	return []Command{FocusCommand{SurfaceMarkdown}}
}

// RequestRender issues a render request for the current buffer. Drivers
// call this when the raw-edit debounce window lapses. Returns nil once
// the session is closed.
func (s *Session) RequestRender() Command {
	if s.closed {
		return nil
	}
	return s.issueRender()
}

// CompleteRender applies a finished render. A response is discarded as
// stale when its sequence id is not the latest issued or the buffer has
// moved on since the request was snapshotted, so a slow earlier render
// can never overwrite a view reflecting newer input.
func (s *Session) CompleteRender(seq uint64, html string) []Command {
	if s.closed || seq != s.renderSeq || s.buffer != s.renderSnapshot {
		return nil
	}
	s.rendered = html
	return nil
}

// Save starts persistence. The save affordance stays disabled until
// CompleteSave.
func (s *Session) Save() []Command {
	if s.closed || s.saving {
		return nil
	}
	s.saving = true
	s.saveError = ""
	return []Command{SaveCommand{NoteID: s.noteID, Title: s.title, Content: s.buffer}}
}

// CompleteSave finishes persistence. Success closes the session and
// requests navigation to the read view; failure re-enables saving and
// surfaces the error, leaving buffer and title untouched for a retry.
func (s *Session) CompleteSave(err error) []Command {
	if s.closed || !s.saving {
		return nil
	}
	s.saving = false
	if err != nil {
		s.saveError = err.Error()
		return nil
	}
	s.closed = true
	return []Command{ReloadCommand{NoteID: s.noteID}}
}

// Cancel discards the session. In-flight render or save completions that
// arrive afterwards are ignored.
func (s *Session) Cancel() []Command {
	if s.closed {
		return nil
	}
	s.closed = true
	return []Command{CloseCommand{}}
}

// Closed reports whether the session has ended (saved or cancelled).
func (s *Session) Closed() bool {
	return s.closed
}

// View is a snapshot of everything a front end needs to draw the editor.
type View struct {
	Mode         Mode
	Title        string
	RawText      string
	RenderedHTML string
	MissingLinks []string
	SaveEnabled  bool
	SaveError    string
	Closed       bool
}

// View returns the current display state.
func (s *Session) View() View {
	return View{
		Mode:         s.mode,
		Title:        s.title,
		RawText:      s.buffer,
		RenderedHTML: s.rendered,
		MissingLinks: append([]string(nil), s.missing...),
		SaveEnabled:  !s.saving && !s.closed,
		SaveError:    s.saveError,
		Closed:       s.closed,
	}
}

// MissingSummary formats the missing-link display. An empty result is a
// distinct state, never an empty list.
func (v View) MissingSummary() string {
	if len(v.MissingLinks) == 0 {
		return "No missing links"
	}
	return "Create: " + strings.Join(v.MissingLinks, ", ")
}
