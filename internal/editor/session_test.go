package editor

import (
	"errors"
	"reflect"
	"testing"
)

func newTestSession(t *testing.T) (*Session, []Command) {
	t.Helper()
	return NewSession(Config{
		NoteID:         "n1",
		Title:          "Current",
		Content:        "Visit [[New Page]]",
		ExistingTitles: []string{"Old Page", "", " Other "},
	})
}

func TestNewSession_InitialCommandsAndState(t *testing.T) {
	s, cmds := newTestSession(t)

	if len(cmds) != 2 {
		t.Fatalf("commands = %v", cmds)
	}
	render, ok := cmds[0].(RenderCommand)
	if !ok || render.Seq != 1 || render.Markup != "Visit [[New Page]]" {
		t.Errorf("first command = %#v", cmds[0])
	}
	if focus, ok := cmds[1].(FocusCommand); !ok || focus.Surface != SurfaceRendered {
		t.Errorf("second command = %#v", cmds[1])
	}

	v := s.View()
	if v.Mode != ModeRendered {
		t.Errorf("mode = %v", v.Mode)
	}
	if !reflect.DeepEqual(v.MissingLinks, []string{"New Page"}) {
		t.Errorf("missing = %v", v.MissingLinks)
	}
	if !v.SaveEnabled || v.Closed {
		t.Errorf("view = %+v", v)
	}
}

// Editing the title to match a link target removes it from the missing
// list: a note may reference itself before it is saved.
func TestTitleEdit_SelfReferenceExclusion(t *testing.T) {
	s, _ := newTestSession(t)

	s.TitleEdit("New Page")
	v := s.View()
	if len(v.MissingLinks) != 0 {
		t.Errorf("missing = %v, want none", v.MissingLinks)
	}
	if v.MissingSummary() != "No missing links" {
		t.Errorf("summary = %q", v.MissingSummary())
	}

	s.TitleEdit("Something Else")
	if got := s.View().MissingSummary(); got != "Create: New Page" {
		t.Errorf("summary = %q", got)
	}
}

func TestRawEdit_RecomputesMissing(t *testing.T) {
	s, _ := newTestSession(t)

	s.RawEdit("now [[Old Page]] and [[Another]]")
	v := s.View()
	if v.RawText != "now [[Old Page]] and [[Another]]" {
		t.Errorf("buffer = %q", v.RawText)
	}
	if !reflect.DeepEqual(v.MissingLinks, []string{"Another"}) {
		t.Errorf("missing = %v", v.MissingLinks)
	}
}

func TestRenderedEdit_GoesThroughReverseTransform(t *testing.T) {
	s, _ := newTestSession(t)

	s.RenderedEdit(`<p><strong>bold</strong> and <a href="/x" data-wikilink="Target">Target</a></p>`)
	v := s.View()
	if v.RawText != "**bold** and [[Target]]" {
		t.Errorf("buffer = %q", v.RawText)
	}
	if !reflect.DeepEqual(v.MissingLinks, []string{"Target"}) {
		t.Errorf("missing = %v", v.MissingLinks)
	}
}

func TestSwitchMode_Transitions(t *testing.T) {
	s, _ := newTestSession(t)

	cmds := s.SwitchMode(ModeMarkdown)
	if len(cmds) != 1 {
		t.Fatalf("commands = %v", cmds)
	}
	if focus, ok := cmds[0].(FocusCommand); !ok || focus.Surface != SurfaceMarkdown {
		t.Errorf("command = %#v", cmds[0])
	}

	cmds = s.SwitchMode(ModeRendered)
	if len(cmds) != 2 {
		t.Fatalf("commands = %v", cmds)
	}
	if render, ok := cmds[0].(RenderCommand); !ok || render.Seq != 2 {
		t.Errorf("command = %#v", cmds[0])
	}

	// Switching to the active mode is a no-op.
	if cmds := s.SwitchMode(ModeRendered); cmds != nil {
		t.Errorf("commands = %v", cmds)
	}
}

func TestSwitchMode_BufferUntouched(t *testing.T) {
	s, _ := newTestSession(t)
	before := s.View().RawText

	s.SwitchMode(ModeMarkdown)
	s.SwitchMode(ModeRendered)

	if after := s.View().RawText; after != before {
		t.Errorf("buffer changed across mode switches: %q -> %q", before, after)
	}
}

func TestCompleteRender_StaleSequenceDiscarded(t *testing.T) {
	s, cmds := newTestSession(t)
	first := cmds[0].(RenderCommand)

	// Buffer moves on and a newer request is issued.
	s.RawEdit("state B")
	second := s.RequestRender().(RenderCommand)

	s.CompleteRender(first.Seq, "<p>STALE A</p>")
	if got := s.View().RenderedHTML; got != "" {
		t.Errorf("stale response applied: %q", got)
	}

	s.CompleteRender(second.Seq, "<p>state B</p>")
	if got := s.View().RenderedHTML; got != "<p>state B</p>" {
		t.Errorf("rendered = %q", got)
	}
}

func TestCompleteRender_SnapshotMismatchDiscarded(t *testing.T) {
	s, cmds := newTestSession(t)
	first := cmds[0].(RenderCommand)

	// Same sequence id, but the buffer changed while the call was in
	// flight (a rendered-surface edit, say).
	s.RenderedEdit("<p>fresh</p>")

	s.CompleteRender(first.Seq, "<p>old rendering</p>")
	if got := s.View().RenderedHTML; got != "" {
		t.Errorf("mismatched response applied: %q", got)
	}
}

func TestSave_Lifecycle(t *testing.T) {
	s, _ := newTestSession(t)
	s.TitleEdit("Renamed")

	cmds := s.Save()
	if len(cmds) != 1 {
		t.Fatalf("commands = %v", cmds)
	}
	save := cmds[0].(SaveCommand)
	if save.NoteID != "n1" || save.Title != "Renamed" || save.Content != "Visit [[New Page]]" {
		t.Errorf("save command = %+v", save)
	}

	// Affordance disabled while in flight; a second save is a no-op.
	if s.View().SaveEnabled {
		t.Error("save should be disabled while in flight")
	}
	if cmds := s.Save(); cmds != nil {
		t.Errorf("duplicate save issued: %v", cmds)
	}

	// Failure: re-enabled, error surfaced, state intact, no navigation.
	if cmds := s.CompleteSave(errors.New("boom")); cmds != nil {
		t.Errorf("failure commands = %v", cmds)
	}
	v := s.View()
	if !v.SaveEnabled || v.SaveError != "boom" || v.Closed {
		t.Errorf("view after failure = %+v", v)
	}
	if v.Title != "Renamed" || v.RawText != "Visit [[New Page]]" {
		t.Errorf("state lost on failure: %+v", v)
	}

	// Retry succeeds: session closes and navigation is requested.
	s.Save()
	cmds = s.CompleteSave(nil)
	if len(cmds) != 1 {
		t.Fatalf("success commands = %v", cmds)
	}
	if reload, ok := cmds[0].(ReloadCommand); !ok || reload.NoteID != "n1" {
		t.Errorf("command = %#v", cmds[0])
	}
	if v := s.View(); !v.Closed || v.SaveError != "" {
		t.Errorf("view after success = %+v", v)
	}
}

func TestCancel_IgnoresLateCompletions(t *testing.T) {
	s, cmds := newTestSession(t)
	render := cmds[0].(RenderCommand)
	s.Save()

	cancel := s.Cancel()
	if len(cancel) != 1 {
		t.Fatalf("commands = %v", cancel)
	}
	if _, ok := cancel[0].(CloseCommand); !ok {
		t.Errorf("command = %#v", cancel[0])
	}

	// Late completions of in-flight calls are dropped.
	if got := s.CompleteRender(render.Seq, "<p>late</p>"); got != nil {
		t.Errorf("render after cancel: %v", got)
	}
	if got := s.CompleteSave(nil); got != nil {
		t.Errorf("save after cancel: %v", got)
	}
	v := s.View()
	if v.RenderedHTML != "" || !v.Closed {
		t.Errorf("view = %+v", v)
	}

	// All further input is inert.
	if got := s.RawEdit("x"); got != nil {
		t.Errorf("edit after cancel: %v", got)
	}
	if got := s.Cancel(); got != nil {
		t.Errorf("double cancel: %v", got)
	}
}
