package editor

import (
	"context"
	"sync"
	"time"
)

// Renderer converts raw markup to rendered HTML. Implementations that
// degrade failures to an empty result may always return a nil error; the
// driver treats any error as an empty rendering either way.
type Renderer interface {
	Render(ctx context.Context, markup string) (string, error)
}

// Saver persists a note.
type Saver interface {
	UpdateNote(ctx context.Context, id, title, content string) error
}

const (
	defaultDebounce    = 250 * time.Millisecond
	defaultCallTimeout = 15 * time.Second
)

// Option configures a Driver.
type Option func(*Driver)

// WithDebounce sets the quiescence window after a raw edit before a
// render request is issued.
func WithDebounce(d time.Duration) Option {
	return func(dr *Driver) { dr.debounce = d }
}

// WithCallTimeout bounds each render and save call so an abandoned
// editor never holds a perpetually disabled save affordance.
func WithCallTimeout(d time.Duration) Option {
	return func(dr *Driver) { dr.callTimeout = d }
}

// WithViewListener registers fn to receive a view snapshot after every
// state change. fn runs on the driver's internal goroutines and must not
// call back into the driver.
func WithViewListener(fn func(View)) Option {
	return func(dr *Driver) { dr.onView = fn }
}

// WithEffectListener registers fn to receive focus, reload, and close
// commands. Same reentrancy rule as WithViewListener.
func WithEffectListener(fn func(Command)) Option {
	return func(dr *Driver) { dr.onEffect = fn }
}

// Driver hosts a Session behind a mutex and executes its commands:
// renders and saves run on goroutines with a bounded timeout, raw edits
// are debounced before triggering a render, and completions are fed back
// through the session's staleness guard. All work between a call and its
// completion stays responsive to further input.
type Driver struct {
	mu      sync.Mutex
	session *Session

	renderer Renderer
	saver    Saver

	debounce    time.Duration
	callTimeout time.Duration
	onView      func(View)
	onEffect    func(Command)

	timer *time.Timer
}

// NewDriver opens a session and starts executing its initial commands.
func NewDriver(cfg Config, renderer Renderer, saver Saver, opts ...Option) *Driver {
	d := &Driver{
		renderer:    renderer,
		saver:       saver,
		debounce:    defaultDebounce,
		callTimeout: defaultCallTimeout,
	}
	for _, opt := range opts {
		opt(d)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	session, cmds := NewSession(cfg)
	d.session = session
	d.execute(cmds)
	d.notify()
	return d
}

// RawEdit records typing in the raw surface and (re)starts the render
// debounce window.
func (d *Driver) RawEdit(text string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.execute(d.session.RawEdit(text))
	d.scheduleRender()
	d.notify()
}

// RenderedEdit records typing in the rendered surface.
func (d *Driver) RenderedEdit(fragment string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.execute(d.session.RenderedEdit(fragment))
	d.notify()
}

// TitleEdit records typing in the title field.
func (d *Driver) TitleEdit(title string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.execute(d.session.TitleEdit(title))
	d.notify()
}

// SwitchMode activates the target view.
func (d *Driver) SwitchMode(target Mode) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopTimer()
	d.execute(d.session.SwitchMode(target))
	d.notify()
}

// Save starts persistence.
func (d *Driver) Save() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.execute(d.session.Save())
	d.notify()
}

// Cancel discards the session. It never waits on in-flight calls; their
// completions are dropped by the session's closed check.
func (d *Driver) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopTimer()
	d.execute(d.session.Cancel())
	d.notify()
}

// View returns the current display state.
func (d *Driver) View() View {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.session.View()
}

func (d *Driver) scheduleRender() {
	if d.session.Closed() {
		return
	}
	d.stopTimer()
	d.timer = time.AfterFunc(d.debounce, d.renderDue)
}

func (d *Driver) stopTimer() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// renderDue fires when the debounce window lapses without further input.
func (d *Driver) renderDue() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if cmd := d.session.RequestRender(); cmd != nil {
		d.execute([]Command{cmd})
	}
}

// execute runs commands. Must be called with d.mu held.
func (d *Driver) execute(cmds []Command) {
	for _, cmd := range cmds {
		switch c := cmd.(type) {
		case RenderCommand:
			go d.doRender(c)
		case SaveCommand:
			go d.doSave(c)
		default:
			if d.onEffect != nil {
				d.onEffect(cmd)
			}
		}
	}
}

func (d *Driver) doRender(cmd RenderCommand) {
	ctx, cancel := context.WithTimeout(context.Background(), d.callTimeout)
	defer cancel()

	html, err := d.renderer.Render(ctx, cmd.Markup)
	if err != nil {
		// No rendering available; not "document is empty".
		html = ""
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.execute(d.session.CompleteRender(cmd.Seq, html))
	d.notify()
}

func (d *Driver) doSave(cmd SaveCommand) {
	ctx, cancel := context.WithTimeout(context.Background(), d.callTimeout)
	defer cancel()

	err := d.saver.UpdateNote(ctx, cmd.NoteID, cmd.Title, cmd.Content)

	d.mu.Lock()
	defer d.mu.Unlock()
	d.execute(d.session.CompleteSave(err))
	d.notify()
}

// notify emits a view snapshot. Must be called with d.mu held.
func (d *Driver) notify() {
	if d.onView != nil {
		d.onView(d.session.View())
	}
}
