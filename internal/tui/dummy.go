//go:build !tcell

package tui

// DummyRenderer is the headless backend linked into the default build (no
// "tcell" tag): it draws nothing and its PollEvent reports EventClose, so an
// interactive run exits at once (grounded on src/tui/dummy.go's build-tagged
// no-op stub). -p/--parse never creates a renderer.
type DummyRenderer struct {
	closed bool
}

// HasFullscreenRenderer reports that no windowed backend is linked in this
// build (default build, no "tcell" tag).
func HasFullscreenRenderer() bool { return false }

func NewDummyRenderer() *DummyRenderer { return &DummyRenderer{} }

func (r *DummyRenderer) Init() error        { return nil }
func (r *DummyRenderer) Render(View) error  { return nil }
func (r *DummyRenderer) PollEvent() Event   { return Event{Type: EventClose} }
func (r *DummyRenderer) Cleanup()           {}
func (r *DummyRenderer) AsyncCleanup()      {}
func (r *DummyRenderer) Close() error       { r.closed = true; return nil }
