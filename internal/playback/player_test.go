package playback

import (
	"errors"
	"log/slog"
	"os"
	"testing"
)

type fakeHandle struct {
	plays  int
	pauses int
	closes int
	seeks  []float64
	volume float64
	muted  bool
}

func (h *fakeHandle) Play() error  { h.plays++; return nil }
func (h *fakeHandle) Pause() error { h.pauses++; return nil }
func (h *fakeHandle) Seek(pos float64) error {
	h.seeks = append(h.seeks, pos)
	return nil
}
func (h *fakeHandle) SetVolume(v float64, muted bool) error {
	h.volume, h.muted = v, muted
	return nil
}
func (h *fakeHandle) Close() error { h.closes++; return nil }

type fakeMedia struct {
	openErr error
	opened  []string
	handles []*fakeHandle
	events  Events
}

func (m *fakeMedia) Open(url string, ev Events) (Handle, error) {
	m.opened = append(m.opened, url)
	if m.openErr != nil {
		return nil, m.openErr
	}
	m.events = ev
	h := &fakeHandle{}
	m.handles = append(m.handles, h)
	return h, nil
}

func (m *fakeMedia) last() *fakeHandle {
	return m.handles[len(m.handles)-1]
}

func newTestPlayer(t *testing.T) (*Player, *fakeMedia) {
	t.Helper()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	m := &fakeMedia{}
	return NewPlayer(m, DefaultSettings(), log), m
}

// readyPlayer attaches a URL and delivers metadata so transport actions work.
func readyPlayer(t *testing.T, duration float64) (*Player, *fakeMedia) {
	t.Helper()
	p, m := newTestPlayer(t)
	if err := p.Attach("/uploads/a.webm"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	m.events.Metadata(duration)
	if p.State() != StateReady {
		t.Fatalf("state = %q, want ready", p.State())
	}
	return p, m
}

func TestPlayer_loading_until_metadata(t *testing.T) {
	p, m := newTestPlayer(t)

	if err := p.Attach("/uploads/a.webm"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if p.State() != StateLoading {
		t.Fatalf("state = %q, want loading", p.State())
	}

	// Invalid durations keep the session loading.
	m.events.Metadata(0)
	if p.State() != StateLoading {
		t.Errorf("zero duration moved state to %q", p.State())
	}

	m.events.Metadata(42.5)
	if p.State() != StateReady {
		t.Errorf("state = %q, want ready", p.State())
	}
	if p.Duration() != 42.5 {
		t.Errorf("duration = %v, want 42.5", p.Duration())
	}
}

func TestPlayer_play_is_a_noop_while_loading(t *testing.T) {
	p, m := newTestPlayer(t)
	if err := p.Attach("/uploads/a.webm"); err != nil {
		t.Fatalf("attach: %v", err)
	}

	p.Play()
	if p.State() != StateLoading {
		t.Errorf("state = %q, want loading", p.State())
	}
	if m.last().plays != 0 {
		t.Error("play should not reach the media layer before ready")
	}
}

func TestPlayer_play_pause_toggle(t *testing.T) {
	p, m := readyPlayer(t, 10)

	p.Play()
	if p.State() != StatePlaying {
		t.Fatalf("state = %q, want playing", p.State())
	}
	p.Play() // idempotent
	if m.last().plays != 1 {
		t.Errorf("play reached the media layer %d times, want 1", m.last().plays)
	}

	p.Pause()
	if p.State() != StatePaused {
		t.Fatalf("state = %q, want paused", p.State())
	}
	p.Pause() // no-op
	if m.last().pauses != 1 {
		t.Errorf("pause reached the media layer %d times, want 1", m.last().pauses)
	}

	p.Play()
	if p.State() != StatePlaying {
		t.Errorf("state = %q, want playing after resume", p.State())
	}
}

func TestPlayer_seek_clamps(t *testing.T) {
	cases := []struct {
		target float64
		want   float64
	}{
		{target: -5, want: 0},
		{target: 3, want: 3},
		{target: 10, want: 10},
		{target: 15, want: 10},
	}
	for _, tc := range cases {
		p, m := readyPlayer(t, 10)
		p.Seek(tc.target)
		if got := p.Position(); got != tc.want {
			t.Errorf("seek(%v): position = %v, want %v", tc.target, got, tc.want)
		}
		if n := len(m.last().seeks); n != 1 || m.last().seeks[0] != tc.want {
			t.Errorf("seek(%v): media layer saw %v", tc.target, m.last().seeks)
		}
	}
}

func TestPlayer_seek_rejected_before_metadata(t *testing.T) {
	p, m := newTestPlayer(t)
	if err := p.Attach("/uploads/a.webm"); err != nil {
		t.Fatalf("attach: %v", err)
	}

	p.Seek(5)
	if p.Position() != 0 {
		t.Errorf("position = %v, want 0", p.Position())
	}
	if len(m.last().seeks) != 0 {
		t.Error("seek should not reach the media layer before metadata")
	}
}

func TestPlayer_skip_clamps_like_seek(t *testing.T) {
	p, _ := readyPlayer(t, 10)

	p.Seek(3)
	p.Skip(5)
	if p.Position() != 8 {
		t.Errorf("position = %v, want 8", p.Position())
	}
	p.Skip(100)
	if p.Position() != 10 {
		t.Errorf("position = %v, want clamped to 10", p.Position())
	}
	p.Skip(-100)
	if p.Position() != 0 {
		t.Errorf("position = %v, want clamped to 0", p.Position())
	}
}

func TestPlayer_set_volume_clamps(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{in: -1, want: 0},
		{in: 0, want: 0},
		{in: 0.3, want: 0.3},
		{in: 1, want: 1},
		{in: 2, want: 1},
	}
	for _, tc := range cases {
		p, _ := readyPlayer(t, 10)
		p.SetVolume(tc.in)
		if got := p.Volume(); got != tc.want {
			t.Errorf("SetVolume(%v): volume = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestPlayer_mute_restores_prior_volume(t *testing.T) {
	p, m := readyPlayer(t, 10)

	p.SetVolume(0.7)
	p.ToggleMute()
	if !p.Muted() {
		t.Fatal("expected muted")
	}
	if p.Volume() != 0.7 {
		t.Errorf("volume while muted = %v, want 0.7 still tracked", p.Volume())
	}
	if p.EffectiveVolume() != 0 {
		t.Errorf("effective volume while muted = %v, want 0", p.EffectiveVolume())
	}
	if !m.last().muted {
		t.Error("mute should reach the media layer")
	}

	p.ToggleMute()
	if p.Muted() || p.Volume() != 0.7 {
		t.Errorf("unmute: muted=%v volume=%v, want unmuted at 0.7", p.Muted(), p.Volume())
	}
}

func TestPlayer_unmute_from_zero_restores_default(t *testing.T) {
	p, _ := readyPlayer(t, 10)

	p.SetVolume(0)
	p.ToggleMute()
	p.ToggleMute()
	if p.Muted() {
		t.Fatal("expected unmuted")
	}
	if p.Volume() != DefaultVolume {
		t.Errorf("volume = %v, want DefaultVolume %v", p.Volume(), DefaultVolume)
	}
}

func TestPlayer_volume_zero_is_audibly_silent(t *testing.T) {
	p, _ := readyPlayer(t, 10)
	p.SetVolume(0)
	if p.Muted() {
		t.Error("volume 0 should not flip the muted flag")
	}
	if p.EffectiveVolume() != 0 {
		t.Errorf("effective volume = %v, want 0", p.EffectiveVolume())
	}
}

func TestPlayer_progress_and_ended(t *testing.T) {
	p, m := readyPlayer(t, 10)

	p.Play()
	m.events.Progress(4.5)
	if p.Position() != 4.5 {
		t.Errorf("position = %v, want 4.5", p.Position())
	}

	m.events.Ended()
	if p.State() != StateEnded {
		t.Fatalf("state = %q, want ended", p.State())
	}
	if p.Position() != 0 {
		t.Errorf("position after ended = %v, want 0", p.Position())
	}

	// Session is immediately playable again from the start.
	p.Play()
	if p.State() != StatePlaying {
		t.Errorf("state = %q, want playing again", p.State())
	}
}

func TestPlayer_progress_ignored_while_paused(t *testing.T) {
	p, m := readyPlayer(t, 10)

	p.Play()
	m.events.Progress(2)
	p.Pause()
	m.events.Progress(7)
	if p.Position() != 2 {
		t.Errorf("position = %v, want 2 (progress while paused ignored)", p.Position())
	}
}

func TestPlayer_decode_failure_is_terminal_until_reattach(t *testing.T) {
	p, m := readyPlayer(t, 10)

	m.events.Failed(ErrDecodeFailed)
	if p.State() != StateError {
		t.Fatalf("state = %q, want error", p.State())
	}
	if !errors.Is(p.Err(), ErrDecodeFailed) {
		t.Errorf("Err = %v, want decode failure", p.Err())
	}
	if m.handles[0].closes != 1 {
		t.Errorf("failed handle closed %d times, want 1", m.handles[0].closes)
	}

	p.Play()
	if p.State() != StateError {
		t.Error("play after failure should stay a no-op")
	}

	// Attaching a new URL recovers.
	if err := p.Attach("/uploads/b.webm"); err != nil {
		t.Fatalf("re-attach: %v", err)
	}
	m.events.Metadata(3)
	if p.State() != StateReady {
		t.Errorf("state = %q, want ready after re-attach", p.State())
	}
	if p.Err() != nil {
		t.Errorf("Err = %v, want cleared", p.Err())
	}
}

func TestPlayer_open_failure(t *testing.T) {
	p, m := newTestPlayer(t)
	m.openErr = ErrNetworkFailed

	err := p.Attach("/uploads/missing.webm")
	if !errors.Is(err, ErrNetworkFailed) {
		t.Fatalf("expected ErrNetworkFailed, got %v", err)
	}
	if p.State() != StateError {
		t.Errorf("state = %q, want error", p.State())
	}
}

func TestPlayer_detach_closes_handle_once(t *testing.T) {
	p, m := readyPlayer(t, 10)

	p.Detach()
	p.Detach()
	if m.handles[0].closes != 1 {
		t.Errorf("handle closed %d times, want 1", m.handles[0].closes)
	}
	if p.State() != StateDetached {
		t.Errorf("state = %q, want detached", p.State())
	}
}

func TestPlayer_attach_replaces_previous_source(t *testing.T) {
	p, m := readyPlayer(t, 10)

	if err := p.Attach("/uploads/b.webm"); err != nil {
		t.Fatalf("second attach: %v", err)
	}
	if m.handles[0].closes != 1 {
		t.Errorf("first handle closed %d times, want 1", m.handles[0].closes)
	}
	if p.State() != StateLoading || p.Duration() != 0 {
		t.Errorf("new session: state=%q duration=%v, want fresh loading session", p.State(), p.Duration())
	}
}

func TestPlayer_settings_applied_on_attach(t *testing.T) {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	m := &fakeMedia{}
	p := NewPlayer(m, Settings{Volume: 0.25, Muted: true}, log)

	if err := p.Attach("/uploads/a.webm"); err != nil {
		t.Fatalf("attach: %v", err)
	}
	if m.last().volume != 0.25 || !m.last().muted {
		t.Errorf("media layer got volume=%v muted=%v, want preferences pushed on attach",
			m.last().volume, m.last().muted)
	}
}
