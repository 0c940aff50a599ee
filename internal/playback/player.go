package playback

import (
	"errors"
	"log/slog"
	"math"
	"sync"
)

// State of a playback session.
type State string

const (
	// StateDetached means no URL is attached; Attach creates a session.
	StateDetached State = "detached"
	StateLoading  State = "loading"
	StateReady    State = "ready"
	StatePlaying  State = "playing"
	StatePaused   State = "paused"
	StateEnded    State = "ended"
	StateError    State = "error"
)

var (
	// ErrDecodeFailed marks a payload the media layer could not decode.
	ErrDecodeFailed = errors.New("audio could not be decoded")

	// ErrNetworkFailed marks a URL the media layer could not fetch.
	ErrNetworkFailed = errors.New("audio could not be fetched")
)

// DefaultVolume is restored on unmute when no usable pre-mute level exists.
const DefaultVolume = 0.5

// Settings carries the listener's sound preferences into a player explicitly,
// instead of being read from an ambient store.
type Settings struct {
	Volume float64
	Muted  bool
}

// DefaultSettings returns full volume, unmuted.
func DefaultSettings() Settings {
	return Settings{Volume: 1}
}

// Player owns the transport state for one audio URL: load, play/pause, seek,
// volume and mute. A failed session stays inspectable in the error state and
// recovers only by attaching a (possibly new) URL.
type Player struct {
	media Media
	log   *slog.Logger

	mu       sync.Mutex
	state    State
	url      string
	handle   Handle
	position float64
	duration float64
	volume   float64
	muted    bool
	preMute  float64
	err      error
}

// NewPlayer returns a detached player using the given media layer and sound
// preferences.
func NewPlayer(media Media, prefs Settings, log *slog.Logger) *Player {
	return &Player{
		media:  media,
		log:    log,
		state:  StateDetached,
		volume: clampVolume(prefs.Volume),
		muted:  prefs.Muted,
	}
}

// State returns the current session state.
func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Err returns the failure that moved the session to the error state, if any.
func (p *Player) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Position returns the playback position in seconds.
func (p *Player) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.position
}

// Duration returns the decoded duration in seconds, 0 until metadata arrived.
func (p *Player) Duration() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.duration
}

// Volume returns the tracked volume level, independent of mute.
func (p *Player) Volume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.volume
}

// Muted reports whether the player is muted.
func (p *Player) Muted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.muted
}

// EffectiveVolume returns the audible level: 0 iff muted or volume is 0.
func (p *Player) EffectiveVolume() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.muted {
		return 0
	}
	return p.volume
}

// CanPlay reports whether transport actions are accepted.
func (p *Player) CanPlay() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.canPlayLocked()
}

func (p *Player) canPlayLocked() bool {
	switch p.state {
	case StateReady, StatePlaying, StatePaused, StateEnded:
		return true
	}
	return false
}

// Attach loads url, replacing any current source. The previous handle is
// closed before the new one opens; if a concurrent Attach supersedes this
// one while the media layer is still opening, the late handle is closed and
// discarded.
func (p *Player) Attach(url string) error {
	p.mu.Lock()
	p.closeHandleLocked()
	p.state = StateLoading
	p.url = url
	p.position = 0
	p.duration = 0
	p.err = nil
	media := p.media
	p.mu.Unlock()

	handle, err := media.Open(url, Events{
		Metadata: p.onMetadata,
		Progress: p.onProgress,
		Ended:    p.onEnded,
		Failed:   p.onFailed,
	})

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.url != url || p.state != StateLoading {
		if err == nil {
			if cerr := handle.Close(); cerr != nil {
				p.log.Warn("closing superseded media handle failed", "error", cerr)
			}
		}
		return nil
	}

	if err != nil {
		p.err = err
		p.state = StateError
		p.log.Warn("attaching audio source failed", "url", url, "error", err)
		return err
	}

	p.handle = handle
	p.pushVolumeLocked()
	return nil
}

// Detach closes the media source and returns the player to the detached
// state. Detaching twice is a no-op; call it on teardown so every open
// handle is closed exactly once.
func (p *Player) Detach() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closeHandleLocked()
	p.state = StateDetached
	p.url = ""
	p.position = 0
	p.duration = 0
	p.err = nil
}

func (p *Player) closeHandleLocked() {
	if p.handle == nil {
		return
	}
	if err := p.handle.Close(); err != nil {
		p.log.Warn("closing media handle failed", "error", err)
	}
	p.handle = nil
}

// Play starts or resumes playback. It is a no-op while the session cannot
// play (still loading, failed, or detached) and while already playing.
func (p *Player) Play() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.canPlayLocked() || p.state == StatePlaying {
		return
	}
	if err := p.handle.Play(); err != nil {
		p.failLocked(err)
		return
	}
	p.state = StatePlaying
}

// Pause suspends playback. It is a no-op unless currently playing.
func (p *Player) Pause() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePlaying {
		return
	}
	if err := p.handle.Pause(); err != nil {
		p.failLocked(err)
		return
	}
	p.state = StatePaused
}

// Seek moves the position to target seconds, clamped into [0, duration].
// Seeking is rejected (a no-op) until a finite duration is known.
func (p *Player) Seek(targetSeconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seekLocked(targetSeconds)
}

// Skip moves the position by delta seconds with the same clamping as Seek.
func (p *Player) Skip(deltaSeconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seekLocked(p.position + deltaSeconds)
}

func (p *Player) seekLocked(target float64) {
	if !p.canPlayLocked() {
		return
	}
	if p.duration <= 0 || math.IsInf(p.duration, 0) || math.IsNaN(target) {
		return
	}

	target = math.Min(math.Max(target, 0), p.duration)
	if err := p.handle.Seek(target); err != nil {
		p.failLocked(err)
		return
	}
	p.position = target
}

// SetVolume sets the tracked volume, clamped into [0,1]. Setting 0 silences
// playback but is distinct from muting, so unmuting can restore the prior
// non-zero level.
func (p *Player) SetVolume(v float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.volume = clampVolume(v)
	p.pushVolumeLocked()
}

// ToggleMute mutes or unmutes. Unmuting restores the pre-mute volume, or
// DefaultVolume when the remembered level was 0, so the player never stays
// silently unmuted.
func (p *Player) ToggleMute() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.muted {
		p.muted = false
		restore := p.preMute
		if restore == 0 {
			restore = DefaultVolume
		}
		p.volume = restore
	} else {
		p.preMute = p.volume
		p.muted = true
	}
	p.pushVolumeLocked()
}

func (p *Player) pushVolumeLocked() {
	if p.handle == nil {
		return
	}
	if err := p.handle.SetVolume(p.volume, p.muted); err != nil {
		p.log.Warn("applying volume failed", "error", err)
	}
}

func (p *Player) onMetadata(durationSeconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateLoading {
		return
	}
	if math.IsNaN(durationSeconds) || math.IsInf(durationSeconds, 0) || durationSeconds <= 0 {
		return
	}

	p.duration = durationSeconds
	p.state = StateReady
}

func (p *Player) onProgress(positionSeconds float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePlaying {
		return
	}
	if math.IsNaN(positionSeconds) {
		return
	}
	p.position = math.Min(math.Max(positionSeconds, 0), p.duration)
}

// onEnded resets the position so the session is immediately ready to play
// again from the start.
func (p *Player) onEnded() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StatePlaying {
		return
	}
	p.position = 0
	p.state = StateEnded
}

func (p *Player) onFailed(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failLocked(err)
}

func (p *Player) failLocked(err error) {
	if p.state == StateError || p.state == StateDetached {
		return
	}
	p.closeHandleLocked()
	p.err = err
	p.state = StateError
	p.log.Warn("playback failed", "url", p.url, "error", err)
}

func clampVolume(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(math.Max(v, 0), 1)
}
