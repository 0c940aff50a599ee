package capture

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"reflection-audio/internal/asset"
)

// State of a recording session.
type State string

const (
	StateIdle               State = "idle"
	StateAwaitingPermission State = "awaiting_permission"
	StateRecording          State = "recording"
	StatePaused             State = "paused"
	StateStopped            State = "stopped"
	StateError              State = "error"
)

// MaxDurationSeconds is the hard recording cap. Reaching it stops the session
// through the same path as an explicit Stop.
const MaxDurationSeconds = 300

const capCheckInterval = time.Second

// ErrAlreadyStarted is returned when Start is called on a recorder that has
// left the idle state. A recorder is single-use; create a new one to retry.
var ErrAlreadyStarted = errors.New("recording session already started")

// Recorder owns one recording session: the permission request, the
// start/pause/resume/stop lifecycle, chunk accumulation, and the duration
// cap. Stopped and Error are terminal; Stop seals the buffered chunks into
// an asset and releases the device.
type Recorder struct {
	device    Device
	assembler *asset.Assembler
	log       *slog.Logger

	mu          sync.Mutex
	state       State
	session     DeviceSession
	mimeType    string
	chunks      [][]byte
	sealed      *asset.Asset
	sealErr     error
	err         error
	accumulated time.Duration // finished recording stretches
	resumedAt   time.Time     // start of the current stretch, zero while not recording
	stopTicks   chan struct{}

	clock func() time.Time
}

// NewRecorder returns an idle recorder bound to one capture device.
func NewRecorder(device Device, assembler *asset.Assembler, log *slog.Logger) *Recorder {
	return &Recorder{
		device:    device,
		assembler: assembler,
		log:       log,
		state:     StateIdle,
		clock:     time.Now,
	}
}

// State returns the current session state.
func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Err returns the failure that moved the session to the error state, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Asset returns the sealed recording, or nil before a successful Stop.
func (r *Recorder) Asset() *asset.Asset {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sealed
}

// PermissionHint reports the device's access hint without prompting.
func (r *Recorder) PermissionHint() Permission {
	return r.device.Permission()
}

// ElapsedSeconds returns whole seconds of recorded time. It never exceeds
// MaxDurationSeconds and does not advance while paused.
func (r *Recorder) ElapsedSeconds() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.elapsedLocked()
}

func (r *Recorder) elapsedLocked() int {
	d := r.accumulated
	if !r.resumedAt.IsZero() {
		d += r.clock().Sub(r.resumedAt)
	}
	secs := int(d / time.Second)
	if secs > MaxDurationSeconds {
		secs = MaxDurationSeconds
	}
	return secs
}

// Start acquires the capture device and begins accumulating chunks. It fails
// with ErrPermissionDenied or ErrDeviceUnavailable when the grant is refused,
// moving the session to the error state. If the session is stopped while the
// grant is still pending, the late grant is released and Start returns nil.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.state != StateIdle {
		r.mu.Unlock()
		return ErrAlreadyStarted
	}
	r.state = StateAwaitingPermission
	r.mu.Unlock()

	session, err := r.device.Acquire(ctx, Sink{
		Chunk: r.handleChunk,
		Err:   r.handleDeviceError,
	})

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateAwaitingPermission {
		// Torn down while the grant was pending. The late resolution must
		// not resurrect the session.
		if err == nil {
			if cerr := session.Close(); cerr != nil {
				r.log.Warn("releasing late device grant failed", "error", cerr)
			}
		}
		return nil
	}

	if err != nil {
		r.err = err
		r.state = StateError
		r.log.Warn("capture device acquire failed", "error", err)
		return err
	}

	r.session = session
	r.mimeType = r.device.MimeType()
	r.state = StateRecording
	r.resumedAt = r.clock()
	r.stopTicks = make(chan struct{})
	go r.watchCap(r.stopTicks)

	r.log.Debug("recording started", "mime_type", r.mimeType)
	return nil
}

// handleChunk buffers one delivered fragment. Fragments arriving outside an
// active session (e.g. straggler deliveries after Stop) are dropped.
func (r *Recorder) handleChunk(data []byte) {
	if len(data) == 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRecording && r.state != StatePaused {
		return
	}

	buf := make([]byte, len(data))
	copy(buf, data)
	r.chunks = append(r.chunks, buf)
}

// handleDeviceError moves an active session to the error state and releases
// the device. The error state is terminal; a new recorder is needed to retry.
func (r *Recorder) handleDeviceError(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch r.state {
	case StateAwaitingPermission, StateRecording, StatePaused:
	default:
		return
	}

	r.freezeElapsedLocked()
	r.releaseLocked()
	r.err = err
	r.state = StateError
	r.log.Warn("capture device failed", "error", err)
}

// Pause suspends chunk delivery and freezes the elapsed-time counter.
// It is a no-op outside the recording state.
func (r *Recorder) Pause() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRecording {
		return
	}

	r.freezeElapsedLocked()
	if err := r.session.Pause(); err != nil {
		r.log.Warn("pausing capture device failed", "error", err)
	}
	r.state = StatePaused
}

// Resume restarts chunk delivery and the elapsed-time counter without
// resetting it. It is a no-op outside the paused state.
func (r *Recorder) Resume() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StatePaused {
		return
	}

	if err := r.session.Resume(); err != nil {
		r.log.Warn("resuming capture device failed", "error", err)
	}
	r.resumedAt = r.clock()
	r.state = StateRecording
}

// Stop ends the session, releases the capture device, and seals the buffered
// chunks into an asset. Stop is idempotent: once the session is stopped or
// failed, further calls return the earlier outcome without side effects.
// Sealing fails with asset.ErrEmptyRecording when no chunk was delivered.
func (r *Recorder) Stop() (*asset.Asset, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopLocked()
}

// stopLocked is the single stop path; the duration cap watcher uses it too.
func (r *Recorder) stopLocked() (*asset.Asset, error) {
	switch r.state {
	case StateStopped:
		return r.sealed, r.sealErr
	case StateError:
		return nil, r.err
	}

	r.freezeElapsedLocked()
	r.releaseLocked()
	r.state = StateStopped

	mimeType := r.mimeType
	if mimeType == "" {
		mimeType = r.device.MimeType()
	}
	sealed, err := r.assembler.Seal(r.chunks, mimeType)
	if err != nil {
		r.sealErr = err
		return nil, err
	}

	r.sealed = sealed
	r.log.Debug("recording sealed",
		"bytes", sealed.Size(),
		"elapsed_seconds", r.elapsedLocked(),
	)
	return sealed, nil
}

func (r *Recorder) freezeElapsedLocked() {
	if r.resumedAt.IsZero() {
		return
	}
	r.accumulated += r.clock().Sub(r.resumedAt)
	if r.accumulated > MaxDurationSeconds*time.Second {
		r.accumulated = MaxDurationSeconds * time.Second
	}
	r.resumedAt = time.Time{}
}

// releaseLocked gives back the device and stops the cap watcher. It tolerates
// being called on every exit path, including repeated teardown.
func (r *Recorder) releaseLocked() {
	if r.session != nil {
		if err := r.session.Close(); err != nil {
			r.log.Warn("releasing capture device failed", "error", err)
		}
		r.session = nil
	}
	if r.stopTicks != nil {
		close(r.stopTicks)
		r.stopTicks = nil
	}
}

func (r *Recorder) watchCap(done <-chan struct{}) {
	t := time.NewTicker(capCheckInterval)
	defer t.Stop()

	for {
		select {
		case <-done:
			return
		case <-t.C:
			r.checkCap()
		}
	}
}

// checkCap enforces the duration cap through the same path as an explicit Stop.
func (r *Recorder) checkCap() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != StateRecording && r.state != StatePaused {
		return
	}
	if r.elapsedLocked() < MaxDurationSeconds {
		return
	}

	r.log.Info("recording reached the duration cap", "cap_seconds", MaxDurationSeconds)
	if _, err := r.stopLocked(); err != nil {
		r.log.Warn("sealing capped recording failed", "error", err)
	}
}
