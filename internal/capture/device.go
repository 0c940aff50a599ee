package capture

import (
	"context"
	"errors"
)

// Permission is the host platform's hint about microphone access, queried
// without prompting the user. A denial discovered only when acquiring the
// device is equally valid and surfaces as ErrPermissionDenied.
type Permission string

const (
	PermissionUnknown Permission = "unknown"
	PermissionGranted Permission = "granted"
	PermissionDenied  Permission = "denied"
)

var (
	// ErrPermissionDenied is returned when the user or OS blocks microphone
	// access. The message tells the user where to fix it.
	ErrPermissionDenied = errors.New("microphone access was denied; allow it in your browser or OS settings and try again")

	// ErrDeviceUnavailable is returned when no audio input device exists.
	ErrDeviceUnavailable = errors.New("no audio input device is available")

	// ErrDeviceBusy is returned when the device is already held by another
	// session. The holder must release it before a new acquire can succeed.
	ErrDeviceBusy = errors.New("audio input device is held by another session")
)

// Sink receives events from an acquired device session. Late deliveries
// against a torn-down recorder must be tolerated by the callbacks.
type Sink struct {
	// Chunk receives one fragment of encoded audio. Fragments arrive in
	// recording order at the device's delivery interval.
	Chunk func(data []byte)

	// Err reports a device runtime failure. The session is unusable afterwards.
	Err func(err error)
}

// Device is the host audio-input boundary. At most one session may hold the
// device at a time.
type Device interface {
	// Acquire prompts for access if needed and starts delivering chunks to
	// sink until the returned session is closed. It fails with
	// ErrPermissionDenied, ErrDeviceUnavailable, or ErrDeviceBusy.
	Acquire(ctx context.Context, sink Sink) (DeviceSession, error)

	// Permission reports the current access hint without prompting.
	Permission() Permission

	// MimeType is the container format the device produces.
	MimeType() string
}

// DeviceSession is one exclusive hold on the capture device.
type DeviceSession interface {
	// Pause suspends chunk delivery without discarding device state.
	Pause() error

	// Resume restarts chunk delivery after Pause.
	Resume() error

	// Close releases the device and stops all underlying hardware tracks.
	// Closing an already-closed session is a no-op.
	Close() error
}
