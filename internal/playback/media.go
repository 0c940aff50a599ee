package playback

// Events are the callbacks a Media implementation delivers while a URL is
// attached. Deliveries may arrive after the player detached; the player
// treats those as no-ops.
type Events struct {
	// Metadata reports the decoded duration in seconds once it is known.
	Metadata func(durationSeconds float64)

	// Progress reports the playback position advancing.
	Progress func(positionSeconds float64)

	// Ended fires when the position reaches the duration.
	Ended func()

	// Failed reports a decode or network failure.
	Failed func(err error)
}

// Media is the host media-element boundary: it fetches and decodes a URL and
// delivers events for it until the handle is closed.
type Media interface {
	// Open starts loading url. Events are delivered until the returned
	// handle is closed; every successful Open must be matched by one Close.
	Open(url string, ev Events) (Handle, error)
}

// Handle is one attached media source.
type Handle interface {
	Play() error
	Pause() error
	Seek(positionSeconds float64) error

	// SetVolume applies the audible level: volume in [0,1], silenced
	// entirely while muted is true.
	SetVolume(volume float64, muted bool) error

	// Close detaches the source. Closing twice is a no-op.
	Close() error
}
