package asset

import (
	"errors"
)

// Accepted audio content types. The recorder only produces formats from this
// list, and the upload path rejects anything else before storage is attempted.
const (
	MimeWebM = "audio/webm"
	MimeMP4  = "audio/mp4"
	MimeMPEG = "audio/mpeg"
	MimeWAV  = "audio/wav"
	MimeOGG  = "audio/ogg"
)

// MaxUploadBytes is the size ceiling for a single audio object, enforced by
// both the upload client and the upload endpoint.
const MaxUploadBytes = 10 << 20

var (
	// ErrEmptyRecording is returned when sealing a session that delivered no chunks.
	ErrEmptyRecording = errors.New("recording produced no audio data")

	// ErrRemoteURLSet is returned when setting a remote URL on an asset that
	// already has one. Re-recording produces a new asset instead.
	ErrRemoteURLSet = errors.New("asset already has a remote URL")
)

var extensionByMime = map[string]string{
	MimeWebM: "webm",
	MimeMP4:  "mp4",
	MimeMPEG: "mp3",
	MimeWAV:  "wav",
	MimeOGG:  "ogg",
}

var mimeByExtension = func() map[string]string {
	m := make(map[string]string, len(extensionByMime))
	for mime, ext := range extensionByMime {
		m[ext] = mime
	}
	return m
}()

// Allowed reports whether mime is in the accepted content-type list.
func Allowed(mime string) bool {
	_, ok := extensionByMime[mime]
	return ok
}

// ExtensionFor returns the file extension implied by mime.
func ExtensionFor(mime string) (string, bool) {
	ext, ok := extensionByMime[mime]
	return ext, ok
}

// MimeForExtension returns the content type implied by a file extension
// (without the leading dot).
func MimeForExtension(ext string) (string, bool) {
	mime, ok := mimeByExtension[ext]
	return mime, ok
}

// Asset is the sealed, immutable result of a recording session. Its bytes are
// assembled exactly once; a local preview reference makes it playable before
// any network activity, and the remote URL is filled in at most once after a
// successful upload.
type Asset struct {
	data      []byte
	mimeType  string
	localRef  string
	remoteURL string
	previews  *PreviewRegistry
}

// Bytes returns the assembled audio. Callers must treat the slice as read-only.
func (a *Asset) Bytes() []byte {
	return a.data
}

// Size returns the assembled byte count.
func (a *Asset) Size() int {
	return len(a.data)
}

// MimeType returns the asset's content type.
func (a *Asset) MimeType() string {
	return a.mimeType
}

// LocalRef returns the process-local preview reference, empty after Discard.
func (a *Asset) LocalRef() string {
	return a.localRef
}

// RemoteURL returns the durable public URL, empty until a successful upload
// has been recorded with SetRemoteURL.
func (a *Asset) RemoteURL() string {
	return a.remoteURL
}

// SetRemoteURL records the URL resolved by a successful upload. It can be
// called at most once per asset.
func (a *Asset) SetRemoteURL(url string) error {
	if a.remoteURL != "" {
		return ErrRemoteURLSet
	}
	a.remoteURL = url
	return nil
}

// Discard revokes the asset's local preview reference. The remote object, if
// any, is unaffected. Discarding twice is a no-op.
func (a *Asset) Discard() {
	if a.localRef == "" {
		return
	}
	a.previews.Revoke(a.localRef)
	a.localRef = ""
}
