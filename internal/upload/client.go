package upload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"reflection-audio/internal/asset"
)

const (
	uploadPath = "/api/upload-audio"
	fieldName  = "audio"
)

var (
	// ErrUnsupportedFormat is returned for a content type outside the accepted
	// list. The recorder already constrains formats; this is a final guard.
	ErrUnsupportedFormat = errors.New("audio format is not supported for upload")

	// ErrPayloadTooLarge is returned when the asset exceeds the upload ceiling.
	ErrPayloadTooLarge = errors.New("audio recording exceeds the 10 MiB upload limit")

	// ErrUploadFailed wraps any transport or storage failure. Uploads are not
	// retried automatically; retrying with the same sealed asset is safe and
	// produces a fresh object name.
	ErrUploadFailed = errors.New("audio upload failed")
)

type uploadResponse struct {
	Message  string `json:"message"`
	AudioURL string `json:"audioUrl"`
	Filename string `json:"filename"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// Client transmits sealed audio assets to the storage service and resolves
// their durable public URLs.
type Client struct {
	http *resty.Client
	log  *slog.Logger
}

// NewClient returns a Client that uploads to the service at baseURL.
func NewClient(baseURL string, log *slog.Logger) *Client {
	return &Client{
		http: resty.New().SetBaseURL(baseURL),
		log:  log,
	}
}

// Upload submits the asset as a multipart request and returns the public URL
// reported by the storage service. Each call generates a fresh random object
// name, so concurrent uploads and deliberate re-uploads never collide.
func (c *Client) Upload(ctx context.Context, a *asset.Asset) (string, error) {
	ext, ok := asset.ExtensionFor(a.MimeType())
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, a.MimeType())
	}
	if a.Size() > asset.MaxUploadBytes {
		return "", fmt.Errorf("%w: %d bytes", ErrPayloadTooLarge, a.Size())
	}

	name := uuid.NewString() + "." + ext

	var out uploadResponse
	var apiErr errorResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetMultipartField(fieldName, name, a.MimeType(), bytes.NewReader(a.Bytes())).
		SetResult(&out).
		SetError(&apiErr).
		Post(uploadPath)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	if resp.IsError() {
		if apiErr.Error != "" {
			return "", fmt.Errorf("%w: %s (status %d)", ErrUploadFailed, apiErr.Error, resp.StatusCode())
		}
		return "", fmt.Errorf("%w: status %d", ErrUploadFailed, resp.StatusCode())
	}
	if out.AudioURL == "" {
		return "", fmt.Errorf("%w: response carried no audio URL", ErrUploadFailed)
	}

	c.log.Info("audio uploaded",
		"filename", out.Filename,
		"bytes", a.Size(),
	)
	return out.AudioURL, nil
}
