package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

// ErrNotFound is returned when the media service has no such attachment.
var ErrNotFound = errors.New("media: attachment not found")

// Store resolves attachment IDs to serving metadata. Upload and storage
// live in an external media service.
type Store interface {
	Resolve(ctx context.Context, mediaID string) (*Attachment, error)
}

// Attachment is the resolved metadata for an uploaded media object.
type Attachment struct {
	MediaID  string `json:"mediaId"`
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
	FileName string `json:"fileName"`
}

// ClientConfig tunes the HTTP media client.
type ClientConfig struct {
	BaseURL         string
	Timeout         time.Duration
	RetryMaxElapsed time.Duration
}

// Client is the HTTP implementation of Store.
type Client struct {
	baseURL string
	http    *http.Client
	conf    ClientConfig
	logger  *zap.Logger
}

func NewClient(conf ClientConfig, logger *zap.Logger) *Client {
	if conf.Timeout == 0 {
		conf.Timeout = 5 * time.Second
	}
	if conf.RetryMaxElapsed == 0 {
		conf.RetryMaxElapsed = 10 * time.Second
	}
	return &Client{
		baseURL: conf.BaseURL,
		http:    &http.Client{Timeout: conf.Timeout},
		conf:    conf,
		logger:  logger,
	}
}

func (c *Client) Resolve(ctx context.Context, mediaID string) (*Attachment, error) {
	var att Attachment

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet,
			c.baseURL+"/internal/media/"+url.PathEscape(mediaID), nil)
		if err != nil {
			return backoff.Permanent(err)
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return err
		}
		defer func() {
			io.Copy(io.Discard, resp.Body)
			resp.Body.Close()
		}()

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return backoff.Permanent(ErrNotFound)
		case resp.StatusCode >= 500:
			return fmt.Errorf("media service returned %d", resp.StatusCode)
		case resp.StatusCode != http.StatusOK:
			return backoff.Permanent(fmt.Errorf("media service returned %d", resp.StatusCode))
		}

		return json.NewDecoder(resp.Body).Decode(&att)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = c.conf.RetryMaxElapsed
	if err := backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		c.logger.Debug("media resolve failed", zap.String("media_id", mediaID), zap.Error(err))
		return nil, err
	}
	return &att, nil
}
