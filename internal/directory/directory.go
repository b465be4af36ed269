package directory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/arjin21/omerpubgbagimliligi/internal/model"
	"github.com/cenkalti/backoff/v4"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrNotFound is returned when the directory has no record of a user.
var ErrNotFound = errors.New("directory: user not found")

// UserDirectory resolves user existence, block relationships, follow
// relationships and per-user messaging privacy. It is an external
// collaborator; the messaging core never writes through it.
type UserDirectory interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
	IsBlocked(ctx context.Context, userA, userB string) (bool, error)
	IsFollowing(ctx context.Context, follower, followee string) (bool, error)
}

// ClientConfig tunes the HTTP directory client.
type ClientConfig struct {
	BaseURL         string
	Timeout         time.Duration
	RetryMaxElapsed time.Duration
}

// Client talks to the user-directory service over HTTP with retry and a
// circuit breaker in front of it.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker
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

	tr := &http.Transport{
		DialContext:     (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		MaxIdleConns:    32,
		IdleConnTimeout: 60 * time.Second,
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "user-directory",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("directory breaker state change",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		baseURL: conf.BaseURL,
		http:    &http.Client{Transport: tr, Timeout: conf.Timeout},
		breaker: cb,
		conf:    conf,
		logger:  logger,
	}
}

func (c *Client) GetUser(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	err := c.getJSON(ctx, "/internal/users/"+url.PathEscape(userID), &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) IsBlocked(ctx context.Context, userA, userB string) (bool, error) {
	var out struct {
		Blocked bool `json:"blocked"`
	}
	path := fmt.Sprintf("/internal/blocks?a=%s&b=%s", url.QueryEscape(userA), url.QueryEscape(userB))
	if err := c.getJSON(ctx, path, &out); err != nil {
		return false, err
	}
	return out.Blocked, nil
}

func (c *Client) IsFollowing(ctx context.Context, follower, followee string) (bool, error) {
	var out struct {
		Following bool `json:"following"`
	}
	path := fmt.Sprintf("/internal/follows?follower=%s&followee=%s",
		url.QueryEscape(follower), url.QueryEscape(followee))
	if err := c.getJSON(ctx, path, &out); err != nil {
		return false, err
	}
	return out.Following, nil
}

// getJSON runs a GET with exponential backoff inside the circuit breaker.
// 5xx responses are retried; 404 maps to ErrNotFound without retrying.
func (c *Client) getJSON(ctx context.Context, path string, out interface{}) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		operation := func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
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
				return fmt.Errorf("directory returned %d", resp.StatusCode)
			case resp.StatusCode != http.StatusOK:
				return backoff.Permanent(fmt.Errorf("directory returned %d", resp.StatusCode))
			}

			return json.NewDecoder(resp.Body).Decode(out)
		}

		b := backoff.NewExponentialBackOff()
		b.MaxElapsedTime = c.conf.RetryMaxElapsed
		return nil, backoff.Retry(operation, backoff.WithContext(b, ctx))
	})
	if err != nil {
		c.logger.Debug("directory request failed", zap.String("path", path), zap.Error(err))
	}
	return err
}
