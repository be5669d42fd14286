// Package drupal talks to a Drupal 7 Services endpoint: session login,
// CSRF token handling and node creation.
package drupal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/resakss/harvester/internal/logger"
	"github.com/resakss/harvester/internal/retry"
)

// maxErrorBody caps how much of an error response is kept for logging.
const maxErrorBody = 2048

// Config carries everything the client needs to reach the CMS.
type Config struct {
	BaseURL        string
	Username       string
	Password       string
	LoginPath      string
	NodePath       string
	VisitHome      bool
	MaxRetries     int
	RetryDelay     time.Duration
	RequestTimeout time.Duration
}

// Client is an authenticated Services session. Construction performs the
// login; a Client that exists can POST nodes.
type Client struct {
	cfg       Config
	client    *http.Client
	logger    logger.Logger
	cookie    *http.Cookie
	csrfToken string
}

type loginResponse struct {
	Sessid      string `json:"sessid"`
	SessionName string `json:"session_name"`
	Token       string `json:"token"`
}

// NewClient logs in to the CMS and returns a session-bound client.
// Connection-level login failures are retried; a rejected login is not.
func NewClient(ctx context.Context, cfg Config, log logger.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("cms base URL is required")
	}
	if cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("cms credentials are required")
	}

	c := &Client{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
		logger: log,
	}

	if err := c.login(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) login(ctx context.Context) error {
	if c.cfg.VisitHome {
		// Some Services setups only initialize the anonymous session once
		// the site has been visited. Best effort.
		if err := c.visitHome(ctx); err != nil {
			c.logger.Warn("initial site visit failed", logger.Error(err))
		}
	}

	payload, err := json.Marshal(map[string]string{
		"username": c.cfg.Username,
		"password": c.cfg.Password,
	})
	if err != nil {
		return fmt.Errorf("marshal login payload: %w", err)
	}

	var login loginResponse
	err = retry.Do(ctx, c.retryConfig(), func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost,
			c.url(c.cfg.LoginPath), bytes.NewReader(payload))
		if reqErr != nil {
			return fmt.Errorf("create login request: %w", reqErr)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, doErr := c.client.Do(req)
		if doErr != nil {
			return fmt.Errorf("login request: %w", doErr)
		}
		defer resp.Body.Close()

		if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
			body := readErrorBody(resp.Body)
			return fmt.Errorf("%w: login returned %d: %s", ErrAuth, resp.StatusCode, body)
		}

		if decErr := json.NewDecoder(resp.Body).Decode(&login); decErr != nil {
			return fmt.Errorf("%w: decode login response: %s", ErrAuth, decErr)
		}
		return nil
	})
	if err != nil {
		c.logger.Error("cms login failed", logger.Error(err))
		return err
	}

	if login.SessionName == "" || login.Sessid == "" || login.Token == "" {
		return fmt.Errorf("%w: login response missing session fields", ErrAuth)
	}

	c.cookie = &http.Cookie{Name: login.SessionName, Value: login.Sessid}
	c.csrfToken = login.Token

	c.logger.Info("cms login succeeded",
		logger.String("base_url", c.cfg.BaseURL),
		logger.String("user", c.cfg.Username))
	return nil
}

func (c *Client) visitHome(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL, http.NoBody)
	if err != nil {
		return err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// CreateNode POSTs one node. A 401/403 means the session is dead and wraps
// ErrAuth; any other >=400 comes back as *ServerError so the caller can skip
// just this record. Connection failures are retried up to the configured cap.
func (c *Client) CreateNode(ctx context.Context, node *Node) error {
	payload, err := json.Marshal(node)
	if err != nil {
		return fmt.Errorf("marshal node payload: %w", err)
	}

	return retry.Do(ctx, c.retryConfig(), func() error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost,
			c.url(c.cfg.NodePath), bytes.NewReader(payload))
		if reqErr != nil {
			return fmt.Errorf("create node request: %w", reqErr)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-CSRF-Token", c.csrfToken)
		req.AddCookie(c.cookie)

		resp, doErr := c.client.Do(req)
		if doErr != nil {
			return fmt.Errorf("node request: %w", doErr)
		}
		defer resp.Body.Close()

		switch {
		case resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices:
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return fmt.Errorf("%w: node create returned %d", ErrAuth, resp.StatusCode)
		default:
			return &ServerError{
				StatusCode: resp.StatusCode,
				Body:       readErrorBody(resp.Body),
			}
		}
	})
}

// retryConfig retries connection-level failures only. Auth rejections and
// server responses reached the CMS; repeating them changes nothing.
func (c *Client) retryConfig() retry.Config {
	return retry.Config{
		MaxAttempts: c.cfg.MaxRetries,
		Delay:       c.cfg.RetryDelay,
		IsRetryable: func(err error) bool {
			var serverErr *ServerError
			return !errors.Is(err, ErrAuth) && !errors.As(err, &serverErr)
		},
	}
}

func (c *Client) url(path string) string {
	return strings.TrimSuffix(c.cfg.BaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(body))
}
