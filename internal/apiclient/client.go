// Package apiclient is the HTTP/JSON client for the HygieneQuest API.
// All real business logic (OTP issuance, authorization, masking) lives
// behind these endpoints; this package only speaks the wire contract.
package apiclient

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

	"go.uber.org/zap"

	"github.com/hygienequest/dashboard/internal/errs"
	"github.com/hygienequest/dashboard/internal/model"
)

// DataSource supplies substitute records when the API is unreachable and
// degraded mode is enabled.
type DataSource interface {
	Attendances() []model.AttendanceRecord
	Registrations() []model.UserRecord
}

// Options configures a Client.
type Options struct {
	BaseURL     string
	DataTimeout time.Duration // plain data fetches
	OTPTimeout  time.Duration // OTP send/verify (waits on an SMS gateway)

	// Degraded, when non-nil, is consulted for attendance/registration
	// fetches that fail. Leave nil to surface outages.
	Degraded DataSource

	HTTPClient *http.Client
}

// Client calls the remote dashboard API.
type Client struct {
	base        string
	http        *http.Client
	dataTimeout time.Duration
	otpTimeout  time.Duration
	degraded    DataSource
	log         *zap.Logger
}

// New constructs a Client. A nil logger is replaced with a nop logger.
func New(opts Options, log *zap.Logger) *Client {
	if log == nil {
		log = zap.NewNop()
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	if opts.DataTimeout <= 0 {
		opts.DataTimeout = 10 * time.Second
	}
	if opts.OTPTimeout <= 0 {
		opts.OTPTimeout = 30 * time.Second
	}
	return &Client{
		base:        strings.TrimRight(opts.BaseURL, "/"),
		http:        hc,
		dataTimeout: opts.DataTimeout,
		otpTimeout:  opts.OTPTimeout,
		degraded:    opts.Degraded,
		log:         log,
	}
}

// APIError is a server-rejected response (non-2xx). Detail carries the
// server's `detail` field verbatim, or the caller's fallback message when
// the body is absent or unparsable.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string { return e.Detail }

// Unwrap maps authorization rejections onto the shared sentinel so callers
// can purge credentials on errors.Is(err, errs.ErrUnauthorized).
func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden {
		return errs.ErrUnauthorized
	}
	return nil
}

// do performs one JSON round trip within the given timeout budget. A nil
// out skips response decoding. fallback is the surfaced message when the
// error body carries no usable detail.
func (c *Client) do(ctx context.Context, method, path, bearer string, timeout time.Duration, body, out any, fallback string) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
			return fmt.Errorf("%w: %s %s after %s", errs.ErrTimeout, method, path, timeout)
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	c.log.Debug("api",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("dur", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Detail: decodeDetail(resp.Body, fallback)}
	}
	if out == nil {
		return nil
	}
	// An empty 2xx body is fine for endpoints that only acknowledge.
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

// decodeDetail extracts the `detail` field of an error body. The field may
// be a plain string or, on validation errors, structured JSON; structured
// detail is surfaced as its JSON text.
func decodeDetail(r io.Reader, fallback string) string {
	var body struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil || len(body.Detail) == 0 {
		return fallback
	}
	var s string
	if err := json.Unmarshal(body.Detail, &s); err == nil {
		if s == "" {
			return fallback
		}
		return s
	}
	return string(body.Detail)
}
