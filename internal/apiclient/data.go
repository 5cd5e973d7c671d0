package apiclient

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/hygienequest/dashboard/internal/model"
)

// Attendances fetches attendance records with the session bearer. Whether
// fields arrive masked is decided server-side by the bearer presented.
func (c *Client) Attendances(ctx context.Context, bearer string) ([]model.AttendanceRecord, error) {
	out, err := c.fetchAttendances(ctx, bearer)
	if err != nil && c.degraded != nil {
		c.log.Warn("attendance fetch failed, serving degraded-mode sample data", zap.Error(err))
		return c.degraded.Attendances(), nil
	}
	return out, err
}

// AttendancesUnmasked fetches attendance records with an export token and
// never substitutes sample data: a failure here must surface so the caller
// can discard the token and force re-verification.
func (c *Client) AttendancesUnmasked(ctx context.Context, exportToken string) ([]model.AttendanceRecord, error) {
	return c.fetchAttendances(ctx, exportToken)
}

func (c *Client) fetchAttendances(ctx context.Context, bearer string) ([]model.AttendanceRecord, error) {
	var out []model.AttendanceRecord
	if err := c.do(ctx, http.MethodGet, "/attendances", bearer, c.dataTimeout, nil, &out, "Failed to fetch attendance data"); err != nil {
		return nil, err
	}
	return out, nil
}

// Registrations fetches user/registration records with the session bearer.
func (c *Client) Registrations(ctx context.Context, bearer string) ([]model.UserRecord, error) {
	out, err := c.fetchRegistrations(ctx, bearer)
	if err != nil && c.degraded != nil {
		c.log.Warn("registration fetch failed, serving degraded-mode sample data", zap.Error(err))
		return c.degraded.Registrations(), nil
	}
	return out, err
}

// RegistrationsUnmasked fetches user records with an export token, with no
// degraded-mode substitution.
func (c *Client) RegistrationsUnmasked(ctx context.Context, exportToken string) ([]model.UserRecord, error) {
	return c.fetchRegistrations(ctx, exportToken)
}

func (c *Client) fetchRegistrations(ctx context.Context, bearer string) ([]model.UserRecord, error) {
	var out []model.UserRecord
	if err := c.do(ctx, http.MethodGet, "/registrations", bearer, c.dataTimeout, nil, &out, "Failed to fetch user data"); err != nil {
		return nil, err
	}
	return out, nil
}

// UserDetails looks up one user's profile, trying the dashboard endpoint
// first and the plain users endpoint as a fallback.
func (c *Client) UserDetails(ctx context.Context, bearer string, id int64) (*model.UserRecord, error) {
	var out model.UserRecord
	primary := fmt.Sprintf("/dashboard/users/%d", id)
	if err := c.do(ctx, http.MethodGet, primary, bearer, c.dataTimeout, nil, &out, "Failed to fetch user details"); err == nil {
		return &out, nil
	}
	alt := fmt.Sprintf("/users/%d", id)
	if err := c.do(ctx, http.MethodGet, alt, bearer, c.dataTimeout, nil, &out, "Failed to fetch user details"); err != nil {
		return nil, err
	}
	return &out, nil
}
