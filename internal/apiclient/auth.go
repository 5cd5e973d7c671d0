package apiclient

import (
	"context"
	"fmt"
	"net/http"
)

// LoginResult is the /dashboard/login response. Some deployments return the
// actor id as `id`, others as `user_id`.
type LoginResult struct {
	ID          int64  `json:"id"`
	AltID       int64  `json:"user_id"`
	Phone       string `json:"phone"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	School      string `json:"school"`
	District    string `json:"district"`
	AccessToken string `json:"access_token"`
}

// EffectiveID returns whichever id field the server populated.
func (r *LoginResult) EffectiveID() int64 {
	if r.ID != 0 {
		return r.ID
	}
	return r.AltID
}

// Registration is the /check-registration/{phone} response used by the
// school-admin login path.
type Registration struct {
	Registered bool   `json:"registered"`
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	School     string `json:"school"`
	District   string `json:"district"`
}

// SendLoginOTP requests a login OTP for the dashboard roles.
func (c *Client) SendLoginOTP(ctx context.Context, phone string) error {
	body := map[string]string{"phone": phone}
	return c.do(ctx, http.MethodPost, "/dashboard/send-login-otp", "", c.otpTimeout, body, nil, "Failed to send OTP")
}

// VerifyLogin exchanges a login OTP for a session credential.
func (c *Client) VerifyLogin(ctx context.Context, phone, code string) (*LoginResult, error) {
	body := map[string]string{"phone": phone, "otp": code}
	var out LoginResult
	if err := c.do(ctx, http.MethodPost, "/dashboard/login", "", c.otpTimeout, body, &out, "Invalid OTP"); err != nil {
		return nil, err
	}
	return &out, nil
}

// CheckRegistration reports whether a phone belongs to a registered school.
func (c *Client) CheckRegistration(ctx context.Context, phone string) (*Registration, error) {
	var out Registration
	path := fmt.Sprintf("/check-registration/%s", phone)
	if err := c.do(ctx, http.MethodGet, path, "", c.dataTimeout, nil, &out, "Failed to check registration status."); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendOTP requests an OTP on the non-dashboard endpoint (school-admin login).
func (c *Client) SendOTP(ctx context.Context, phone string) error {
	body := map[string]string{"phone": phone}
	return c.do(ctx, http.MethodPost, "/send-otp", "", c.otpTimeout, body, nil, "Failed to send OTP")
}

// VerifyOTP verifies an OTP on the non-dashboard endpoint (school-admin
// login). The response carries no bearer on most deployments; any
// access_token present is returned.
func (c *Client) VerifyOTP(ctx context.Context, phone, code string) (string, error) {
	body := map[string]string{"phone": phone, "otp": code}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(ctx, http.MethodPost, "/verify-otp", "", c.otpTimeout, body, &out, "OTP verification failed"); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

// ExportOTPRequest is the audited payload for an export-verification OTP.
type ExportOTPRequest struct {
	Phone       string `json:"phone"`
	UserID      int64  `json:"user_id"`
	DataType    string `json:"data_type"`
	RecordCount int    `json:"record_count"`
	// RequestKey lets the server drop duplicate sends from double submission.
	RequestKey string `json:"request_key,omitempty"`
}

// SendExportOTP issues an OTP for the manager export path.
func (c *Client) SendExportOTP(ctx context.Context, bearer string, req ExportOTPRequest) error {
	return c.do(ctx, http.MethodPost, "/dashboard/send-export-otp", bearer, c.otpTimeout, req, nil, "Failed to send OTP")
}

// VerifyExportOTP verifies an export OTP and returns the export bearer token.
func (c *Client) VerifyExportOTP(ctx context.Context, bearer, phone string, userID int64, code string) (string, error) {
	body := map[string]any{"phone": phone, "user_id": userID, "otp": code}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.do(ctx, http.MethodPost, "/dashboard/verify-export-otp", bearer, c.otpTimeout, body, &out, "Invalid OTP"); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}
