// Package session manages the authenticated actor: the phone+OTP login
// flow, the persisted session blob, lazy expiry checks, and logout.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/hygienequest/dashboard/internal/apiclient"
	"github.com/hygienequest/dashboard/internal/countdown"
	"github.com/hygienequest/dashboard/internal/credstore"
	"github.com/hygienequest/dashboard/internal/errs"
	"github.com/hygienequest/dashboard/internal/model"
)

// API is the slice of the remote client the login flow needs.
type API interface {
	SendLoginOTP(ctx context.Context, phone string) error
	VerifyLogin(ctx context.Context, phone, code string) (*apiclient.LoginResult, error)
	CheckRegistration(ctx context.Context, phone string) (*apiclient.Registration, error)
	SendOTP(ctx context.Context, phone string) error
	VerifyOTP(ctx context.Context, phone, code string) (string, error)
}

// Config carries the session lifetimes and resend cooldown.
type Config struct {
	TTL            time.Duration // dashboard roles
	SchoolAdminTTL time.Duration // school-admin login window
	ResendCooldown time.Duration
}

// Manager owns the session credential. It is the single place that parses
// the persisted blob; every other component asks it for the current actor.
type Manager struct {
	api   API
	store credstore.Store
	cfg   Config
	clock func() time.Time
	log   *zap.Logger

	cooldown *countdown.Countdown
}

// NewManager constructs a Manager. A nil clock means time.Now; a nil
// logger is replaced with a nop logger.
func NewManager(api API, store credstore.Store, cfg Config, clock func() time.Time, log *zap.Logger) *Manager {
	if clock == nil {
		clock = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.TTL <= 0 {
		cfg.TTL = model.SessionLifetime
	}
	if cfg.SchoolAdminTTL <= 0 {
		cfg.SchoolAdminTTL = model.SchoolAdminSessionLifetime
	}
	if cfg.ResendCooldown <= 0 {
		cfg.ResendCooldown = 120 * time.Second
	}
	return &Manager{
		api:      api,
		store:    store,
		cfg:      cfg,
		clock:    clock,
		log:      log,
		cooldown: countdown.New(0),
	}
}

// SendOTP starts the login OTP flow for a role. School-admin logins are
// pre-checked against the registration registry and use the non-dashboard
// OTP endpoints; every other role uses the dashboard ones.
func (m *Manager) SendOTP(ctx context.Context, role model.Role, phone string) error {
	if strings.TrimSpace(phone) == "" {
		return fmt.Errorf("%w: phone required", errs.ErrValidation)
	}

	if role == model.RoleSchoolAdmin {
		reg, err := m.api.CheckRegistration(ctx, phone)
		if err != nil {
			return err
		}
		if !reg.Registered {
			return fmt.Errorf("%w: this phone number is not registered as a school", errs.ErrValidation)
		}
		if err := m.api.SendOTP(ctx, phone); err != nil {
			return err
		}
	} else {
		if err := m.api.SendLoginOTP(ctx, phone); err != nil {
			return err
		}
	}

	m.cooldown.Reset(int(m.cfg.ResendCooldown / time.Second))
	m.log.Info("login otp sent", zap.String("role", string(role)))
	return nil
}

// Resend re-issues the login OTP. Only allowed once the cooldown elapsed.
func (m *Manager) Resend(ctx context.Context, role model.Role, phone string) error {
	if !m.cooldown.Done() {
		return fmt.Errorf("%w: %s left", errs.ErrCooldown, countdown.Format(m.cooldown.Remaining()))
	}
	return m.SendOTP(ctx, role, phone)
}

// Tick advances the resend cooldown by one second.
func (m *Manager) Tick() { m.cooldown.Tick() }

// CanResend reports whether the resend cooldown has elapsed.
func (m *Manager) CanResend() bool { return m.cooldown.Done() }

// CooldownRemaining returns the seconds left on the resend cooldown.
func (m *Manager) CooldownRemaining() int { return m.cooldown.Remaining() }

// Verify exchanges the OTP code for a session and persists it. The expiry
// window is fixed at this moment and never extended by activity.
func (m *Manager) Verify(ctx context.Context, role model.Role, phone, code string) (*model.Session, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, fmt.Errorf("%w: enter the OTP code", errs.ErrValidation)
	}

	now := m.clock()
	var sess model.Session

	if role == model.RoleSchoolAdmin {
		token, err := m.api.VerifyOTP(ctx, phone, code)
		if err != nil {
			return nil, err
		}
		reg, err := m.api.CheckRegistration(ctx, phone)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch user data: %w", err)
		}
		name := reg.Name
		if name == "" {
			name = "School Admin"
		}
		sess = model.Session{
			UserID:      reg.ID,
			Phone:       phone,
			Name:        name,
			Role:        model.RoleSchoolAdmin,
			School:      reg.School,
			District:    reg.District,
			AccessToken: token,
			LoginTime:   now,
			ExpiresAt:   now.Add(m.cfg.SchoolAdminTTL),
		}
	} else {
		res, err := m.api.VerifyLogin(ctx, phone, code)
		if err != nil {
			return nil, err
		}
		gotRole := model.Role(res.Role)
		if gotRole == "" {
			gotRole = role
		}
		sess = model.Session{
			UserID:      res.EffectiveID(),
			Phone:       res.Phone,
			Name:        res.Name,
			Role:        gotRole,
			School:      res.School,
			District:    res.District,
			AccessToken: res.AccessToken,
			LoginTime:   now,
			ExpiresAt:   bearerExpiry(res.AccessToken, now, m.cfg.TTL),
		}
		if sess.Phone == "" {
			sess.Phone = phone
		}
	}

	if err := m.store.SaveSession(sess); err != nil {
		return nil, err
	}
	m.log.Info("login verified",
		zap.String("role", string(sess.Role)),
		zap.Time("expires_at", sess.ExpiresAt),
	)
	return &sess, nil
}

// bearerExpiry reads the exp claim off the session bearer without
// validating the signature; the fixed TTL is the fallback, and the earlier
// of the two wins so the client never outlives the server's window.
func bearerExpiry(token string, now time.Time, ttl time.Duration) time.Time {
	exp := now.Add(ttl)
	var claims jwt.RegisteredClaims
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(token, &claims); err == nil && claims.ExpiresAt != nil {
		if claims.ExpiresAt.Time.Before(exp) && claims.ExpiresAt.Time.After(now) {
			exp = claims.ExpiresAt.Time
		}
	}
	return exp
}

// Current returns the persisted session if it is still valid. An expired
// or malformed session is purged and reported through the sentinels, which
// callers translate into a redirect to the entry point.
func (m *Manager) Current() (*model.Session, error) {
	sess, err := m.store.LoadSession()
	if err != nil {
		return nil, err
	}
	if !sess.Valid(m.clock()) {
		_ = m.store.ClearSession()
		return nil, errs.ErrSessionExpired
	}
	return sess, nil
}

// Logout destroys the session and any cached export token.
func (m *Manager) Logout() error {
	err := m.store.ClearSession()
	if terr := m.store.ClearExportToken(); err == nil {
		err = terr
	}
	m.log.Info("logged out")
	return err
}

// Remaining returns the time left on the current session, zero if none.
func (m *Manager) Remaining() time.Duration {
	sess, err := m.store.LoadSession()
	if err != nil {
		return 0
	}
	if d := sess.ExpiresAt.Sub(m.clock()); d > 0 {
		return d
	}
	return 0
}

// Countdown runs the user-visible session timer: onTick fires once per
// second with the remaining time, and the moment it reaches zero the
// session is purged and onExpire fires. The remaining time is recomputed
// from the absolute expiry on every tick, so the display cannot drift.
func (m *Manager) Countdown(ctx context.Context, onTick func(time.Duration), onExpire func()) error {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			left := m.Remaining()
			if onTick != nil {
				onTick(left)
			}
			if left <= 0 {
				_ = m.store.ClearSession()
				if onExpire != nil {
					onExpire()
				}
				return nil
			}
		}
	}
}

// FormatRemaining renders a duration as MM:SS for the timer display.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// IsAuthErr reports whether err means the actor must re-authenticate.
func IsAuthErr(err error) bool {
	return errors.Is(err, errs.ErrNoSession) ||
		errors.Is(err, errs.ErrSessionExpired) ||
		errors.Is(err, errs.ErrUnauthorized)
}
