// Package export implements the three export authorization paths: direct
// emission, the OTP-gated token workflow, and the request/approval flow.
package export

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/hygienequest/dashboard/internal/apiclient"
	"github.com/hygienequest/dashboard/internal/countdown"
	"github.com/hygienequest/dashboard/internal/credstore"
	"github.com/hygienequest/dashboard/internal/errs"
	"github.com/hygienequest/dashboard/internal/model"
)

// State is the position of the OTP-gated token workflow. Emitted and Failed
// are terminal; Failed is reachable from every non-terminal state.
type State int

const (
	StateIdle State = iota
	StateAwaitingOtpSend
	StateAwaitingOtpEntry
	StateVerifying
	StateAuthorized
	StateFetching
	StateEmitted
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAwaitingOtpSend:
		return "awaiting_otp_send"
	case StateAwaitingOtpEntry:
		return "awaiting_otp_entry"
	case StateVerifying:
		return "verifying"
	case StateAuthorized:
		return "authorized"
	case StateFetching:
		return "fetching"
	case StateEmitted:
		return "emitted"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// OTPAPI is the slice of the remote client the token workflow needs.
type OTPAPI interface {
	SendExportOTP(ctx context.Context, bearer string, req apiclient.ExportOTPRequest) error
	VerifyExportOTP(ctx context.Context, bearer, phone string, userID int64, code string) (string, error)
}

// TokenWorkflow drives OTP re-verification to an export token. One instance
// serves one export attempt at a time; Begin resets it for the next.
type TokenWorkflow struct {
	api      OTPAPI
	store    credstore.Store
	tokenTTL time.Duration
	clock    func() time.Time
	log      *zap.Logger

	state    State
	inFlight bool
	cooldown *countdown.Countdown
	resendAt int // seconds the cooldown rearms to

	dataType    string
	recordCount int
	lastErr     error
}

// NewTokenWorkflow constructs a workflow in StateIdle.
func NewTokenWorkflow(api OTPAPI, store credstore.Store, tokenTTL, resendCooldown time.Duration, clock func() time.Time, log *zap.Logger) *TokenWorkflow {
	if clock == nil {
		clock = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	if tokenTTL <= 0 {
		tokenTTL = model.ExportTokenLifetime
	}
	if resendCooldown <= 0 {
		resendCooldown = 120 * time.Second
	}
	return &TokenWorkflow{
		api:      api,
		store:    store,
		tokenTTL: tokenTTL,
		clock:    clock,
		log:      log,
		state:    StateIdle,
		cooldown: countdown.New(0),
		resendAt: int(resendCooldown / time.Second),
	}
}

// State returns the current workflow state.
func (w *TokenWorkflow) State() State { return w.state }

// Err returns the error that moved the workflow to StateFailed, if any.
func (w *TokenWorkflow) Err() error { return w.lastErr }

// CachedToken returns the persisted export token if it is still within its
// lifetime. A stale token is purged so it cannot authorize a later fetch.
func (w *TokenWorkflow) CachedToken() (*model.ExportToken, error) {
	tok, err := w.store.LoadExportToken()
	if err != nil {
		return nil, err
	}
	if tok == nil {
		return nil, nil
	}
	if !tok.Valid(w.tokenTTL, w.clock()) {
		_ = w.store.ClearExportToken()
		return nil, nil
	}
	return tok, nil
}

// Begin starts an export attempt. With a valid cached token the workflow
// jumps straight to StateAuthorized and no OTP is sent; otherwise an OTP
// goes out and the workflow waits for the code.
func (w *TokenWorkflow) Begin(ctx context.Context, sess *model.Session, dataType string, recordCount int) error {
	if w.inFlight {
		return errs.ErrBusy
	}
	w.state = StateIdle
	w.lastErr = nil
	w.dataType = dataType
	w.recordCount = recordCount

	tok, err := w.CachedToken()
	if err != nil {
		return w.fail(err)
	}
	if tok != nil {
		w.state = StateAuthorized
		w.log.Info("export token reused", zap.String("data_type", dataType))
		return nil
	}

	w.state = StateAwaitingOtpSend
	return w.send(ctx, sess)
}

// Resend re-issues the export OTP once the cooldown elapsed.
func (w *TokenWorkflow) Resend(ctx context.Context, sess *model.Session) error {
	if w.state != StateAwaitingOtpEntry {
		return fmt.Errorf("cannot resend in state %s", w.state)
	}
	if !w.cooldown.Done() {
		return fmt.Errorf("%w: %s left", errs.ErrCooldown, countdown.Format(w.cooldown.Remaining()))
	}
	return w.send(ctx, sess)
}

func (w *TokenWorkflow) send(ctx context.Context, sess *model.Session) error {
	if w.inFlight {
		return errs.ErrBusy
	}
	w.inFlight = true
	defer func() { w.inFlight = false }()

	key, _ := uuid.NewV4()
	err := w.api.SendExportOTP(ctx, sess.AccessToken, apiclient.ExportOTPRequest{
		Phone:       sess.Phone,
		UserID:      sess.UserID,
		DataType:    w.dataType,
		RecordCount: w.recordCount,
		RequestKey:  key.String(),
	})
	if err != nil {
		return w.fail(err)
	}
	w.state = StateAwaitingOtpEntry
	w.cooldown.Reset(w.resendAt)
	w.log.Info("export otp sent", zap.String("data_type", w.dataType), zap.Int("record_count", w.recordCount))
	return nil
}

// Verify exchanges the OTP code for an export token and persists it with
// the verification moment as its issue time. A rejected code moves the
// workflow to StateFailed; any cached token is cleared first so a failed
// verification can never fall back onto stale authorization, and retrying
// means starting a fresh OTP cycle through Begin.
func (w *TokenWorkflow) Verify(ctx context.Context, sess *model.Session, code string) error {
	if w.state != StateAwaitingOtpEntry {
		return fmt.Errorf("cannot verify in state %s", w.state)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return fmt.Errorf("%w: enter the OTP code", errs.ErrValidation)
	}
	if w.inFlight {
		return errs.ErrBusy
	}
	w.inFlight = true
	defer func() { w.inFlight = false }()

	w.state = StateVerifying
	_ = w.store.ClearExportToken()

	value, err := w.api.VerifyExportOTP(ctx, sess.AccessToken, sess.Phone, sess.UserID, code)
	if err != nil {
		return w.fail(err)
	}
	if value == "" {
		return w.fail(fmt.Errorf("server returned no export token"))
	}

	tok := model.ExportToken{Value: value, IssuedAt: w.clock()}
	if err := w.store.SaveExportToken(tok); err != nil {
		return w.fail(err)
	}
	w.state = StateAuthorized
	w.log.Info("export otp verified")
	return nil
}

// MarkFetching, MarkEmitted and FailFetch let the exporter report the data
// phase back into the state machine. A failed fetch clears the token so the
// next attempt re-verifies.
func (w *TokenWorkflow) MarkFetching() { w.state = StateFetching }

func (w *TokenWorkflow) MarkEmitted() { w.state = StateEmitted }

func (w *TokenWorkflow) FailFetch(err error) error {
	_ = w.store.ClearExportToken()
	return w.fail(err)
}

func (w *TokenWorkflow) fail(err error) error {
	w.state = StateFailed
	w.lastErr = err
	return err
}

// Tick advances the resend cooldown by one second.
func (w *TokenWorkflow) Tick() { w.cooldown.Tick() }

// CanResend reports whether the resend cooldown has elapsed.
func (w *TokenWorkflow) CanResend() bool { return w.cooldown.Done() }

// ResendRemaining returns the seconds left on the resend cooldown.
func (w *TokenWorkflow) ResendRemaining() int { return w.cooldown.Remaining() }
