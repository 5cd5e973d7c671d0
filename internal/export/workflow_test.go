package export

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hygienequest/dashboard/internal/apiclient"
	"github.com/hygienequest/dashboard/internal/credstore"
	"github.com/hygienequest/dashboard/internal/errs"
	"github.com/hygienequest/dashboard/internal/model"
)

type fakeOTPAPI struct {
	sendCalls  int
	sendErr    error
	lastSend   apiclient.ExportOTPRequest
	verifyTok  string
	verifyErr  error
	verifyCode string
}

func (f *fakeOTPAPI) SendExportOTP(_ context.Context, _ string, req apiclient.ExportOTPRequest) error {
	f.sendCalls++
	f.lastSend = req
	return f.sendErr
}

func (f *fakeOTPAPI) VerifyExportOTP(_ context.Context, _, _ string, _ int64, code string) (string, error) {
	f.verifyCode = code
	return f.verifyTok, f.verifyErr
}

func managerSession() *model.Session {
	return &model.Session{
		UserID:      5,
		Phone:       "0712345678",
		Name:        "Jane M",
		Role:        model.RoleManager,
		AccessToken: "session-bearer",
		ExpiresAt:   time.Now().Add(20 * time.Minute),
	}
}

func TestWorkflow_BeginSendsOTP(t *testing.T) {
	api := &fakeOTPAPI{}
	store := credstore.NewMemory()
	w := NewTokenWorkflow(api, store, 0, 0, nil, nil)

	require.NoError(t, w.Begin(context.Background(), managerSession(), DataAttendance, 120))
	require.Equal(t, StateAwaitingOtpEntry, w.State())
	require.Equal(t, 1, api.sendCalls)
	require.Equal(t, DataAttendance, api.lastSend.DataType)
	require.Equal(t, 120, api.lastSend.RecordCount)
	require.NotEmpty(t, api.lastSend.RequestKey)
	require.False(t, w.CanResend())
}

func TestWorkflow_BeginReusesCachedToken(t *testing.T) {
	now := time.Now()
	api := &fakeOTPAPI{}
	store := credstore.NewMemory()
	require.NoError(t, store.SaveExportToken(model.ExportToken{Value: "cached", IssuedAt: now.Add(-5 * time.Minute)}))
	w := NewTokenWorkflow(api, store, 0, 0, func() time.Time { return now }, nil)

	require.NoError(t, w.Begin(context.Background(), managerSession(), DataAttendance, 10))
	require.Equal(t, StateAuthorized, w.State())
	require.Zero(t, api.sendCalls)
}

func TestWorkflow_StaleCachedTokenPurgedAndOTPSent(t *testing.T) {
	now := time.Now()
	api := &fakeOTPAPI{}
	store := credstore.NewMemory()
	require.NoError(t, store.SaveExportToken(model.ExportToken{Value: "stale", IssuedAt: now.Add(-31 * time.Minute)}))
	w := NewTokenWorkflow(api, store, 0, 0, func() time.Time { return now }, nil)

	require.NoError(t, w.Begin(context.Background(), managerSession(), DataAttendance, 10))
	require.Equal(t, StateAwaitingOtpEntry, w.State())
	require.Equal(t, 1, api.sendCalls)

	tok, err := store.LoadExportToken()
	require.NoError(t, err)
	require.Nil(t, tok)
}

func TestWorkflow_VerifyStoresToken(t *testing.T) {
	now := time.Date(2026, 8, 28, 11, 0, 0, 0, time.UTC)
	api := &fakeOTPAPI{verifyTok: "export-bearer"}
	store := credstore.NewMemory()
	w := NewTokenWorkflow(api, store, 0, 0, func() time.Time { return now }, nil)

	sess := managerSession()
	require.NoError(t, w.Begin(context.Background(), sess, DataAttendance, 10))
	require.NoError(t, w.Verify(context.Background(), sess, " 1234 "))
	require.Equal(t, StateAuthorized, w.State())
	require.Equal(t, "1234", api.verifyCode)

	tok, err := store.LoadExportToken()
	require.NoError(t, err)
	require.Equal(t, "export-bearer", tok.Value)
	// Issue time is the verification moment, not the send moment.
	require.Equal(t, now, tok.IssuedAt)
}

func TestWorkflow_VerifyRejectedFails(t *testing.T) {
	rejection := errors.New("Invalid OTP")
	api := &fakeOTPAPI{verifyErr: rejection}
	store := credstore.NewMemory()
	require.NoError(t, store.SaveExportToken(model.ExportToken{Value: "old", IssuedAt: time.Now().Add(-40 * time.Minute)}))
	w := NewTokenWorkflow(api, store, 0, 0, nil, nil)

	sess := managerSession()
	require.NoError(t, w.Begin(context.Background(), sess, DataAttendance, 10))
	err := w.Verify(context.Background(), sess, "0000")
	require.ErrorIs(t, err, rejection)
	require.Equal(t, StateFailed, w.State())
	require.Equal(t, rejection, w.Err())

	// No token survives a failed verification; retrying starts a fresh
	// OTP cycle through Begin.
	tok, err := store.LoadExportToken()
	require.NoError(t, err)
	require.Nil(t, tok)
	require.NoError(t, w.Begin(context.Background(), sess, DataAttendance, 10))
	require.Equal(t, StateAwaitingOtpEntry, w.State())
	require.Equal(t, 2, api.sendCalls)
}

func TestWorkflow_VerifyEmptyCode(t *testing.T) {
	w := NewTokenWorkflow(&fakeOTPAPI{}, credstore.NewMemory(), 0, 0, nil, nil)
	sess := managerSession()
	require.NoError(t, w.Begin(context.Background(), sess, DataAttendance, 10))

	err := w.Verify(context.Background(), sess, "  ")
	require.ErrorIs(t, err, errs.ErrValidation)
	require.Equal(t, StateAwaitingOtpEntry, w.State())
}

func TestWorkflow_VerifyOutOfOrder(t *testing.T) {
	w := NewTokenWorkflow(&fakeOTPAPI{}, credstore.NewMemory(), 0, 0, nil, nil)
	require.Error(t, w.Verify(context.Background(), managerSession(), "1234"))
}

func TestWorkflow_ResendCooldown(t *testing.T) {
	api := &fakeOTPAPI{}
	w := NewTokenWorkflow(api, credstore.NewMemory(), 0, 2*time.Second, nil, nil)
	sess := managerSession()

	require.NoError(t, w.Begin(context.Background(), sess, DataAttendance, 10))
	require.Equal(t, 2, w.ResendRemaining())

	err := w.Resend(context.Background(), sess)
	require.ErrorIs(t, err, errs.ErrCooldown)
	require.Equal(t, 1, api.sendCalls)

	w.Tick()
	w.Tick()
	require.True(t, w.CanResend())
	require.NoError(t, w.Resend(context.Background(), sess))
	require.Equal(t, 2, api.sendCalls)
	require.False(t, w.CanResend())
}

func TestWorkflow_SendFailure(t *testing.T) {
	api := &fakeOTPAPI{sendErr: errors.New("Failed to send OTP")}
	w := NewTokenWorkflow(api, credstore.NewMemory(), 0, 0, nil, nil)

	err := w.Begin(context.Background(), managerSession(), DataAttendance, 10)
	require.Error(t, err)
	require.Equal(t, StateFailed, w.State())
	require.Equal(t, err, w.Err())
}

func TestWorkflow_FailFetchClearsToken(t *testing.T) {
	store := credstore.NewMemory()
	require.NoError(t, store.SaveExportToken(model.ExportToken{Value: "tok", IssuedAt: time.Now()}))
	w := NewTokenWorkflow(&fakeOTPAPI{}, store, 0, 0, nil, nil)

	cause := errors.New("fetch refused")
	require.Equal(t, cause, w.FailFetch(cause))
	require.Equal(t, StateFailed, w.State())

	tok, err := store.LoadExportToken()
	require.NoError(t, err)
	require.Nil(t, tok)
}

func TestState_String(t *testing.T) {
	require.Equal(t, "idle", StateIdle.String())
	require.Equal(t, "awaiting_otp_entry", StateAwaitingOtpEntry.String())
	require.Equal(t, "emitted", StateEmitted.String())
	require.Equal(t, "failed", StateFailed.String())
}
