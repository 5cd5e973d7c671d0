package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hygienequest/dashboard/internal/csvout"
	"github.com/hygienequest/dashboard/internal/errs"
	"github.com/hygienequest/dashboard/internal/model"
	"github.com/hygienequest/dashboard/internal/policy"
	"github.com/hygienequest/dashboard/internal/stats"
)

// DataAPI is the slice of the remote client the exporter fetches with. The
// Unmasked variants take an export token and never substitute degraded-mode
// sample data, so a rejected token always surfaces.
type DataAPI interface {
	Attendances(ctx context.Context, bearer string) ([]model.AttendanceRecord, error)
	Registrations(ctx context.Context, bearer string) ([]model.UserRecord, error)
	AttendancesUnmasked(ctx context.Context, exportToken string) ([]model.AttendanceRecord, error)
	RegistrationsUnmasked(ctx context.Context, exportToken string) ([]model.UserRecord, error)
}

// Exporter routes an export through the path the actor's role resolves to
// and emits the CSV bytes plus their deterministic filename.
type Exporter struct {
	api      DataAPI
	workflow *TokenWorkflow
	clock    func() time.Time
	log      *zap.Logger
}

// NewExporter constructs an Exporter.
func NewExporter(api DataAPI, workflow *TokenWorkflow, clock func() time.Time, log *zap.Logger) *Exporter {
	if clock == nil {
		clock = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Exporter{api: api, workflow: workflow, clock: clock, log: log}
}

// Export performs the export for the session's role.
//
// Direct roles fetch with the session bearer and emit immediately. The
// OTP-gated path requires a valid export token; without one the caller gets
// ErrOTPRequired and must drive the token workflow first. Roles on the
// approval path get ErrApprovalRequired and must file a request instead.
func (e *Exporter) Export(ctx context.Context, sess *model.Session, dataType string) (string, []byte, error) {
	path, err := policy.Resolve(sess.Role)
	if err != nil {
		return "", nil, err
	}

	switch path {
	case policy.PathDirect:
		return e.emit(ctx, sess.AccessToken, dataType, csvout.VariantPlain, 0)

	case policy.PathOTPGated:
		tok, err := e.workflow.CachedToken()
		if err != nil {
			return "", nil, err
		}
		if tok == nil {
			return "", nil, errs.ErrOTPRequired
		}
		e.workflow.MarkFetching()
		name, data, err := e.emit(ctx, tok.Value, dataType, csvout.VariantUnmasked, 0)
		if err != nil {
			// The token may be the reason the fetch was refused; drop it
			// so the next attempt re-verifies.
			return "", nil, e.workflow.FailFetch(err)
		}
		e.workflow.MarkEmitted()
		return name, data, nil

	case policy.PathRequestApproval:
		return "", nil, errs.ErrApprovalRequired

	default:
		return "", nil, fmt.Errorf("%w: no export path for role %q", errs.ErrConfiguration, sess.Role)
	}
}

// RecordCount reports how many records an export of dataType would cover.
// The OTP audit payload carries this number.
func (e *Exporter) RecordCount(ctx context.Context, sess *model.Session, dataType string) (int, error) {
	if isUserData(dataType) {
		users, err := e.api.Registrations(ctx, sess.AccessToken)
		if err != nil {
			return 0, err
		}
		return len(users), nil
	}
	attendance, err := e.api.Attendances(ctx, sess.AccessToken)
	if err != nil {
		return 0, err
	}
	return len(attendance), nil
}

func (e *Exporter) emit(ctx context.Context, bearer, dataType string, variant csvout.Variant, requestID int64) (string, []byte, error) {
	fetchAttendance := e.api.Attendances
	fetchUsers := e.api.Registrations
	if variant == csvout.VariantUnmasked {
		fetchAttendance = e.api.AttendancesUnmasked
		fetchUsers = e.api.RegistrationsUnmasked
	}

	var rows []csvout.Record
	var headers map[string]string

	if isUserData(dataType) {
		users, err := fetchUsers(ctx, bearer)
		if err != nil {
			return "", nil, err
		}
		rows, headers = UserRows(users), UserHeaders
	} else {
		attendance, err := fetchAttendance(ctx, bearer)
		if err != nil {
			return "", nil, err
		}
		users, err := fetchUsers(ctx, bearer)
		if err != nil {
			return "", nil, err
		}
		rows, headers = AttendanceRows(stats.Enrich(attendance, users)), AttendanceHeaders
	}

	var buf bytes.Buffer
	if err := csvout.Encode(&buf, rows, headers); err != nil {
		return "", nil, err
	}
	name := csvout.Filename(dataType, e.clock(), variant, requestID)
	e.log.Info("export emitted", zap.String("file", name), zap.Int("rows", len(rows)))
	return name, buf.Bytes(), nil
}

func isUserData(dataType string) bool {
	return strings.EqualFold(csvout.Slug(dataType), csvout.Slug(DataUsers))
}
