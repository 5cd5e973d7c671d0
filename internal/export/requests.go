package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/hygienequest/dashboard/internal/apiclient"
	"github.com/hygienequest/dashboard/internal/csvout"
	"github.com/hygienequest/dashboard/internal/errs"
	"github.com/hygienequest/dashboard/internal/model"
	"github.com/hygienequest/dashboard/internal/stats"
)

// RequestAPI is the slice of the remote client the request workflow needs.
type RequestAPI interface {
	SubmitExportRequest(ctx context.Context, bearer string, p apiclient.SubmitRequestPayload) (*model.ExportRequest, error)
	ExportRequests(ctx context.Context, bearer string) ([]model.ExportRequest, error)
	ExportRequestsByUser(ctx context.Context, bearer string, requesterID int64) ([]model.ExportRequest, error)
	ResolveExportRequest(ctx context.Context, bearer string, id int64, status model.RequestStatus, approvedBy string, approvedAt time.Time) error
	UserDetails(ctx context.Context, bearer string, id int64) (*model.UserRecord, error)
	Attendances(ctx context.Context, bearer string) ([]model.AttendanceRecord, error)
	Registrations(ctx context.Context, bearer string) ([]model.UserRecord, error)
}

// submitInput is validated before any network call is made.
type submitInput struct {
	DataType    string `validate:"required"`
	RecordCount int    `validate:"gte=0"`
	Reason      string `validate:"required"`
}

// RequestService files, lists and resolves export requests. The API owns
// every request record; this service never mutates them optimistically.
type RequestService struct {
	api      RequestAPI
	validate *validator.Validate
	clock    func() time.Time
	log      *zap.Logger
}

// NewRequestService constructs a RequestService.
func NewRequestService(api RequestAPI, clock func() time.Time, log *zap.Logger) *RequestService {
	if clock == nil {
		clock = time.Now
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RequestService{
		api:      api,
		validate: validator.New(),
		clock:    clock,
		log:      log,
	}
}

// Submit files a new export request with status pending. The reason is
// trimmed and required; validation failures make no network call. Missing
// requester profile fields are backfilled from the user endpoint, with
// generic placeholders as the last resort so the approver view never shows
// blank identity columns.
func (s *RequestService) Submit(ctx context.Context, sess *model.Session, dataType string, recordCount int, reason string) (*model.ExportRequest, error) {
	reason = strings.TrimSpace(reason)
	in := submitInput{DataType: dataType, RecordCount: recordCount, Reason: reason}
	if err := s.validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: please provide a reason for the export", errs.ErrValidation)
	}

	name, phone := sess.Name, sess.Phone
	if name == "" || phone == "" {
		if u, err := s.api.UserDetails(ctx, sess.AccessToken, sess.UserID); err == nil {
			if name == "" {
				name = u.Name
			}
			if phone == "" {
				phone = u.Phone
			}
		}
	}
	if name == "" {
		name = "Field Worker"
	}
	if phone == "" {
		phone = "0000000000"
	}

	key, _ := uuid.NewV4()
	req, err := s.api.SubmitExportRequest(ctx, sess.AccessToken, apiclient.SubmitRequestPayload{
		RequesterID:    sess.UserID,
		RequesterName:  name,
		RequesterPhone: phone,
		DataType:       dataType,
		RecordCount:    recordCount,
		Reason:         reason,
		Status:         string(model.StatusPending),
		RequestKey:     key.String(),
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("export request submitted",
		zap.Int64("request_id", req.ID),
		zap.String("data_type", dataType),
	)
	return req, nil
}

// List returns every export request. Approver view.
func (s *RequestService) List(ctx context.Context, sess *model.Session) ([]model.ExportRequest, error) {
	return s.api.ExportRequests(ctx, sess.AccessToken)
}

// ListMine returns the requests filed by the session's actor.
func (s *RequestService) ListMine(ctx context.Context, sess *model.Session) ([]model.ExportRequest, error) {
	return s.api.ExportRequestsByUser(ctx, sess.AccessToken, sess.UserID)
}

// Partition splits requests into pending and resolved, preserving order.
func Partition(reqs []model.ExportRequest) (pending, processed []model.ExportRequest) {
	for _, r := range reqs {
		if r.Status.Resolved() {
			processed = append(processed, r)
		} else {
			pending = append(pending, r)
		}
	}
	return pending, processed
}

// Counts tallies requests by status.
func Counts(reqs []model.ExportRequest) (pending, approved, rejected int) {
	for _, r := range reqs {
		switch r.Status {
		case model.StatusApproved:
			approved++
		case model.StatusRejected:
			rejected++
		default:
			pending++
		}
	}
	return pending, approved, rejected
}

// Resolve moves a pending request to approved or rejected. Only the
// super admin may resolve; the terminal status carries the resolver's name
// and the resolution moment. The fresh list is re-fetched afterwards so
// concurrent resolutions converge on what the server recorded.
func (s *RequestService) Resolve(ctx context.Context, sess *model.Session, id int64, status model.RequestStatus) ([]model.ExportRequest, error) {
	if sess.Role != model.RoleSuperAdmin {
		return nil, fmt.Errorf("%w: only the super admin can resolve export requests", errs.ErrUnauthorized)
	}
	if !status.Resolved() {
		return nil, fmt.Errorf("%w: status must be approved or rejected", errs.ErrValidation)
	}
	if err := s.api.ResolveExportRequest(ctx, sess.AccessToken, id, status, sess.Name, s.clock()); err != nil {
		return nil, err
	}
	s.log.Info("export request resolved",
		zap.Int64("request_id", id),
		zap.String("status", string(status)),
	)
	return s.api.ExportRequests(ctx, sess.AccessToken)
}

// DownloadApproved emits the CSV for one of the actor's approved requests.
// Anything other than an approved request is refused; the emitted filename
// embeds the request id for the audit trail.
func (s *RequestService) DownloadApproved(ctx context.Context, sess *model.Session, req *model.ExportRequest) (string, []byte, error) {
	if req == nil || req.Status != model.StatusApproved {
		return "", nil, errs.ErrNotApproved
	}

	var rows []csvout.Record
	var headers map[string]string
	switch {
	case strings.EqualFold(csvout.Slug(req.DataType), csvout.Slug(DataUsers)):
		users, err := s.api.Registrations(ctx, sess.AccessToken)
		if err != nil {
			return "", nil, err
		}
		rows, headers = UserRows(users), UserHeaders
	default:
		attendance, err := s.api.Attendances(ctx, sess.AccessToken)
		if err != nil {
			return "", nil, err
		}
		users, err := s.api.Registrations(ctx, sess.AccessToken)
		if err != nil {
			return "", nil, err
		}
		rows, headers = AttendanceRows(stats.Enrich(attendance, users)), AttendanceHeaders
	}

	var buf bytes.Buffer
	if err := csvout.Encode(&buf, rows, headers); err != nil {
		return "", nil, err
	}
	name := csvout.Filename(req.DataType, s.clock(), csvout.VariantApproved, req.ID)
	s.log.Info("approved export emitted", zap.Int64("request_id", req.ID), zap.String("file", name))
	return name, buf.Bytes(), nil
}
