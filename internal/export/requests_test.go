package export

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hygienequest/dashboard/internal/apiclient"
	"github.com/hygienequest/dashboard/internal/errs"
	"github.com/hygienequest/dashboard/internal/model"
)

type fakeRequestAPI struct {
	submitted    *apiclient.SubmitRequestPayload
	submitResult *model.ExportRequest
	all          []model.ExportRequest
	mine         []model.ExportRequest
	resolved     struct {
		id     int64
		status model.RequestStatus
		by     string
		at     time.Time
	}
	resolveCalls int
	allCalls     int
	mineCalls    int
	user         *model.UserRecord
	userErr      error
	attendance   []model.AttendanceRecord
	users        []model.UserRecord
}

func (f *fakeRequestAPI) SubmitExportRequest(_ context.Context, _ string, p apiclient.SubmitRequestPayload) (*model.ExportRequest, error) {
	f.submitted = &p
	if f.submitResult != nil {
		return f.submitResult, nil
	}
	return &model.ExportRequest{ID: 1, Status: model.StatusPending}, nil
}

func (f *fakeRequestAPI) ExportRequests(context.Context, string) ([]model.ExportRequest, error) {
	f.allCalls++
	return f.all, nil
}

func (f *fakeRequestAPI) ExportRequestsByUser(context.Context, string, int64) ([]model.ExportRequest, error) {
	f.mineCalls++
	return f.mine, nil
}

func (f *fakeRequestAPI) ResolveExportRequest(_ context.Context, _ string, id int64, status model.RequestStatus, by string, at time.Time) error {
	f.resolveCalls++
	f.resolved.id, f.resolved.status, f.resolved.by, f.resolved.at = id, status, by, at
	return nil
}

func (f *fakeRequestAPI) UserDetails(context.Context, string, int64) (*model.UserRecord, error) {
	return f.user, f.userErr
}

func (f *fakeRequestAPI) Attendances(context.Context, string) ([]model.AttendanceRecord, error) {
	return f.attendance, nil
}

func (f *fakeRequestAPI) Registrations(context.Context, string) ([]model.UserRecord, error) {
	return f.users, nil
}

func fieldWorkerSession() *model.Session {
	return &model.Session{
		UserID:      9,
		Phone:       "0700000009",
		Name:        "Okello P",
		Role:        model.RoleFieldWorker,
		AccessToken: "bearer",
		ExpiresAt:   time.Now().Add(20 * time.Minute),
	}
}

func TestSubmit_FilesPendingRequest(t *testing.T) {
	api := &fakeRequestAPI{}
	svc := NewRequestService(api, nil, nil)

	req, err := svc.Submit(context.Background(), fieldWorkerSession(), DataAttendance, 42, "  quarterly report  ")
	require.NoError(t, err)
	require.Equal(t, model.StatusPending, req.Status)

	require.Equal(t, "pending", api.submitted.Status)
	require.Equal(t, "quarterly report", api.submitted.Reason)
	require.Equal(t, int64(9), api.submitted.RequesterID)
	require.Equal(t, "Okello P", api.submitted.RequesterName)
	require.NotEmpty(t, api.submitted.RequestKey)
}

func TestSubmit_EmptyReasonNoNetworkCall(t *testing.T) {
	api := &fakeRequestAPI{}
	svc := NewRequestService(api, nil, nil)

	_, err := svc.Submit(context.Background(), fieldWorkerSession(), DataAttendance, 42, "   ")
	require.ErrorIs(t, err, errs.ErrValidation)
	require.Nil(t, api.submitted)
}

func TestSubmit_BackfillsProfileFromUserEndpoint(t *testing.T) {
	api := &fakeRequestAPI{user: &model.UserRecord{Name: "Akello J", Phone: "0788111222"}}
	svc := NewRequestService(api, nil, nil)

	sess := fieldWorkerSession()
	sess.Name, sess.Phone = "", ""
	_, err := svc.Submit(context.Background(), sess, DataAttendance, 1, "needed for audit")
	require.NoError(t, err)
	require.Equal(t, "Akello J", api.submitted.RequesterName)
	require.Equal(t, "0788111222", api.submitted.RequesterPhone)
}

func TestSubmit_PlaceholdersWhenLookupFails(t *testing.T) {
	api := &fakeRequestAPI{userErr: errs.ErrTimeout}
	svc := NewRequestService(api, nil, nil)

	sess := fieldWorkerSession()
	sess.Name, sess.Phone = "", ""
	_, err := svc.Submit(context.Background(), sess, DataAttendance, 1, "needed for audit")
	require.NoError(t, err)
	require.Equal(t, "Field Worker", api.submitted.RequesterName)
	require.Equal(t, "0000000000", api.submitted.RequesterPhone)
}

func TestPartitionAndCounts(t *testing.T) {
	reqs := []model.ExportRequest{
		{ID: 1, Status: model.StatusPending},
		{ID: 2, Status: model.StatusApproved},
		{ID: 3, Status: model.StatusRejected},
		{ID: 4, Status: model.StatusPending},
	}

	pending, processed := Partition(reqs)
	require.Len(t, pending, 2)
	require.Len(t, processed, 2)
	require.Equal(t, int64(1), pending[0].ID)
	require.Equal(t, int64(2), processed[0].ID)

	p, a, r := Counts(reqs)
	require.Equal(t, 2, p)
	require.Equal(t, 1, a)
	require.Equal(t, 1, r)
}

func TestResolve_SuperAdminOnly(t *testing.T) {
	api := &fakeRequestAPI{}
	svc := NewRequestService(api, nil, nil)

	_, err := svc.Resolve(context.Background(), fieldWorkerSession(), 1, model.StatusApproved)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
	require.Zero(t, api.resolveCalls)
}

func TestResolve_RecordsDecisionAndRefetches(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	api := &fakeRequestAPI{all: []model.ExportRequest{{ID: 1, Status: model.StatusApproved}}}
	svc := NewRequestService(api, func() time.Time { return now }, nil)

	admin := &model.Session{UserID: 1, Name: "Root Admin", Role: model.RoleSuperAdmin, AccessToken: "b", ExpiresAt: now.Add(time.Hour)}
	fresh, err := svc.Resolve(context.Background(), admin, 1, model.StatusApproved)
	require.NoError(t, err)
	require.Equal(t, 1, api.resolveCalls)
	require.Equal(t, model.StatusApproved, api.resolved.status)
	require.Equal(t, "Root Admin", api.resolved.by)
	require.Equal(t, now, api.resolved.at)
	// The returned list is the server's truth, not a local mutation.
	require.Len(t, fresh, 1)
	require.Equal(t, model.StatusApproved, fresh[0].Status)
}

func TestResolve_NonTerminalStatusRejected(t *testing.T) {
	svc := NewRequestService(&fakeRequestAPI{}, nil, nil)
	admin := &model.Session{Role: model.RoleSuperAdmin, AccessToken: "b"}

	_, err := svc.Resolve(context.Background(), admin, 1, model.StatusPending)
	require.ErrorIs(t, err, errs.ErrValidation)
}

func TestDownloadApproved_GuardsStatus(t *testing.T) {
	svc := NewRequestService(&fakeRequestAPI{}, nil, nil)
	sess := fieldWorkerSession()

	for _, status := range []model.RequestStatus{model.StatusPending, model.StatusRejected} {
		_, _, err := svc.DownloadApproved(context.Background(), sess, &model.ExportRequest{ID: 1, Status: status})
		require.ErrorIs(t, err, errs.ErrNotApproved)
	}
	_, _, err := svc.DownloadApproved(context.Background(), sess, nil)
	require.ErrorIs(t, err, errs.ErrNotApproved)
}

func TestDownloadApproved_EmitsCSV(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	api := &fakeRequestAPI{
		attendance: []model.AttendanceRecord{
			{Phone: "0701", StudentsPresent: 20, StudentsAbsent: 2, TopicCovered: "Handwashing", AbsenceReason: "sick"},
		},
		users: []model.UserRecord{
			{Phone: "0701", Name: "Akello J", School: "Gulu PS", District: "Gulu"},
		},
	}
	svc := NewRequestService(api, func() time.Time { return now }, nil)

	req := &model.ExportRequest{ID: 17, DataType: DataAttendance, Status: model.StatusApproved}
	name, data, err := svc.DownloadApproved(context.Background(), fieldWorkerSession(), req)
	require.NoError(t, err)
	require.Equal(t, "attendance-data-2026-08-28-approved-17.csv", name)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "Teacher Name")
	require.Contains(t, lines[1], "Akello J")
	require.Contains(t, lines[1], "Gulu PS")
}
