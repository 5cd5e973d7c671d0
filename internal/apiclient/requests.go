package apiclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hygienequest/dashboard/internal/model"
)

// SubmitRequestPayload is the POST /dashboard/export-requests body.
type SubmitRequestPayload struct {
	RequesterID    int64  `json:"requester_id"`
	RequesterName  string `json:"requester_name"`
	RequesterPhone string `json:"requester_phone"`
	DataType       string `json:"data_type"`
	RecordCount    int    `json:"record_count"`
	Reason         string `json:"reason"`
	Status         string `json:"status"`
	// RequestKey lets the server drop duplicate submissions.
	RequestKey string `json:"request_key,omitempty"`
}

// SubmitExportRequest files a new export request (status pending).
func (c *Client) SubmitExportRequest(ctx context.Context, bearer string, p SubmitRequestPayload) (*model.ExportRequest, error) {
	var out model.ExportRequest
	if err := c.do(ctx, http.MethodPost, "/dashboard/export-requests", bearer, c.dataTimeout, p, &out, "Failed to submit export request"); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExportRequests lists every export request (approver view).
func (c *Client) ExportRequests(ctx context.Context, bearer string) ([]model.ExportRequest, error) {
	var out []model.ExportRequest
	if err := c.do(ctx, http.MethodGet, "/dashboard/export-requests", bearer, c.dataTimeout, nil, &out, "Failed to fetch export requests"); err != nil {
		return nil, err
	}
	return out, nil
}

// ExportRequestsByUser lists requests filed by one requester.
func (c *Client) ExportRequestsByUser(ctx context.Context, bearer string, requesterID int64) ([]model.ExportRequest, error) {
	var out []model.ExportRequest
	path := fmt.Sprintf("/dashboard/export-requests/user/%d", requesterID)
	if err := c.do(ctx, http.MethodGet, path, bearer, c.dataTimeout, nil, &out, "Failed to fetch export requests"); err != nil {
		return nil, err
	}
	return out, nil
}

// ResolveExportRequest resolves a pending request. The server applies
// last-write-wins on concurrent resolutions; callers re-fetch the list
// afterwards instead of trusting this response alone.
func (c *Client) ResolveExportRequest(ctx context.Context, bearer string, id int64, status model.RequestStatus, approvedBy string, approvedAt time.Time) error {
	body := map[string]any{
		"status":      status,
		"approved_by": approvedBy,
		"approved_at": approvedAt.UTC().Format(time.RFC3339),
	}
	path := fmt.Sprintf("/dashboard/export-requests/%d", id)
	fallback := fmt.Sprintf("Failed to %s request", actionWord(status))
	return c.do(ctx, http.MethodPatch, path, bearer, c.dataTimeout, body, nil, fallback)
}

func actionWord(status model.RequestStatus) string {
	if status == model.StatusApproved {
		return "approve"
	}
	return "reject"
}
