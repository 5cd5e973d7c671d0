package export

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/hygienequest/dashboard/internal/model"
)

func TestPoller_FetchesApproverSnapshot(t *testing.T) {
	api := &fakeRequestAPI{all: []model.ExportRequest{
		{ID: 1, Status: model.StatusPending},
		{ID: 2, Status: model.StatusApproved},
	}}
	svc := NewRequestService(api, nil, nil)
	p := NewPoller(svc, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	updates := make(chan []model.ExportRequest, 8)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = p.Run(ctx, fieldWorkerSession(), func(reqs []model.ExportRequest) {
			updates <- reqs
		})
	}()

	// First snapshot arrives without waiting a full interval.
	select {
	case reqs := <-updates:
		require.Len(t, reqs, 2)
		pending, processed := Partition(reqs)
		require.Len(t, pending, 1)
		require.Len(t, processed, 1)
	case <-time.After(time.Second):
		t.Fatal("no immediate fetch")
	}

	// And at least one more on a tick.
	select {
	case <-updates:
	case <-time.After(time.Second):
		t.Fatal("no periodic fetch")
	}

	cancel()
	deadline := time.After(time.Second)
wait:
	for {
		select {
		case <-updates:
		case <-done:
			break wait
		case <-deadline:
			t.Fatal("poller did not stop")
		}
	}

	// The poller watches the full approver list, never the per-requester one.
	require.GreaterOrEqual(t, api.allCalls, 2)
	require.Zero(t, api.mineCalls)
}

func TestPoller_StopsOnCancel(t *testing.T) {
	svc := NewRequestService(&fakeRequestAPI{}, nil, nil)
	p := NewPoller(svc, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx, fieldWorkerSession(), func([]model.ExportRequest) {})
	}()
	cancel()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}
