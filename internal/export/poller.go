package export

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/hygienequest/dashboard/internal/model"
)

// Poller periodically re-fetches the full request snapshot so the approver
// sees new submissions and outside decisions without a manual refresh. The
// requester view has no poller; requesters refresh explicitly and pick up
// terminal statuses on their next fetch.
type Poller struct {
	svc      *RequestService
	interval time.Duration
	log      *zap.Logger
}

// NewPoller constructs a Poller. A non-positive interval defaults to 30s.
func NewPoller(svc *RequestService, interval time.Duration, log *zap.Logger) *Poller {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Poller{svc: svc, interval: interval, log: log}
}

// Run polls until ctx is done, invoking onUpdate with each fresh snapshot.
// The first fetch happens immediately. Transient fetch errors are logged
// and the poller keeps going; the next tick may succeed.
func (p *Poller) Run(ctx context.Context, sess *model.Session, onUpdate func([]model.ExportRequest)) error {
	fetch := func() {
		reqs, err := p.svc.List(ctx, sess)
		if err != nil {
			p.log.Warn("request poll failed", zap.Error(err))
			return
		}
		onUpdate(reqs)
	}

	fetch()
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			fetch()
		}
	}
}
