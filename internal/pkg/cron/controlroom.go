package cron

import (
	"context"
	"time"

	"github.com/cmlabs-hris/hris-controlroom-go/internal/domain/controlroom"
)

// ControlRoomJobs keeps open live map sessions fresh and evicts idle ones.
type ControlRoomJobs struct {
	service      controlroom.Service
	pollInterval time.Duration
	reapInterval time.Duration
}

func NewControlRoomJobs(service controlroom.Service, pollInterval, idleTimeout time.Duration) *ControlRoomJobs {
	reap := idleTimeout / 2
	if reap < time.Second {
		reap = time.Second
	}
	return &ControlRoomJobs{
		service:      service,
		pollInterval: pollInterval,
		reapInterval: reap,
	}
}

func (j *ControlRoomJobs) RegisterJobs(scheduler *Scheduler) {
	// A refresh must finish before the next tick would start one.
	scheduler.AddJob(Job{
		Name:     "refresh_live_maps",
		Interval: j.pollInterval,
		Timeout:  j.pollInterval,
		Fn:       j.RefreshLiveMaps,
	})
	scheduler.AddJob(Job{
		Name:     "reap_idle_sessions",
		Interval: j.reapInterval,
		Fn:       j.ReapIdleSessions,
	})
}

// RefreshLiveMaps repaints every open session from its company's current
// snapshot.
func (j *ControlRoomJobs) RefreshLiveMaps(ctx context.Context) error {
	return j.service.RefreshAll(ctx)
}

// ReapIdleSessions disposes sessions nobody has touched within the idle
// timeout.
func (j *ControlRoomJobs) ReapIdleSessions(ctx context.Context) error {
	return j.service.ReapIdle(ctx)
}
