package rooms

import (
	"Linkup/logger"
	"Linkup/module/realtime/presence"
	"Linkup/tools/safe"
)

type fanoutJob struct {
	sessions []*presence.Session
	payload  []byte
}

// Fanout is a fixed worker pool with a bounded queue. Delivery is
// fire-and-forget: a slow client's full send buffer drops the payload
// rather than delaying the emitting call.
type Fanout struct {
	jobs chan fanoutJob
}

func NewFanout(workers, queue int) *Fanout {
	if workers <= 0 {
		workers = 4
	}
	if queue <= 0 {
		queue = 1024
	}
	f := &Fanout{jobs: make(chan fanoutJob, queue)}
	for i := 0; i < workers; i++ {
		safe.Go(func() {
			for job := range f.jobs {
				for _, s := range job.sessions {
					if !s.TrySend(job.payload) {
						logger.Debugf("[fanout] drop payload user=%s session=%s (slow or closed)", s.UserID, s.ID)
					}
				}
			}
		})
	}
	return f
}

func (f *Fanout) dispatch(sessions []*presence.Session, payload []byte) {
	if len(sessions) == 0 || len(payload) == 0 {
		return
	}
	select {
	case f.jobs <- fanoutJob{sessions: sessions, payload: payload}:
	default:
		logger.Warnf("[fanout] queue full, dropping payload for %d sessions", len(sessions))
	}
}

// Close stops the workers once queued jobs drain.
func (f *Fanout) Close() {
	close(f.jobs)
}
