package jobs

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"propertyhub/internal/queue"
)

const (
	expireContractsSpec = "0 0 0 * * *"
	overduePaymentsSpec = "0 0 */1 * * *"
)

// Scheduler enqueues the periodic lease maintenance jobs; the worker runs them.
type Scheduler struct {
	cron  *cron.Cron
	queue queue.Publisher
	log   zerolog.Logger
}

func NewScheduler(publisher queue.Publisher, log zerolog.Logger) *Scheduler {
	c := cron.New(cron.WithSeconds())
	return &Scheduler{
		cron:  c,
		queue: publisher,
		log:   log,
	}
}

func (s *Scheduler) Start() error {
	if s.queue == nil {
		return nil
	}

	if _, err := s.cron.AddFunc(expireContractsSpec, s.enqueueContractExpiry); err != nil {
		return err
	}
	if _, err := s.cron.AddFunc(overduePaymentsSpec, s.enqueueOverduePayments); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop waits for running enqueue calls to return.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *Scheduler) enqueueContractExpiry() {
	if err := s.enqueue(queue.Job{Type: queue.JobContractsExpire}); err != nil {
		s.log.Error().Err(err).Msg("enqueue contract expiry failed")
	}
}

func (s *Scheduler) enqueueOverduePayments() {
	if err := s.enqueue(queue.Job{Type: queue.JobPaymentsOverdue}); err != nil {
		s.log.Error().Err(err).Msg("enqueue overdue payments failed")
	}
}

func (s *Scheduler) enqueue(job queue.Job) error {
	if s.queue == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.queue.Publish(ctx, job)
}
