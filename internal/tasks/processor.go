package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"propertyhub/internal/models"
	"propertyhub/internal/queue"
	"propertyhub/internal/repository"
	"propertyhub/internal/service"
)

type Provisioner interface {
	Provision(ctx context.Context, id string) (models.User, error)
}

type LeaseMaintainer interface {
	ExpireEnded(ctx context.Context, now time.Time) (int64, error)
	MarkLatePayments(ctx context.Context, now time.Time) (int64, error)
}

// Processor runs the jobs read from the stream. A returned error leaves the
// entry pending so another consumer can claim it.
type Processor struct {
	logger      zerolog.Logger
	provisioner Provisioner
	leases      LeaseMaintainer
	now         func() time.Time
}

func NewProcessor(logger zerolog.Logger, provisioner Provisioner, leases LeaseMaintainer) *Processor {
	return &Processor{
		logger:      logger,
		provisioner: provisioner,
		leases:      leases,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (p *Processor) Handle(ctx context.Context, msg redis.XMessage) error {
	job, err := queue.DecodeJob(msg.Values)
	if err != nil {
		p.logger.Warn().Err(err).Str("message_id", msg.ID).Msg("dropping malformed job")
		return nil
	}

	switch job.Type {
	case queue.JobJoinRequestApproved:
		return p.handleJoinRequestApproved(ctx, job)
	case queue.JobContractsExpire:
		return p.handleContractsExpire(ctx)
	case queue.JobPaymentsOverdue:
		return p.handlePaymentsOverdue(ctx)
	default:
		p.logger.Warn().Str("type", job.Type).Msg("unknown job type")
		return nil
	}
}

func (p *Processor) handleJoinRequestApproved(ctx context.Context, job queue.Job) error {
	user, err := p.provisioner.Provision(ctx, job.ID)
	switch {
	case errors.Is(err, service.ErrNotApproved), errors.Is(err, repository.ErrNotFound),
		errors.Is(err, service.ErrEmailInUse), isRuleError(err):
		p.logger.Warn().Err(err).Str("join_request_id", job.ID).Msg("skipping provisioning")
		return nil
	case err != nil:
		return fmt.Errorf("provision join request %s: %w", job.ID, err)
	}

	p.logger.Info().
		Str("join_request_id", job.ID).
		Str("user_id", user.ID).
		Msg("join request provisioned")
	return nil
}

// isRuleError reports a business rule violation, which no retry can fix.
func isRuleError(err error) bool {
	var re *service.RuleError
	return errors.As(err, &re)
}

func (p *Processor) handleContractsExpire(ctx context.Context) error {
	n, err := p.leases.ExpireEnded(ctx, p.now())
	if err != nil {
		return fmt.Errorf("expire contracts: %w", err)
	}
	p.logger.Info().Int64("contracts", n).Msg("expired ended contracts")
	return nil
}

func (p *Processor) handlePaymentsOverdue(ctx context.Context) error {
	n, err := p.leases.MarkLatePayments(ctx, p.now())
	if err != nil {
		return fmt.Errorf("mark late payments: %w", err)
	}
	p.logger.Info().Int64("payments", n).Msg("marked overdue payments late")
	return nil
}
