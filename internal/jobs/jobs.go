// Package jobs runs the recurring billing work: overdue marking and month-end invoicing.
package jobs

import (
	"context"
	"fmt"
	"time"

	"photo-agency/internal/app"
	"photo-agency/internal/core"
	"photo-agency/internal/logger"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const (
	overdueSpec = "0 1 * * *" // 01:00 every day
	periodSpec  = "0 3 1 * *" // 03:00 on the 1st, for the previous month
	jobTimeout  = 10 * time.Minute
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Billing is the subset of the application service the scheduler drives.
type Billing interface {
	MarkOverdueInvoices(ctx context.Context, asOf time.Time) (int64, error)
	RunPeriodInvoicing(ctx context.Context, year, month int) (*app.PeriodRunResult, error)
}

// Options configures the scheduler.
type Options struct {
	Location *time.Location
	// AutoPeriodInvoicing enables month-end consolidation for every customer.
	AutoPeriodInvoicing bool
	Now                 func() time.Time
}

// Scheduler wraps a cron instance with the billing jobs registered.
type Scheduler struct {
	cron    *cron.Cron
	billing Billing
	now     func() time.Time
	log     zerolog.Logger
}

// New registers the billing jobs. Call Start to begin running them.
func New(billing Billing, opts Options) (*Scheduler, error) {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(loc), cron.WithParser(cronParser)),
		billing: billing,
		now:     now,
		log:     logger.WithComponent("jobs"),
	}

	if _, err := s.cron.AddFunc(overdueSpec, s.guard("mark-overdue", s.MarkOverdue)); err != nil {
		return nil, fmt.Errorf("failed to schedule overdue job: %w", err)
	}
	if opts.AutoPeriodInvoicing {
		if _, err := s.cron.AddFunc(periodSpec, s.guard("period-invoicing", s.InvoicePreviousMonth)); err != nil {
			return nil, fmt.Errorf("failed to schedule period invoicing: %w", err)
		}
	}
	return s, nil
}

// Start runs the scheduler in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.log.Info().Int("jobs", len(s.cron.Entries())).Msg("scheduler started")
}

// Stop halts the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}

// MarkOverdue flags SENT invoices whose due date has passed.
func (s *Scheduler) MarkOverdue(ctx context.Context) error {
	n, err := s.billing.MarkOverdueInvoices(ctx, s.now())
	if err != nil {
		return err
	}
	s.log.Info().Int64("invoices", n).Msg("marked overdue")
	return nil
}

// InvoicePreviousMonth consolidates last month's orders for every customer.
func (s *Scheduler) InvoicePreviousMonth(ctx context.Context) error {
	year, month := core.PreviousMonth(s.now())
	res, err := s.billing.RunPeriodInvoicing(ctx, year, month)
	if err != nil {
		return err
	}
	s.log.Info().
		Int("year", year).
		Int("month", month).
		Int("invoices", len(res.Invoices)).
		Int("failures", len(res.Failures)).
		Msg("period invoicing finished")
	if len(res.Failures) > 0 {
		return fmt.Errorf("%d of %d period invoices failed", len(res.Failures), len(res.Failures)+len(res.Invoices))
	}
	return nil
}

// guard gives each run a timeout and keeps a panic from killing the scheduler.
func (s *Scheduler) guard(name string, job func(context.Context) error) func() {
	return func() {
		defer func() {
			if rv := recover(); rv != nil {
				s.log.Error().Str("job", name).Interface("panic", rv).Msg("job panicked")
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()
		if err := job(ctx); err != nil {
			s.log.Error().Err(err).Str("job", name).Msg("job failed")
		}
	}
}
