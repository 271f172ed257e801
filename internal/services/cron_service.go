package services

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

const auditRetention = 365 * 24 * time.Hour

// Job names
const (
	JobExpireUnpaid      = "expire_unpaid"
	JobCompleteSchedules = "complete_schedules"
	JobCleanup           = "cleanup"
)

// TokenCleaner deletes expired refresh tokens
type TokenCleaner interface {
	CleanupExpiredTokens() (int64, error)
}

// CronService manages scheduled background jobs
type CronService struct {
	cron        *cron.Cron
	bookings    BookingStore
	orders      OrderStore
	tokens      TokenCleaner
	audit       *AuditService     // nil when audit logging is disabled
	limiter     *RateLimitService // nil when login throttling is disabled
	holdMinutes int
	names       map[cron.EntryID]string
	now         func() time.Time
	logger      *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(
	bookings BookingStore,
	orders OrderStore,
	tokens TokenCleaner,
	audit *AuditService,
	holdMinutes int,
	logger *logrus.Logger,
) *CronService {
	if holdMinutes <= 0 {
		holdMinutes = 30
	}

	return &CronService{
		cron:        cron.New(cron.WithSeconds()),
		bookings:    bookings,
		orders:      orders,
		tokens:      tokens,
		audit:       audit,
		holdMinutes: holdMinutes,
		names:       make(map[cron.EntryID]string),
		now:         time.Now,
		logger:      logger,
	}
}

// SetRateLimiter adds login-attempt pruning to the cleanup job
func (s *CronService) SetRateLimiter(limiter *RateLimitService) {
	s.limiter = limiter
}

// Start schedules all jobs and starts the scheduler
func (s *CronService) Start() error {
	// second minute hour day month weekday
	jobs := []struct {
		name string
		spec string
		run  func()
	}{
		{JobExpireUnpaid, "0 */5 * * * *", s.expireUnpaidJob},
		{JobCompleteSchedules, "0 0 * * * *", s.completeSchedulesJob},
		{JobCleanup, "0 30 3 * * *", s.cleanupJob},
	}

	for _, job := range jobs {
		id, err := s.cron.AddFunc(job.spec, job.run)
		if err != nil {
			return fmt.Errorf("failed to schedule %s job: %w", job.name, err)
		}
		s.names[id] = job.name
		s.logger.WithFields(logrus.Fields{"job": job.name, "spec": job.spec}).Info("Scheduled background job")
	}

	s.cron.Start()
	s.logger.Info("Cron service started")

	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	s.logger.Info("Stopping cron service...")
	<-s.cron.Stop().Done()
	s.logger.Info("Cron service stopped")
}

// expireUnpaidJob cancels bookings and orders left unpaid past the hold window
func (s *CronService) expireUnpaidJob() {
	startTime := time.Now()
	cutoff := s.now().Add(-time.Duration(s.holdMinutes) * time.Minute)

	bookings, err := s.bookings.ExpireUnpaid(cutoff)
	if err != nil {
		s.logger.WithError(err).Error("Failed to expire unpaid bookings")
	}

	orders, err := s.orders.ExpireUnpaid(cutoff)
	if err != nil {
		s.logger.WithError(err).Error("Failed to expire unpaid orders")
	}

	if bookings > 0 || orders > 0 {
		s.logger.WithFields(logrus.Fields{
			"bookings": bookings,
			"orders":   orders,
			"duration": time.Since(startTime).String(),
		}).Info("Expired unpaid holds")
	}
}

// completeSchedulesJob closes finished tour slots and stamps attendees' passports
func (s *CronService) completeSchedulesJob() {
	startTime := time.Now()

	res, err := s.bookings.CompletePastSchedules(s.now())
	if err != nil {
		s.logger.WithError(err).Error("Failed to complete past schedules")
		return
	}

	if res.Schedules > 0 {
		s.logger.WithFields(logrus.Fields{
			"schedules": res.Schedules,
			"bookings":  res.Bookings,
			"stamps":    res.Stamps,
			"duration":  time.Since(startTime).String(),
		}).Info("Completed past tour schedules")
	}
}

// cleanupJob deletes expired refresh tokens, old audit entries and stale login attempts
func (s *CronService) cleanupJob() {
	tokens, err := s.tokens.CleanupExpiredTokens()
	if err != nil {
		s.logger.WithError(err).Error("Failed to cleanup expired tokens")
	}

	var audits int64
	if s.audit != nil {
		if audits, err = s.audit.CleanupOldAuditLogs(auditRetention); err != nil {
			s.logger.WithError(err).Error("Failed to cleanup audit logs")
		}
	}

	var attempts int64
	if s.limiter != nil {
		if attempts, err = s.limiter.CleanupExpiredRateLimits(); err != nil {
			s.logger.WithError(err).Error("Failed to cleanup login attempts")
		}
	}

	s.logger.WithFields(logrus.Fields{
		"tokens":         tokens,
		"audit_logs":     audits,
		"login_attempts": attempts,
	}).Info("Cleanup finished")
}

// RunNow runs a job immediately by name
func (s *CronService) RunNow(name string) error {
	s.logger.WithField("job", name).Info("Running job manually")

	switch name {
	case JobExpireUnpaid:
		s.expireUnpaidJob()
	case JobCompleteSchedules:
		s.completeSchedulesJob()
	case JobCleanup:
		s.cleanupJob()
	default:
		return fmt.Errorf("%w: unknown job %q", ErrUnknownJob, name)
	}
	return nil
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"name":     s.names[entry.ID],
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
