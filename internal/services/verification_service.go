package services

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/shadikamal997/cheesemap-sub001/pkg/validator"
	"github.com/sirupsen/logrus"
)

// VerificationService handles business verification requests and admin review
type VerificationService struct {
	requests   VerificationStore
	businesses *BusinessService
	audit      *AuditService // nil when audit logging is disabled
	logger     *logrus.Logger
}

// NewVerificationService creates a new VerificationService
func NewVerificationService(requests VerificationStore, businesses *BusinessService, audit *AuditService, logger *logrus.Logger) *VerificationService {
	return &VerificationService{
		requests:   requests,
		businesses: businesses,
		audit:      audit,
		logger:     logger,
	}
}

// Submit files a verification request for a business the actor owns
func (s *VerificationService) Submit(actor Actor, businessID uuid.UUID, req *models.SubmitVerificationRequest) (*models.VerificationRequest, error) {
	b, err := s.businesses.RequireOwner(actor, businessID)
	if err != nil {
		return nil, err
	}
	if b.IsVerified() {
		return nil, models.ErrInvalidStatus
	}

	siret, err := validator.NormalizeSIRET(req.SIRET)
	if err != nil {
		return nil, models.NewValidationError("siret", err.Error())
	}

	docs := models.StringArray{}
	for _, u := range req.DocumentURLs {
		if u = strings.TrimSpace(u); u != "" {
			docs = append(docs, u)
		}
	}

	vr := &models.VerificationRequest{
		BusinessID:   businessID,
		SubmittedBy:  actor.UserID,
		SIRET:        siret,
		DocumentURLs: docs,
		Message:      models.NewNullString(strings.TrimSpace(req.Message)),
	}
	if err := s.requests.Submit(vr); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"request_id":  vr.ID,
		"business_id": businessID,
	}).Info("Verification request submitted")

	return vr, nil
}

// ListForBusiness returns a business's verification history
func (s *VerificationService) ListForBusiness(actor Actor, businessID uuid.UUID) ([]*models.VerificationRequest, error) {
	if _, err := s.businesses.RequireOwner(actor, businessID); err != nil {
		return nil, err
	}
	return s.requests.ListByBusiness(businessID)
}

// ListByStatus returns requests for the admin queue; status defaults to pending
func (s *VerificationService) ListByStatus(status string, limit, offset int) ([]*models.VerificationRequest, error) {
	switch status {
	case "":
		status = models.RequestStatusPending
	case models.RequestStatusPending, models.RequestStatusApproved, models.RequestStatusRejected:
	default:
		return nil, models.NewValidationError("status", "must be pending, approved or rejected")
	}
	limit, offset = clampPage(limit, offset)
	return s.requests.ListByStatus(status, limit, offset)
}

// Review approves or rejects a pending request
func (s *VerificationService) Review(actor Actor, id uuid.UUID, approve bool, notes string, client ClientInfo) (*models.VerificationRequest, error) {
	if !actor.IsAdmin() {
		return nil, models.ErrForbidden
	}

	vr, err := s.requests.Review(id, actor.UserID, approve, strings.TrimSpace(notes))
	if err != nil {
		return nil, err
	}
	if vr == nil {
		return nil, models.ErrNotFound
	}

	s.logger.WithFields(logrus.Fields{
		"request_id":  id,
		"business_id": vr.BusinessID,
		"admin_id":    actor.UserID,
		"status":      vr.Status,
	}).Info("Verification request reviewed")

	if s.audit != nil {
		if err := s.audit.LogVerificationDecision(actor.UserID, vr, client); err != nil {
			s.logger.WithError(err).Warn("Failed to write audit log")
		}
	}

	return vr, nil
}
