package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/shadikamal997/cheesemap-sub001/internal/services"
	"github.com/sirupsen/logrus"
)

// AdminHandler handles admin-only operations
type AdminHandler struct {
	admin         *services.AdminService
	verifications *services.VerificationService
	cron          *services.CronService
	logger        *logrus.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(
	admin *services.AdminService,
	verifications *services.VerificationService,
	cron *services.CronService,
	logger *logrus.Logger,
) *AdminHandler {
	return &AdminHandler{
		admin:         admin,
		verifications: verifications,
		cron:          cron,
		logger:        logger,
	}
}

// ListVerificationRequests handles GET /api/v1/admin/verification-requests?status=
func (h *AdminHandler) ListVerificationRequests(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}

	requests, err := h.verifications.ListByStatus(c.Query("status"), limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"requests": requests})
}

// ApproveVerification handles POST /api/v1/admin/verification-requests/:id/approve
func (h *AdminHandler) ApproveVerification(c *gin.Context) {
	h.reviewVerification(c, true)
}

// RejectVerification handles POST /api/v1/admin/verification-requests/:id/reject
func (h *AdminHandler) RejectVerification(c *gin.Context) {
	h.reviewVerification(c, false)
}

func (h *AdminHandler) reviewVerification(c *gin.Context, approve bool) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.ReviewVerificationRequest
	if c.Request.ContentLength > 0 && !bindJSON(c, &req) {
		return
	}

	request, err := h.verifications.Review(actorFrom(c), id, approve, req.Notes, clientInfo(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, request)
}

// ListUsers handles GET /api/v1/admin/users?role=&limit=&offset=
func (h *AdminHandler) ListUsers(c *gin.Context) {
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	offset, ok := queryInt(c, "offset", 0)
	if !ok {
		return
	}

	users, total, err := h.admin.ListUsers(c.Query("role"), limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "total": total})
}

// GetUserAudit handles GET /api/v1/admin/users/:id/audit?limit=
func (h *AdminHandler) GetUserAudit(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}

	events, err := h.admin.UserAudit(id, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"events": events})
}

// UpdateUserStatus handles PUT /api/v1/admin/users/:id/status
func (h *AdminHandler) UpdateUserStatus(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req models.UpdateUserStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.admin.SetUserStatus(actorFrom(c), id, &req, clientInfo(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// GetStats handles GET /api/v1/admin/stats
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.admin.Stats()
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetJobs handles GET /api/v1/admin/jobs
func (h *AdminHandler) GetJobs(c *gin.Context) {
	c.JSON(http.StatusOK, h.cron.GetJobStatus())
}

// RunJob handles POST /api/v1/admin/jobs/:name/run
func (h *AdminHandler) RunJob(c *gin.Context) {
	name := c.Param("name")
	if err := h.cron.RunNow(name); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"job": name, "status": "completed"})
}
