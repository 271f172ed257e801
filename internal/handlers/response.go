package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	playground "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shadikamal997/cheesemap-sub001/internal/middleware"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/shadikamal997/cheesemap-sub001/internal/services"
	"github.com/shadikamal997/cheesemap-sub001/internal/utils"
	"github.com/shadikamal997/cheesemap-sub001/pkg/payment"
	"github.com/sirupsen/logrus"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Message string                 `json:"message"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// MessageResponse is returned by endpoints that have nothing else to say
type MessageResponse struct {
	Message string `json:"message"`
}

// sentinelStatus maps plain domain errors to a status and error code
var sentinelStatus = []struct {
	err    error
	status int
	code   string
}{
	{models.ErrInvalidToken, http.StatusUnauthorized, "invalid_token"},
	{models.ErrInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
	{models.ErrAccountSuspended, http.StatusForbidden, "account_suspended"},
	{models.ErrForbidden, http.StatusForbidden, "forbidden"},
	{models.ErrBusinessNotVerified, http.StatusForbidden, "business_not_verified"},
	{models.ErrNotFound, http.StatusNotFound, "not_found"},
	{models.ErrInvalidStatus, http.StatusConflict, "invalid_status"},
	{models.ErrCancellationWindowPassed, http.StatusConflict, "cancellation_window_passed"},
	{models.ErrEmailTaken, http.StatusConflict, "email_taken"},
	{models.ErrAlreadyPending, http.StatusConflict, "already_pending"},
	{services.ErrPaymentProvider, http.StatusBadGateway, "payment_provider_error"},
	{services.ErrUnknownJob, http.StatusNotFound, "not_found"},
	{payment.ErrInvalidSignature, http.StatusBadRequest, "invalid_signature"},
}

// respondError writes the JSON error for a service error. Unknown errors are
// logged and reported as 500 without their message.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var vErr *models.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: vErr.Error(),
			Details: map[string]interface{}{vErr.Field: vErr.Message},
		})
		return
	}

	var capErr *models.CapacityError
	if errors.As(err, &capErr) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "insufficient_capacity",
			Message: capErr.Error(),
			Details: map[string]interface{}{
				"schedule_id": capErr.ScheduleID,
				"requested":   capErr.Requested,
				"remaining":   capErr.Remaining,
			},
		})
		return
	}

	var stockErr *models.StockError
	if errors.As(err, &stockErr) {
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "insufficient_stock",
			Message: stockErr.Error(),
			Details: map[string]interface{}{
				"inventory_id": stockErr.InventoryID,
				"cheese_name":  stockErr.CheeseName,
				"requested":    stockErr.Requested,
				"available":    stockErr.Available,
			},
		})
		return
	}

	var rlErr *services.RateLimitError
	if errors.As(err, &rlErr) {
		retry := int(time.Until(rlErr.RetryAfter).Seconds())
		if retry < 1 {
			retry = 1
		}
		c.Header("Retry-After", strconv.Itoa(retry))
		c.JSON(http.StatusTooManyRequests, ErrorResponse{
			Error:   "too_many_attempts",
			Message: rlErr.Message,
		})
		return
	}

	for _, s := range sentinelStatus {
		if errors.Is(err, s.err) {
			c.JSON(s.status, ErrorResponse{Error: s.code, Message: s.err.Error()})
			return
		}
	}

	logger.WithError(err).WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.FullPath(),
	}).Error("Unhandled request error")
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An unexpected error occurred",
	})
}

// bindJSON decodes the body into req, writing a 400 on failure
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

// bindQuery decodes query parameters into req, writing a 400 on failure
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		respondBindError(c, err)
		return false
	}
	return true
}

func respondBindError(c *gin.Context, err error) {
	var fieldErrs playground.ValidationErrors
	if errors.As(err, &fieldErrs) {
		details := make(map[string]interface{}, len(fieldErrs))
		for _, fe := range fieldErrs {
			details[fe.Field()] = fe.Tag()
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Request validation failed",
			Details: details,
		})
		return
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation_error",
		Message: "Invalid request body: " + err.Error(),
	})
}

// parseID reads a UUID path parameter, writing a 400 when malformed
func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_id",
			Message: "Invalid " + name + ": must be a UUID",
		})
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads an integer query parameter, returning def when absent
func queryInt(c *gin.Context, name string, def int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Invalid query parameter",
			Details: map[string]interface{}{name: "must be an integer"},
		})
		return 0, false
	}
	return n, true
}

// actorFrom builds the service actor from the authenticated user
func actorFrom(c *gin.Context) services.Actor {
	userCtx := middleware.MustGetUserContext(c)
	return services.Actor{UserID: userCtx.UserID, Roles: userCtx.Roles}
}

// clientInfo captures the caller's address and user agent for audit logs
func clientInfo(c *gin.Context) services.ClientInfo {
	return services.ClientInfo{
		IPAddress: c.ClientIP(),
		UserAgent: utils.GetUserAgent(c),
	}
}
