package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shadikamal997/cheesemap-sub001/internal/models"
	"github.com/shadikamal997/cheesemap-sub001/internal/services"
	"github.com/sirupsen/logrus"
)

// PassportHandler handles the consumer's cheese passport
type PassportHandler struct {
	passport *services.PassportService
	logger   *logrus.Logger
}

// NewPassportHandler creates a new PassportHandler
func NewPassportHandler(passport *services.PassportService, logger *logrus.Logger) *PassportHandler {
	return &PassportHandler{passport: passport, logger: logger}
}

// GetPassport handles GET /api/v1/passport
func (h *PassportHandler) GetPassport(c *gin.Context) {
	passport, err := h.passport.Get(actorFrom(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, passport)
}

// AddStamp handles POST /api/v1/passport/stamps
func (h *PassportHandler) AddStamp(c *gin.Context) {
	var req models.CreateStampRequest
	if !bindJSON(c, &req) {
		return
	}

	stamp, err := h.passport.AddStamp(actorFrom(c), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, stamp)
}

// DeleteStamp handles DELETE /api/v1/passport/stamps/:id
func (h *PassportHandler) DeleteStamp(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.passport.DeleteStamp(actorFrom(c), id); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Stamp removed"})
}
