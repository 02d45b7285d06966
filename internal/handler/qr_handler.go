package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-attendance-api/internal/models"
	appErrors "github.com/noah-isme/sma-attendance-api/pkg/errors"
	"github.com/noah-isme/sma-attendance-api/pkg/response"
)

type qrService interface {
	Issue(ctx context.Context, actor *models.JWTClaims, accountID string) (*models.QRCode, error)
	Scan(ctx context.Context, payload string) (*models.ScanResult, error)
}

type scanRequest struct {
	QRData string `json:"qr_data" binding:"required"`
}

// QRHandler issues and consumes attendance QR codes.
type QRHandler struct {
	service qrService
}

// NewQRHandler constructs a QRHandler.
func NewQRHandler(svc qrService) *QRHandler {
	return &QRHandler{service: svc}
}

// Generate godoc
// @Summary Generate attendance QR code
// @Tags QR
// @Produce json
// @Security BearerAuth
// @Param id path string true "Account ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /qr/generate/{id} [get]
func (h *QRHandler) Generate(c *gin.Context) {
	id, err := pathID(c, "id", "account not found")
	if err != nil {
		response.Error(c, err)
		return
	}

	code, err := h.service.Issue(c.Request.Context(), claimsFromContext(c), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, code)
}

// Scan godoc
// @Summary Record attendance from a scanned QR code
// @Tags QR
// @Accept json
// @Produce json
// @Param payload body scanRequest true "Scanned payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /attendance/scan [post]
func (h *QRHandler) Scan(c *gin.Context) {
	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Validation(err, "qr_data is required"))
		return
	}

	result, err := h.service.Scan(c.Request.Context(), req.QRData)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, result)
}
