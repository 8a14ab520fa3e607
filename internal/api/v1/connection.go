package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/projectline/projectline/internal/api/dto"
	ierr "github.com/projectline/projectline/internal/errors"
	"github.com/projectline/projectline/internal/logger"
	"github.com/projectline/projectline/internal/service"
	"github.com/projectline/projectline/internal/types"
)

type ConnectionHandler struct {
	service service.TokenService
	log     *logger.Logger
}

func NewConnectionHandler(
	service service.TokenService,
	log *logger.Logger,
) *ConnectionHandler {
	return &ConnectionHandler{
		service: service,
		log:     log,
	}
}

// @Summary Connect a service
// @Description Store the token set obtained from a completed OAuth authorization flow
// @Tags Connections
// @Accept json
// @Produce json
// @Param request body dto.ConnectServiceRequest true "Token set"
// @Success 201 {object} map[string]string
// @Failure 400 {object} ierr.ErrorResponse
// @Router /connections [post]
func (h *ConnectionHandler) ConnectService(c *gin.Context) {
	var req dto.ConnectServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	if err := h.service.Connect(c.Request.Context(), &req); err != nil {
		h.log.Error("Failed to connect service", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Service connected successfully"})
}

// @Summary Get connection status
// @Description Report whether a service is connected for the current account
// @Tags Connections
// @Produce json
// @Param service path string true "Service name"
// @Success 200 {object} dto.ConnectionStatusResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Router /connections/{service} [get]
func (h *ConnectionHandler) GetConnectionStatus(c *gin.Context) {
	svc := types.IntegrationService(c.Param("service"))
	if !svc.Validate() {
		c.Error(ierr.NewError("invalid service").
			WithHintf("Service must be one of %s, %s", types.IntegrationServicePipedrive, types.IntegrationServiceXero).
			Mark(ierr.ErrValidation))
		return
	}

	c.JSON(http.StatusOK, dto.ConnectionStatusResponse{
		Service:   svc,
		Connected: h.service.IsConnected(c.Request.Context(), svc),
	})
}

// @Summary Disconnect a service
// @Description Remove the stored token set for a service
// @Tags Connections
// @Produce json
// @Param service path string true "Service name"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /connections/{service} [delete]
func (h *ConnectionHandler) DisconnectService(c *gin.Context) {
	svc := types.IntegrationService(c.Param("service"))
	if !svc.Validate() {
		c.Error(ierr.NewError("invalid service").
			WithHintf("Service must be one of %s, %s", types.IntegrationServicePipedrive, types.IntegrationServiceXero).
			Mark(ierr.ErrValidation))
		return
	}

	if err := h.service.Disconnect(c.Request.Context(), svc); err != nil {
		h.log.Error("Failed to disconnect service", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Service disconnected successfully"})
}
