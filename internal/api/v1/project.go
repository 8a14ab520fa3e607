package v1

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/projectline/projectline/internal/api/dto"
	ierr "github.com/projectline/projectline/internal/errors"
	"github.com/projectline/projectline/internal/logger"
	"github.com/projectline/projectline/internal/service"
)

type ProjectHandler struct {
	service service.ProjectService
	log     *logger.Logger
}

func NewProjectHandler(
	service service.ProjectService,
	log *logger.Logger,
) *ProjectHandler {
	return &ProjectHandler{
		service: service,
		log:     log,
	}
}

// @Summary Create a full project
// @Description Allocate or link a project number for a CRM deal and create the accounting-side records
// @Tags Projects
// @Accept json
// @Produce json
// @Param request body dto.CreateFullProjectRequest true "Project creation request"
// @Success 201 {object} dto.CreateFullProjectResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 401 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /projects/create-full [post]
func (h *ProjectHandler) CreateFullProject(c *gin.Context) {
	var req dto.CreateFullProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Error("Failed to bind JSON", "error", err)
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.CreateFullProject(c.Request.Context(), &req)
	if err != nil {
		h.log.Error("Failed to create project", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// @Summary Get a sequence counter
// @Description Get the current sequence counter for a department and 2-digit year
// @Tags Projects
// @Produce json
// @Param departmentCode path string true "Department code"
// @Param year path int true "2-digit year"
// @Success 200 {object} dto.CounterResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Router /projects/counters/{departmentCode}/{year} [get]
func (h *ProjectHandler) GetCounter(c *gin.Context) {
	departmentCode := c.Param("departmentCode")

	year, err := strconv.Atoi(c.Param("year"))
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Year must be a number").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.GetCounter(c.Request.Context(), departmentCode, year)
	if err != nil {
		h.log.Error("Failed to get counter", "error", err)
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
