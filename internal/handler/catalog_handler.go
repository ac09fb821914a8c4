package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/uicourseai/courseai-backend/internal/response"
	"github.com/uicourseai/courseai-backend/internal/service"
)

type CatalogHandler struct {
	catalogService *service.CatalogService
}

func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// GetSubjects godoc
// GET /api/v1/catalog/subjects
func (h *CatalogHandler) GetSubjects(c *gin.Context) {
	subjects, err := h.catalogService.Subjects(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrStoreUnavailable)
		return
	}
	if subjects == nil {
		subjects = []string{}
	}
	response.Success(c, http.StatusOK, gin.H{"subjects": subjects})
}

// GetSemesters godoc
// GET /api/v1/catalog/semesters
func (h *CatalogHandler) GetSemesters(c *gin.Context) {
	semesters, err := h.catalogService.Semesters(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusServiceUnavailable, response.ErrStoreUnavailable)
		return
	}
	if semesters == nil {
		semesters = []string{}
	}
	response.Success(c, http.StatusOK, gin.H{"semesters": semesters})
}
