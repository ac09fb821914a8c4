package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/uicourseai/courseai-backend/internal/model"
	"github.com/uicourseai/courseai-backend/internal/response"
	"github.com/uicourseai/courseai-backend/internal/service"
	"github.com/uicourseai/courseai-backend/internal/validator"
)

type QueryHandler struct {
	queryService *service.QueryService
}

func NewQueryHandler(queryService *service.QueryService) *QueryHandler {
	return &QueryHandler{queryService: queryService}
}

// Query godoc
// POST /api/v1/query
func (h *QueryHandler) Query(c *gin.Context) {
	var req model.QueryRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.queryService.Query(c.Request.Context(), req.Message, req.UseLLM)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrIntentIncomplete):
			response.Fail(c, http.StatusUnprocessableEntity, response.ErrIntentIncomplete)
		case errors.Is(err, service.ErrStoreUnavailable):
			response.Fail(c, http.StatusServiceUnavailable, response.ErrStoreUnavailable)
		default:
			response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		}
		return
	}

	// An empty result list is a valid answer; the client renders a
	// "refine your search" hint from the resolved intent.
	if resp.Results == nil {
		resp.Results = []model.RankedResult{}
	}

	response.Success(c, http.StatusOK, resp)
}
