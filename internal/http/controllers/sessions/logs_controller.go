package sessions

import (
	"errors"
	"net/http"

	"github.com/manasv777/investiq-hacknc/internal/http/dto"
	httperrors "github.com/manasv777/investiq-hacknc/internal/http/errors"
	"github.com/manasv777/investiq-hacknc/internal/http/helpers"
	"github.com/manasv777/investiq-hacknc/internal/http/middlewares"
	svc "github.com/manasv777/investiq-hacknc/internal/http/services/onboarding"
)

type LogsController struct {
	service svc.Service
}

func NewLogsController(s svc.Service) *LogsController {
	return &LogsController{service: s}
}

// Append maneja POST /api/logs/append.
func (c *LogsController) Append(w http.ResponseWriter, r *http.Request) {
	var req dto.AppendLogRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	// el bearer manda sobre el userId del body
	if uid := middlewares.GetUserID(r.Context()); uid != "" {
		req.UserID = uid
	}
	ts, err := c.service.AppendStepLog(r.Context(), req)
	if err != nil {
		writeLogError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.AppendResponse{Success: true, Timestamp: ts})
}

// FAQ maneja POST /api/logs/faq.
func (c *LogsController) FAQ(w http.ResponseWriter, r *http.Request) {
	var req dto.FAQLogRequest
	if !helpers.ReadJSON(w, r, &req) {
		return
	}
	ts, err := c.service.AppendFAQLog(r.Context(), req)
	if err != nil {
		writeLogError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.AppendResponse{Success: true, Timestamp: ts})
}

func writeLogError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrMissingFields):
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail(err.Error()))
	case errors.Is(err, svc.ErrInvalidStep):
		httperrors.WriteError(w, httperrors.ErrInvalidParameter.WithDetail(err.Error()))
	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithDetail("Failed to append log").WithCause(err))
	}
}
