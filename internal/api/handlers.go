package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/heme-genetics-advisor/internal/domain"
	"github.com/heme-genetics-advisor/internal/middleware"
)

// InterpretRequest is the body of the interpret and session submit endpoints.
type InterpretRequest struct {
	Disease  string `json:"disease"`
	Findings string `json:"findings"`
	// Mode overrides the configured report mode; ignored by session submit.
	Mode string `json:"mode,omitempty"`
}

// DiseaseInfo describes one selectable disease category.
type DiseaseInfo struct {
	Code  domain.DiseaseCategory `json:"code"`
	Label string                 `json:"label"`
	Name  string                 `json:"name"`
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"version":   Version,
		"mode":      s.interpreter.Mode(),
	})
}

func (s *Server) handleListDiseases(c *gin.Context) {
	categories := domain.AllDiseaseCategories()
	diseases := make([]DiseaseInfo, 0, len(categories))
	for _, d := range categories {
		diseases = append(diseases, DiseaseInfo{Code: d, Label: d.Label(), Name: d.Name()})
	}
	c.JSON(http.StatusOK, gin.H{"diseases": diseases})
}

func (s *Server) handleInterpret(c *gin.Context) {
	req, disease, ok := s.bindRequest(c)
	if !ok {
		return
	}

	mode := s.interpreter.Mode()
	if req.Mode != "" {
		mode = domain.ReportMode(strings.ToLower(req.Mode))
		if !mode.IsValid() {
			s.respondError(c, domain.NewValidationError("mode", "must be 'single' or 'dual'", req.Mode))
			return
		}
	}

	ctx := c.Request.Context()
	if mode == domain.ReportModeDual {
		result, err := s.interpreter.InterpretDual(ctx, disease, req.Findings)
		if err != nil {
			s.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, result)
		return
	}

	result, err := s.interpreter.Interpret(ctx, disease, req.Findings)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetSession(c *gin.Context) {
	c.JSON(http.StatusOK, s.session.State())
}

// handleSubmitSession always answers with the session state. Blank findings
// leave the state untouched.
func (s *Server) handleSubmitSession(c *gin.Context) {
	var req InterpretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, domain.NewValidationError("body", "malformed JSON request body", nil))
		return
	}
	if strings.TrimSpace(req.Findings) == "" {
		c.JSON(http.StatusOK, s.session.State())
		return
	}
	disease, ok := domain.ParseDiseaseCategory(req.Disease)
	if !ok {
		s.respondError(c, domain.NewValidationError("disease", "unrecognized disease category", req.Disease))
		return
	}

	err := s.session.Submit(c.Request.Context(), disease, req.Findings)
	switch {
	case err == nil, errors.Is(err, domain.ErrEmptyInput):
		c.JSON(http.StatusOK, s.session.State())
	case errors.Is(err, domain.ErrSubmissionInFlight):
		c.JSON(http.StatusConflict, s.session.State())
	default:
		c.JSON(statusFor(err), s.session.State())
	}
}

func (s *Server) bindRequest(c *gin.Context) (InterpretRequest, domain.DiseaseCategory, bool) {
	var req InterpretRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, domain.NewValidationError("body", "malformed JSON request body", nil))
		return req, domain.DiseaseUnrecognized, false
	}
	if strings.TrimSpace(req.Findings) == "" {
		s.respondError(c, domain.ErrEmptyInput)
		return req, domain.DiseaseUnrecognized, false
	}
	disease, ok := domain.ParseDiseaseCategory(req.Disease)
	if !ok {
		s.respondError(c, domain.NewValidationError("disease", "unrecognized disease category", req.Disease))
		return req, domain.DiseaseUnrecognized, false
	}
	return req, disease, true
}

// respondError writes err as a ServiceError body. Internal details never leave
// the process; model failures carry only the fallback message.
func (s *Server) respondError(c *gin.Context, err error) {
	requestID := c.GetString(middleware.CorrelationIDKey)

	var svcErr *domain.ServiceError
	var valErr *domain.ValidationError
	switch {
	case errors.As(err, &svcErr):
		if svcErr.RequestID == "" {
			svcErr.RequestID = requestID
		}
	case errors.As(err, &valErr):
		svcErr = domain.NewServiceError(domain.ErrValidation, valErr.Error(), "", requestID)
	case errors.Is(err, domain.ErrEmptyInput):
		svcErr = domain.NewServiceError(domain.ErrInvalidInput, "findings must not be empty", "", requestID)
	case errors.Is(err, domain.ErrSubmissionInFlight):
		svcErr = domain.NewServiceError(domain.ErrSubmissionConflict, err.Error(), "", requestID)
	default:
		s.logger.WithError(err).WithField("correlation_id", requestID).Error("Unhandled request error")
		svcErr = domain.NewServiceError(domain.ErrInternalServer, domain.FallbackMessage, "", requestID)
	}

	c.JSON(statusFor(svcErr), gin.H{"error": svcErr})
}

func statusFor(err error) int {
	var svcErr *domain.ServiceError
	if !errors.As(err, &svcErr) {
		var valErr *domain.ValidationError
		if errors.As(err, &valErr) || errors.Is(err, domain.ErrEmptyInput) {
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
	switch svcErr.Code {
	case domain.ErrInvalidInput, domain.ErrValidation:
		return http.StatusBadRequest
	case domain.ErrSubmissionConflict:
		return http.StatusConflict
	case domain.ErrModelTransport, domain.ErrModelParse, domain.ErrModelSchema:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
