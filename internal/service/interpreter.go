package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/heme-genetics-advisor/internal/domain"
	"github.com/heme-genetics-advisor/internal/metrics"
	"github.com/heme-genetics-advisor/internal/normalize"
	"github.com/heme-genetics-advisor/internal/prompt"
)

// maxLoggedReply bounds how much of an unusable model reply goes to the log.
const maxLoggedReply = 2000

// InterpreterOptions configures an InterpreterService.
type InterpreterOptions struct {
	Mode         domain.ReportMode
	WebRetrieval bool
	StrictSchema bool
	Metrics      *metrics.Metrics
}

// InterpreterService turns a disease category and free-text findings into a
// normalized report with exactly one model call per submission.
type InterpreterService struct {
	logger       *logrus.Logger
	client       domain.ModelClient
	normalizer   *normalize.Normalizer
	mode         domain.ReportMode
	webRetrieval bool
	metrics      *metrics.Metrics
}

var _ domain.Interpreter = (*InterpreterService)(nil)

// NewInterpreterService creates a new interpreter service
func NewInterpreterService(logger *logrus.Logger, client domain.ModelClient, opts InterpreterOptions) *InterpreterService {
	mode := opts.Mode
	if !mode.IsValid() {
		mode = domain.ReportModeSingle
	}
	return &InterpreterService{
		logger:       logger,
		client:       client,
		normalizer:   normalize.New(opts.StrictSchema),
		mode:         mode,
		webRetrieval: opts.WebRetrieval,
		metrics:      opts.Metrics,
	}
}

// Mode returns the configured report mode.
func (s *InterpreterService) Mode() domain.ReportMode {
	return s.mode
}

// Interpret produces a single-report result.
func (s *InterpreterService) Interpret(ctx context.Context, disease domain.DiseaseCategory, findings string) (*domain.QueryResult, error) {
	start := time.Now()
	mode := domain.ReportModeSingle
	if err := validateSubmission(disease, findings); err != nil {
		s.metrics.ObserveInterpretation(mode, metrics.StatusInvalidInput, time.Since(start))
		return nil, err
	}

	logger := s.requestLogger(ctx, mode, disease)
	resp, err := s.generate(ctx, logger, prompt.Build(disease, findings))
	if err != nil {
		s.metrics.ObserveInterpretation(mode, metrics.StatusTransportError, time.Since(start))
		return nil, err
	}

	result, err := s.normalizer.Single(resp.Text, resp.Citations)
	if err != nil {
		return nil, s.normalizeFailure(ctx, logger, mode, start, resp, err)
	}

	result.ID = uuid.New().String()
	result.Disease = disease
	result.Provider = s.client.Provider()
	result.Model = resp.Model
	result.GeneratedAt = time.Now().UTC()

	s.finish(logger, mode, start, result.Source, len(result.GroundingURLs), result.MissingFields)
	return result, nil
}

// InterpretDual produces a dual-report result.
func (s *InterpreterService) InterpretDual(ctx context.Context, disease domain.DiseaseCategory, findings string) (*domain.DualQueryResult, error) {
	start := time.Now()
	mode := domain.ReportModeDual
	if err := validateSubmission(disease, findings); err != nil {
		s.metrics.ObserveInterpretation(mode, metrics.StatusInvalidInput, time.Since(start))
		return nil, err
	}

	logger := s.requestLogger(ctx, mode, disease)
	resp, err := s.generate(ctx, logger, prompt.BuildDual(disease, findings))
	if err != nil {
		s.metrics.ObserveInterpretation(mode, metrics.StatusTransportError, time.Since(start))
		return nil, err
	}

	result, err := s.normalizer.Dual(resp.Text, resp.Citations)
	if err != nil {
		return nil, s.normalizeFailure(ctx, logger, mode, start, resp, err)
	}

	result.ID = uuid.New().String()
	result.Disease = disease
	result.Provider = s.client.Provider()
	result.Model = resp.Model
	result.GeneratedAt = time.Now().UTC()

	s.finish(logger, mode, start, result.Source, len(result.GroundingURLs), result.MissingFields)
	return result, nil
}

func validateSubmission(disease domain.DiseaseCategory, findings string) error {
	if strings.TrimSpace(findings) == "" {
		return domain.ErrEmptyInput
	}
	if !disease.IsValid() {
		return domain.NewValidationError("disease", "unrecognized disease category", string(disease))
	}
	return nil
}

func (s *InterpreterService) requestLogger(ctx context.Context, mode domain.ReportMode, disease domain.DiseaseCategory) *logrus.Entry {
	return s.logger.WithFields(logrus.Fields{
		"request_id": RequestIDFromContext(ctx),
		"mode":       mode,
		"disease":    disease,
		"provider":   s.client.Provider(),
	})
}

func (s *InterpreterService) generate(ctx context.Context, logger *logrus.Entry, req prompt.Request) (*domain.ModelResponse, error) {
	logger.Info("Starting interpretation")

	resp, err := s.client.Generate(ctx, req.ModelRequest(s.webRetrieval))
	if err != nil {
		logger.WithError(err).Error("Model call failed")
		return nil, domain.WrapServiceError(domain.ErrModelTransport, domain.FallbackMessage, RequestIDFromContext(ctx), err)
	}

	s.metrics.AddTokens(resp.Model, resp.Usage)
	logger.WithFields(logrus.Fields{
		"model":      resp.Model,
		"tokens_in":  resp.Usage.InputTokens,
		"tokens_out": resp.Usage.OutputTokens,
	}).Debug("Model call completed")
	return resp, nil
}

func (s *InterpreterService) normalizeFailure(ctx context.Context, logger *logrus.Entry, mode domain.ReportMode, start time.Time, resp *domain.ModelResponse, err error) error {
	code, status := domain.ErrModelParse, metrics.StatusParseError
	var schemaErr *domain.SchemaError
	if errors.As(err, &schemaErr) {
		code, status = domain.ErrModelSchema, metrics.StatusSchemaError
	}

	logger.WithError(err).WithFields(logrus.Fields{
		"model": resp.Model,
		"reply": truncate(resp.Text, maxLoggedReply),
	}).Error("Model reply could not be normalized")

	s.metrics.ObserveInterpretation(mode, status, time.Since(start))
	return domain.WrapServiceError(code, domain.FallbackMessage, RequestIDFromContext(ctx), err)
}

func (s *InterpreterService) finish(logger *logrus.Entry, mode domain.ReportMode, start time.Time, source domain.Provenance, citations int, missing []string) {
	elapsed := time.Since(start)
	if len(missing) > 0 {
		logger.WithField("missing_fields", missing).Warn("Model reply lacked required fields, defaults substituted")
	}
	logger.WithFields(logrus.Fields{
		"source":    source,
		"citations": citations,
		"duration":  elapsed.String(),
	}).Info("Interpretation completed")

	s.metrics.ObserveInterpretation(mode, metrics.StatusOK, elapsed)
	s.metrics.ObserveResult(source, citations, len(missing))
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit] + "..."
}
