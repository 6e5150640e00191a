package service

import (
	"context"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/heme-genetics-advisor/internal/domain"
)

// SessionState is a point-in-time copy of a Session.
type SessionState struct {
	Loading    bool                    `json:"loading"`
	Disease    domain.DiseaseCategory  `json:"disease,omitempty"`
	Findings   string                  `json:"findings,omitempty"`
	Result     *domain.QueryResult     `json:"result,omitempty"`
	DualResult *domain.DualQueryResult `json:"dualResult,omitempty"`
	Error      string                  `json:"error,omitempty"`
}

// Session holds the state of the single-page workflow: whether a submission is
// loading, the last result and the last user-facing error. At most one
// submission is outstanding at a time.
type Session struct {
	interpreter domain.Interpreter
	logger      *logrus.Logger

	mu         sync.Mutex
	loading    bool
	disease    domain.DiseaseCategory
	findings   string
	result     *domain.QueryResult
	dualResult *domain.DualQueryResult
	errMsg     string
}

// NewSession creates an idle session.
func NewSession(logger *logrus.Logger, interpreter domain.Interpreter) *Session {
	return &Session{interpreter: interpreter, logger: logger}
}

// Submit runs one interpretation in the interpreter's mode. Blank findings are
// ignored and yield domain.ErrEmptyInput with the state untouched; a submission
// while another is loading yields domain.ErrSubmissionInFlight. Any other
// failure is stored as the user-facing error and returned.
func (s *Session) Submit(ctx context.Context, disease domain.DiseaseCategory, findings string) error {
	if strings.TrimSpace(findings) == "" {
		return domain.ErrEmptyInput
	}

	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return domain.ErrSubmissionInFlight
	}
	s.loading = true
	s.disease = disease
	s.findings = findings
	s.result = nil
	s.dualResult = nil
	s.errMsg = ""
	s.mu.Unlock()

	var (
		result     *domain.QueryResult
		dualResult *domain.DualQueryResult
		err        error
	)
	defer func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.loading = false
		if err != nil {
			s.errMsg = domain.UserMessage(err)
			return
		}
		s.result = result
		s.dualResult = dualResult
	}()

	if s.interpreter.Mode() == domain.ReportModeDual {
		dualResult, err = s.interpreter.InterpretDual(ctx, disease, findings)
	} else {
		result, err = s.interpreter.Interpret(ctx, disease, findings)
	}
	if err != nil {
		s.logger.WithError(err).WithField("disease", disease).Warn("Session submission failed")
	}
	return err
}

// State returns a snapshot of the session.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionState{
		Loading:    s.loading,
		Disease:    s.disease,
		Findings:   s.findings,
		Result:     s.result,
		DualResult: s.dualResult,
		Error:      s.errMsg,
	}
}
