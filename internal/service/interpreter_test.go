package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heme-genetics-advisor/internal/domain"
	"github.com/heme-genetics-advisor/internal/metrics"
	"github.com/heme-genetics-advisor/internal/prompt"
)

const aplReply = `{
  "prognosisLevel": "良好",
  "summary": "PML-RARa 阳性，符合 APL，预后良好。",
  "clinicalSignificance": ["确诊 APL"],
  "recommendations": ["警惕 DIC", "ATRA 联合 ATO 诱导"],
  "targetedTherapy": "ATRA + ATO",
  "disclaimer": "本结果仅供参考。"
}`

const dualNotListedReply = `{
  "scccgReport": {
    "prognosisLevel": "未列出",
    "summary": "SCCCG方案未收录",
    "clinicalSignificance": [],
    "recommendations": []
  },
  "globalReport": {
    "prognosisLevel": "中等",
    "summary": "依据 ELN 2022 属中危。",
    "clinicalSignificance": ["罕见融合"],
    "recommendations": ["参考 NCCN"]
  },
  "disclaimer": "本结果仅供参考。"
}`

func newInterpreter(client domain.ModelClient, opts InterpreterOptions) *InterpreterService {
	return NewInterpreterService(newTestLogger(), client, opts)
}

func TestInterpret_APLWithoutCitations(t *testing.T) {
	client := &fakeModelClient{resp: &domain.ModelResponse{Text: aplReply, Model: "fake-model"}}
	svc := newInterpreter(client, InterpreterOptions{WebRetrieval: true})

	result, err := svc.Interpret(context.Background(), domain.DiseaseAPL, "PML-RARa阳性")
	require.NoError(t, err)

	assert.Equal(t, 1, client.calls())
	req := client.lastRequest()
	assert.Equal(t, "疾病类型：急性早幼粒细胞白血病\n检查结果：PML-RARa阳性", req.UserMessage)
	assert.True(t, req.EnableWebRetrieval)
	assert.Equal(t, prompt.SingleReportSchema, req.Schema)
	assert.Contains(t, req.Instruction, domain.ReferenceDocument)

	assert.Equal(t, domain.ProvenanceInternal, result.Source)
	assert.Empty(t, result.GroundingURLs)
	assert.Equal(t, domain.PrognosisFavorable, result.StructuredData.PrognosisLevel)
	assert.Equal(t, "ATRA + ATO", result.StructuredData.TargetedTherapy)
	assert.Equal(t, domain.DiseaseAPL, result.Disease)
	assert.Equal(t, "fake", result.Provider)
	assert.Equal(t, "fake-model", result.Model)
	assert.NotEmpty(t, result.ID)
	assert.False(t, result.GeneratedAt.IsZero())
}

func TestInterpret_DuplicateCitationsCollapse(t *testing.T) {
	client := &fakeModelClient{resp: &domain.ModelResponse{
		Text: aplReply,
		Citations: []domain.Citation{
			{URI: "https://ashpublications.org/blood/apl"},
			{URI: "https://ashpublications.org/blood/apl"},
		},
	}}
	svc := newInterpreter(client, InterpreterOptions{})

	result, err := svc.Interpret(context.Background(), domain.DiseaseAPL, "PML-RARa阳性")
	require.NoError(t, err)
	assert.Equal(t, []string{"https://ashpublications.org/blood/apl"}, result.GroundingURLs)
	assert.Equal(t, domain.ProvenanceBoth, result.Source)
}

func TestInterpret_InputValidation(t *testing.T) {
	tests := []struct {
		name     string
		disease  domain.DiseaseCategory
		findings string
		check    func(t *testing.T, err error)
	}{
		{
			name:     "empty findings",
			disease:  domain.DiseaseAML,
			findings: "",
			check:    func(t *testing.T, err error) { assert.ErrorIs(t, err, domain.ErrEmptyInput) },
		},
		{
			name:     "whitespace findings",
			disease:  domain.DiseaseAML,
			findings: " \n\t ",
			check:    func(t *testing.T, err error) { assert.ErrorIs(t, err, domain.ErrEmptyInput) },
		},
		{
			name:     "unrecognized disease",
			disease:  domain.DiseaseUnrecognized,
			findings: "t(8;21)",
			check: func(t *testing.T, err error) {
				var valErr *domain.ValidationError
				require.ErrorAs(t, err, &valErr)
				assert.Equal(t, "disease", valErr.Field)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeModelClient{resp: &domain.ModelResponse{Text: aplReply}}
			svc := newInterpreter(client, InterpreterOptions{})

			_, err := svc.Interpret(context.Background(), tt.disease, tt.findings)
			tt.check(t, err)

			_, err = svc.InterpretDual(context.Background(), tt.disease, tt.findings)
			tt.check(t, err)

			assert.Zero(t, client.calls(), "invalid input must not reach the model")
		})
	}
}

func TestInterpret_TransportFailure(t *testing.T) {
	cause := &domain.TransportError{Provider: "fake", Err: errors.New("quota exceeded")}
	client := &fakeModelClient{err: cause}
	svc := newInterpreter(client, InterpreterOptions{})
	ctx := WithRequestID(context.Background(), "req-42")

	_, err := svc.Interpret(ctx, domain.DiseaseCML, "BCR-ABL1 p210")
	require.Error(t, err)

	var svcErr *domain.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, domain.ErrModelTransport, svcErr.Code)
	assert.Equal(t, domain.FallbackMessage, svcErr.Message)
	assert.Equal(t, "req-42", svcErr.RequestID)
	assert.NotContains(t, domain.UserMessage(err), "quota")

	var transportErr *domain.TransportError
	assert.ErrorAs(t, err, &transportErr)
	assert.Equal(t, 1, client.calls())
}

func TestInterpret_ParseFailure(t *testing.T) {
	client := &fakeModelClient{resp: &domain.ModelResponse{Text: "抱歉，我无法回答。"}}
	svc := newInterpreter(client, InterpreterOptions{})

	_, err := svc.Interpret(context.Background(), domain.DiseaseALL, "BCR-ABL1阳性")

	var svcErr *domain.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, domain.ErrModelParse, svcErr.Code)
	assert.Equal(t, domain.FallbackMessage, domain.UserMessage(err))

	var parseErr *domain.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestInterpret_SchemaDegradeAndStrict(t *testing.T) {
	reply := `{"prognosisLevel":"预后差","summary":"TP53 突变"}`

	lenient := newInterpreter(&fakeModelClient{resp: &domain.ModelResponse{Text: reply}}, InterpreterOptions{})
	result, err := lenient.Interpret(context.Background(), domain.DiseaseMDS, "TP53 multi-hit")
	require.NoError(t, err)
	assert.Equal(t, []string{"clinicalSignificance", "recommendations", "disclaimer"}, result.MissingFields)
	assert.Equal(t, domain.DefaultDisclaimer, result.StructuredData.Disclaimer)

	strict := newInterpreter(&fakeModelClient{resp: &domain.ModelResponse{Text: reply}}, InterpreterOptions{StrictSchema: true})
	_, err = strict.Interpret(context.Background(), domain.DiseaseMDS, "TP53 multi-hit")
	var svcErr *domain.ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, domain.ErrModelSchema, svcErr.Code)
	var schemaErr *domain.SchemaError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestInterpretDual_NotListed(t *testing.T) {
	client := &fakeModelClient{resp: &domain.ModelResponse{Text: dualNotListedReply}}
	svc := newInterpreter(client, InterpreterOptions{Mode: domain.ReportModeDual})
	assert.Equal(t, domain.ReportModeDual, svc.Mode())

	result, err := svc.InterpretDual(context.Background(), domain.DiseaseAML, "NUP98::NSD1")
	require.NoError(t, err)

	assert.Equal(t, prompt.DualReportSchema, client.lastRequest().Schema)
	assert.Equal(t, domain.ProvenanceExternal, result.Source)
	assert.Equal(t, domain.ProvenanceExternal, result.SCCCGReport.Source)
	assert.Equal(t, domain.PrognosisNotListed, result.SCCCGReport.Report.PrognosisLevel)
	assert.Equal(t, domain.PrognosisIntermediate, result.GlobalReport.Report.PrognosisLevel)
	assert.Equal(t, "本结果仅供参考。", result.Disclaimer)
	assert.NotEmpty(t, result.ID)
}

func TestInterpret_InvalidModeFallsBackToSingle(t *testing.T) {
	svc := newInterpreter(&fakeModelClient{}, InterpreterOptions{Mode: "triple"})
	assert.Equal(t, domain.ReportModeSingle, svc.Mode())
}

func TestInterpret_RecordsMetrics(t *testing.T) {
	m := metrics.New()
	client := &fakeModelClient{resp: &domain.ModelResponse{
		Text:      aplReply,
		Model:     "fake-model",
		Citations: []domain.Citation{{URI: "https://example.org"}},
		Usage:     domain.TokenUsage{InputTokens: 50, OutputTokens: 20},
	}}
	svc := newInterpreter(client, InterpreterOptions{Metrics: m})

	_, err := svc.Interpret(context.Background(), domain.DiseaseAPL, "PML-RARa")
	require.NoError(t, err)
	_, err = svc.Interpret(context.Background(), domain.DiseaseAPL, "")
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.InterpretTotal.WithLabelValues("single", metrics.StatusOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.InterpretTotal.WithLabelValues("single", metrics.StatusInvalidInput)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ProvenanceTotal.WithLabelValues("both")))
	assert.Equal(t, 50.0, testutil.ToFloat64(m.LLMTokensUsed.WithLabelValues("fake-model", "input")))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "ab...", truncate("abcdef", 2))
	// A three-byte rune is never split.
	assert.Equal(t, "a...", truncate("a预后", 2))
}

func TestRequestIDContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", RequestIDFromContext(ctx))
	assert.Equal(t, ctx, WithRequestID(ctx, ""))
	assert.Equal(t, "abc", RequestIDFromContext(WithRequestID(ctx, "abc")))
}

func TestInterpret_LogsWithoutLeakingFindings(t *testing.T) {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	reply := `{"prognosisLevel":"预后差","summary":"TP53 突变"}`
	svc := NewInterpreterService(logger, &fakeModelClient{resp: &domain.ModelResponse{Text: reply}}, InterpreterOptions{})
	ctx := WithRequestID(context.Background(), "req-7")

	_, err := svc.Interpret(ctx, domain.DiseaseMDS, "患者张三 TP53 multi-hit")
	require.NoError(t, err)

	var warned bool
	for _, entry := range hook.AllEntries() {
		assert.Equal(t, "req-7", entry.Data["request_id"])
		assert.NotContains(t, entry.Message, "张三")
		for _, v := range entry.Data {
			assert.NotContains(t, fmt.Sprint(v), "张三")
		}
		if entry.Level == logrus.WarnLevel {
			warned = true
			assert.Equal(t, []string{"clinicalSignificance", "recommendations", "disclaimer"}, entry.Data["missing_fields"])
		}
	}
	assert.True(t, warned)
	assert.Equal(t, "Interpretation completed", hook.LastEntry().Message)
}
