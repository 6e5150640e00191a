// Package domain contains the core entities for hematologic genetics interpretation:
// disease categories, prognosis tags, report content and the query results returned
// to callers after a generative model has interpreted a set of cytogenetic or
// molecular findings.
//
// Prognosis tags follow the risk stratification vocabulary of the SCCCG pediatric
// leukemia protocols embedded in ReferenceDocument.
package domain

import (
	"strings"
	"time"
)

// DiseaseCategory is the closed set of disease labels a query can be made against.
// DiseaseUnrecognized is the fallback for any input outside the set.
type DiseaseCategory string

const (
	DiseaseALL          DiseaseCategory = "ALL"
	DiseaseAML          DiseaseCategory = "AML"
	DiseaseAPL          DiseaseCategory = "APL"
	DiseaseCML          DiseaseCategory = "CML"
	DiseaseMDS          DiseaseCategory = "MDS"
	DiseaseUnrecognized DiseaseCategory = ""
)

var diseaseLabels = map[DiseaseCategory]struct {
	label string
	name  string
}{
	DiseaseALL: {label: "急性淋巴细胞白血病", name: "acute lymphoblastic leukemia"},
	DiseaseAML: {label: "急性髓细胞白血病", name: "acute myeloid leukemia"},
	DiseaseAPL: {label: "急性早幼粒细胞白血病", name: "acute promyelocytic leukemia"},
	DiseaseCML: {label: "慢性粒细胞白血病", name: "chronic myeloid leukemia"},
	DiseaseMDS: {label: "骨髓增生异常综合征", name: "myelodysplastic syndrome"},
}

// AllDiseaseCategories returns the recognized categories in display order.
func AllDiseaseCategories() []DiseaseCategory {
	return []DiseaseCategory{DiseaseALL, DiseaseAML, DiseaseAPL, DiseaseCML, DiseaseMDS}
}

// ParseDiseaseCategory accepts a category code, its clinical label or its English
// name. Unknown input yields DiseaseUnrecognized and false.
func ParseDiseaseCategory(input string) (DiseaseCategory, bool) {
	value := strings.TrimSpace(input)
	if value == "" {
		return DiseaseUnrecognized, false
	}
	for _, d := range AllDiseaseCategories() {
		meta := diseaseLabels[d]
		if strings.EqualFold(value, string(d)) || value == meta.label || strings.EqualFold(value, meta.name) {
			return d, true
		}
	}
	return DiseaseUnrecognized, false
}

// IsValid reports whether the category is a member of the closed set.
func (d DiseaseCategory) IsValid() bool {
	_, ok := diseaseLabels[d]
	return ok
}

// Label returns the clinical label used in prompts and reports.
func (d DiseaseCategory) Label() string {
	if meta, ok := diseaseLabels[d]; ok {
		return meta.label
	}
	return "未识别疾病类型"
}

// Name returns the English disease name.
func (d DiseaseCategory) Name() string {
	if meta, ok := diseaseLabels[d]; ok {
		return meta.name
	}
	return "unrecognized"
}

func (d DiseaseCategory) String() string {
	if d == DiseaseUnrecognized {
		return "UNRECOGNIZED"
	}
	return string(d)
}

// PrognosisLevel is the coarse risk tag attached to a finding. The values are the
// exact tags the model is instructed to emit.
type PrognosisLevel string

const (
	PrognosisFavorable    PrognosisLevel = "良好"
	PrognosisIntermediate PrognosisLevel = "中等"
	PrognosisPoor         PrognosisLevel = "预后差"
	PrognosisUnknown      PrognosisLevel = "未知"
	PrognosisNotListed    PrognosisLevel = "未列出"
)

var prognosisSynonyms = map[string]PrognosisLevel{
	"良好":           PrognosisFavorable,
	"预后良好":         PrognosisFavorable,
	"favorable":    PrognosisFavorable,
	"favourable":   PrognosisFavorable,
	"good":         PrognosisFavorable,
	"中等":           PrognosisIntermediate,
	"预后中等":         PrognosisIntermediate,
	"intermediate": PrognosisIntermediate,
	"预后差":          PrognosisPoor,
	"差":            PrognosisPoor,
	"poor":         PrognosisPoor,
	"adverse":      PrognosisPoor,
	"未知":           PrognosisUnknown,
	"unknown":      PrognosisUnknown,
	"未列出":          PrognosisNotListed,
	"not-listed":   PrognosisNotListed,
	"not listed":   PrognosisNotListed,
	"not_listed":   PrognosisNotListed,
}

// ParsePrognosisLevel maps a model-emitted tag onto the closed set. Anything it
// does not recognize becomes PrognosisUnknown.
func ParsePrognosisLevel(input string) PrognosisLevel {
	key := strings.ToLower(strings.TrimSpace(input))
	if level, ok := prognosisSynonyms[key]; ok {
		return level
	}
	return PrognosisUnknown
}

// IsValid reports whether the level belongs to the closed tag set.
func (p PrognosisLevel) IsValid() bool {
	switch p {
	case PrognosisFavorable, PrognosisIntermediate, PrognosisPoor, PrognosisUnknown, PrognosisNotListed:
		return true
	default:
		return false
	}
}

// Code returns a stable ASCII identifier, used for metrics labels.
func (p PrognosisLevel) Code() string {
	switch p {
	case PrognosisFavorable:
		return "favorable"
	case PrognosisIntermediate:
		return "intermediate"
	case PrognosisPoor:
		return "poor"
	case PrognosisNotListed:
		return "not_listed"
	default:
		return "unknown"
	}
}

func (p PrognosisLevel) String() string {
	return string(p)
}

// Provenance records where an answer came from.
type Provenance string

const (
	// ProvenanceInternal means the reference document alone supported the answer.
	ProvenanceInternal Provenance = "internal"
	// ProvenanceExternal means the reference document did not cover the finding.
	ProvenanceExternal Provenance = "external"
	// ProvenanceBoth means the answer was augmented by external retrieval.
	ProvenanceBoth Provenance = "both"
)

// ReportMode selects between the single-report and the dual-report contract.
type ReportMode string

const (
	ReportModeSingle ReportMode = "single"
	ReportModeDual   ReportMode = "dual"
)

// IsValid reports whether the mode is supported.
func (m ReportMode) IsValid() bool {
	return m == ReportModeSingle || m == ReportModeDual
}

// ReportContent is one structured interpretation.
type ReportContent struct {
	PrognosisLevel       PrognosisLevel `json:"prognosisLevel"`
	Summary              string         `json:"summary"`
	ClinicalSignificance []string       `json:"clinicalSignificance"`
	Recommendations      []string       `json:"recommendations"`
	TargetedTherapy      string         `json:"targetedTherapy,omitempty"`
	Disclaimer           string         `json:"disclaimer,omitempty"`
}

// HasTargetedTherapy reports whether a targeted agent was named.
func (r ReportContent) HasTargetedTherapy() bool {
	return strings.TrimSpace(r.TargetedTherapy) != ""
}

// QueryResult is the single-report answer to one submission.
type QueryResult struct {
	ID             string          `json:"id"`
	Disease        DiseaseCategory `json:"disease"`
	Source         Provenance      `json:"source"`
	StructuredData ReportContent   `json:"structuredData"`
	GroundingURLs  []string        `json:"groundingUrls"`
	MissingFields  []string        `json:"missingFields,omitempty"`
	Provider       string          `json:"provider,omitempty"`
	Model          string          `json:"model,omitempty"`
	GeneratedAt    time.Time       `json:"generatedAt"`
}

// ReportSlot is one named report of a dual answer with its own provenance.
type ReportSlot struct {
	Source Provenance    `json:"source"`
	Report ReportContent `json:"report"`
}

// DualQueryResult holds the reference-document report next to the international
// consensus report.
type DualQueryResult struct {
	ID            string          `json:"id"`
	Disease       DiseaseCategory `json:"disease"`
	Source        Provenance      `json:"source"`
	SCCCGReport   ReportSlot      `json:"scccgReport"`
	GlobalReport  ReportSlot      `json:"globalReport"`
	Disclaimer    string          `json:"disclaimer"`
	GroundingURLs []string        `json:"groundingUrls"`
	MissingFields []string        `json:"missingFields,omitempty"`
	Provider      string          `json:"provider,omitempty"`
	Model         string          `json:"model,omitempty"`
	GeneratedAt   time.Time       `json:"generatedAt"`
}

// Citation is one entry of the citation metadata returned with a model reply.
type Citation struct {
	URI   string `json:"uri,omitempty"`
	Title string `json:"title,omitempty"`
}

// TokenUsage is the provider-reported token accounting for one call.
type TokenUsage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// ModelRequest is everything sent to the model provider for one submission.
type ModelRequest struct {
	Instruction        string
	UserMessage        string
	Schema             *SchemaDescriptor
	EnableWebRetrieval bool
	ResponseMIMEType   string
}

// ModelResponse is the raw provider reply.
type ModelResponse struct {
	Text      string
	Citations []Citation
	Usage     TokenUsage
	Model     string
}
