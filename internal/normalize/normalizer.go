// Package normalize turns raw model replies into query results: a fallible JSON
// decode, defaults for missing fields, citation dedup and provenance.
package normalize

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/heme-genetics-advisor/internal/domain"
)

// Normalizer validates model replies against the report contract.
type Normalizer struct {
	// Strict turns missing required fields into a *domain.SchemaError instead of
	// substituting defaults.
	Strict bool
}

// New creates a normalizer.
func New(strict bool) *Normalizer {
	return &Normalizer{Strict: strict}
}

// Single normalizes a single-report reply. The returned result has no ID,
// disease or provider set; the caller owns those.
func (n *Normalizer) Single(rawText string, citations []domain.Citation) (*domain.QueryResult, error) {
	fields, err := decodeObject(rawText)
	if err != nil {
		return nil, err
	}

	var missing []string
	report := decodeReport(fields, true, "", &missing)
	if err := n.checkMissing(missing); err != nil {
		return nil, err
	}

	urls := CitationURLs(citations)
	return &domain.QueryResult{
		Source:         ClassifySingle(urls),
		StructuredData: report,
		GroundingURLs:  urls,
		MissingFields:  missing,
	}, nil
}

// Dual normalizes a dual-report reply.
func (n *Normalizer) Dual(rawText string, citations []domain.Citation) (*domain.DualQueryResult, error) {
	fields, err := decodeObject(rawText)
	if err != nil {
		return nil, err
	}

	var missing []string
	scccg := decodeSlot(fields, "scccgReport", &missing)
	global := decodeSlot(fields, "globalReport", &missing)
	disclaimer, ok := decodeString(fields["disclaimer"])
	if !ok {
		missing = append(missing, "disclaimer")
		disclaimer = domain.DefaultDisclaimer
	}
	if err := n.checkMissing(missing); err != nil {
		return nil, err
	}

	refSource, globalSource, overall := ClassifyDual(scccg)
	return &domain.DualQueryResult{
		Source:        overall,
		SCCCGReport:   domain.ReportSlot{Source: refSource, Report: scccg},
		GlobalReport:  domain.ReportSlot{Source: globalSource, Report: global},
		Disclaimer:    disclaimer,
		GroundingURLs: CitationURLs(citations),
		MissingFields: missing,
	}, nil
}

// singleReply is the reply shape of single-report mode. Unlike
// domain.ReportContent it always carries the disclaimer.
type singleReply struct {
	PrognosisLevel       domain.PrognosisLevel `json:"prognosisLevel"`
	Summary              string                `json:"summary"`
	ClinicalSignificance []string              `json:"clinicalSignificance"`
	Recommendations      []string              `json:"recommendations"`
	TargetedTherapy      string                `json:"targetedTherapy,omitempty"`
	Disclaimer           string                `json:"disclaimer"`
}

// Serialize renders a report in the single-report reply shape. Single reads it
// back unchanged.
func Serialize(r domain.ReportContent) ([]byte, error) {
	reply := singleReply(r)
	if reply.ClinicalSignificance == nil {
		reply.ClinicalSignificance = []string{}
	}
	if reply.Recommendations == nil {
		reply.Recommendations = []string{}
	}
	return json.Marshal(reply)
}

func (n *Normalizer) checkMissing(missing []string) error {
	if n.Strict && len(missing) > 0 {
		return &domain.SchemaError{Missing: missing}
	}
	return nil
}

// stripCodeFence removes a Markdown fence the model may wrap JSON in despite
// being told not to.
func stripCodeFence(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func decodeObject(rawText string) (map[string]json.RawMessage, error) {
	text := stripCodeFence(rawText)
	if text == "" {
		return nil, &domain.ParseError{Raw: rawText, Err: errors.New("empty reply")}
	}
	if !json.Valid([]byte(text)) {
		var probe any
		err := json.Unmarshal([]byte(text), &probe)
		return nil, &domain.ParseError{Raw: rawText, Err: err}
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &fields); err != nil || fields == nil {
		return nil, &domain.ParseError{Raw: rawText, Err: fmt.Errorf("top-level value is not an object")}
	}
	return fields, nil
}

func decodeSlot(fields map[string]json.RawMessage, name string, missing *[]string) domain.ReportContent {
	raw, ok := fields[name]
	if !ok || isNull(raw) {
		*missing = append(*missing, name)
		return decodeReport(nil, false, name+".", nil)
	}
	var slot map[string]json.RawMessage
	if err := json.Unmarshal(raw, &slot); err != nil {
		*missing = append(*missing, name)
		return decodeReport(nil, false, name+".", nil)
	}
	return decodeReport(slot, false, name+".", missing)
}

// decodeReport reads one report object. A nil missing pointer suppresses field
// level reporting, used when the whole object is already reported missing.
func decodeReport(fields map[string]json.RawMessage, withDisclaimer bool, prefix string, missing *[]string) domain.ReportContent {
	note := func(field string) {
		if missing != nil {
			*missing = append(*missing, prefix+field)
		}
	}

	report := domain.ReportContent{
		PrognosisLevel:       domain.PrognosisUnknown,
		ClinicalSignificance: []string{},
		Recommendations:      []string{},
	}

	if level, ok := decodeString(fields["prognosisLevel"]); ok {
		report.PrognosisLevel = domain.ParsePrognosisLevel(level)
	} else {
		note("prognosisLevel")
	}
	if summary, ok := decodeString(fields["summary"]); ok {
		report.Summary = summary
	} else {
		note("summary")
	}
	if items, ok := decodeList(fields["clinicalSignificance"]); ok {
		report.ClinicalSignificance = items
	} else {
		note("clinicalSignificance")
	}
	if items, ok := decodeList(fields["recommendations"]); ok {
		report.Recommendations = items
	} else {
		note("recommendations")
	}
	if therapy, ok := decodeString(fields["targetedTherapy"]); ok {
		report.TargetedTherapy = therapy
	} else if items, ok := decodeList(fields["targetedTherapy"]); ok {
		report.TargetedTherapy = strings.Join(items, "、")
	}
	if withDisclaimer {
		if disclaimer, ok := decodeString(fields["disclaimer"]); ok {
			report.Disclaimer = disclaimer
		} else {
			note("disclaimer")
			report.Disclaimer = domain.DefaultDisclaimer
		}
	}
	return report
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func decodeString(raw json.RawMessage) (string, bool) {
	if isNull(raw) {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s, true
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String(), true
	}
	return "", false
}

// decodeList accepts a string array, kept as is, or a mixed array or single
// string, which are compacted.
func decodeList(raw json.RawMessage) ([]string, bool) {
	if isNull(raw) {
		return nil, false
	}

	var asStrings []string
	if err := json.Unmarshal(raw, &asStrings); err == nil {
		return asStrings, true
	}

	var asAny []any
	if err := json.Unmarshal(raw, &asAny); err == nil {
		out := make([]string, 0, len(asAny))
		for _, v := range asAny {
			switch x := v.(type) {
			case string:
				out = append(out, x)
			case float64, bool:
				out = append(out, fmt.Sprint(x))
			}
		}
		return compact(out), true
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return compact([]string{single}), true
	}
	return nil, false
}

func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
