package normalize

import (
	"strings"

	"github.com/heme-genetics-advisor/internal/domain"
)

// CitationURLs extracts the web location of each citation entry, dropping entries
// without one, and deduplicates the result.
func CitationURLs(citations []domain.Citation) []string {
	urls := make([]string, 0, len(citations))
	for _, c := range citations {
		urls = append(urls, c.URI)
	}
	return DedupURLs(urls)
}

// DedupURLs removes blank and repeated URLs, keeping first-seen order.
func DedupURLs(urls []string) []string {
	seen := make(map[string]struct{}, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, dup := seen[u]; dup {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// ClassifySingle derives single-report provenance from citation presence.
func ClassifySingle(urls []string) domain.Provenance {
	if len(urls) > 0 {
		return domain.ProvenanceBoth
	}
	return domain.ProvenanceInternal
}

// ClassifyDual derives per-slot and overall provenance from the reference-document
// report's own "not-listed" tag.
func ClassifyDual(scccg domain.ReportContent) (reference, global, overall domain.Provenance) {
	if scccg.PrognosisLevel == domain.PrognosisNotListed {
		return domain.ProvenanceExternal, domain.ProvenanceExternal, domain.ProvenanceExternal
	}
	return domain.ProvenanceInternal, domain.ProvenanceExternal, domain.ProvenanceBoth
}
