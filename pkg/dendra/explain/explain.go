// Package explain recovers which two entities a free-text explanation
// cell is about. Authored explanations either carry structured
// "<MARKER> 1: name" / "<MARKER> 2: name" markers or merely mention the
// entities somewhere in prose; both are handled, and when neither
// strategy works the caller's defaults win. Extraction never fails.
package explain

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/cognicore/dendra/pkg/dendra/labelnorm"
)

// DefaultMarkers are the marker keywords recognized out of the box.
// Upstream matrices are authored in both Spanish and English.
var DefaultMarkers = []string{"UNIDAD", "UNIT"}

// minCatalogKeyLen filters out catalog labels whose normalized key is
// too short to be a trustworthy substring match.
const minCatalogKeyLen = 4

// Extractor finds the entity pair an explanation text refers to.
type Extractor struct {
	unit1 *regexp.Regexp
	unit2 *regexp.Regexp
}

// New builds an Extractor for the given marker keywords, falling back
// to DefaultMarkers when none are given.
func New(markers ...string) *Extractor {
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	quoted := make([]string, len(markers))
	for i, m := range markers {
		quoted[i] = regexp.QuoteMeta(m)
	}
	alt := strings.Join(quoted, "|")
	// capture runs to the next newline, pipe, period or semicolon
	return &Extractor{
		unit1: regexp.MustCompile(fmt.Sprintf(`(?i)(?:%s)\s*1\s*:\s*([^|\n.;]+)`, alt)),
		unit2: regexp.MustCompile(fmt.Sprintf(`(?i)(?:%s)\s*2\s*:\s*([^|\n.;]+)`, alt)),
	}
}

// ExtractPair returns the (row, column) entity names text is about.
// Structured markers are tried first; otherwise catalog labels are
// searched for by normalized substring containment, ordered by first
// occurrence. When neither yields two distinct names, the defaults are
// returned unchanged.
func (e *Extractor) ExtractPair(defRow, defCol, text string, catalog []string) (string, string) {
	if row, col, ok := e.fromMarkers(text); ok {
		return row, col
	}
	if row, col, ok := fromCatalog(text, catalog); ok {
		return row, col
	}
	return defRow, defCol
}

func (e *Extractor) fromMarkers(text string) (string, string, bool) {
	m1 := e.unit1.FindStringSubmatch(text)
	m2 := e.unit2.FindStringSubmatch(text)
	if m1 == nil || m2 == nil {
		return "", "", false
	}
	row := labelnorm.Clean(m1[1])
	col := labelnorm.Clean(m2[1])
	if row == "" || col == "" {
		return "", "", false
	}
	return row, col, true
}

type catalogHit struct {
	label  string
	key    string
	offset int
	length int
}

// fromCatalog finds the first two distinct catalog labels mentioned in
// text, in order of appearance. Ties on offset prefer the longer, more
// specific label.
func fromCatalog(text string, catalog []string) (string, string, bool) {
	if len(catalog) == 0 {
		return "", "", false
	}
	norm := labelnorm.Key(text)
	if norm == "" {
		return "", "", false
	}

	var hits []catalogHit
	for _, label := range catalog {
		k := labelnorm.Key(label)
		if len(k) < minCatalogKeyLen {
			continue
		}
		if off := strings.Index(norm, k); off >= 0 {
			hits = append(hits, catalogHit{label: label, key: k, offset: off, length: len(k)})
		}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].offset != hits[j].offset {
			return hits[i].offset < hits[j].offset
		}
		return hits[i].length > hits[j].length
	})

	var picked []string
	seen := map[string]struct{}{}
	for _, h := range hits {
		if _, dup := seen[h.key]; dup {
			continue
		}
		seen[h.key] = struct{}{}
		picked = append(picked, h.label)
		if len(picked) == 2 {
			return picked[0], picked[1], true
		}
	}
	return "", "", false
}
