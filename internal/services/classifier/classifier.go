package classifier

import (
	"path"
	"strings"

	"github.com/ternarybob/vigil/internal/models"
)

// kindTokens maps each document kind to the filename tokens that identify
// it. Matching is case-insensitive and substring-based; accented variants
// cover links that keep the original Portuguese titles.
var kindTokens = map[models.DocumentKind][]string{
	models.KindRelease: {
		"release", "resultados",
	},
	models.KindFinancialStatements: {
		"demonstracoes", "demonstrações", "financeiras", "itr", "dfp",
	},
	models.KindTranscript: {
		"transcricao", "transcrição", "transcript", "teleconferencia", "teleconferência", "call",
	},
}

// recognizedExtensions qualify an unmatched file for the Other kind.
// Files without one of these extensions are ignored entirely.
var recognizedExtensions = []string{".pdf", ".docx", ".doc", ".xlsx", ".xls", ".zip", ".html", ".htm"}

// Classify assigns each name to a document kind by token matching against
// the fixed priority order: Release before FinancialStatements before
// Transcript before Other. A name matching tokens of several kinds
// resolves to the earliest kind. Unmatched names classify as Other only
// when they carry a recognized extension; otherwise they are dropped.
// Pure function of the name list, no I/O.
func Classify(names []string) map[models.DocumentKind][]string {
	result := make(map[models.DocumentKind][]string)

	for _, name := range names {
		kind, ok := ClassifyOne(name)
		if !ok {
			continue
		}
		result[kind] = append(result[kind], name)
	}

	return result
}

// ClassifyOne classifies a single name. The second return is false when
// the name matches no kind token and has no recognized extension.
func ClassifyOne(name string) (models.DocumentKind, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return "", false
	}

	for _, kind := range models.KindPriority {
		if kind == models.KindOther {
			continue
		}
		for _, token := range kindTokens[kind] {
			if strings.Contains(lower, token) {
				return kind, true
			}
		}
	}

	if hasRecognizedExtension(lower) {
		return models.KindOther, true
	}

	return "", false
}

func hasRecognizedExtension(lower string) bool {
	ext := strings.ToLower(path.Ext(lower))
	for _, recognized := range recognizedExtensions {
		if ext == recognized {
			return true
		}
	}
	return false
}
