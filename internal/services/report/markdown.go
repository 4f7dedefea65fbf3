package report

import (
	"fmt"
	"strings"

	"github.com/ternarybob/vigil/internal/models"
)

// BuildMarkdown renders the quarter run as a markdown report: the
// consolidated text first, then per-document detail, then the failures.
func BuildMarkdown(run *models.QuarterRun) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "# Relatório de Resultados %s\n\n", run.Quarter)
	fmt.Fprintf(&builder, "Gerado em %s\n\n", run.GeneratedAt.Format("02/01/2006 15:04 MST"))

	if run.Consolidated != "" {
		builder.WriteString("## Resumo consolidado\n\n")
		builder.WriteString(strings.TrimSpace(run.Consolidated))
		builder.WriteString("\n\n")
	}

	successful := run.SuccessfulResults()
	if len(successful) > 1 {
		builder.WriteString("## Resumos por documento\n\n")
		for _, result := range successful {
			fmt.Fprintf(&builder, "### %s\n\n", result.Document.Kind.DisplayName())
			builder.WriteString(strings.TrimSpace(result.Summary))
			builder.WriteString("\n\n")
		}
	}

	var failed []models.ProcessingResult
	for _, result := range run.Results {
		if !result.Succeeded() {
			failed = append(failed, result)
		}
	}
	if len(failed) > 0 {
		builder.WriteString("## Documentos não processados\n\n")
		for _, result := range failed {
			fmt.Fprintf(&builder, "- %s: %s\n", result.Document.Kind.DisplayName(), result.ErrorMessage)
		}
		builder.WriteString("\n")
	}

	fmt.Fprintf(&builder, "---\n\n%d documento(s), %d processado(s) com sucesso.\n",
		len(run.Results), len(successful))

	return builder.String()
}
