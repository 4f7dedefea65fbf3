package summarizer

import (
	"fmt"
	"strings"

	"github.com/ternarybob/vigil/internal/models"
)

// Template is the kind-specific prompt for the summarization collaborator.
// Templates are configuration artifacts: swapping one changes the prompt
// text only, never the summarization steps around it.
type Template struct {
	Label        string
	Instructions string
	Sections     []string
}

// sections required of every summary, enumerated at design time
var baseSections = []string{
	"Destaques financeiros",
	"Indicadores operacionais",
	"Tom qualitativo da administração",
	"Riscos mencionados",
	"Perspectivas (outlook)",
}

var templates = map[models.DocumentKind]Template{
	models.KindRelease: {
		Label: "release de resultados",
		Instructions: "Você é um analista financeiro. Resuma o release de resultados trimestral " +
			"a seguir de forma estruturada e objetiva, em português.",
		Sections: baseSections,
	},
	models.KindFinancialStatements: {
		Label: "demonstrações financeiras",
		Instructions: "Você é um analista financeiro. Resuma as demonstrações financeiras " +
			"trimestrais a seguir, destacando variações relevantes de receita, margens, " +
			"endividamento e geração de caixa, em português.",
		Sections: baseSections,
	},
	models.KindTranscript: {
		Label: "transcrição da teleconferência",
		Instructions: "Você é um analista financeiro. Resuma a transcrição da teleconferência " +
			"de resultados a seguir, capturando as mensagens principais da administração e " +
			"as perguntas mais relevantes dos analistas, em português.",
		Sections: baseSections,
	},
	models.KindOther: {
		Label: "documento",
		Instructions: "Você é um analista financeiro. Resuma o documento de divulgação " +
			"a seguir de forma estruturada e objetiva, em português.",
		Sections: baseSections,
	},
}

// TemplateFor returns the prompt template for a document kind
func TemplateFor(kind models.DocumentKind) Template {
	if template, ok := templates[kind]; ok {
		return template
	}
	return templates[models.KindOther]
}

// SystemPrompt renders the instruction block, including the required
// output sections.
func (t Template) SystemPrompt() string {
	var builder strings.Builder
	builder.WriteString(t.Instructions)
	builder.WriteString("\n\nO resumo deve conter as seções:\n")
	for _, section := range t.Sections {
		builder.WriteString("- ")
		builder.WriteString(section)
		builder.WriteString("\n")
	}
	builder.WriteString("\nSeja fiel ao documento; não invente números.")
	return builder.String()
}

// UserPrompt renders the document payload for one quarter
func (t Template) UserPrompt(quarter models.QuarterLabel, text string) string {
	return fmt.Sprintf("Documento (%s, trimestre %s):\n\n%s", t.Label, quarter, text)
}

// PromptOverhead is the character cost of a prompt before the document
// text is inserted, used when sizing the text against the token budget.
func (t Template) PromptOverhead(quarter models.QuarterLabel) int {
	return len(t.SystemPrompt()) + len(t.UserPrompt(quarter, ""))
}
