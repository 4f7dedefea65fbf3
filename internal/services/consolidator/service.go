package consolidator

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
	"github.com/ternarybob/vigil/internal/services/retry"
)

// sectionSeparator divides per-document summaries in the deterministic
// fallback output
var sectionSeparator = strings.Repeat("=", 50)

const consolidationInstructions = "Você é um analista financeiro. Consolide os resumos de documentos " +
	"de divulgação trimestral a seguir em um único relatório coeso, em português. " +
	"Elimine redundâncias, preserve todos os números citados e organize por tema, " +
	"não por documento de origem."

// Service merges the per-document summaries of one quarter into a single
// consolidated text. Consolidation never hard-fails: when the generative
// merge is unavailable or produces unusable output, the deterministic
// concatenation of the inputs is returned instead.
type Service struct {
	llm         interfaces.LLMService
	retryPolicy *retry.Policy
	config      *common.SummarizerConfig
	logger      arbor.ILogger
}

func NewService(llm interfaces.LLMService, retryPolicy *retry.Policy, config *common.SummarizerConfig, logger arbor.ILogger) *Service {
	return &Service{
		llm:         llm,
		retryPolicy: retryPolicy,
		config:      config,
		logger:      logger,
	}
}

// Consolidate builds the quarter's consolidated summary from the
// successful results. An empty input yields an empty string.
func (s *Service) Consolidate(ctx context.Context, quarter models.QuarterLabel, results []models.ProcessingResult) string {
	successful := make([]models.ProcessingResult, 0, len(results))
	for _, result := range results {
		if result.Succeeded() {
			successful = append(successful, result)
		}
	}

	switch len(successful) {
	case 0:
		return ""
	case 1:
		// A single summary needs no merge, only the quarter header
		return fmt.Sprintf("**RESUMO %s**\n\n%s", quarter, strings.TrimSpace(successful[0].Summary))
	}

	merged, err := s.merge(ctx, quarter, successful)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Str("quarter", string(quarter)).
			Int("summaries", len(successful)).
			Msg("Consolidation merge failed, falling back to concatenation")
		return s.concatenate(quarter, successful)
	}

	merged = strings.TrimSpace(merged)
	if len(merged) < s.config.MinConsolidated {
		s.logger.Warn().
			Str("quarter", string(quarter)).
			Int("chars", len(merged)).
			Msg("Consolidated output too short, falling back to concatenation")
		return s.concatenate(quarter, successful)
	}

	s.logger.Info().
		Str("quarter", string(quarter)).
		Int("summaries", len(successful)).
		Int("chars", len(merged)).
		Msg("Quarter summaries consolidated")

	return merged
}

// merge asks the collaborator for a single coherent report
func (s *Service) merge(ctx context.Context, quarter models.QuarterLabel, results []models.ProcessingResult) (string, error) {
	var builder strings.Builder
	fmt.Fprintf(&builder, "Resumos dos documentos do trimestre %s:\n", quarter)
	for _, result := range results {
		builder.WriteString("\n")
		builder.WriteString(sectionSeparator)
		fmt.Fprintf(&builder, "\n%s\n%s\n", result.Document.Kind.DisplayName(), result.Summary)
	}

	messages := []interfaces.Message{
		{Role: "system", Content: consolidationInstructions},
		{Role: "user", Content: builder.String()},
	}

	var merged string
	err := s.retryPolicy.Execute(ctx, s.logger, "consolidate", func() error {
		response, err := s.llm.Chat(ctx, messages)
		if err != nil {
			return models.Transient("consolidate", err)
		}
		merged = response
		return nil
	})
	if err != nil {
		return "", err
	}

	return merged, nil
}

// concatenate is the deterministic fallback: every summary under its
// kind header, in input order.
func (s *Service) concatenate(quarter models.QuarterLabel, results []models.ProcessingResult) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "**RESUMO %s**\n", quarter)
	for _, result := range results {
		builder.WriteString("\n")
		builder.WriteString(sectionSeparator)
		fmt.Fprintf(&builder, "\n**%s**\n\n%s\n", result.Document.Kind.DisplayName(), strings.TrimSpace(result.Summary))
	}
	return builder.String()
}
