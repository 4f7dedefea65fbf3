package summarizer

import (
	"context"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
	"github.com/ternarybob/vigil/internal/services/retry"
)

// truncationMarker is appended whenever document text is cut to fit the
// model's input budget
const truncationMarker = "\n\n[CONTEÚDO TRUNCADO]"

// Service turns one materialized document into a ProcessingResult.
// Results are served from the fingerprint cache when the underlying file
// is unchanged; content failures are recorded per document and never
// abort siblings.
type Service struct {
	cache       interfaces.CacheStorage
	llm         interfaces.LLMService
	extractor   interfaces.DocumentExtractor
	retryPolicy *retry.Policy
	config      *common.SummarizerConfig
	tokenBudget int
	logger      arbor.ILogger
}

// NewService creates a summarizer. tokenBudget is the model's safe input
// capacity in tokens.
func NewService(cache interfaces.CacheStorage, llm interfaces.LLMService, extractor interfaces.DocumentExtractor, retryPolicy *retry.Policy, config *common.SummarizerConfig, tokenBudget int, logger arbor.ILogger) *Service {
	return &Service{
		cache:       cache,
		llm:         llm,
		extractor:   extractor,
		retryPolicy: retryPolicy,
		config:      config,
		tokenBudget: tokenBudget,
		logger:      logger,
	}
}

// Summarize processes one document. The returned result always carries a
// definitive status; errors are folded into an Error result rather than
// returned, so one bad document never escalates.
func (s *Service) Summarize(ctx context.Context, doc models.SourceDocument) models.ProcessingResult {
	fingerprint := models.Fingerprint(doc.Path, doc.Kind, doc.ModTime)

	// Cache hit: same path, kind, and modification time
	if cached, ok := s.cache.Lookup(ctx, fingerprint); ok {
		s.logger.Info().
			Str("file", doc.Path).
			Str("kind", string(doc.Kind)).
			Msg("Summary restored from cache")

		result := *cached
		result.FromCache = true
		return result
	}

	result, err := s.process(ctx, doc)
	if err != nil {
		s.logger.Error().
			Err(err).
			Str("file", doc.Path).
			Str("kind", string(doc.Kind)).
			Str("stage", "summarize").
			Msg("Document processing failed")

		return models.ProcessingResult{
			Document:     doc,
			Status:       models.ResultError,
			ErrorMessage: err.Error(),
			Timestamp:    time.Now().UTC(),
		}
	}

	// Only successful results are cached
	s.cache.Store(ctx, fingerprint, result)
	return result
}

// process runs extraction, sizing, and the generative call
func (s *Service) process(ctx context.Context, doc models.SourceDocument) (models.ProcessingResult, error) {
	text, pageCount, err := s.extract(ctx, doc)
	if err != nil {
		return models.ProcessingResult{}, err
	}

	text = strings.TrimSpace(text)
	if len(text) < s.config.MinContentChars {
		return models.ProcessingResult{}, models.ContentFailure("insufficient content")
	}

	// Transcripts carry heavy boilerplate; cap them before budget sizing
	if doc.Kind == models.KindTranscript && len(text) > s.config.TranscriptCharLimit {
		text = Truncate(text, s.config.TranscriptCharLimit)
	}

	template := TemplateFor(doc.Kind)
	budget := s.charBudget(template, doc.Quarter)
	if len(text) > budget {
		s.logger.Warn().
			Str("file", doc.Path).
			Int("chars", len(text)).
			Int("budget", budget).
			Msg("Document text exceeds input budget, truncating")
		text = Truncate(text, budget)
	}

	summary, err := s.generate(ctx, template, doc.Quarter, text)
	if err != nil {
		return models.ProcessingResult{}, err
	}

	summary = strings.TrimSpace(summary)
	if len(summary) < s.config.MinSummaryChars {
		return models.ProcessingResult{}, models.ContentFailure("empty summary")
	}

	s.logger.Info().
		Str("file", doc.Path).
		Str("kind", string(doc.Kind)).
		Int("pages", pageCount).
		Int("chars", len(text)).
		Int("summary_chars", len(summary)).
		Msg("Document summarized")

	return models.ProcessingResult{
		Document:  doc,
		Status:    models.ResultSuccess,
		Summary:   summary,
		Timestamp: time.Now().UTC(),
		PageCount: pageCount,
		CharCount: len(text),
	}, nil
}

// extract pulls text with the per-kind page limits
func (s *Service) extract(ctx context.Context, doc models.SourceDocument) (string, int, error) {
	switch doc.Kind {
	case models.KindRelease:
		if s.config.ReleasePageLimit > 0 {
			return s.extractor.ExtractPageRange(ctx, doc.Path, 1, s.config.ReleasePageLimit)
		}
	case models.KindFinancialStatements:
		if s.config.FinancialsPageLimit > 0 {
			return s.extractor.ExtractPageRange(ctx, doc.Path, 1, s.config.FinancialsPageLimit)
		}
	}
	return s.extractor.ExtractText(ctx, doc.Path)
}

// charBudget converts the token budget into a character budget for the
// document text, net of the prompt's own overhead.
func (s *Service) charBudget(template Template, quarter models.QuarterLabel) int {
	budget := s.tokenBudget*s.config.CharsPerToken - template.PromptOverhead(quarter)
	if budget < s.config.MinContentChars {
		budget = s.config.MinContentChars
	}
	return budget
}

// generate invokes the collaborator through the retry policy. Transport
// failures are retried; an empty response is a content failure and is not.
func (s *Service) generate(ctx context.Context, template Template, quarter models.QuarterLabel, text string) (string, error) {
	messages := []interfaces.Message{
		{Role: "system", Content: template.SystemPrompt()},
		{Role: "user", Content: template.UserPrompt(quarter, text)},
	}

	var summary string
	err := s.retryPolicy.Execute(ctx, s.logger, "summarize", func() error {
		response, err := s.llm.Chat(ctx, messages)
		if err != nil {
			return models.Transient("summarize", err)
		}
		summary = response
		return nil
	})
	if err != nil {
		return "", err
	}

	return summary, nil
}

// Truncate cuts text to the largest prefix that fits the budget and
// appends the truncation marker. The result never exceeds
// budget + len(marker).
func Truncate(text string, budget int) string {
	if len(text) <= budget {
		return text
	}

	// Avoid slicing through a multi-byte rune at the boundary
	cut := strings.ToValidUTF8(text[:budget], "")

	return cut + truncationMarker
}
