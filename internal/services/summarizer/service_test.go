package summarizer

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
	"github.com/ternarybob/vigil/internal/services/retry"
)

type memoryCache struct {
	entries map[string]models.ProcessingResult
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: make(map[string]models.ProcessingResult)}
}

func (c *memoryCache) Lookup(ctx context.Context, fingerprint string) (*models.ProcessingResult, bool) {
	result, ok := c.entries[fingerprint]
	if !ok {
		return nil, false
	}
	return &result, true
}

func (c *memoryCache) Store(ctx context.Context, fingerprint string, result models.ProcessingResult) {
	c.entries[fingerprint] = result
}

type fakeLLM struct {
	response string
	err      error
	calls    int
	prompts  []string
}

func (f *fakeLLM) Chat(ctx context.Context, messages []interfaces.Message) (string, error) {
	f.calls++
	for _, msg := range messages {
		if msg.Role == "user" {
			f.prompts = append(f.prompts, msg.Content)
		}
	}
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func (f *fakeLLM) HealthCheck(ctx context.Context) error { return nil }
func (f *fakeLLM) Close() error                          { return nil }

type fakeExtractor struct {
	text  string
	pages int
	err   error
}

func (f *fakeExtractor) ExtractText(ctx context.Context, path string) (string, int, error) {
	return f.text, f.pages, f.err
}

func (f *fakeExtractor) ExtractPageRange(ctx context.Context, path string, start, end int) (string, int, error) {
	return f.text, f.pages, f.err
}

func fastPolicy() *retry.Policy {
	return &retry.Policy{
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        10 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func testConfig() *common.SummarizerConfig {
	return &common.SummarizerConfig{
		MinContentChars:     50,
		MinSummaryChars:     20,
		CharsPerToken:       4,
		TranscriptCharLimit: 25000,
		ReleasePageLimit:    8,
		FinancialsPageLimit: 15,
		MinConsolidated:     50,
	}
}

func testDocument(kind models.DocumentKind) models.SourceDocument {
	return models.SourceDocument{
		Path:    "downloads/2025/T2/release_resultados_2T25.pdf",
		Kind:    kind,
		Quarter: "2T25",
		Size:    1024,
		ModTime: time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func longText(n int) string {
	return strings.Repeat("Receita líquida cresceu no trimestre. ", n/39+1)[:n]
}

func TestSummarizeSuccess(t *testing.T) {
	llm := &fakeLLM{response: "Resumo estruturado: receita cresceu 10% no trimestre."}
	extractor := &fakeExtractor{text: longText(500), pages: 6}
	cache := newMemoryCache()

	service := NewService(cache, llm, extractor, fastPolicy(), testConfig(), 150000, common.GetLogger())
	result := service.Summarize(context.Background(), testDocument(models.KindRelease))

	if result.Status != models.ResultSuccess {
		t.Fatalf("status = %q, error = %q", result.Status, result.ErrorMessage)
	}
	if result.FromCache {
		t.Error("first pass marked cache-origin")
	}
	if result.PageCount != 6 {
		t.Errorf("page count = %d, want 6", result.PageCount)
	}
	if llm.calls != 1 {
		t.Errorf("collaborator invoked %d times, want 1", llm.calls)
	}
	if len(cache.entries) != 1 {
		t.Errorf("result not stored in cache")
	}
}

func TestSummarizeCacheHit(t *testing.T) {
	llm := &fakeLLM{response: "Resumo estruturado: receita cresceu 10% no trimestre."}
	extractor := &fakeExtractor{text: longText(500), pages: 6}
	cache := newMemoryCache()

	service := NewService(cache, llm, extractor, fastPolicy(), testConfig(), 150000, common.GetLogger())
	doc := testDocument(models.KindRelease)

	first := service.Summarize(context.Background(), doc)
	if first.Status != models.ResultSuccess {
		t.Fatalf("first pass failed: %q", first.ErrorMessage)
	}

	// Unchanged modification time: second pass is cache-origin with zero
	// collaborator calls
	second := service.Summarize(context.Background(), doc)
	if !second.FromCache {
		t.Error("second pass not marked cache-origin")
	}
	if second.Summary != first.Summary {
		t.Errorf("cached summary differs: %q vs %q", second.Summary, first.Summary)
	}
	if llm.calls != 1 {
		t.Errorf("collaborator invoked %d times across both passes, want 1", llm.calls)
	}

	// A modification-time change invalidates by producing a new fingerprint
	changed := doc
	changed.ModTime = doc.ModTime.Add(time.Hour)
	third := service.Summarize(context.Background(), changed)
	if third.FromCache {
		t.Error("changed document served from cache")
	}
	if llm.calls != 2 {
		t.Errorf("collaborator invoked %d times, want 2", llm.calls)
	}
}

func TestSummarizeInsufficientContent(t *testing.T) {
	llm := &fakeLLM{response: "irrelevant"}
	extractor := &fakeExtractor{text: "too short", pages: 1}
	cache := newMemoryCache()

	service := NewService(cache, llm, extractor, fastPolicy(), testConfig(), 150000, common.GetLogger())
	result := service.Summarize(context.Background(), testDocument(models.KindRelease))

	if result.Status != models.ResultError {
		t.Fatalf("status = %q, want error", result.Status)
	}
	if !strings.Contains(result.ErrorMessage, "insufficient content") {
		t.Errorf("error message = %q", result.ErrorMessage)
	}
	// Fails fast: no collaborator call, nothing cached
	if llm.calls != 0 {
		t.Errorf("collaborator invoked %d times for insufficient content", llm.calls)
	}
	if len(cache.entries) != 0 {
		t.Error("error result stored in cache")
	}
}

func TestSummarizeEmptySummary(t *testing.T) {
	llm := &fakeLLM{response: "ok"}
	extractor := &fakeExtractor{text: longText(500), pages: 2}
	cache := newMemoryCache()

	service := NewService(cache, llm, extractor, fastPolicy(), testConfig(), 150000, common.GetLogger())
	result := service.Summarize(context.Background(), testDocument(models.KindRelease))

	if result.Status != models.ResultError {
		t.Fatalf("status = %q, want error", result.Status)
	}
	if !strings.Contains(result.ErrorMessage, "empty summary") {
		t.Errorf("error message = %q", result.ErrorMessage)
	}
	// Undersized output is a content failure, not retried
	if llm.calls != 1 {
		t.Errorf("collaborator invoked %d times, want 1", llm.calls)
	}
}

func TestSummarizeRetriesTransportFailures(t *testing.T) {
	llm := &fakeLLM{err: errors.New("rate limited")}
	extractor := &fakeExtractor{text: longText(500), pages: 2}
	cache := newMemoryCache()

	policy := fastPolicy()
	service := NewService(cache, llm, extractor, policy, testConfig(), 150000, common.GetLogger())
	result := service.Summarize(context.Background(), testDocument(models.KindRelease))

	if result.Status != models.ResultError {
		t.Fatalf("status = %q, want error", result.Status)
	}
	if llm.calls != policy.MaxAttempts {
		t.Errorf("collaborator invoked %d times, want %d", llm.calls, policy.MaxAttempts)
	}
}

func TestSummarizeTruncationBound(t *testing.T) {
	llm := &fakeLLM{response: "Resumo estruturado: receita cresceu 10% no trimestre."}
	cache := newMemoryCache()
	config := testConfig()

	// Small budget so the input must be truncated
	tokenBudget := 1000
	extractor := &fakeExtractor{text: longText(20000), pages: 3}

	service := NewService(cache, llm, extractor, fastPolicy(), config, tokenBudget, common.GetLogger())
	result := service.Summarize(context.Background(), testDocument(models.KindRelease))
	if result.Status != models.ResultSuccess {
		t.Fatalf("status = %q, error = %q", result.Status, result.ErrorMessage)
	}

	if len(llm.prompts) != 1 {
		t.Fatalf("got %d prompts", len(llm.prompts))
	}
	prompt := llm.prompts[0]

	if !strings.Contains(prompt, truncationMarker) {
		t.Error("truncated prompt missing marker")
	}

	template := TemplateFor(models.KindRelease)
	budget := tokenBudget*config.CharsPerToken - template.PromptOverhead("2T25")
	maxLen := len(template.UserPrompt("2T25", "")) + budget + len(truncationMarker)
	if len(prompt) > maxLen {
		t.Errorf("prompt length %d exceeds budget bound %d", len(prompt), maxLen)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		budget int
	}{
		{"ascii", strings.Repeat("a", 100), 10},
		{"multibyte boundary", strings.Repeat("ç", 50), 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Truncate(tt.text, tt.budget)

			if !strings.HasSuffix(got, truncationMarker) {
				t.Error("marker missing")
			}
			if len(got) > tt.budget+len(truncationMarker) {
				t.Errorf("len = %d, bound = %d", len(got), tt.budget+len(truncationMarker))
			}
			if !strings.HasPrefix(tt.text, strings.TrimSuffix(got, truncationMarker)) {
				t.Error("truncation is not a prefix of the input")
			}
		})
	}

	// Text within budget is returned unchanged
	if got := Truncate("short", 100); got != "short" {
		t.Errorf("Truncate(short) = %q", got)
	}
}

func TestTranscriptPreTruncation(t *testing.T) {
	llm := &fakeLLM{response: "Resumo estruturado: principais mensagens da administração."}
	cache := newMemoryCache()
	config := testConfig()
	config.TranscriptCharLimit = 200

	extractor := &fakeExtractor{text: longText(5000), pages: 1}
	service := NewService(cache, llm, extractor, fastPolicy(), config, 150000, common.GetLogger())

	doc := testDocument(models.KindTranscript)
	result := service.Summarize(context.Background(), doc)
	if result.Status != models.ResultSuccess {
		t.Fatalf("status = %q, error = %q", result.Status, result.ErrorMessage)
	}

	prompt := llm.prompts[0]
	if !strings.Contains(prompt, truncationMarker) {
		t.Error("transcript not pre-truncated")
	}
	if result.CharCount > config.TranscriptCharLimit+len(truncationMarker) {
		t.Errorf("char count %d exceeds transcript limit", result.CharCount)
	}
}
