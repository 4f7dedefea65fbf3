package consolidator

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

func fastPolicy() *retry.Policy {
	return &retry.Policy{
		MaxAttempts:       3,
		InitialBackoff:    time.Millisecond,
		MaxBackoff:        10 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

func testService(llm *fakeLLM) *Service {
	config := &common.SummarizerConfig{
		MinContentChars: 50,
		MinSummaryChars: 20,
		MinConsolidated: 50,
	}
	return NewService(llm, fastPolicy(), config, common.GetLogger())
}

func successResult(kind models.DocumentKind, summary string) models.ProcessingResult {
	return models.ProcessingResult{
		Document: models.SourceDocument{
			Path:    "downloads/2025/T2/" + string(kind) + ".pdf",
			Kind:    kind,
			Quarter: "2T25",
		},
		Status:  models.ResultSuccess,
		Summary: summary,
	}
}

func errorResult(kind models.DocumentKind) models.ProcessingResult {
	return models.ProcessingResult{
		Document: models.SourceDocument{
			Path:    "downloads/2025/T2/" + string(kind) + ".pdf",
			Kind:    kind,
			Quarter: "2T25",
		},
		Status:       models.ResultError,
		ErrorMessage: "insufficient content",
	}
}

func TestConsolidateSingleSummary(t *testing.T) {
	llm := &fakeLLM{response: "should not be called"}
	service := testService(llm)

	got := service.Consolidate(context.Background(), "2T25",
		[]models.ProcessingResult{successResult(models.KindRelease, "Revenue up 10%")})

	want := "**RESUMO 2T25**\n\nRevenue up 10%"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	// A single summary is passed through without a generative merge
	if llm.calls != 0 {
		t.Errorf("collaborator invoked %d times, want 0", llm.calls)
	}
}

func TestConsolidateMultipleSummaries(t *testing.T) {
	merged := "Relatório consolidado do trimestre: receita cresceu 10%, margens estáveis."
	llm := &fakeLLM{response: merged}
	service := testService(llm)

	got := service.Consolidate(context.Background(), "2T25", []models.ProcessingResult{
		successResult(models.KindRelease, "Receita líquida cresceu 10% no trimestre."),
		successResult(models.KindTranscript, "Administração destacou expansão de margens."),
	})

	if got != merged {
		t.Errorf("got %q, want merged output", got)
	}
	if llm.calls != 1 {
		t.Errorf("collaborator invoked %d times, want 1", llm.calls)
	}

	// Both summaries must reach the collaborator, under their kind headers
	prompt := llm.prompts[0]
	for _, fragment := range []string{
		"Receita líquida cresceu 10%",
		"Administração destacou expansão",
		models.KindRelease.DisplayName(),
		models.KindTranscript.DisplayName(),
	} {
		if !strings.Contains(prompt, fragment) {
			t.Errorf("prompt missing %q", fragment)
		}
	}
}

func TestConsolidateFallbackOnFailure(t *testing.T) {
	llm := &fakeLLM{err: errors.New("service unavailable")}
	service := testService(llm)

	got := service.Consolidate(context.Background(), "2T25", []models.ProcessingResult{
		successResult(models.KindRelease, "Receita líquida cresceu 10% no trimestre."),
		successResult(models.KindTranscript, "Administração destacou expansão de margens."),
	})

	if got == "" {
		t.Fatal("fallback produced no output")
	}
	if !strings.HasPrefix(got, "**RESUMO 2T25**") {
		t.Errorf("fallback missing quarter header: %q", got)
	}
	if !strings.Contains(got, strings.Repeat("=", 50)) {
		t.Error("fallback missing section separator")
	}
	if !strings.Contains(got, "Receita líquida cresceu 10%") ||
		!strings.Contains(got, "Administração destacou expansão") {
		t.Errorf("fallback lost summary content: %q", got)
	}
	if llm.calls != 3 {
		t.Errorf("collaborator invoked %d times before fallback, want 3", llm.calls)
	}
}

func TestConsolidateFallbackOnShortOutput(t *testing.T) {
	llm := &fakeLLM{response: "ok"}
	service := testService(llm)

	got := service.Consolidate(context.Background(), "2T25", []models.ProcessingResult{
		successResult(models.KindRelease, "Receita líquida cresceu 10% no trimestre."),
		successResult(models.KindFinancialStatements, "Endividamento líquido reduziu no período."),
	})

	if !strings.HasPrefix(got, "**RESUMO 2T25**") {
		t.Errorf("short merge output not replaced by fallback: %q", got)
	}
	if !strings.Contains(got, "Endividamento líquido reduziu") {
		t.Errorf("fallback lost summary content: %q", got)
	}
}

func TestConsolidateSkipsFailedResults(t *testing.T) {
	llm := &fakeLLM{response: "should not be called"}
	service := testService(llm)

	got := service.Consolidate(context.Background(), "2T25", []models.ProcessingResult{
		errorResult(models.KindFinancialStatements),
		successResult(models.KindRelease, "Receita líquida cresceu 10% no trimestre."),
	})

	// One failure plus one success leaves a single summary: no merge
	if llm.calls != 0 {
		t.Errorf("collaborator invoked %d times, want 0", llm.calls)
	}
	if !strings.Contains(got, "Receita líquida cresceu 10%") {
		t.Errorf("surviving summary lost: %q", got)
	}
	if strings.Contains(got, "insufficient content") {
		t.Errorf("error message leaked into output: %q", got)
	}
}

func TestConsolidateEmptyInput(t *testing.T) {
	llm := &fakeLLM{response: "should not be called"}
	service := testService(llm)

	if got := service.Consolidate(context.Background(), "2T25", nil); got != "" {
		t.Errorf("got %q, want empty", got)
	}
	if llm.calls != 0 {
		t.Errorf("collaborator invoked %d times, want 0", llm.calls)
	}
}
