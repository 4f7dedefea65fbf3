package browser

import (
	"testing"
)

func TestExtractDocumentLinks(t *testing.T) {
	html := `
<html><body>
  <div class="results">
    <a href="/uploads/2025/release_resultados_2T25.pdf">Release de Resultados 2T25</a>
    <a href="https://cdn.example.com/docs/demonstracoes_financeiras_2T25.pdf">Demonstrações Financeiras</a>
    <a href="/uploads/2025/transcricao_call_2T25.docx">  Transcrição  </a>
    <a href="/uploads/2025/release_resultados_2T25.pdf">Release duplicado</a>
    <a href="/sobre-nos">Sobre nós</a>
    <a href="#top">Voltar ao topo</a>
    <a href="javascript:void(0)">Abrir menu</a>
    <a href="/uploads/manual.PDF"></a>
  </div>
</body></html>`

	links, err := extractDocumentLinks("https://ri.example.com.br/central-de-resultados/", html)
	if err != nil {
		t.Fatalf("extractDocumentLinks error: %v", err)
	}

	if len(links) != 4 {
		t.Fatalf("got %d links, want 4: %+v", len(links), links)
	}

	if links[0].URL != "https://ri.example.com.br/uploads/2025/release_resultados_2T25.pdf" {
		t.Errorf("relative link not resolved: %q", links[0].URL)
	}
	if links[0].Title != "Release de Resultados 2T25" {
		t.Errorf("title = %q", links[0].Title)
	}

	if links[1].URL != "https://cdn.example.com/docs/demonstracoes_financeiras_2T25.pdf" {
		t.Errorf("absolute link mangled: %q", links[1].URL)
	}

	if links[2].Title != "Transcrição" {
		t.Errorf("anchor text not trimmed: %q", links[2].Title)
	}

	// Anchor with no text falls back to the file name
	if links[3].Title != "manual.PDF" {
		t.Errorf("empty anchor title = %q, want file name", links[3].Title)
	}
}

func TestIsDownloadTarget(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/docs/release.pdf", true},
		{"/docs/RELEASE.PDF", true},
		{"/docs/transcript.docx", true},
		{"/docs/tables.xlsx", true},
		{"/docs/package.zip", true},
		{"/central-de-resultados/", false},
		{"/docs/page.html", true},
		{"/docs/page", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := isDownloadTarget(tt.path); got != tt.want {
				t.Errorf("isDownloadTarget(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}
