package notify

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestChunkText(t *testing.T) {
	t.Run("short text is a single chunk", func(t *testing.T) {
		chunks := ChunkText("hello", 4000)
		if len(chunks) != 1 || chunks[0] != "hello" {
			t.Errorf("got %v", chunks)
		}
	})

	t.Run("empty text yields no chunks", func(t *testing.T) {
		if chunks := ChunkText("", 4000); chunks != nil {
			t.Errorf("got %v", chunks)
		}
	})

	t.Run("chunks respect the limit and reassemble", func(t *testing.T) {
		text := strings.Repeat("Receita líquida cresceu no trimestre.\n", 300)
		limit := 4000

		chunks := ChunkText(text, limit)
		if len(chunks) < 2 {
			t.Fatalf("expected multiple chunks, got %d", len(chunks))
		}
		for i, chunk := range chunks {
			if len(chunk) > limit {
				t.Errorf("chunk %d is %d bytes, limit %d", i, len(chunk), limit)
			}
			if !utf8.ValidString(chunk) {
				t.Errorf("chunk %d split inside a rune", i)
			}
		}
		if strings.Join(chunks, "") != text {
			t.Error("chunks do not reassemble to the input")
		}
	})

	t.Run("prefers paragraph boundaries", func(t *testing.T) {
		text := strings.Repeat("x", 3000) + "\n\n" + strings.Repeat("y", 3000)
		chunks := ChunkText(text, 4000)
		if len(chunks) != 2 {
			t.Fatalf("got %d chunks", len(chunks))
		}
		if !strings.HasSuffix(chunks[0], "\n\n") {
			t.Error("first chunk does not end at the paragraph break")
		}
	})

	t.Run("multibyte text never splits a rune", func(t *testing.T) {
		text := strings.Repeat("ção", 3000)
		for _, chunk := range ChunkText(text, 1000) {
			if !utf8.ValidString(chunk) {
				t.Fatal("chunk split inside a rune")
			}
		}
	})
}
