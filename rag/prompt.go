package rag

import (
	"fmt"
	"strings"

	"github.com/edusync/voicekit/vectorstore"
)

// promptTemplate is the fixed instruction template. %s slots: cited source
// blocks, then the teacher's question.
const promptTemplate = `Você é um assistente pedagógico que apoia professores do ensino fundamental.
Responda à pergunta usando SOMENTE as informações das fontes abaixo.
Cite a fonte correspondente (ex.: [Source 1]) ao usar uma informação.
Se as fontes não cobrirem a pergunta, diga isso claramente.
Seja prático e direto: a resposta será falada em voz alta para o professor.

%s

Pergunta do professor: %s

Resposta:`

// buildPrompt formats each candidate as a numbered, cited block and
// concatenates them with the query into the instruction template. The
// conversation context, if any, is appended verbatim after the template.
// Every passage keeps its source/page/chapter next to its content so claims
// can be traced back to the manuals.
func buildPrompt(query string, sources []vectorstore.SearchResult, conversationContext string) string {
	var blocks strings.Builder
	for i, src := range sources {
		if i > 0 {
			blocks.WriteString("\n\n")
		}
		blocks.WriteString(formatSourceBlock(i+1, src))
	}

	prompt := fmt.Sprintf(promptTemplate, blocks.String(), query)

	if conversationContext != "" {
		prompt += "\n\nConversa anterior:\n" + conversationContext
	}

	return prompt
}

// formatSourceBlock renders one candidate as "[Source N] <source> <page> ... <content>".
func formatSourceBlock(n int, src vectorstore.SearchResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[Source %d]", n)

	if src.Source != "" {
		b.WriteByte(' ')
		b.WriteString(src.Source)
	}
	if page, ok := src.Metadata["page"]; ok {
		fmt.Fprintf(&b, " (página %v", page)
		if chapter, ok := src.Metadata["chapter"]; ok {
			fmt.Fprintf(&b, ", capítulo %v", chapter)
		}
		b.WriteByte(')')
	} else if chapter, ok := src.Metadata["chapter"]; ok {
		fmt.Fprintf(&b, " (capítulo %v)", chapter)
	}

	b.WriteByte('\n')
	b.WriteString(src.Content)
	return b.String()
}
