package services

import (
	"fmt"
	"strings"

	"github.com/cleardesk/hrkb/internal/core/domain"
)

// maxHistoryTurns bounds how much conversation history the prompt
// carries.
const maxHistoryTurns = 6

// systemInstruction frames the assistant for grounded answers.
const systemInstruction = `You are an HR assistant. Answer the employee's question using only the provided policy excerpts. Cite the source document for each fact you use. If the excerpts do not contain the answer, say you do not have that information rather than guessing.`

// ungroundedInstruction frames the assistant when no relevant policy
// text was found.
const ungroundedInstruction = `You are an HR assistant. No relevant policy excerpts were found for this question. Give a brief general answer, state clearly that it is not based on company policy, and suggest contacting HR for authoritative information.`

// buildPrompt assembles the generation prompt from retrieved context,
// conversation history, and the question.
func buildPrompt(question string, history []string, chunks []domain.RetrievedChunk) string {
	var b strings.Builder

	if len(chunks) > 0 {
		b.WriteString(systemInstruction)
		b.WriteString("\n\n## Policy excerpts\n\n")
		for i, c := range chunks {
			source := c.DocumentName
			if c.DocumentTitle != "" && c.DocumentTitle != c.DocumentName {
				source = fmt.Sprintf("%s (%s)", c.DocumentTitle, c.DocumentName)
			}
			fmt.Fprintf(&b, "[%d] Source: %s\n%s\n\n", i+1, source, strings.TrimSpace(c.Chunk.Content))
		}
	} else {
		b.WriteString(ungroundedInstruction)
		b.WriteString("\n\n")
	}

	if len(history) > 0 {
		turns := history
		if len(turns) > maxHistoryTurns {
			turns = turns[len(turns)-maxHistoryTurns:]
		}
		b.WriteString("## Conversation so far\n\n")
		for _, turn := range turns {
			b.WriteString(strings.TrimSpace(turn))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString("## Question\n\n")
	b.WriteString(strings.TrimSpace(question))
	b.WriteString("\n\nAnswer:")
	return b.String()
}
