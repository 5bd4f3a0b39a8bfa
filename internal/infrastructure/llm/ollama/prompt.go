package ollama

import (
	"fmt"
	"strings"
)

const answerSystemInstruction = `You are a model risk analyst assistant. Answer the question using only the evidence passages below. If the evidence does not support an answer, say so explicitly. Be concise and factual.`

func buildAnswerPrompt(question, contextBlock string) string {
	var b strings.Builder
	b.WriteString(answerSystemInstruction)
	b.WriteString("\n\nEvidence:\n")
	if strings.TrimSpace(contextBlock) == "" {
		b.WriteString("(none)\n")
	} else {
		b.WriteString(contextBlock)
		if !strings.HasSuffix(contextBlock, "\n") {
			b.WriteString("\n")
		}
	}
	fmt.Fprintf(&b, "\nQuestion: %s\nAnswer:", strings.TrimSpace(question))
	return b.String()
}
