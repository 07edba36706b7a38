package services

import (
	"fmt"
	"strings"

	"github.com/pranavagrawaI/ShakespeareBot/internal/core/domain"
)

// systemPrompt is the behavioural contract handed to the generator.
// The generator must answer only from the supplied evidence, cite every
// claim, quote verbatim when asserting exact wording, and refuse when
// the evidence does not support an answer.
const systemPrompt = `You are a Shakespeare scholar assistant. Answer the user's question based on the source passages provided below.

RULES:
1. CITE your evidence: every claim must include at least one inline citation like [S1], [S2], etc. referring to the sources below.

2. USE THE SOURCES: if a source contains text that is relevant to the question — even partially — use it. You may draw reasonable inferences from the text (e.g. identifying which character is speaking based on context and stage directions). Combine evidence across multiple sources when useful.

3. ONLY REFUSE when the sources contain genuinely NO relevant information. Do not refuse simply because the evidence is indirect or requires interpretation. Err on the side of answering.

4. PARAPHRASE by default. Only quote directly when the user asks for exact wording, and quote verbatim — quoted words must appear in the cited source.

5. FORMAT: Write 2-10 clear sentences with inline citations.`

// buildContext formats the evidence set for the prompt, each passage
// tagged with its source id and structural locator.
func buildContext(evidence domain.EvidenceSet) string {
	parts := make([]string, len(evidence))
	for i, ev := range evidence {
		parts[i] = fmt.Sprintf("[%s] %s\n%s", ev.SID, ev.Chunk.Locator(), ev.Chunk.Text)
	}
	return strings.Join(parts, "\n\n")
}

// buildUserMessage assembles the user turn. When violation is non-empty
// (a regeneration attempt), an amended instruction naming the previous
// answer's citation failure is appended.
func buildUserMessage(question string, evidence domain.EvidenceSet, violation string) string {
	var b strings.Builder
	b.WriteString("SOURCES:\n")
	b.WriteString(buildContext(evidence))
	b.WriteString("\n\nQUESTION: ")
	b.WriteString(question)
	b.WriteString("\n\nAnswer using only the sources above, with inline citations.")

	if violation != "" {
		b.WriteString("\n\nIMPORTANT: your previous answer failed a citation check: ")
		b.WriteString(violation)
		b.WriteString(". Every factual claim needs an inline [S#] citation to one of the sources above, " +
			"and any words in quotation marks must appear verbatim in the cited source.")
	}

	return b.String()
}

// FormatSources renders the evidence footer shown under an answer,
// one locator line per source.
func FormatSources(evidence domain.EvidenceSet) string {
	if len(evidence) == 0 {
		return "(none)"
	}
	lines := make([]string, len(evidence))
	for i, ev := range evidence {
		lines[i] = fmt.Sprintf("[%s] %s", ev.SID, ev.Chunk.Locator())
	}
	return strings.Join(lines, "\n")
}
