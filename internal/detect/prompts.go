package detect

import (
	"fmt"
	"strings"
)

// Prompt templates are immutable configuration: loaded once, overridable
// per-field via the Prompts struct, and passed explicitly into the
// detector that formats the request.

const defaultQAPrompt = `Briefly answer the following question:
{{QUESTION}}
Bear in mind that your response should be strictly based on the following {{NUM_PASSAGES}} passages:
{{CONTEXT}}
In case the passages do not contain the necessary information to answer the question, please reply with: "Unable to answer based on given passages."
output:
`

const defaultSummaryPrompt = `Summarize the following text:
{{CONTEXT}}
output:
`

const defaultAnnotationPrompt = `<task>
You will act as an expert annotator to evaluate an answer against a provided source text.
The source text is given within <source>...</source> XML tags.
The answer is given within <answer>...</answer> XML tags.

For each answer, follow these steps:
Step 1: Read and fully understand the answer.
Step 2: Thoroughly analyze how the answer relates to the information in the source text. Hallucinations are spans that contain one of the following:
    a. conflict: instances where the answer presents a direct contradiction or opposition to the original source.
    b. baseless info: instances where the answer includes information which cannot be inferred from the original source.
Step 3: Determine whether the answer contains any hallucinations. If no hallucinations are found, return an empty list.
Step 4: Compile the hallucinated spans into a JSON dict with a key "hallucination list" whose value is a list of the hallucinated spans, copied verbatim from the answer: {"hallucination list": [hallucination span1, hallucination span2, ...]}. In case of no hallucinations, output an empty list: {"hallucination list": []}.
Output only the JSON dict.
</task>

<source>
{{CONTEXT}}
</source>

<answer>
{{ANSWER}}
</answer>
`

const (
	promptContextPlaceholder     = "{{CONTEXT}}"
	promptQuestionPlaceholder    = "{{QUESTION}}"
	promptAnswerPlaceholder      = "{{ANSWER}}"
	promptNumPassagesPlaceholder = "{{NUM_PASSAGES}}"
)

// Prompts carries template overrides. Zero-value fields fall back to the
// package defaults.
type Prompts struct {
	QA         string
	Summary    string
	Annotation string
}

func (p Prompts) qa() string {
	if p.QA != "" {
		return p.QA
	}

	return defaultQAPrompt
}

func (p Prompts) summary() string {
	if p.Summary != "" {
		return p.Summary
	}

	return defaultSummaryPrompt
}

func (p Prompts) annotation() string {
	if p.Annotation != "" {
		return p.Annotation
	}

	return defaultAnnotationPrompt
}

// FormPrompt builds the task prompt for a passage list and optional
// question. A nil question selects the summarization prompt.
func (p Prompts) FormPrompt(passages []string, question string) string {
	numbered := make([]string, 0, len(passages))
	for i, passage := range passages {
		numbered = append(numbered, fmt.Sprintf("passage %d: %s", i+1, passage))
	}

	contextStr := strings.Join(numbered, "\n")

	if question == "" {
		return strings.ReplaceAll(p.summary(), promptContextPlaceholder, contextStr)
	}

	prompt := strings.ReplaceAll(p.qa(), promptQuestionPlaceholder, question)
	prompt = strings.ReplaceAll(prompt, promptNumPassagesPlaceholder, fmt.Sprint(len(passages)))

	return strings.ReplaceAll(prompt, promptContextPlaceholder, contextStr)
}

// FormAnnotationPrompt builds the LLM annotation prompt for one
// source/answer pair.
func (p Prompts) FormAnnotationPrompt(source, answer string) string {
	prompt := strings.ReplaceAll(p.annotation(), promptContextPlaceholder, source)

	return strings.ReplaceAll(prompt, promptAnswerPlaceholder, answer)
}
