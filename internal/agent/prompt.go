package agent

import (
	"fmt"
	"strings"

	"github.com/kairosci/ai-crm/internal/tools"
)

// promptTemplate is the ReAct scaffold the reasoning backend completes.
// Observation lines are appended by the loop, never by the model; the
// backends stop generation at "Observation:".
const promptTemplate = `Answer the following questions as best you can. You have access to the following tools:

%s

Use the following format:

Question: the input question you must answer
Thought: you should always think about what to do
Action: the action to take, should be one of [%s]
Action Input: the input to the action
Observation: the result of the action
... (this Thought/Action/Action Input/Observation can repeat N times)
Thought: I now know the final answer
Final Answer: the final answer to the original input question

Begin!

Chat History: %s

Question: %s
Thought: %s`

// buildPrompt assembles the full prompt for one reasoning step.
func buildPrompt(reg *tools.Registry, history, question, scratchpad string) string {
	var toolLines []string
	for _, t := range reg.All() {
		toolLines = append(toolLines, fmt.Sprintf("%s: %s", t.Name, t.Description))
	}
	return fmt.Sprintf(promptTemplate,
		strings.Join(toolLines, "\n"),
		strings.Join(reg.Names(), ", "),
		history, question, scratchpad)
}

// renderHistory flattens a transcript snapshot into the prompt's chat
// history section.
func renderHistory(entries []Entry) string {
	if len(entries) == 0 {
		return ""
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "\n%s: %s", e.Role, e.Content)
	}
	return b.String()
}
