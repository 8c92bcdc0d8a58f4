package agent

import (
	"regexp"
	"strings"
)

// ActionKind tags what the model's raw output resolved to.
type ActionKind int

const (
	// KindToolCall means the output named a tool and its input.
	KindToolCall ActionKind = iota
	// KindFinalAnswer means the output ended the loop with an answer.
	KindFinalAnswer
	// KindParseError means the output matched neither shape.
	KindParseError
)

// Action is the parsed form of one model completion. The loop's state
// machine only ever sees this tagged value, never raw text.
type Action struct {
	Kind   ActionKind
	Tool   string
	Input  string
	Answer string
	Raw    string
}

var (
	finalAnswerRe = regexp.MustCompile(`(?is)final\s+answer\s*:\s*(.+)\s*$`)
	actionRe      = regexp.MustCompile(`(?im)^\s*action\s*:\s*([a-zA-Z0-9_.-]+)\s*$`)
	actionInputRe = regexp.MustCompile(`(?is)action\s+input\s*:\s*(.*?)\s*(?:\nobservation\s*:|$)`)
)

// ParseAction classifies one raw completion in the
// Thought/Action/Action Input format. An Action line wins over a Final
// Answer line because a model that emits both still wants the tool run
// before concluding.
func ParseAction(raw string) Action {
	if m := actionRe.FindStringSubmatch(raw); m != nil {
		input := ""
		if im := actionInputRe.FindStringSubmatch(raw); im != nil {
			input = strings.TrimSpace(im[1])
		}
		return Action{Kind: KindToolCall, Tool: strings.TrimSpace(m[1]), Input: input, Raw: raw}
	}
	if m := finalAnswerRe.FindStringSubmatch(raw); m != nil {
		return Action{Kind: KindFinalAnswer, Answer: strings.TrimSpace(m[1]), Raw: raw}
	}
	return Action{Kind: KindParseError, Raw: raw}
}
