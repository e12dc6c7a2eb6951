package sandbox

import (
	"context"
	"strings"

	"github.com/nauqh/cseassessment/internal/serialize"
)

// Run executes arbitrary code, recovers its result and returns it in
// transport form. Single expressions are evaluated directly; multi-statement
// blocks are executed as a whole and the result is recovered through the
// extraction strategies. Errors are captured, never propagated.
func (s *Session) Run(ctx context.Context, code string) Outcome {
	code = Dedent(code)
	if strings.TrimSpace(code) == "" {
		return Outcome{Err: "no code provided"}
	}

	info := ParseBlock(code)

	if len(info.Lines) == 1 && LooksLikeExpression(info.LastLine) {
		v, err := s.EvalContext(ctx, code)
		if err != nil {
			return Outcome{Err: err.Error()}
		}
		return s.finish(ctx, code, v, true)
	}

	if _, err := s.EvalContext(ctx, code); err != nil {
		return Outcome{Err: err.Error()}
	}

	v, ok := Extract(info, s.Eval)
	if !ok {
		return Outcome{Success: true, Stdout: s.Drain()}
	}

	return s.finish(ctx, code, v, false)
}

// finish serializes an extracted value. singleExpr marks input that was one
// bare expression; only then is a second evaluation pass safe, because for a
// multi-statement block it would return the final statement's value, which
// is unrelated to the extracted one.
func (s *Session) finish(ctx context.Context, code string, v any, singleExpr bool) Outcome {
	if singleExpr && isLazyGroup(v) {
		// A second pass may force the terminal aggregation the first
		// evaluation left pending.
		if re, err := s.EvalContext(ctx, code); err == nil && re != nil && !isLazyGroup(re) {
			v = re
		}
	}
	if isLazyGroup(v) {
		return Outcome{
			Success: true,
			Stdout:  s.Drain(),
			Output: serialize.Lazy(
				"grouped result returned - apply a terminal aggregation such as groupAgg(...) or Aggregation(...) to get a table",
				"pending grouped aggregation",
			),
		}
	}

	return Outcome{Success: true, Output: serialize.Result(v), Stdout: s.Drain()}
}

// Dedent strips the longest common leading whitespace from every non-empty
// line, so indented snippets pasted from editors still parse.
func Dedent(code string) string {
	lines := strings.Split(code, "\n")

	prefix := ""
	first := true
	for _, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		if first {
			prefix = indent
			first = false
			continue
		}
		for !strings.HasPrefix(indent, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}

	if prefix == "" {
		return code
	}
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			lines[i] = ""
			continue
		}
		lines[i] = strings.TrimPrefix(line, prefix)
	}
	return strings.Join(lines, "\n")
}
