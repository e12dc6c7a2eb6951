package sandbox

import (
	"regexp"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/nauqh/cseassessment/internal/table"
)

// resultVariable is the conventional name checked when a block assigns its
// final value instead of ending with an expression.
const resultVariable = "result"

// BlockInfo is the static shape of a code block, computed without executing
// it: its meaningful lines and the identifiers assigned at top level, in
// source order.
type BlockInfo struct {
	Lines    []string
	LastLine string
	Assigned []string
}

var (
	assignRe   = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*)\s*(?::=|=)([^=]|$)`)
	compoundRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\[\]]*\s*[+\-*/%]=`)
)

var blockKeywords = []string{
	"if ", "for ", "switch ", "select ", "func ", "return", "var ", "const ",
	"type ", "go ", "defer ", "break", "continue", "package ", "import ",
}

// ParseBlock extracts the static info the extraction strategies need.
func ParseBlock(code string) BlockInfo {
	info := BlockInfo{}
	depth := 0
	for _, raw := range strings.Split(code, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		info.Lines = append(info.Lines, line)

		if depth == 0 {
			if m := assignRe.FindStringSubmatch(line); m != nil {
				name := m[1]
				if len(info.Assigned) == 0 || info.Assigned[len(info.Assigned)-1] != name {
					info.Assigned = append(info.Assigned, name)
				}
			}
		}
		depth += strings.Count(line, "{") - strings.Count(line, "}")
	}
	if len(info.Lines) > 0 {
		info.LastLine = info.Lines[len(info.Lines)-1]
	}
	return info
}

// LooksLikeExpression reports whether a line reads as a standalone
// expression rather than a statement: no control-flow or declaration
// keyword, no assignment.
func LooksLikeExpression(line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || line == "}" || strings.HasPrefix(line, "//") {
		return false
	}
	for _, kw := range blockKeywords {
		if line == strings.TrimSpace(kw) || strings.HasPrefix(line, kw) {
			return false
		}
	}
	if compoundRe.MatchString(line) || assignRe.MatchString(line) {
		return false
	}
	return true
}

// EvalFunc evaluates an expression in an already-executed block's scope.
type EvalFunc func(expr string) (any, error)

// Strategy is one way to recover the result of a multi-statement block.
// Strategies are applied in priority order; the first to succeed wins.
type Strategy struct {
	Name    string
	Extract func(info BlockInfo, eval EvalFunc) (any, bool)
}

// Strategies returns the extraction strategies in priority order:
// trailing expression, conventional result variable, last tabular binding.
func Strategies() []Strategy {
	return []Strategy{
		{
			Name: "trailing-expression",
			Extract: func(info BlockInfo, eval EvalFunc) (any, bool) {
				if !LooksLikeExpression(info.LastLine) {
					return nil, false
				}
				v, err := eval(info.LastLine)
				if err != nil {
					return nil, false
				}
				return v, true
			},
		},
		{
			Name: "result-variable",
			Extract: func(info BlockInfo, eval EvalFunc) (any, bool) {
				for _, name := range info.Assigned {
					if name == resultVariable {
						v, err := eval(resultVariable)
						if err != nil {
							return nil, false
						}
						return v, true
					}
				}
				return nil, false
			},
		},
		{
			Name: "last-tabular-binding",
			Extract: func(info BlockInfo, eval EvalFunc) (any, bool) {
				// When several tabular values were bound, the last one in
				// source order wins.
				var found any
				ok := false
				for _, name := range info.Assigned {
					v, err := eval(name)
					if err != nil {
						continue
					}
					if isTabular(v) {
						found = v
						ok = true
					}
				}
				return found, ok
			},
		},
	}
}

// Extract applies the strategies in order against an executed block.
func Extract(info BlockInfo, eval EvalFunc) (any, bool) {
	for _, strategy := range Strategies() {
		if v, ok := strategy.Extract(info, eval); ok {
			return v, true
		}
	}
	return nil, false
}

func isTabular(v any) bool {
	switch v.(type) {
	case dataframe.DataFrame, series.Series, table.Pivot, dataframe.Groups, *dataframe.Groups:
		return true
	}
	return false
}

func isLazyGroup(v any) bool {
	switch v.(type) {
	case dataframe.Groups, *dataframe.Groups:
		return true
	}
	return false
}
