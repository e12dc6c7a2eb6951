package grader

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"gorm.io/gorm"

	"github.com/nauqh/cseassessment/internal/oracle"
	"github.com/nauqh/cseassessment/internal/sandbox"
	"github.com/nauqh/cseassessment/internal/table"
)

// Verdict classifies the result of a single answer check.
type Verdict int

const (
	Incorrect Verdict = iota
	Correct
	Partial
	// Invalid marks answers that could not be graded at all: a missing
	// grading resource or a malformed reference answer. It lands in the
	// Incorrect bucket but always carries a diagnostic so it stays
	// distinguishable from a plain wrong answer.
	Invalid
)

func (v Verdict) String() string {
	switch v {
	case Correct:
		return "correct"
	case Partial:
		return "partial"
	case Invalid:
		return "invalid"
	default:
		return "incorrect"
	}
}

// Outcome is the result of one check: the verdict plus an optional
// user-facing diagnostic already prefixed with the question index.
type Outcome struct {
	Verdict Verdict
	Issue   string
}

// CheckMultichoice grades a choice answer. A list-valued reference is
// treated as a set of accepted labels: full credit for set equality,
// partial credit for a non-empty intersection. A scalar reference requires
// exact equality.
func CheckMultichoice(answer, solution any, q int) Outcome {
	accepted, multi := labelSet(solution)
	if !multi {
		if equalScalar(answer, solution) {
			return Outcome{Verdict: Correct}
		}
		return Outcome{Verdict: Incorrect}
	}

	chosen, ok := labelSet(answer)
	if !ok {
		if s, isStr := answer.(string); isStr {
			chosen = splitLabels(s)
		} else {
			return Outcome{Verdict: Incorrect}
		}
	}

	if setsEqual(chosen, accepted) {
		return Outcome{Verdict: Correct}
	}
	if setsIntersect(chosen, accepted) {
		return Outcome{Verdict: Partial}
	}
	return Outcome{Verdict: Incorrect}
}

// CheckFunction grades a function definition by invoking the submitted and
// reference functions on each test case and comparing outputs. The two
// definitions are loaded into separate evaluation sessions so a submission
// reusing the reference function's name cannot shadow it. Code preceding
// the definition downgrades an otherwise-correct answer to partial credit.
func CheckFunction(submission, solution string, q int, tests [][]any) Outcome {
	if len(tests) == 0 {
		return Outcome{Verdict: Invalid, Issue: fmt.Sprintf("Q%d: no test cases available for this question", q)}
	}

	submission = sandbox.Dedent(submission)
	solution = sandbox.Dedent(solution)

	defIdx := strings.Index(submission, "func ")
	if defIdx < 0 {
		return Outcome{Verdict: Incorrect, Issue: fmt.Sprintf("Q%d: no function definition found", q)}
	}
	haveOtherCode := strings.TrimSpace(submission[:defIdx]) != ""

	subName, err := functionName(submission[defIdx:])
	if err != nil {
		return Outcome{Verdict: Incorrect, Issue: fmt.Sprintf("Q%d: %v", q, err)}
	}
	solIdx := strings.Index(solution, "func ")
	if solIdx < 0 {
		return Outcome{Verdict: Invalid, Issue: fmt.Sprintf("Q%d: reference answer has no function definition", q)}
	}
	solName, err := functionName(solution[solIdx:])
	if err != nil {
		return Outcome{Verdict: Incorrect, Issue: fmt.Sprintf("Q%d: %v", q, err)}
	}

	subSession, err := sandbox.NewSession(nil)
	if err != nil {
		return Outcome{Verdict: Invalid, Issue: fmt.Sprintf("Q%d: evaluation context unavailable: %v", q, err)}
	}
	solSession, err := sandbox.NewSession(nil)
	if err != nil {
		return Outcome{Verdict: Invalid, Issue: fmt.Sprintf("Q%d: evaluation context unavailable: %v", q, err)}
	}

	if _, err := subSession.Eval(submission); err != nil {
		return Outcome{Verdict: Incorrect, Issue: fmt.Sprintf("Q%d: %v", q, err)}
	}
	if _, err := solSession.Eval(solution); err != nil {
		return Outcome{Verdict: Incorrect, Issue: fmt.Sprintf("Q%d: %v", q, err)}
	}

	for _, test := range tests {
		resultSub, err := subSession.Call(subName, test)
		if err != nil {
			return Outcome{Verdict: Incorrect, Issue: fmt.Sprintf("Q%d: %v", q, err)}
		}
		resultSol, err := solSession.Call(solName, test)
		if err != nil {
			return Outcome{Verdict: Incorrect, Issue: fmt.Sprintf("Q%d: %v", q, err)}
		}
		if !oracle.Equal(resultSub, resultSol) {
			issue := fmt.Sprintf("Q%d: %v \nExpected output: %v \nYour output: %v", q, test, resultSol, resultSub)
			return Outcome{Verdict: Incorrect, Issue: issue}
		}
	}

	if haveOtherCode {
		return Outcome{Verdict: Partial, Issue: fmt.Sprintf("Q%d: Submission is in wrong format", q)}
	}
	return Outcome{Verdict: Correct}
}

// CheckSQL runs the submitted and reference queries against the same
// connection and compares the resulting frames by position, ignoring
// column names so aliasing never costs credit.
func CheckSQL(answer string, solution any, q int, db *gorm.DB) Outcome {
	if db == nil {
		return Outcome{Verdict: Invalid, Issue: fmt.Sprintf("Q%d: no database connection available", q)}
	}
	solQuery, ok := solution.(string)
	if !ok {
		return Outcome{Verdict: Invalid, Issue: fmt.Sprintf("Q%d: reference answer must be a SQL string", q)}
	}

	dfSub, err := table.ReadSQL(db, answer)
	if err != nil {
		return Outcome{Verdict: Incorrect, Issue: fmt.Sprintf("Q%d: %s", q, cleanSQLError(err))}
	}
	dfSol, err := table.ReadSQL(db, solQuery)
	if err != nil {
		return Outcome{Verdict: Incorrect, Issue: fmt.Sprintf("Q%d: %s", q, cleanSQLError(err))}
	}

	if !oracle.FrameEqual(dfSub, dfSol, false) {
		issue := fmt.Sprintf("Q%d:\nExpected output:\n %v \nYour output:\n %v\n", q, dfSol, dfSub)
		return Outcome{Verdict: Incorrect, Issue: issue}
	}
	return Outcome{Verdict: Correct}
}

// CheckExpression evaluates the submitted and reference expressions in the
// same session and compares values. A submission written as an assignment
// is still graded on its right-hand side but only earns partial credit.
func CheckExpression(answer, solution any, q int, session *sandbox.Session) Outcome {
	submission, ok := answer.(string)
	if !ok {
		return Outcome{Verdict: Invalid, Issue: fmt.Sprintf("Q%d: expression answer must be a string", q)}
	}
	solExpr, ok := solution.(string)
	if !ok {
		return Outcome{Verdict: Invalid, Issue: fmt.Sprintf("Q%d: reference answer must be an expression string", q)}
	}

	subExpr := strings.TrimSpace(submission)
	rhs, isAssignment := splitAssignment(subExpr)
	if isAssignment {
		subExpr = rhs
	}

	resultSol, err := session.Eval(sandbox.Dedent(solExpr))
	if err != nil {
		return Outcome{Verdict: Incorrect, Issue: fmt.Sprintf("Q%d: %v", q, err)}
	}
	resultSub, err := session.Eval(sandbox.Dedent(subExpr))
	if err != nil {
		return Outcome{Verdict: Incorrect, Issue: fmt.Sprintf("Q%d: %v", q, err)}
	}

	if !oracle.Equal(resultSol, resultSub) {
		return Outcome{Verdict: Incorrect}
	}
	if isAssignment {
		return Outcome{Verdict: Partial, Issue: fmt.Sprintf("Q%d: Submission is in wrong format", q)}
	}
	return Outcome{Verdict: Correct}
}

var funcNameRe = regexp.MustCompile(`^func\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)

func functionName(code string) (string, error) {
	m := funcNameRe.FindStringSubmatch(code)
	if m == nil {
		return "", fmt.Errorf("could not determine function name")
	}
	return m[1], nil
}

var exprAssignRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*\s*:?=\s*(.+)$`)

// splitAssignment reports whether expr is a single assignment statement
// and, if so, returns its right-hand side.
func splitAssignment(expr string) (string, bool) {
	m := exprAssignRe.FindStringSubmatch(expr)
	if m == nil {
		return "", false
	}
	rhs := strings.TrimSpace(m[1])
	// "x == y" matches the pattern with a leading "=" left on the RHS.
	if strings.HasPrefix(rhs, "=") {
		return "", false
	}
	return rhs, true
}

// cleanSQLError strips driver framing from syntax errors: when the text
// carries the "near" marker the message is truncated to start there.
func cleanSQLError(err error) string {
	msg := err.Error()
	if !strings.Contains(msg, "near") {
		return msg
	}
	if idx := strings.Index(msg, ":"); idx >= 0 {
		rest := msg[idx+1:]
		if strings.Contains(rest, "near") {
			return strings.TrimSpace(rest)
		}
	}
	return strings.TrimSpace(msg[strings.Index(msg, "near"):])
}

func labelSet(v any) (map[string]struct{}, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return nil, false
	}
	set := make(map[string]struct{}, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		set[fmt.Sprint(rv.Index(i).Interface())] = struct{}{}
	}
	return set, true
}

func splitLabels(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			set[part] = struct{}{}
		}
	}
	return set
}

func setsEqual(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}

func setsIntersect(a, b map[string]struct{}) bool {
	for k := range a {
		if _, ok := b[k]; ok {
			return true
		}
	}
	return false
}

func equalScalar(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}
