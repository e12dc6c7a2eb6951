// Package grader implements the per-question checks and the grading pass
// that turns a submission's answers into a classified summary, a score and
// a human-readable report.
package grader

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/nauqh/cseassessment/internal/sandbox"
)

// Question types as they appear in solution files.
const (
	TypeMultichoice = "MULTICHOICE"
	TypeFunction    = "FUNCTION"
	TypeSQL         = "SQL"
	TypeExpression  = "EXPRESSION"
)

var questionScores = map[string]int{
	TypeSQL:         6,
	TypeExpression:  6,
	TypeMultichoice: 4,
	TypeFunction:    10,
}

// Question is one reference solution entry.
type Question struct {
	Type   string
	Answer any
}

// Resources provides the grading-time resources a solution's config
// declares. Implementations return zero values for resources the exam
// does not use.
type Resources interface {
	// Database returns the relational connection for SQL questions, or
	// nil when the exam has none.
	Database() *gorm.DB
	// Frame returns the shared dataframe bound into expression
	// evaluation sessions.
	Frame() (dataframe.DataFrame, bool)
	// TestCases returns the positional-argument tuples for a function
	// question, or nil when none exist.
	TestCases(q int) [][]any
}

// Issue attaches a diagnostic to the question it originated from.
type Issue struct {
	Question int    `json:"question"`
	Detail   string `json:"detail"`
}

// Summary buckets every answered question into exactly one category.
// Issues is a side list; it never affects bucket membership.
type Summary struct {
	NotSubmitted []int   `json:"not_submitted"`
	Incorrect    []int   `json:"incorrect"`
	Partial      []int   `json:"partial"`
	Correct      []int   `json:"correct"`
	Issues       []Issue `json:"issues"`
}

// Grader runs one grading pass over a submission's answers.
type Grader struct {
	examID    string
	examName  string
	questions map[int]Question
	resources Resources
	logger    zerolog.Logger

	summary Summary
}

// New constructs a Grader for one exam's reference solutions.
func New(examID, examName string, questions map[int]Question, resources Resources, logger zerolog.Logger) *Grader {
	return &Grader{
		examID:    examID,
		examName:  examName,
		questions: questions,
		resources: resources,
		logger:    logger.With().Str("component", "grader").Str("exam_id", examID).Logger(),
	}
}

// Grade classifies every answer in submission order. Answers are 1-indexed
// against the reference solutions. A check failure never aborts the pass.
func (g *Grader) Grade(ctx context.Context, answers []any) Summary {
	g.summary = Summary{}

	for i, raw := range answers {
		q := i + 1
		// Cancelled questions still land in a bucket so the report covers
		// every answer, but the issue list marks them as unchecked rather
		// than absent.
		if err := ctx.Err(); err != nil {
			g.logger.Warn().Err(err).Int("question", q).Msg("grading pass cancelled")
			g.summary.NotSubmitted = append(g.summary.NotSubmitted, q)
			g.summary.Issues = append(g.summary.Issues, Issue{
				Question: q,
				Detail:   fmt.Sprintf("Q%d: grading was cancelled before this question was checked", q),
			})
			continue
		}

		if !submitted(raw) {
			g.summary.NotSubmitted = append(g.summary.NotSubmitted, q)
			continue
		}

		out := g.check(q, raw)
		g.logger.Debug().
			Int("question", q).
			Str("verdict", out.Verdict.String()).
			Msg("question graded")

		switch out.Verdict {
		case Correct:
			g.summary.Correct = append(g.summary.Correct, q)
		case Partial:
			g.summary.Partial = append(g.summary.Partial, q)
		default:
			g.summary.Incorrect = append(g.summary.Incorrect, q)
		}
		if out.Issue != "" {
			g.summary.Issues = append(g.summary.Issues, Issue{Question: q, Detail: out.Issue})
		}
	}

	return g.summary
}

func (g *Grader) check(q int, answer any) Outcome {
	question, ok := g.questions[q]
	if !ok {
		return Outcome{Verdict: Invalid, Issue: fmt.Sprintf("Q%d: no reference solution for this question", q)}
	}

	switch question.Type {
	case TypeMultichoice:
		return CheckMultichoice(answer, question.Answer, q)

	case TypeFunction:
		code, ok := answer.(string)
		if !ok {
			return Outcome{Verdict: Invalid, Issue: fmt.Sprintf("Q%d: function answer must be code text", q)}
		}
		solution, ok := question.Answer.(string)
		if !ok {
			return Outcome{Verdict: Invalid, Issue: fmt.Sprintf("Q%d: reference answer must be code text", q)}
		}
		return CheckFunction(code, solution, q, g.resources.TestCases(q))

	case TypeSQL:
		query, ok := answer.(string)
		if !ok {
			return Outcome{Verdict: Invalid, Issue: fmt.Sprintf("Q%d: SQL answer must be a query string", q)}
		}
		return CheckSQL(query, question.Answer, q, g.resources.Database())

	case TypeExpression:
		session, err := g.expressionSession()
		if err != nil {
			return Outcome{Verdict: Invalid, Issue: fmt.Sprintf("Q%d: evaluation context unavailable: %v", q, err)}
		}
		return CheckExpression(answer, question.Answer, q, session)
	}

	return Outcome{Verdict: Invalid, Issue: fmt.Sprintf("Q%d: unknown question type %q", q, question.Type)}
}

// expressionSession builds a fresh evaluation session per question so one
// submission's bindings never leak into the next.
func (g *Grader) expressionSession() (*sandbox.Session, error) {
	if df, ok := g.resources.Frame(); ok {
		return sandbox.NewSession(sandbox.TabularBindings(df))
	}
	return sandbox.NewSession(nil)
}

// Summary returns the classification of the most recent grading pass.
func (g *Grader) Summary() Summary {
	return g.summary
}

// QuestionScore returns the fixed point value of a question. Unknown
// question indices and types score zero.
func (g *Grader) QuestionScore(q int) int {
	return questionScores[g.questions[q].Type]
}

// FinalScore sums full value for correct answers and exactly half for
// partial ones.
func (g *Grader) FinalScore() float64 {
	var total float64
	for _, q := range g.summary.Correct {
		total += float64(g.QuestionScore(q))
	}
	for _, q := range g.summary.Partial {
		total += float64(g.QuestionScore(q)) / 2
	}
	return total
}

// Report renders the pass as human-readable text: per-category counts,
// per-question point breakdowns, attached diagnostics and the final score.
func (g *Grader) Report() (string, float64) {
	var b strings.Builder
	fmt.Fprintf(&b, "%s - EXAM SUMMARY\n", g.examName)

	buckets := []struct {
		name      string
		questions []int
		earned    func(max int) float64
	}{
		{"Not submitted", g.summary.NotSubmitted, func(int) float64 { return 0 }},
		{"Incorrect", g.summary.Incorrect, func(int) float64 { return 0 }},
		{"Partial", g.summary.Partial, func(max int) float64 { return float64(max) / 2 }},
		{"Correct", g.summary.Correct, func(max int) float64 { return float64(max) }},
	}
	for _, bucket := range buckets {
		fmt.Fprintf(&b, "%s: %d\n", bucket.name, len(bucket.questions))
		for _, q := range bucket.questions {
			max := g.QuestionScore(q)
			fmt.Fprintf(&b, "  - Q%d (%s/%d)\n", q, formatPoints(bucket.earned(max)), max)
		}
	}

	fmt.Fprintf(&b, "Issue: %d\n", len(g.summary.Issues))
	for _, issue := range g.summary.Issues {
		fmt.Fprintf(&b, "  - %s\n", issue.Detail)
	}

	score := g.FinalScore()
	fmt.Fprintf(&b, "FINAL SCORE: %s/100\n", formatPoints(score))
	return b.String(), score
}

func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func submitted(v any) bool {
	switch c := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(c) != ""
	case []any:
		return len(c) > 0
	case []string:
		return len(c) > 0
	}
	return true
}
