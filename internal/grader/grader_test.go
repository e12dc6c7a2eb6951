package grader

import (
	"context"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubResources struct {
	db       *gorm.DB
	df       dataframe.DataFrame
	hasFrame bool
	tests    map[int][][]any
}

func (s *stubResources) Database() *gorm.DB { return s.db }

func (s *stubResources) Frame() (dataframe.DataFrame, bool) { return s.df, s.hasFrame }

func (s *stubResources) TestCases(q int) [][]any { return s.tests[q] }

func newTestGrader(questions map[int]Question, res Resources) *Grader {
	if res == nil {
		res = &stubResources{}
	}
	return New("M11", "DATA ANALYSIS WITH PYTHON", questions, res, zerolog.Nop())
}

func TestGradeSingleCorrectMultichoice(t *testing.T) {
	g := newTestGrader(map[int]Question{
		1: {Type: TypeMultichoice, Answer: "a"},
	}, nil)

	summary := g.Grade(context.Background(), []any{"a"})
	require.Equal(t, []int{1}, summary.Correct)
	require.Empty(t, summary.Issues)
	require.Equal(t, 4.0, g.FinalScore())

	report, score := g.Report()
	require.Equal(t, 4.0, score)
	require.Contains(t, report, "DATA ANALYSIS WITH PYTHON - EXAM SUMMARY")
	require.Contains(t, report, "Correct: 1")
	require.Contains(t, report, "  - Q1 (4/4)")
	require.Contains(t, report, "FINAL SCORE: 4/100")
}

func TestGradeNotSubmitted(t *testing.T) {
	g := newTestGrader(map[int]Question{
		1: {Type: TypeMultichoice, Answer: "a"},
		2: {Type: TypeMultichoice, Answer: "b"},
		3: {Type: TypeMultichoice, Answer: "c"},
	}, nil)

	summary := g.Grade(context.Background(), []any{nil, "", "c"})
	require.Equal(t, []int{1, 2}, summary.NotSubmitted)
	require.Equal(t, []int{3}, summary.Correct)
}

func TestGradeCancelledMarksRemainingUnchecked(t *testing.T) {
	g := newTestGrader(map[int]Question{
		1: {Type: TypeMultichoice, Answer: "a"},
		2: {Type: TypeMultichoice, Answer: "b"},
	}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := g.Grade(ctx, []any{"a", "b"})
	require.Equal(t, []int{1, 2}, summary.NotSubmitted)
	require.Len(t, summary.Issues, 2)
	require.Contains(t, summary.Issues[0].Detail, "cancelled")

	report, _ := g.Report()
	require.Contains(t, report, "grading was cancelled")
}

func TestGradeBucketsCoverEveryAnswer(t *testing.T) {
	g := newTestGrader(map[int]Question{
		1: {Type: TypeMultichoice, Answer: []string{"a", "b"}},
		2: {Type: TypeMultichoice, Answer: []string{"a", "b"}},
		3: {Type: TypeMultichoice, Answer: []string{"a", "b"}},
		4: {Type: TypeMultichoice, Answer: []string{"a", "b"}},
	}, nil)

	summary := g.Grade(context.Background(), []any{
		[]string{"a", "b"}, // correct
		[]string{"a", "c"}, // partial
		[]string{"c"},      // incorrect
		nil,                // not submitted
	})

	total := len(summary.Correct) + len(summary.Partial) + len(summary.Incorrect) + len(summary.NotSubmitted)
	require.Equal(t, 4, total)
	require.Equal(t, []int{1}, summary.Correct)
	require.Equal(t, []int{2}, summary.Partial)
	require.Equal(t, []int{3}, summary.Incorrect)
	require.Equal(t, []int{4}, summary.NotSubmitted)
}

func TestGradePartialAwardsHalf(t *testing.T) {
	g := newTestGrader(map[int]Question{
		1: {Type: TypeMultichoice, Answer: []string{"a", "b"}},
	}, nil)

	g.Grade(context.Background(), []any{[]string{"a"}})
	require.Equal(t, 2.0, g.FinalScore())

	report, _ := g.Report()
	require.Contains(t, report, "  - Q1 (2/4)")
	require.Contains(t, report, "FINAL SCORE: 2/100")
}

func TestGradeFunctionQuestion(t *testing.T) {
	g := newTestGrader(map[int]Question{
		1: {Type: TypeFunction, Answer: "func answer(x int) int { return x * 2 }"},
	}, &stubResources{tests: map[int][][]any{1: {{1}, {2}}}})

	summary := g.Grade(context.Background(), []any{"func double(x int) int { return x + x }"})
	require.Equal(t, []int{1}, summary.Correct)
	require.Equal(t, 10.0, g.FinalScore())
}

func TestGradeExpressionQuestionWithFrame(t *testing.T) {
	df := dataframe.New(
		series.New([]float64{1, 2, 3}, series.Float, "score"),
	)
	g := newTestGrader(map[int]Question{
		1: {Type: TypeExpression, Answer: "df.Col(\"score\").Mean()"},
	}, &stubResources{df: df, hasFrame: true})

	summary := g.Grade(context.Background(), []any{"df.Col(\"score\").Mean()"})
	require.Equal(t, []int{1}, summary.Correct)
	require.Equal(t, 6.0, g.FinalScore())
}

func TestGradeSQLWithoutConnectionIsIncorrectWithIssue(t *testing.T) {
	g := newTestGrader(map[int]Question{
		1: {Type: TypeSQL, Answer: "SELECT 1"},
	}, nil)

	summary := g.Grade(context.Background(), []any{"SELECT 1"})
	require.Equal(t, []int{1}, summary.Incorrect)
	require.Len(t, summary.Issues, 1)
	require.Contains(t, summary.Issues[0].Detail, "no database connection")
}

func TestGradeUnknownQuestionType(t *testing.T) {
	g := newTestGrader(map[int]Question{
		1: {Type: "ESSAY", Answer: "anything"},
	}, nil)

	summary := g.Grade(context.Background(), []any{"my essay"})
	require.Equal(t, []int{1}, summary.Incorrect)
	require.Len(t, summary.Issues, 1)
	require.Contains(t, summary.Issues[0].Detail, "unknown question type")
}

func TestGradeMissingReferenceSolution(t *testing.T) {
	g := newTestGrader(map[int]Question{}, nil)

	summary := g.Grade(context.Background(), []any{"a"})
	require.Equal(t, []int{1}, summary.Incorrect)
	require.Len(t, summary.Issues, 1)
}

func TestQuestionScoreTable(t *testing.T) {
	g := newTestGrader(map[int]Question{
		1: {Type: TypeSQL},
		2: {Type: TypeExpression},
		3: {Type: TypeMultichoice},
		4: {Type: TypeFunction},
		5: {Type: "ESSAY"},
	}, nil)

	require.Equal(t, 6, g.QuestionScore(1))
	require.Equal(t, 6, g.QuestionScore(2))
	require.Equal(t, 4, g.QuestionScore(3))
	require.Equal(t, 10, g.QuestionScore(4))
	require.Equal(t, 0, g.QuestionScore(5))
}

func TestReportListsIssues(t *testing.T) {
	g := newTestGrader(map[int]Question{
		1: {Type: TypeExpression, Answer: "1 + 1"},
	}, nil)

	g.Grade(context.Background(), []any{"result := 1 + 1"})
	report, score := g.Report()
	require.Equal(t, 3.0, score)
	require.Contains(t, report, "Issue: 1")
	require.Contains(t, report, "Q1: Submission is in wrong format")
}
