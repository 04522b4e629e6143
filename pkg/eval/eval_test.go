package eval

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type scriptedJudge struct {
	responses []string
	calls     int
	err       error
}

func (s *scriptedJudge) Generate(ctx context.Context, messages []llms.MessageContent, tools []llms.Tool) (*llms.ContentResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	content := s.responses[s.calls%len(s.responses)]
	s.calls++
	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: content}},
	}, nil
}

func writeDataset(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(lines), 0644))
	return path
}

func TestLoadDataset(t *testing.T) {
	path := writeDataset(t, `{"question": "q1", "answer": "a1", "context": "c1"}

{"question": "q2", "answer": "a2", "context": "c2"}
`)

	records, err := LoadDataset(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "q1", records[0].Question)
	assert.Equal(t, "a2", records[1].Answer)
	assert.Equal(t, "c2", records[1].Context)
}

func TestLoadDatasetEmpty(t *testing.T) {
	path := writeDataset(t, "\n\n")

	_, err := LoadDataset(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dataset is empty")
}

func TestLoadDatasetBadLine(t *testing.T) {
	path := writeDataset(t, `{"question": "q1"}
not json
`)

	_, err := LoadDataset(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")
}

func TestJudgeParsesScores(t *testing.T) {
	judge := NewJudge(&scriptedJudge{responses: []string{
		`{"faithfulness": 0.9, "answer_relevancy": 0.8}`,
	}})

	scores, err := judge.Score(context.Background(), Record{Question: "q", Answer: "a", Context: "c"})
	require.NoError(t, err)
	assert.InDelta(t, 0.9, scores.Faithfulness, 1e-9)
	assert.InDelta(t, 0.8, scores.AnswerRelevancy, 1e-9)
}

func TestJudgeStripsCodeFence(t *testing.T) {
	judge := NewJudge(&scriptedJudge{responses: []string{
		"```json\n{\"faithfulness\": 1.0, \"answer_relevancy\": 0.5}\n```",
	}})

	scores, err := judge.Score(context.Background(), Record{})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, scores.Faithfulness, 1e-9)
	assert.InDelta(t, 0.5, scores.AnswerRelevancy, 1e-9)
}

func TestJudgeRejectsOutOfRange(t *testing.T) {
	judge := NewJudge(&scriptedJudge{responses: []string{
		`{"faithfulness": 1.5, "answer_relevancy": 0.5}`,
	}})

	_, err := judge.Score(context.Background(), Record{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "out of range")
}

func TestJudgeRejectsProse(t *testing.T) {
	judge := NewJudge(&scriptedJudge{responses: []string{
		"The answer looks faithful to me.",
	}})

	_, err := judge.Score(context.Background(), Record{})
	require.Error(t, err)
}

func TestEvaluateAverages(t *testing.T) {
	judge := NewJudge(&scriptedJudge{responses: []string{
		`{"faithfulness": 1.0, "answer_relevancy": 0.0}`,
		`{"faithfulness": 0.0, "answer_relevancy": 1.0}`,
	}})

	records := []Record{
		{Question: "q1"},
		{Question: "q2"},
	}

	var progress []int
	report, err := Evaluate(context.Background(), judge, records, func(done int) {
		progress = append(progress, done)
	})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Records)
	assert.InDelta(t, 0.5, report.Faithfulness, 1e-9)
	assert.InDelta(t, 0.5, report.AnswerRelevancy, 1e-9)
	assert.Equal(t, []int{1, 2}, progress)
}

func TestEvaluateNoRecords(t *testing.T) {
	judge := NewJudge(&scriptedJudge{})

	_, err := Evaluate(context.Background(), judge, nil, nil)
	require.Error(t, err)
}
