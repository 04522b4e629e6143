// Package eval scores question/answer pairs with an LLM judge. It is
// used by the offline evaluation command, not by the serving path.
package eval

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"
)

// Record is one dataset row: a question, the answer produced by the
// system under test, and the retrieved context that answer was based on.
type Record struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Context  string `json:"context"`
}

type Scores struct {
	Faithfulness    float64 `json:"faithfulness"`
	AnswerRelevancy float64 `json:"answer_relevancy"`
}

type Report struct {
	Records         int
	Faithfulness    float64
	AnswerRelevancy float64
}

// LoadDataset reads JSONL records, one per line. Blank lines are
// skipped.
func LoadDataset(path string) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer file.Close()

	var records []Record
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(text), &rec); err != nil {
			return nil, fmt.Errorf("invalid record on line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}
	if len(records) == 0 {
		return nil, errors.New("dataset is empty")
	}
	return records, nil
}

// Generator is the model interface the judge calls. Satisfied by
// llm.Chat.
type Generator interface {
	Generate(ctx context.Context, messages []llms.MessageContent, tools []llms.Tool) (*llms.ContentResponse, error)
}

const judgePrompt = `You are grading a question answering system.

Question:
%s

Retrieved context:
%s

Answer:
%s

Score the answer on two axes, each between 0.0 and 1.0:
- faithfulness: is every claim in the answer supported by the context?
- answer_relevancy: does the answer actually address the question?

Respond with JSON only, no prose: {"faithfulness": <float>, "answer_relevancy": <float>}`

type Judge struct {
	llm Generator
}

func NewJudge(llm Generator) *Judge {
	return &Judge{llm: llm}
}

func (j *Judge) Score(ctx context.Context, rec Record) (Scores, error) {
	prompt := fmt.Sprintf(judgePrompt, rec.Question, rec.Context, rec.Answer)
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}

	resp, err := j.llm.Generate(ctx, messages, nil)
	if err != nil {
		return Scores{}, fmt.Errorf("judge call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Scores{}, errors.New("judge returned no choices")
	}

	var scores Scores
	raw := stripCodeFence(resp.Choices[0].Content)
	if err := json.Unmarshal([]byte(raw), &scores); err != nil {
		return Scores{}, fmt.Errorf("judge returned unparseable scores: %w", err)
	}
	if scores.Faithfulness < 0 || scores.Faithfulness > 1 ||
		scores.AnswerRelevancy < 0 || scores.AnswerRelevancy > 1 {
		return Scores{}, fmt.Errorf("judge scores out of range: %+v", scores)
	}
	return scores, nil
}

// stripCodeFence unwraps a ```json ... ``` block if the model added
// one despite being asked for bare JSON.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// Evaluate scores every record and averages the results. OnProgress,
// when set, is called once per scored record.
func Evaluate(ctx context.Context, judge *Judge, records []Record, onProgress func(done int)) (Report, error) {
	if len(records) == 0 {
		return Report{}, errors.New("dataset is empty")
	}

	var report Report
	for i, rec := range records {
		scores, err := judge.Score(ctx, rec)
		if err != nil {
			return Report{}, fmt.Errorf("record %d: %w", i+1, err)
		}
		report.Faithfulness += scores.Faithfulness
		report.AnswerRelevancy += scores.AnswerRelevancy
		if onProgress != nil {
			onProgress(i + 1)
		}
	}

	report.Records = len(records)
	report.Faithfulness /= float64(report.Records)
	report.AnswerRelevancy /= float64(report.Records)
	return report, nil
}
