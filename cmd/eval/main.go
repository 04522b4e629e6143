package main

import (
	"context"
	"flag"
	"log"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"askpdf/pkg/config"
	"askpdf/pkg/eval"
	"askpdf/pkg/llm"
)

func main() {
	var configPath string
	var datasetPath string

	flag.StringVar(&configPath, "config", "", "Path to config file")
	flag.StringVar(&datasetPath, "dataset", "", "Path to JSONL dataset of question/answer/context records")
	flag.Parse()

	if datasetPath == "" {
		log.Fatal("usage: eval -dataset <records.jsonl>")
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.LLM.APIKey == "" {
		log.Fatal("GROQ_API_KEY is required to run the judge")
	}

	if err := run(cfg, datasetPath); err != nil {
		log.Fatal(err)
	}
}

func run(cfg *config.Config, datasetPath string) error {
	records, err := eval.LoadDataset(datasetPath)
	if err != nil {
		return err
	}
	color.Blue("Loaded %d records from %s\n", len(records), datasetPath)

	chatEngine, err := llm.NewWithConfig(llm.ChatConfig{
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
	})
	if err != nil {
		return err
	}

	bar := progressbar.NewOptions(len(records),
		progressbar.OptionSetDescription(color.BlueString("Scoring answers...")),
		progressbar.OptionSetItsString("records"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)

	report, err := eval.Evaluate(context.Background(), eval.NewJudge(chatEngine), records,
		func(done int) {
			bar.Set(done)
		})
	if err != nil {
		return err
	}
	bar.Finish()

	color.Green("\n\nRecords scored:    %d", report.Records)
	color.Green("Faithfulness:      %.3f", report.Faithfulness)
	color.Green("Answer relevancy:  %.3f", report.AnswerRelevancy)
	return nil
}
