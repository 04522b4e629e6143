package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"

	"askpdf/pkg/client"
)

func main() {
	var serverURL string
	var pdfPath string

	flag.StringVar(&serverURL, "server", "http://localhost:8000", "Server base URL")
	flag.StringVar(&pdfPath, "pdf", "", "PDF file to upload")
	flag.Parse()

	if pdfPath == "" {
		log.Fatal("usage: chat -pdf <document.pdf> [-server <url>]")
	}

	if err := run(serverURL, pdfPath); err != nil {
		log.Fatal(err)
	}
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(serverURL, pdfPath string) error {
	api := client.New(serverURL)

	if err := api.Health(); err != nil {
		return fmt.Errorf("server at %s is not reachable: %w", serverURL, err)
	}

	uploadSpinner := getSpinner("Uploading and indexing PDF...")
	sessionID, err := api.UploadPDF(pdfPath)
	uploadSpinner.Finish()
	fmt.Print("\r")
	if err != nil {
		return err
	}
	color.Green("\n✓ PDF indexed, session %s\n", sessionID)

	color.Cyan("\nAsk questions about the document (type 'exit' to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if strings.ToLower(question) == "exit" {
			break
		}

		thinkingSpinner := getSpinner("Thinking...")
		answer, err := api.Chat(sessionID, question)
		thinkingSpinner.Finish()
		fmt.Print("\r")

		if err != nil {
			color.Red("Error: %v\n", err)
			continue
		}
		assistantPrompt("Assistant: %s\n", answer)
	}

	return nil
}
