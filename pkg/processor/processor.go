// Package processor splits loaded pages into overlapping fixed-size text
// windows suitable for embedding.
package processor

import (
	"askpdf/internal/models"
)

type ProcessorConfig struct {
	ChunkSize    int
	ChunkOverlap int
}

type Processor struct {
	config ProcessorConfig
}

func NewWithConfig(config ProcessorConfig) Processor {
	if config.ChunkSize == 0 {
		config.ChunkSize = 800
	}
	if config.ChunkOverlap == 0 {
		config.ChunkOverlap = 150
	}
	if config.ChunkOverlap >= config.ChunkSize {
		// Overlap below the window size keeps every step moving forward.
		config.ChunkOverlap = config.ChunkSize - 1
	}

	return Processor{
		config: config,
	}
}

// Chunk slides a window of ChunkSize runes over each page's text with
// ChunkOverlap runes shared between neighbors. Windows never cross page
// boundaries, so every chunk carries a single page number. The union of a
// page's chunks covers its full text with no gaps.
func (p *Processor) Chunk(pages []models.Page) []models.Chunk {
	var chunks []models.Chunk

	step := p.config.ChunkSize - p.config.ChunkOverlap
	index := 0

	for _, page := range pages {
		runes := []rune(page.Text)

		for start := 0; start < len(runes); start += step {
			end := start + p.config.ChunkSize
			if end > len(runes) {
				end = len(runes)
			}

			chunks = append(chunks, models.Chunk{
				Text:  string(runes[start:end]),
				Page:  page.Number,
				Index: index,
			})
			index++

			if end == len(runes) {
				break
			}
		}
	}

	return chunks
}
