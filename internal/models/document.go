package models

// Page is the text extracted from a single PDF page. Page numbers are
// 1-based, matching how readers cite them.
type Page struct {
	Number int
	Text   string
}

// Chunk is a windowed slice of one page's text. Neighboring chunks from
// the same page overlap; Index is the position of the chunk within the
// whole document.
type Chunk struct {
	ID    string
	Text  string
	Page  int
	Index int
}

// ScoredChunk pairs a retrieved chunk with its cosine similarity to the
// query, higher is closer.
type ScoredChunk struct {
	Chunk
	Score float32
}
