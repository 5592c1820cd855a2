package converters

import (
	"fmt"
	"time"
)

// Page is one extracted unit of document text.
type Page struct {
	Text     string `json:"text"`
	Position int    `json:"position"`
}

// DocumentMetadata describes the source file of an ingested document.
type DocumentMetadata struct {
	FileName  string `json:"fileName"`
	Category  string `json:"category"`
	FileSize  int64  `json:"fileSize"`
	PageCount int    `json:"pageCount"`
}

// IngestedDocument is the JSON shape stored as the ingest result.
type IngestedDocument struct {
	JobID      string           `json:"jobId"`
	DocumentID string           `json:"documentId"`
	Status     string           `json:"status"`
	Pages      []Page           `json:"pages"`
	Metadata   DocumentMetadata `json:"metadata"`
	IngestedAt time.Time        `json:"ingestedAt"`
}

// DocumentConverter turns extracted page texts into a stored document.
type DocumentConverter interface {
	Convert(pages []string, meta DocumentMetadata) (*IngestedDocument, error)
}

// JSONConverter is the default DocumentConverter.
type JSONConverter struct{}

func NewJSONConverter() *JSONConverter {
	return &JSONConverter{}
}

func (c *JSONConverter) Convert(pages []string, meta DocumentMetadata) (*IngestedDocument, error) {
	if len(pages) == 0 {
		return nil, fmt.Errorf("no pages to convert")
	}

	doc := &IngestedDocument{
		Status:     "completed",
		IngestedAt: time.Now(),
		Pages:      make([]Page, 0, len(pages)),
		Metadata:   meta,
	}
	doc.Metadata.PageCount = len(pages)

	for i, text := range pages {
		doc.Pages = append(doc.Pages, Page{
			Text:     text,
			Position: i + 1,
		})
	}

	return doc, nil
}
