package seed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Document is one source document before chunking.
type Document struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// LoadPath loads documents from a file, dispatching on extension:
// .json is a corpus array of {url, title, content}, .pdf is extracted as
// plain text, anything else is read as a single text document.
func LoadPath(path string) ([]Document, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return LoadJSON(path)
	case ".pdf":
		doc, err := LoadPDF(path)
		if err != nil {
			return nil, err
		}
		return []Document{doc}, nil
	default:
		doc, err := LoadText(path)
		if err != nil {
			return nil, err
		}
		return []Document{doc}, nil
	}
}

// LoadJSON reads a corpus file: a JSON array of {url, title, content}.
func LoadJSON(path string) ([]Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus file: %w", err)
	}

	var docs []Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("parsing corpus file %s: %w", path, err)
	}
	return docs, nil
}

// LoadText reads a single plain-text document; the filename becomes the title.
func LoadText(path string) (Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Document{}, fmt.Errorf("reading file: %w", err)
	}
	return Document{
		Title:   filepath.Base(path),
		Content: string(data),
	}, nil
}

// LoadPDF extracts the plain text of a PDF as a single document.
func LoadPDF(path string) (Document, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return Document{}, fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return Document{}, fmt.Errorf("extracting pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return Document{}, fmt.Errorf("reading pdf text: %w", err)
	}

	return Document{
		Title:   filepath.Base(path),
		Content: buf.String(),
	}, nil
}
