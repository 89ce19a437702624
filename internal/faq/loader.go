// Package faq loads FAQ documents from a question/answer CSV table or a
// directory of plain-text and markdown files.
package faq

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"faqbot/internal/domain"
)


var docExtensions = map[string]bool{".txt": true, ".md": true}

// Load returns the documents from faqPath if it exists, otherwise from docsDir.
// The CSV table takes precedence; the directory is only consulted when the
// table is absent.
func Load(faqPath, docsDir string) ([]domain.Document, error) {
	searched := []string{faqPath, docsDir}

	var (
		docs []domain.Document
		err  error
	)
	switch {
	case fileExists(faqPath):
		docs, err = LoadCSV(faqPath)
	case dirExists(docsDir):
		docs, err = LoadDir(docsDir)
	default:
		return nil, &domain.SourceNotFoundError{Searched: searched}
	}
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, &domain.SourceNotFoundError{Searched: searched, Empty: true}
	}
	return docs, nil
}

// LoadCSV reads a table with a header row. The question and answer columns
// are matched case-insensitively, first exactly and then by substring.
func LoadCSV(path string) ([]domain.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read header of %s: %w", path, err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	qCol := findColumn(cols, "question")
	aCol := findColumn(cols, "answer")
	if qCol < 0 || aCol < 0 {
		return nil, &domain.SchemaError{
			Path:     filepath.Base(path),
			Found:    cols,
			Expected: []string{"question", "answer"},
		}
	}

	source := filepath.Base(path)
	var docs []domain.Document
	for row := 0; ; row++ {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s row %d: %w", path, row, err)
		}
		q := strings.TrimSpace(field(rec, qCol))
		a := strings.TrimSpace(field(rec, aCol))
		if q == "" && a == "" {
			continue
		}
		docs = append(docs, domain.Document{
			ID:     "faq_" + strconv.Itoa(row),
			Text:   "Q: " + q + "\nA: " + a,
			Source: source,
		})
	}
	return docs, nil
}

// LoadDir reads every .txt and .md file directly inside dir, in name order.
func LoadDir(dir string) ([]domain.Document, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir %s: %w", dir, err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var docs []domain.Document
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || !docExtensions[ext] {
			continue
		}
		path := filepath.Join(dir, e.Name())
		// Stat follows symlinks; a link to a directory is not a document.
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		if info.IsDir() {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		stem := strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))
		docs = append(docs, domain.Document{
			ID:     "doc_" + stem,
			Text:   strings.ToValidUTF8(string(data), "\uFFFD"),
			Source: e.Name(),
		})
	}
	return docs, nil
}

func findColumn(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	for i, c := range cols {
		if strings.Contains(c, name) {
			return i
		}
	}
	return -1
}

func field(rec []string, i int) string {
	if i < len(rec) {
		return rec[i]
	}
	return ""
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func dirExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
