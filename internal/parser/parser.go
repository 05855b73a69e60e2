package parser

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"pdf-rag/internal/models"
)

// Source extracts raw page-tagged text from documents on disk. It does no
// chunking; that is the chunker's job.
type Source struct{}

func NewSource() *Source { return &Source{} }

var supportedExts = map[string]bool{
	".pdf":  true,
	".docx": true,
	".pptx": true,
	".xlsx": true,
	".ods":  true,
	".txt":  true,
	".md":   true,
}

// Supported reports whether the file extension has an extractor.
func (s *Source) Supported(path string) bool {
	return supportedExts[strings.ToLower(filepath.Ext(path))]
}

// Extract returns the document's raw text with pages joined by blank lines.
func (s *Source) Extract(path string) (models.Extraction, error) {
	ext := strings.ToLower(filepath.Ext(path))
	var (
		pages []string
		err   error
	)
	switch ext {
	case ".pdf":
		pages, err = extractPDF(path)
	case ".docx":
		pages, err = extractDOCX(path)
	case ".pptx":
		pages, err = extractPPTX(path)
	case ".xlsx":
		pages, err = extractXLSX(path)
	case ".ods":
		pages, err = extractODS(path)
	case ".txt":
		pages, err = extractText(path)
	case ".md":
		pages, err = extractMarkdown(path)
	default:
		return models.Extraction{}, fmt.Errorf("%w: unsupported file format %q", models.ErrExtraction, ext)
	}
	if err != nil {
		return models.Extraction{}, fmt.Errorf("%w: %s: %v", models.ErrExtraction, path, err)
	}
	return models.Extraction{
		Text:      CleanText(strings.Join(pages, "\n\n")),
		PageCount: len(pages),
	}, nil
}

func extractPDF(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, err
		}
		pages = append(pages, pageText)
	}
	return pages, nil
}

func extractDOCX(path string) ([]string, error) {
	r, err := docx.ReadDocxFile(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	content := r.Editable().GetContent()
	return []string{stripXMLTags(content)}, nil
}

func extractPPTX(path string) ([]string, error) {
	f, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var slides []string
	for _, file := range f.File {
		if !strings.HasPrefix(file.Name, "ppt/slides/slide") {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			continue
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			continue
		}
		slideText := extractTextFromXML(string(data))
		if strings.TrimSpace(slideText) != "" {
			slides = append(slides, slideText)
		}
	}
	return slides, nil
}

func extractXLSX(path string) ([]string, error) {
	f, err := xlsx.OpenFile(path)
	if err != nil {
		return nil, err
	}

	var sheets []string
	for _, sheet := range f.Sheets {
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheet.Name))
		for _, row := range sheet.Rows {
			for _, cell := range row.Cells {
				text.WriteString(cell.String() + "\t")
			}
			text.WriteString("\n")
		}
		sheets = append(sheets, text.String())
	}
	return sheets, nil
}

func extractODS(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var sheets []string
	for _, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			continue
		}
		var text strings.Builder
		text.WriteString(fmt.Sprintf("Sheet: %s\n", sheetName))
		for _, row := range rows {
			for _, cell := range row {
				text.WriteString(cell + "\t")
			}
			text.WriteString("\n")
		}
		sheets = append(sheets, text.String())
	}
	return sheets, nil
}

func extractText(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return []string{string(data)}, nil
}

// extractMarkdown renders GFM to HTML and strips the tags, so headings,
// tables and links index as plain prose.
func extractMarkdown(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(
			html.WithHardWraps(),
		),
	)
	var buf bytes.Buffer
	if err := md.Convert(data, &buf); err != nil {
		return nil, err
	}
	return []string{stripXMLTags(buf.String())}, nil
}

func extractTextFromXML(xmlContent string) string {
	var text strings.Builder
	parts := strings.Split(xmlContent, "<a:t>")
	for i, part := range parts {
		if i == 0 {
			continue
		}
		if endIdx := strings.Index(part, "</a:t>"); endIdx >= 0 {
			text.WriteString(part[:endIdx] + " ")
		}
	}
	return text.String()
}

var tagRe = regexp.MustCompile(`<[^>]+>`)

func stripXMLTags(s string) string {
	return tagRe.ReplaceAllString(s, " ")
}

var excessNewlines = regexp.MustCompile(`\n{3,}`)

// CleanText normalizes line endings and collapses runs of blank lines before
// chunking. Word-internal whitespace is left alone so chunk offsets stay
// meaningful against the cleaned text.
func CleanText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
