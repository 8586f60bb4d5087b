package ingestion

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jonathan/cv-job-matcher/internal/fetch"
	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

const (
	// MinPDFTextLength is the text-layer size below which a PDF is treated as scanned
	MinPDFTextLength = 50
	// MinUsableTextLength is the smallest extracted text worth profiling
	MinUsableTextLength = 20
)

// MIME types accepted by ExtractBytes
const (
	MimePlain    = "text/plain"
	MimeMarkdown = "text/markdown"
	MimeHTML     = "text/html"
	MimePDF      = "application/pdf"
	MimeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var extensionMimes = map[string]string{
	".txt":  MimePlain,
	".md":   MimeMarkdown,
	".html": MimeHTML,
	".htm":  MimeHTML,
	".pdf":  MimePDF,
	".docx": MimeDOCX,
}

// MimeForPath returns the MIME type ExtractBytes expects for a file name,
// or "" when the extension has no reader.
func MimeForPath(path string) string {
	return extensionMimes[strings.ToLower(filepath.Ext(path))]
}

// ExtractFile reads a resume document and returns its normalized text.
// The reader is chosen by file extension.
func ExtractFile(path string) (string, *ExtractDebug, error) {
	ext := strings.ToLower(filepath.Ext(path))
	mime := extensionMimes[ext]
	if mime == "" {
		return "", &ExtractDebug{Source: path, Format: ext}, &UnsupportedFormatError{Format: ext}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		debug := &ExtractDebug{Source: path, Format: ext}
		if os.IsNotExist(err) {
			return "", debug, &ExtractionError{Source: path, Message: "file not found", Cause: err}
		}
		return "", debug, &ExtractionError{Source: path, Message: "failed to read file", Cause: err}
	}

	text, debug, err := extract(path, ext, mime, data)
	return text, debug, err
}

// ExtractBytes extracts normalized text from an in-memory document of the given MIME type
func ExtractBytes(mime string, data []byte) (string, *ExtractDebug, error) {
	mime = strings.TrimSpace(strings.SplitN(mime, ";", 2)[0])
	return extract("(memory)", mime, mime, data)
}

func extract(source, format, mime string, data []byte) (string, *ExtractDebug, error) {
	debug := &ExtractDebug{Source: source, Format: format}

	var (
		text string
		err  error
	)
	switch mime {
	case MimePlain, MimeMarkdown:
		text = string(data)
		debug.addStep("plain", len(text), nil)
	case MimeHTML:
		text, err = fetch.HTMLToText(string(data))
		debug.addStep("html", len(text), err)
	case MimePDF:
		text, err = readPDF(bytes.NewReader(data), int64(len(data)))
		debug.addStep("pdf", len(text), err)
		if err == nil && len(strings.TrimSpace(text)) < MinPDFTextLength {
			// image-only PDF; no OCR engine is wired in
			debug.addStep("ocr_unavailable", 0, nil)
		}
	case MimeDOCX:
		text, err = readDOCX(bytes.NewReader(data), int64(len(data)))
		debug.addStep("docx", len(text), err)
	default:
		return "", debug, &UnsupportedFormatError{Format: format}
	}
	if err != nil {
		return "", debug, &ExtractionError{Source: source, Message: "reader failed", Cause: err}
	}

	text = Normalize(text)
	debug.Hash = computeHash(text)
	if len(text) < MinUsableTextLength {
		return text, debug, &ExtractionError{Source: source, Message: "no content found"}
	}
	return text, debug, nil
}

func readPDF(r io.ReaderAt, size int64) (text string, err error) {
	// the pdf reader panics on some malformed cross-reference tables
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("malformed pdf: %v", rec)
		}
	}()

	reader, err := pdf.NewReader(r, size)
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

var (
	docxParagraphEndRe = regexp.MustCompile(`</w:p>|<w:br[^>]*/>|<w:cr[^>]*/>`)
	docxTabRe          = regexp.MustCompile(`<w:tab[^>]*/>`)
	xmlTagRe           = regexp.MustCompile(`<[^>]+>`)
)

func readDOCX(r io.ReaderAt, size int64) (string, error) {
	doc, err := docx.ReadDocxFromMemory(r, size)
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer func() { _ = doc.Close() }()

	return docxXMLToText(doc.Editable().GetContent()), nil
}

// docxXMLToText flattens WordprocessingML body XML to one line per paragraph
func docxXMLToText(content string) string {
	content = docxParagraphEndRe.ReplaceAllString(content, "\n")
	content = docxTabRe.ReplaceAllString(content, " ")
	content = xmlTagRe.ReplaceAllString(content, "")
	return html.UnescapeString(content)
}
