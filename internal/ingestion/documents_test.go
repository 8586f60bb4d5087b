package ingestion

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleResume = "Jane Doe\n\nColombo,   Sri Lanka\nSenior Software Engineer\nJan 2015 - Present  Acme Corp\n"

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestExtractFile_PlainText(t *testing.T) {
	path := writeTemp(t, "cv.txt", sampleResume)

	text, debug, err := ExtractFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nColombo, Sri Lanka\nSenior Software Engineer\nJan 2015 - Present Acme Corp", text)
	assert.Equal(t, ".txt", debug.Format)
	require.Len(t, debug.Steps, 1)
	assert.Equal(t, "plain", debug.Steps[0].Name)
	assert.Len(t, debug.Hash, 64)
}

func TestExtractFile_HTML(t *testing.T) {
	path := writeTemp(t, "cv.html", `<html><body><h1>Jane Doe</h1><p>Data Scientist, Berlin, Germany</p></body></html>`)

	text, debug, err := ExtractFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe\nData Scientist, Berlin, Germany", text)
	assert.Equal(t, "html", debug.Steps[0].Name)
}

func TestExtractFile_Unsupported(t *testing.T) {
	path := writeTemp(t, "cv.doc", "binary")

	_, _, err := ExtractFile(path)
	require.Error(t, err)

	var formatErr *UnsupportedFormatError
	require.ErrorAs(t, err, &formatErr)
	assert.Equal(t, ".doc", formatErr.Format)
}

func TestExtractFile_NotFound(t *testing.T) {
	_, _, err := ExtractFile(filepath.Join(t.TempDir(), "missing.pdf"))
	require.Error(t, err)

	var extractErr *ExtractionError
	require.ErrorAs(t, err, &extractErr)
	assert.Contains(t, err.Error(), "file not found")
}

func TestExtractFile_NoContent(t *testing.T) {
	path := writeTemp(t, "cv.txt", "  hi  ")

	text, _, err := ExtractFile(path)
	require.Error(t, err)
	assert.Equal(t, "hi", text)
	assert.Contains(t, err.Error(), "no content found")
}

func TestExtractFile_InvalidPDF(t *testing.T) {
	path := writeTemp(t, "cv.pdf", "this is not a pdf at all, just text pretending")

	_, debug, err := ExtractFile(path)
	require.Error(t, err)

	var extractErr *ExtractionError
	assert.ErrorAs(t, err, &extractErr)
	require.NotEmpty(t, debug.Steps)
	assert.Equal(t, "pdf", debug.Steps[0].Name)
	assert.NotEmpty(t, debug.Steps[0].Error)
}

func TestExtractBytes_StripsMimeParameters(t *testing.T) {
	text, _, err := ExtractBytes("text/plain; charset=utf-8", []byte(sampleResume))
	require.NoError(t, err)
	assert.Contains(t, text, "Senior Software Engineer")
}

func TestExtractBytes_UnknownMime(t *testing.T) {
	_, _, err := ExtractBytes("image/png", []byte{0x89, 0x50})
	var formatErr *UnsupportedFormatError
	assert.ErrorAs(t, err, &formatErr)
}

func TestDocxXMLToText(t *testing.T) {
	xml := `<w:body><w:p><w:r><w:t>Jane Doe</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>QA</w:t><w:tab/><w:t>Engineer &amp; Tester</w:t></w:r></w:p>` +
		`<w:p><w:r><w:t>London</w:t><w:br/><w:t>UK</w:t></w:r></w:p></w:body>`

	got := Normalize(docxXMLToText(xml))
	assert.Equal(t, "Jane Doe\nQA Engineer & Tester\nLondon\nUK", got)
}

func TestMimeForPath(t *testing.T) {
	assert.Equal(t, MimePDF, MimeForPath("/tmp/CV.PDF"))
	assert.Equal(t, MimeDOCX, MimeForPath("resume.docx"))
	assert.Empty(t, MimeForPath("resume.doc"))
}
