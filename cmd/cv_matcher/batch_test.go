package main

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.md", "Max Mustermann\nBerlin, Germany\nData Scientist\n2018 - 2021 Beta GmbH")
	writeFile(t, dir, "a.txt", sampleResume)
	writeFile(t, dir, "notes.doc", sampleResume)
	writeFile(t, dir, "empty.txt", "")

	out, err := execute(t, "batch", "--dir", dir, "--workers", "2")
	require.NoError(t, err)

	var entries []batchEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 2, ".doc is not listed and the empty file is skipped")

	assert.Equal(t, "a.txt", entries[0].File)
	assert.Equal(t, "Sri Lanka", entries[0].Profile.Location.Country)
	assert.Equal(t, "b.md", entries[1].File)
	assert.Equal(t, "Data Scientist", entries[1].Profile.Role.Canonical)
	assert.NotEqual(t, entries[0].Profile.ID, entries[1].Profile.ID)
}

func TestBatchCommand_Errors(t *testing.T) {
	emptyDir := t.TempDir()
	unreadable := t.TempDir()
	writeFile(t, unreadable, "blank.txt", "  ")

	tests := []struct {
		name        string
		args        []string
		errorString string
	}{
		{"missing dir flag", []string{"batch"}, "--dir is required"},
		{"no documents", []string{"batch", "--dir", emptyDir}, "no resume documents found"},
		{"nothing readable", []string{"batch", "--dir", unreadable}, "could be read"},
		{"dir does not exist", []string{"batch", "--dir", emptyDir + "/missing"}, "failed to read directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorString)
		})
	}
}

func TestResumePaths(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "z.pdf", "")
	writeFile(t, dir, "a.DOCX", "")
	writeFile(t, dir, "image.png", "")

	paths, err := resumePaths(dir)
	require.NoError(t, err)
	require.Len(t, paths, 2)
	assert.Contains(t, paths[0], "a.DOCX")
	assert.Contains(t, paths[1], "z.pdf")
}
