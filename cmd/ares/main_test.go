package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentIDKeepsDirectories(t *testing.T) {
	assert.Equal(t, "ch1", documentID("ch1.txt"))
	assert.Equal(t, "a/ch1", documentID("a/ch1.txt"))
	assert.Equal(t, "b/ch1", documentID("./b/ch1.txt"))
	assert.NotEqual(t, documentID("a/ch1.txt"), documentID("b/ch1.txt"))

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, "books/ch2", documentID(filepath.Join(wd, "books", "ch2.md")))
}

func TestReadDocument(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ch1.txt")
	require.NoError(t, os.WriteFile(path, []byte("Harry went to Hogwarts."), 0644))

	id, text, err := readDocument(path)
	require.NoError(t, err)
	assert.Equal(t, "Harry went to Hogwarts.", text)
	assert.Equal(t, "ch1", filepath.Base(id))

	_, _, err = readDocument(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestCheckDocumentIDs(t *testing.T) {
	assert.NoError(t, checkDocumentIDs([]string{"a/ch1.txt", "b/ch1.txt"}))
	assert.ErrorContains(t, checkDocumentIDs([]string{"ch1.txt", "ch1.md"}), `document id "ch1"`)
}
