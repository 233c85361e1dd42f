package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDocumentYAML(t *testing.T) {
	path := writeTemp(t, "widget.yaml", `
name: widget
manufacturing_processes:
  - CNC Milling
`)

	doc, err := loadDocument(path, "okh")
	require.NoError(t, err)
	assert.Equal(t, "widget", doc.ID)
	assert.Equal(t, "okh", doc.Type)
	assert.Equal(t, "widget", doc.Content["name"])
}

func TestLoadDocumentJSON(t *testing.T) {
	path := writeTemp(t, "facility.json", `{"name": "Acme", "processes": ["Welding"]}`)

	doc, err := loadDocument(path, "okw")
	require.NoError(t, err)
	assert.Equal(t, "facility", doc.ID)
	assert.Equal(t, "okw", doc.Type)
	assert.Equal(t, "Acme", doc.Content["name"])
}

func TestLoadDocumentFieldOverrides(t *testing.T) {
	path := writeTemp(t, "doc.yaml", `
id: custom-id
type: recipe
steps:
  - technique: baking
`)

	doc, err := loadDocument(path, "okh")
	require.NoError(t, err)
	assert.Equal(t, "custom-id", doc.ID)
	assert.Equal(t, "recipe", doc.Type)
}

func TestParseWeights(t *testing.T) {
	w, err := parseWeights("process=0.5,material=0.3,equipment=0.2")
	require.NoError(t, err)
	assert.InDelta(t, 0.5, w.Process, 0.0001)
	assert.InDelta(t, 0.3, w.Material, 0.0001)
	assert.InDelta(t, 0.2, w.Equipment, 0.0001)
	assert.Zero(t, w.Scale)

	_, err = parseWeights("process")
	assert.ErrorContains(t, err, "expected factor=value")

	_, err = parseWeights("process=abc")
	assert.ErrorContains(t, err, "invalid weight value")

	_, err = parseWeights("speed=0.5")
	assert.ErrorContains(t, err, "unknown weight factor")
}

func TestLoadDocumentErrors(t *testing.T) {
	_, err := loadDocument(filepath.Join(t.TempDir(), "missing.yaml"), "okh")
	assert.Error(t, err)

	bad := writeTemp(t, "bad.json", `{not json`)
	_, err = loadDocument(bad, "okh")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse document")
}
