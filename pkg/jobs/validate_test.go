package jobs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"seqpipe/pkg/pipeline"
)

func writeTempFile(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateFilePath(t *testing.T) {
	path := writeTempFile(t, "input.txt", "hello")

	got, err := ValidateFilePath(path, allowedSourceExtensions)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	// Any extension accepted when no list is given
	binPath := writeTempFile(t, "input.bin", "hello")
	_, err = ValidateFilePath(binPath, nil)
	assert.NoError(t, err)
}

func TestValidateFilePathRejections(t *testing.T) {
	cases := map[string]interface{}{
		"nil input":       nil,
		"non string":      42,
		"empty path":      "",
		"missing file":    filepath.Join(t.TempDir(), "nope.txt"),
		"directory":       t.TempDir(),
		"wrong extension": writeTempFile(t, "input.bin", "x"),
	}
	for name, raw := range cases {
		_, err := ValidateFilePath(raw, allowedSourceExtensions)
		require.Errorf(t, err, "case %s", name)
		assert.Truef(t, pipeline.IsValidationError(err), "case %s", name)
	}
}

func TestValidateProcessedDoc(t *testing.T) {
	doc := ProcessedDoc{
		SourceFile:  "input.txt",
		Records:     []RecordData{{Name: "record_0", Value: "line1", LineNumber: 1}},
		ProcessedAt: time.Now(),
	}

	got, err := ValidateProcessedDoc(doc)
	require.NoError(t, err)
	assert.Equal(t, doc.SourceFile, got.SourceFile)

	got, err = ValidateProcessedDoc(&doc)
	require.NoError(t, err)
	assert.Len(t, got.Records, 1)
}

func TestValidateProcessedDocFromMap(t *testing.T) {
	m := map[string]interface{}{
		"source_file":  "input.txt",
		"processed_at": time.Now(),
		"records": []map[string]interface{}{
			{"name": "record_0", "value": "line1", "line_number": 1},
		},
	}

	doc, err := ValidateProcessedDoc(m)
	require.NoError(t, err)
	assert.Equal(t, "input.txt", doc.SourceFile)
	require.Len(t, doc.Records, 1)
	assert.Equal(t, "line1", doc.Records[0].Value)
}

func TestValidateProcessedDocFromFile(t *testing.T) {
	path := writeTempFile(t, "doc.json", `{
		"source_file": "input.txt",
		"processed_at": "2026-01-02T03:04:05Z",
		"records": [{"name": "record_0", "value": "line1", "line_number": 1}]
	}`)

	doc, err := ValidateProcessedDoc(path)
	require.NoError(t, err)
	assert.Equal(t, "input.txt", doc.SourceFile)
	assert.Len(t, doc.Records, 1)

	badJSON := writeTempFile(t, "bad.json", "{")
	_, err = ValidateProcessedDoc(badJSON)
	require.Error(t, err)
	assert.True(t, pipeline.IsValidationError(err))
}

func TestValidateProcessedDocRejections(t *testing.T) {
	now := time.Now()
	cases := map[string]interface{}{
		"nil input":      nil,
		"wrong type":     42,
		"no source file": ProcessedDoc{ProcessedAt: now, Records: []RecordData{}},
		"no timestamp":   ProcessedDoc{SourceFile: "a", Records: []RecordData{}},
		"nil records":    ProcessedDoc{SourceFile: "a", ProcessedAt: now},
	}
	for name, raw := range cases {
		_, err := ValidateProcessedDoc(raw)
		require.Errorf(t, err, "case %s", name)
		assert.Truef(t, pipeline.IsValidationError(err), "case %s", name)
	}
}

func TestValidateBatchID(t *testing.T) {
	id, err := ValidateBatchID(7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	id, err = ValidateBatchID(int64(8))
	require.NoError(t, err)
	assert.Equal(t, int64(8), id)

	id, err = ValidateBatchID("9")
	require.NoError(t, err)
	assert.Equal(t, int64(9), id)

	for name, raw := range map[string]interface{}{
		"nil":         nil,
		"zero":        0,
		"negative":    -3,
		"not numeric": "abc",
		"wrong type":  3.14,
	} {
		_, err := ValidateBatchID(raw)
		require.Errorf(t, err, "case %s", name)
		assert.Truef(t, pipeline.IsValidationError(err), "case %s", name)
	}
}
