package jobs

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"seqpipe/pkg/pipeline"
	"seqpipe/pkg/util/maps"
)

// allowedSourceExtensions are the file types the split job accepts.
var allowedSourceExtensions = []string{".txt", ".csv", ".json"}

// ValidateFilePath checks that raw is a string path to an existing regular
// file with one of the allowed extensions. An empty allowed list accepts any
// extension.
func ValidateFilePath(raw interface{}, allowed []string) (string, error) {
	if raw == nil {
		return "", pipeline.Validationf("file_path", "file path cannot be nil")
	}
	path, isString := raw.(string)
	if !isString {
		return "", pipeline.Validationf("file_path", "file path must be a string, got %T", raw)
	}
	if path == "" {
		return "", pipeline.Validationf("file_path", "file path cannot be empty")
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", pipeline.Validationf("file_path", "file does not exist: %s", path)
	}
	if info.IsDir() {
		return "", pipeline.Validationf("file_path", "path is not a file: %s", path)
	}

	if len(allowed) > 0 {
		ext := strings.ToLower(filepath.Ext(path))
		ok := false
		for _, a := range allowed {
			if ext == a {
				ok = true
				break
			}
		}
		if !ok {
			return "", pipeline.Validationf("file_path",
				"invalid file extension %s, allowed: %s", ext, strings.Join(allowed, ", "))
		}
	}
	return path, nil
}

// ValidateProcessedDoc checks that raw is a processed document, either as the
// document itself, as a generic map, or as a path to the JSON file written by
// the split job.
func ValidateProcessedDoc(raw interface{}) (ProcessedDoc, error) {
	if raw == nil {
		return ProcessedDoc{}, pipeline.Validationf("data", "processed data cannot be nil")
	}

	switch v := raw.(type) {
	case ProcessedDoc:
		return checkProcessedDoc(v)
	case *ProcessedDoc:
		return checkProcessedDoc(*v)
	case map[string]interface{}:
		var doc ProcessedDoc
		if err := maps.Decode(v, &doc); err != nil {
			return ProcessedDoc{}, pipeline.Validationf("data", "cannot decode processed data: %s", err)
		}
		return checkProcessedDoc(doc)
	case string:
		path, err := ValidateFilePath(v, []string{".json"})
		if err != nil {
			return ProcessedDoc{}, err
		}
		f, err := os.Open(path)
		if err != nil {
			return ProcessedDoc{}, errors.Wrapf(err, "cannot open file %s", path)
		}
		defer f.Close()
		var doc ProcessedDoc
		if err := json.NewDecoder(f).Decode(&doc); err != nil {
			return ProcessedDoc{}, pipeline.Validationf("data", "invalid JSON in file %s: %s", path, err)
		}
		return checkProcessedDoc(doc)
	}
	return ProcessedDoc{}, pipeline.Validationf("data", "processed data must be a document or a path, got %T", raw)
}

func checkProcessedDoc(doc ProcessedDoc) (ProcessedDoc, error) {
	if doc.SourceFile == "" {
		return ProcessedDoc{}, pipeline.Validationf("data.source_file", "missing source file")
	}
	if doc.ProcessedAt.IsZero() {
		return ProcessedDoc{}, pipeline.Validationf("data.processed_at", "missing processing time")
	}
	if doc.Records == nil {
		return ProcessedDoc{}, pipeline.Validationf("data.records", "missing records list")
	}
	return doc, nil
}

// ValidateBatchID checks that raw is a positive integer batch identifier.
// String input is accepted and parsed, mirroring command line usage.
func ValidateBatchID(raw interface{}) (int64, error) {
	if raw == nil {
		return 0, pipeline.Validationf("batch_id", "batch id cannot be nil")
	}

	var id int64
	switch v := raw.(type) {
	case int:
		id = int64(v)
	case int64:
		id = v
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, pipeline.Validationf("batch_id", "batch id must be an integer, got %q", v)
		}
		id = parsed
	default:
		return 0, pipeline.Validationf("batch_id", "batch id must be an integer, got %T", raw)
	}

	if id < 1 {
		return 0, pipeline.Validationf("batch_id", "batch id must be positive, got %d", id)
	}
	return id, nil
}
