package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"

	"seqpipe/pkg/pipeline"
	"seqpipe/pkg/util/context"
	"seqpipe/pkg/util/maps"
)

// RecordData is one parsed line of a source file.
type RecordData struct {
	Name       string `json:"name" mapstructure:"name"`
	Value      string `json:"value" mapstructure:"value"`
	LineNumber int    `json:"line_number" mapstructure:"line_number"`
}

// ProcessedDoc is the document produced by the split job and consumed by the
// dbwrite job.
type ProcessedDoc struct {
	SourceFile    string       `json:"source_file" mapstructure:"source_file"`
	Records       []RecordData `json:"records" mapstructure:"records"`
	ProcessedAt   time.Time    `json:"processed_at" mapstructure:"processed_at"`
	TotalLines    int          `json:"total_lines" mapstructure:"total_lines"`
	NonEmptyLines int          `json:"non_empty_lines" mapstructure:"non_empty_lines"`
}

type splitConfig struct {
	OutputDir string `mapstructure:"output_dir"`
}

// SplitJob parses a text source file into records and writes the processed
// document as JSON into the output directory. Its output is the document
// itself, not the file.
type SplitJob struct {
	cfg splitConfig
}

// NewSplitJob builds a split job from its configuration map.
func NewSplitJob(cfg map[string]interface{}) (pipeline.Job, error) {
	var c splitConfig
	if err := maps.Decode(cfg, &c); err != nil {
		return nil, errors.Wrap(err, "cannot decode split config")
	}
	if c.OutputDir == "" {
		return nil, errors.New("split job requires output_dir")
	}
	return &SplitJob{cfg: c}, nil
}

// ValidateInput checks that the raw input is a path to an existing source file.
func (j *SplitJob) ValidateInput(ctx context.Context, raw interface{}) (interface{}, error) {
	path, err := ValidateFilePath(raw, allowedSourceExtensions)
	if err != nil {
		return nil, err
	}
	return path, nil
}

// Process reads the source file, turns its non-empty lines into records and
// writes the resulting document next to the output directory.
func (j *SplitJob) Process(ctx context.Context, input interface{}) (interface{}, error) {
	path := input.(string)

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read file %s", path)
	}

	doc := parseContent(string(content), path)

	if err := j.writeDoc(doc, path); err != nil {
		return nil, err
	}
	ctx.Logger().Infof("parsed %d records from %s", len(doc.Records), path)

	return doc, nil
}

func parseContent(content, sourcePath string) ProcessedDoc {
	lines := strings.Split(strings.TrimSpace(content), "\n")
	records := make([]RecordData, 0, len(lines))
	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		records = append(records, RecordData{
			Name:       fmt.Sprintf("record_%d", i),
			Value:      line,
			LineNumber: i + 1,
		})
	}
	return ProcessedDoc{
		SourceFile:    sourcePath,
		Records:       records,
		ProcessedAt:   time.Now().UTC(),
		TotalLines:    len(lines),
		NonEmptyLines: len(records),
	}
}

func (j *SplitJob) writeDoc(doc ProcessedDoc, sourcePath string) error {
	if err := os.MkdirAll(j.cfg.OutputDir, 0o755); err != nil {
		return errors.Wrapf(err, "cannot create output directory %s", j.cfg.OutputDir)
	}

	stem := strings.TrimSuffix(filepath.Base(sourcePath), filepath.Ext(sourcePath))
	outPath := filepath.Join(j.cfg.OutputDir, stem+"_processed.json")

	f, err := os.Create(outPath)
	if err != nil {
		return errors.Wrapf(err, "cannot create output file %s", outPath)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return errors.Wrapf(err, "cannot write output file %s", outPath)
	}
	return nil
}
