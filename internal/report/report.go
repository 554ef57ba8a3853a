package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Summary holds the live counters maintained by Record folding.
// total == passed+failed+skipped == len(checks) after every fold.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

type RunMetadata struct {
	RunID     string    `json:"run_id"`
	Version   string    `json:"version"`
	Timestamp time.Time `json:"timestamp"`

	// Revision identifies the scanned tree (git HEAD hash or "unknown").
	Revision string `json:"revision"`

	ChartPath      *string `json:"chart_path"`
	DockerfilePath *string `json:"dockerfile_path"`
	ManifestsPath  *string `json:"manifests_path"`
}

// Document is the aggregate record of one verification run: metadata, one
// Record per check, live summary counters, and the optional analysis
// namespace. It is the single source of truth for the run's outcome; exit
// codes, sealing and rendering all read from it.
//
// The Document is owned exclusively by the pipeline for the duration of the
// run. Folding is not safe under concurrent writers; callers running checks
// in parallel must funnel records through a single folding owner.
type Document struct {
	RunMetadata   RunMetadata       `json:"run_metadata"`
	Configuration map[string]any    `json:"configuration"`
	Checks        map[string]Record `json:"checks"`
	Summary       Summary           `json:"summary"`
	Analysis      map[string]any    `json:"analysis,omitempty"`
}

func NewDocument(meta RunMetadata, configuration map[string]any) *Document {
	if configuration == nil {
		configuration = map[string]any{}
	}
	return &Document{
		RunMetadata:   meta,
		Configuration: configuration,
		Checks:        make(map[string]Record),
	}
}

// Record folds one check outcome into the document. A pre-existing record
// with the same name has its counter contribution subtracted before the new
// one is added, so re-recording never double-counts. The record write and
// the counter update are a single logical step.
func (d *Document) Record(rec Record) error {
	if rec.Name == "" {
		return fmt.Errorf("record name must not be empty")
	}
	if !rec.Status.Valid() {
		return fmt.Errorf("record %s has invalid status %q", rec.Name, rec.Status)
	}

	if prev, ok := d.Checks[rec.Name]; ok {
		d.applySummary(prev.Status, -1)
	} else {
		d.Summary.Total++
	}
	d.Checks[rec.Name] = rec
	d.applySummary(rec.Status, +1)
	return nil
}

func (d *Document) applySummary(s Status, delta int) {
	switch s {
	case StatusPass:
		d.Summary.Passed += delta
	case StatusFail:
		d.Summary.Failed += delta
	case StatusSkip:
		d.Summary.Skipped += delta
	}
}

// HasFailures reports whether any check recorded FAIL. Exit code 1 is
// derived from this and nothing else.
func (d *Document) HasFailures() bool {
	for _, rec := range d.Checks {
		if rec.Status == StatusFail {
			return true
		}
	}
	return false
}

// FailedChecks returns FAIL records sorted by name for stable rendering.
func (d *Document) FailedChecks() []Record {
	return d.byStatus(StatusFail)
}

func (d *Document) SkippedChecks() []Record {
	return d.byStatus(StatusSkip)
}

func (d *Document) byStatus(s Status) []Record {
	var out []Record
	for _, rec := range d.Checks {
		if rec.Status == s {
			out = append(out, rec)
		}
	}
	sortRecords(out)
	return out
}

// Marshal serializes the document for persistence and sealing.
func (d *Document) Marshal() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// Persist writes the document atomically under dir at its deterministic,
// timestamp- and revision-qualified filename and returns the path. Called
// after every stage so a crashed or cancelled run still leaves evidence.
func (d *Document) Persist(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create report directory: %w", err)
	}
	path := filepath.Join(dir, d.Filename())
	raw, err := d.Marshal()
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return "", fmt.Errorf("write report: %w", err)
	}
	return path, nil
}

// Filename is stable for the run: qualified by timestamp and tree revision.
func (d *Document) Filename() string {
	rev := d.RunMetadata.Revision
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if rev == "" {
		rev = "unknown"
	}
	return fmt.Sprintf("devguard-report-%s-%s.json", d.RunMetadata.Timestamp.UTC().Format("20060102-150405"), rev)
}

func sortRecords(recs []Record) {
	sort.Slice(recs, func(i, j int) bool { return recs[i].Name < recs[j].Name })
}
