// Package report aggregates per-node optimization stats into per-file and
// per-run summaries, renders them as text or JSON, and optionally
// publishes them to NATS.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"

	"github.com/c360studio/semtrim/listing"
	"github.com/c360studio/semtrim/optimize"
)

// FileReport summarizes what the passes did to one file.
type FileReport struct {
	Path         string `json:"path"`
	Language     string `json:"language,omitempty"`
	TokensBefore int    `json:"tokens_before"`
	TokensAfter  int    `json:"tokens_after"`
	TokensSaved  int    `json:"tokens_saved"`
	// Decisions counts node outcomes by decision name.
	Decisions map[string]int `json:"decisions,omitempty"`
	// Nodes holds the per-node records, in document order.
	Nodes []optimize.NodeStat `json:"nodes,omitempty"`
	Error string              `json:"error,omitempty"`
}

// Report summarizes one run over a set of files.
type Report struct {
	RunID        string       `json:"run_id"`
	StartedAt    time.Time    `json:"started_at"`
	ElapsedMS    int64        `json:"elapsed_ms"`
	Encoding     string       `json:"encoding"`
	Files        []FileReport `json:"files"`
	FilesTotal   int          `json:"files_total"`
	FilesFailed  int          `json:"files_failed"`
	TokensBefore int          `json:"tokens_before"`
	TokensAfter  int          `json:"tokens_after"`
	TokensSaved  int          `json:"tokens_saved"`
}

// FromDocument builds a run report from an assembled listing. started is
// when the run began; the elapsed time is taken against the wall clock.
func FromDocument(doc *listing.Document, encoding string, started time.Time) *Report {
	r := &Report{
		RunID:     uuid.NewString(),
		StartedAt: started.UTC(),
		ElapsedMS: time.Since(started).Milliseconds(),
		Encoding:  encoding,
	}
	for _, res := range doc.Files {
		fr := FromFileResult(res)
		r.Files = append(r.Files, fr)
		r.FilesTotal++
		if fr.Error != "" {
			r.FilesFailed++
		}
		r.TokensBefore += fr.TokensBefore
		r.TokensAfter += fr.TokensAfter
	}
	r.TokensSaved = r.TokensBefore - r.TokensAfter
	return r
}

// FromFileResult summarizes a single file's optimization outcome
func FromFileResult(res listing.FileResult) FileReport {
	fr := FileReport{
		Path:         res.File.Rel,
		Language:     res.Language,
		TokensBefore: res.TokensBefore,
		TokensAfter:  res.TokensAfter,
		TokensSaved:  res.Saved(),
		Nodes:        res.Stats,
	}
	if len(res.Stats) > 0 {
		fr.Decisions = make(map[string]int)
		for _, s := range res.Stats {
			fr.Decisions[s.Decision]++
		}
	}
	if res.Err != nil {
		fr.Error = res.Err.Error()
	}
	return fr
}

// SavedPercent returns the saved fraction of the original tokens, in
// percent. Zero input tokens report zero.
func (r *Report) SavedPercent() float64 {
	if r.TokensBefore == 0 {
		return 0
	}
	return float64(r.TokensSaved) / float64(r.TokensBefore) * 100
}

// RenderText writes the human-readable summary: one aligned line per file
// and a totals line.
func (r *Report) RenderText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "run %s (%s)\n", r.RunID, r.Encoding); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	for _, f := range r.Files {
		suffix := ""
		if f.Error != "" {
			suffix = "\terror: " + f.Error
		}
		fmt.Fprintf(tw, "  %s\t%d -> %d\t-%d%s\n", f.Path, f.TokensBefore, f.TokensAfter, f.TokensSaved, suffix)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "files: %d (%d failed)  tokens: %d -> %d  saved: %d (%.1f%%)\n",
		r.FilesTotal, r.FilesFailed, r.TokensBefore, r.TokensAfter, r.TokensSaved, r.SavedPercent())
	return err
}

// RenderJSON writes the report as indented JSON.
func (r *Report) RenderJSON(w io.Writer) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling report: %w", err)
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}

// Render writes the report in the named format ("text" or "json"; empty
// means text).
func (r *Report) Render(w io.Writer, format string) error {
	switch format {
	case "", "text":
		return r.RenderText(w)
	case "json":
		return r.RenderJSON(w)
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}
