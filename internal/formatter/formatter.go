// package formatter renders divergence reports as plain text, Markdown, CSV or JSON
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/desertthunder/qsync/internal/models"
	"github.com/desertthunder/qsync/internal/shared"
	"github.com/desertthunder/qsync/internal/tasks"
)

// Format names an output format.
type Format string

const (
	Text     Format = "text"
	Markdown Format = "markdown"
	CSV      Format = "csv"
	JSON     Format = "json"
)

// Formats lists every supported format.
var Formats = []Format{Text, Markdown, CSV, JSON}

// ParseFormat accepts a format name or a common alias ("md", "txt").
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text", "txt":
		return Text, nil
	case "markdown", "md":
		return Markdown, nil
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, name)
	}
}

// Render converts result to format.
func Render(result *tasks.SessionResult, format Format) ([]byte, error) {
	switch format {
	case Text:
		return ExportToText(result)
	case Markdown:
		return ExportToMarkdown(result)
	case CSV:
		return ExportToCSV(result)
	case JSON:
		return ExportToJSON(result)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteReport renders result and writes it to path.
func WriteReport(result *tasks.SessionResult, format Format, path string) error {
	data, err := Render(result, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// ExportToCSV converts a result to CSV with columns: Category, Side, Key
func ExportToCSV(result *tasks.SessionResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"Category", "Side", "Key"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, rep := range result.Reports() {
		for _, side := range models.Sides {
			for _, key := range rep.Only(side) {
				if err := writer.Write([]string{string(rep.Category), side.String(), key}); err != nil {
					return nil, fmt.Errorf("failed to write CSV record: %w", err)
				}
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a result to a Markdown document with one section per category
func ExportToMarkdown(result *tasks.SessionResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Sync report: %s\n\n", result.Device.Label()))
	if result.DryRun {
		buf.WriteString("_Dry run: nothing was changed._\n\n")
	}

	for _, rep := range result.Reports() {
		buf.WriteString(fmt.Sprintf("## %s\n\n", title(rep.Category)))
		if rep.Err != nil {
			buf.WriteString(fmt.Sprintf("**Failed**: %v\n\n", rep.Err))
		}
		if rep.InSync() {
			buf.WriteString("In sync.\n\n")
		}

		for _, side := range models.Sides {
			keys := rep.Only(side)
			if len(keys) == 0 {
				continue
			}
			buf.WriteString(fmt.Sprintf("### Only on %s (%d)\n\n", side.Label(), len(keys)))
			for _, key := range keys {
				buf.WriteString(fmt.Sprintf("- %s\n", key))
			}
			buf.WriteString("\n")
		}

		for _, o := range rep.Decisions {
			buf.WriteString(fmt.Sprintf("**Decision**: %s (%s)\n\n", o.Decision, shared.Pluralize(len(o.Items), noun(rep.Category))))
		}

		if len(rep.Skipped) > 0 {
			buf.WriteString("### Skipped\n\n")
			for _, s := range rep.Skipped {
				buf.WriteString(fmt.Sprintf("- `%s`: %v\n", s.Name, s.Err))
			}
			buf.WriteString("\n")
		}
	}

	return buf.Bytes(), nil
}

// ExportToText converts a result to plain text
func ExportToText(result *tasks.SessionResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Device: %s\n", result.Device.Label()))
	for _, rep := range result.Reports() {
		buf.WriteString(fmt.Sprintf("\n%s\n", title(rep.Category)))
		if rep.Err != nil {
			buf.WriteString(fmt.Sprintf("  failed: %v\n", rep.Err))
			continue
		}
		if rep.InSync() {
			buf.WriteString("  in sync\n")
		}
		for _, side := range models.Sides {
			keys := rep.Only(side)
			if len(keys) == 0 {
				continue
			}
			buf.WriteString(fmt.Sprintf("  only on %s: %d\n", side.Label(), len(keys)))
			for _, key := range keys {
				buf.WriteString(fmt.Sprintf("    %s\n", key))
			}
		}
		for _, s := range rep.Skipped {
			buf.WriteString(fmt.Sprintf("  %v\n", s))
		}
	}

	return buf.Bytes(), nil
}

type jsonOutcome struct {
	Holder   string   `json:"holder"`
	Decision string   `json:"decision"`
	Items    []string `json:"items"`
}

type jsonCategory struct {
	Category   string        `json:"category"`
	OnlyLocal  []string      `json:"only_local"`
	OnlyRemote []string      `json:"only_remote"`
	Decisions  []jsonOutcome `json:"decisions,omitempty"`
	Skipped    []string      `json:"skipped,omitempty"`
	Error      string        `json:"error,omitempty"`
}

type jsonReport struct {
	Device     string         `json:"device"`
	DryRun     bool           `json:"dry_run"`
	Status     string         `json:"status"`
	Categories []jsonCategory `json:"categories"`
	Error      string         `json:"error,omitempty"`
}

// ExportToJSON converts a result to indented JSON
func ExportToJSON(result *tasks.SessionResult) ([]byte, error) {
	out := jsonReport{
		Device:     result.Device.Serial,
		DryRun:     result.DryRun,
		Status:     string(result.Status()),
		Categories: []jsonCategory{},
	}
	if result.Err != nil {
		out.Error = result.Err.Error()
	}

	for _, rep := range result.Reports() {
		c := jsonCategory{Category: string(rep.Category), OnlyLocal: rep.OnlyLocal, OnlyRemote: rep.OnlyRemote}
		for _, o := range rep.Decisions {
			c.Decisions = append(c.Decisions, jsonOutcome{Holder: o.Holder.String(), Decision: o.Decision.String(), Items: o.Items})
		}
		for _, s := range rep.Skipped {
			c.Skipped = append(c.Skipped, s.Name)
		}
		if rep.Err != nil {
			c.Error = rep.Err.Error()
		}
		out.Categories = append(out.Categories, c)
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}
	return append(data, '\n'), nil
}

func title(c tasks.Category) string {
	s := string(c)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func noun(c tasks.Category) string {
	return strings.TrimSuffix(string(c), "s")
}
