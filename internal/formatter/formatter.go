// package formatter renders sweep results to report formats (CSV, Markdown, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/soundsift/soundsift/internal/cleanup"
	"github.com/soundsift/soundsift/internal/matching"
	"github.com/soundsift/soundsift/internal/shared"
)

// ComparisonToCSV renders a comparison result as CSV with one row per source
// track: Status, Title, Artist, SourceID, TargetID, Confidence.
func ComparisonToCSV(result *matching.ComparisonResult) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Status", "Title", "Artist", "SourceID", "TargetID", "Confidence"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, m := range result.Matches {
		record := []string{
			"matched",
			m.Source.Title,
			m.Source.Artist(),
			m.Source.NativeID,
			m.Target.NativeID,
			strconv.FormatFloat(m.Confidence, 'f', 3, 64),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	for _, t := range result.Missing {
		record := []string{"missing", t.Title, t.Artist(), t.NativeID, "", ""}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ComparisonToMarkdown renders a comparison result as a Markdown report.
func ComparisonToMarkdown(result *matching.ComparisonResult) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Catalog Comparison\n\n")
	buf.WriteString(fmt.Sprintf("**Matched**: %d\n", len(result.Matches)))
	buf.WriteString(fmt.Sprintf("**Missing**: %d\n", len(result.Missing)))
	buf.WriteString(fmt.Sprintf("**Skipped**: %d\n", len(result.Skipped)))
	buf.WriteString(fmt.Sprintf("**Match rate**: %.1f%%\n\n", result.MatchRate*100))

	if len(result.Missing) > 0 {
		buf.WriteString("## Missing from target\n\n")
		for i, t := range result.Missing {
			duration := ""
			if t.Duration > 0 {
				duration = fmt.Sprintf(" [%s]", shared.FormatDuration(t.Duration))
			}
			buf.WriteString(fmt.Sprintf("%d. %s - %s%s\n", i+1, t.Artist(), t.Title, duration))
		}
		buf.WriteString("\n")
	}

	if len(result.Skipped) > 0 {
		buf.WriteString("## Skipped records\n\n")
		for _, s := range result.Skipped {
			buf.WriteString(fmt.Sprintf("- row %d (%s): %v\n", s.Index, s.Track.Title, s.Err))
		}
	}

	return buf.Bytes()
}

// DuplicatesToCSV renders a duplicate report as CSV with one row per group
// member: Group, Role, Title, Artist, Album, Duration, NativeID.
func DuplicatesToCSV(report *matching.DuplicateReport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Group", "Role", "Title", "Artist", "Album", "Duration", "NativeID"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for i, group := range report.Groups {
		for rank, t := range group.Ranked {
			role := "loser"
			if rank == 0 {
				role = "winner"
			}
			record := []string{
				strconv.Itoa(i + 1),
				role,
				t.Title,
				t.Artist(),
				t.Album,
				strconv.Itoa(t.Duration),
				t.NativeID,
			}
			if err := writer.Write(record); err != nil {
				return nil, fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// DuplicatesToMarkdown renders a duplicate report as a Markdown report.
func DuplicatesToMarkdown(report *matching.DuplicateReport) []byte {
	var buf bytes.Buffer

	buf.WriteString("# Duplicate Scan\n\n")
	buf.WriteString(fmt.Sprintf("**Groups**: %d\n\n", len(report.Groups)))

	for i, group := range report.Groups {
		buf.WriteString(fmt.Sprintf("## Group %d\n\n", i+1))
		for rank, t := range group.Ranked {
			marker := ""
			if rank == 0 {
				marker = " (keep)"
			}
			album := ""
			if t.Album != "" {
				album = fmt.Sprintf(" (%s)", t.Album)
			}
			buf.WriteString(fmt.Sprintf("%d. %s - %s%s [%s]%s\n", rank+1, t.Artist(), t.Title, album, shared.FormatDuration(t.Duration), marker))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes()
}

// PlanToMarkdown renders a cleanup plan as a human-reviewable Markdown report.
func PlanToMarkdown(plan *cleanup.Plan) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# Cleanup Plan %s\n\n", plan.ID))
	buf.WriteString(fmt.Sprintf("**Generated**: %s\n", plan.GeneratedAt.Format("2006-01-02 15:04:05 MST")))
	buf.WriteString(fmt.Sprintf("**Mode**: %s\n", plan.Policy.Mode))
	buf.WriteString(fmt.Sprintf("**Dry run**: %t\n", plan.DryRun))
	buf.WriteString(fmt.Sprintf("**Actions**: %d\n\n", len(plan.Actions)))

	for i, a := range plan.Actions {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, a))
	}

	return buf.Bytes()
}

// ToJSON marshals any report value with indentation for file output.
func ToJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal report: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteReport writes report data into dir, creating it when needed, and
// returns the full path.
func WriteReport(dir, filename string, data []byte) (string, error) {
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	path := filepath.Join(dir, filename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return path, nil
}
