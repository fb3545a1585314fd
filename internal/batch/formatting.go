package batch

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/quadcut/internal/rectify"
	"gopkg.in/yaml.v3"
)

// Number is a float64 that keeps NaN and ±Inf readable in JSON and YAML,
// where they are written as the strings "NaN", "+Inf" and "-Inf".
type Number float64

// MarshalJSON implements json.Marshaler.
func (n Number) MarshalJSON() ([]byte, error) {
	if name, ok := n.nonFinite(); ok {
		return []byte(strconv.Quote(name)), nil
	}
	return strconv.AppendFloat(nil, float64(n), 'g', -1, 64), nil
}

// MarshalYAML implements yaml.Marshaler.
func (n Number) MarshalYAML() (interface{}, error) {
	if name, ok := n.nonFinite(); ok {
		return name, nil
	}
	return float64(n), nil
}

func (n Number) nonFinite() (string, bool) {
	v := float64(n)
	switch {
	case math.IsNaN(v):
		return "NaN", true
	case math.IsInf(v, 1):
		return "+Inf", true
	case math.IsInf(v, -1):
		return "-Inf", true
	}
	return "", false
}

// MatrixRecord is the serialised 3x3 form of a homography.
type MatrixRecord [3][3]Number

// NewMatrixRecord rounds h to precision decimals.
func NewMatrixRecord(h rectify.Homography, precision int) MatrixRecord {
	var rec MatrixRecord
	for r, row := range h.Matrix() {
		for c, v := range row {
			rec[r][c] = Number(Round(v, precision))
		}
	}
	return rec
}

// Round rounds v to precision decimals through its decimal representation,
// leaving NaN and Inf untouched.
func Round(v float64, precision int) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(v, 'f', precision, 64), 64)
	if err != nil {
		return v
	}
	if r == 0 {
		// Drop the sign of -0 so output does not show "-0.000000".
		return 0
	}
	return r
}

type resultRecord struct {
	Name       string        `json:"name" yaml:"name"`
	Status     string        `json:"status" yaml:"status"`
	Matrix     *MatrixRecord `json:"matrix,omitempty" yaml:"matrix,omitempty"`
	Error      string        `json:"error,omitempty" yaml:"error,omitempty"`
	DurationMS float64       `json:"duration_ms" yaml:"duration_ms"`
}

type summaryRecord struct {
	Jobs      int `json:"jobs" yaml:"jobs"`
	Succeeded int `json:"succeeded" yaml:"succeeded"`
	Failed    int `json:"failed" yaml:"failed"`
}

type batchRecord struct {
	Results []resultRecord `json:"results" yaml:"results"`
	Summary summaryRecord  `json:"summary" yaml:"summary"`
}

// Format formats the batch results in the specified format: text (default),
// json, yaml or csv.
func Format(results []Result, format string, precision int) (string, error) {
	switch format {
	case "json":
		return formatJSON(results, precision)
	case "yaml":
		return formatYAML(results, precision)
	case "csv":
		return formatCSV(results, precision)
	case "text", "":
		return formatText(results, precision), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

func toBatchRecord(results []Result, precision int) batchRecord {
	rec := batchRecord{Results: make([]resultRecord, len(results))}
	for i, r := range results {
		rr := resultRecord{
			Name:       r.Name,
			Status:     r.Status(),
			DurationMS: Round(float64(r.Duration.Microseconds())/1000, 3),
		}
		if r.Err != nil {
			rr.Error = r.Err.Error()
			rec.Summary.Failed++
		} else {
			m := NewMatrixRecord(r.Homography, precision)
			rr.Matrix = &m
			rec.Summary.Succeeded++
		}
		rec.Results[i] = rr
	}
	rec.Summary.Jobs = len(results)
	return rec
}

// formatJSON formats results as JSON.
func formatJSON(results []Result, precision int) (string, error) {
	bts, err := json.MarshalIndent(toBatchRecord(results, precision), "", "  ")
	return string(bts), err
}

// formatYAML formats results as YAML.
func formatYAML(results []Result, precision int) (string, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(toBatchRecord(results, precision)); err != nil {
		return "", err
	}
	if err := enc.Close(); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatCSV formats results as CSV, one row per job.
func formatCSV(results []Result, precision int) (string, error) {
	header := []string{"name", "status"}
	for i := 1; i <= 9; i++ {
		header = append(header, fmt.Sprintf("h%d", i))
	}
	header = append(header, "error", "duration_ms")

	csvData := [][]string{header}
	for _, r := range results {
		row := []string{r.Name, r.Status()}
		for _, v := range r.Homography {
			if r.Err != nil {
				row = append(row, "")
				continue
			}
			row = append(row, strconv.FormatFloat(Round(v, precision), 'f', precision, 64))
		}
		errText := ""
		if r.Err != nil {
			errText = r.Err.Error()
		}
		row = append(row, errText, strconv.FormatFloat(float64(r.Duration.Microseconds())/1000, 'f', 3, 64))
		csvData = append(csvData, row)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(csvData); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// formatText formats results as human-readable text.
func formatText(results []Result, precision int) string {
	var sb strings.Builder
	failed := 0
	for _, r := range results {
		status := r.Status()
		if r.Err != nil {
			failed++
			fmt.Fprintf(&sb, "[%s] %s: %v\n", status, r.Name, r.Err)
			continue
		}
		fmt.Fprintf(&sb, "[%s] %s\n", status, r.Name)
		sb.WriteString(FormatMatrixText(r.Homography, precision, "    "))
	}
	fmt.Fprintf(&sb, "%d jobs: %d ok, %d failed\n", len(results), len(results)-failed, failed)
	return sb.String()
}

// FormatMatrixText renders h as three right-aligned rows, each prefixed with indent.
func FormatMatrixText(h rectify.Homography, precision int, indent string) string {
	cells := make([]string, 0, len(h))
	width := 0
	for _, v := range h {
		s := strconv.FormatFloat(Round(v, precision), 'f', precision, 64)
		cells = append(cells, s)
		width = max(width, len(s))
	}

	var sb strings.Builder
	for r := range 3 {
		sb.WriteString(indent)
		for c := range 3 {
			if c > 0 {
				sb.WriteString("  ")
			}
			fmt.Fprintf(&sb, "%*s", width, cells[r*3+c])
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
