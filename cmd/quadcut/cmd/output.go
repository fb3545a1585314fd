package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MeKo-Tech/quadcut/internal/batch"
	"github.com/MeKo-Tech/quadcut/internal/config"
	"github.com/MeKo-Tech/quadcut/internal/utils"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// pointRecord is a point that can hold NaN/Inf in JSON output.
type pointRecord struct {
	X batch.Number `json:"x" yaml:"x"`
	Y batch.Number `json:"y" yaml:"y"`
}

func newPointRecord(p utils.Point, precision int) pointRecord {
	return pointRecord{X: batch.Number(batch.Round(p.X, precision)), Y: batch.Number(batch.Round(p.Y, precision))}
}

// encodeStructured encodes v as JSON or YAML.
func encodeStructured(format string, v any) (string, error) {
	switch format {
	case "json":
		bts, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		return string(bts) + "\n", nil
	case "yaml":
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return "", err
		}
		if err := enc.Close(); err != nil {
			return "", err
		}
		return buf.String(), nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

// writeOutput writes out to output.file when configured, to stdout otherwise.
func writeOutput(cmd *cobra.Command, cfg *config.Config, out string) error {
	if cfg.Output.File == "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), out)
		return err
	}

	if dir := filepath.Dir(cfg.Output.File); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(cfg.Output.File, []byte(out), 0o600); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	slog.Info("results written", "file", cfg.Output.File)
	return nil
}
