package cmd

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/quadcut/internal/batch"
	"github.com/MeKo-Tech/quadcut/internal/linalg"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// systemFile is the on-disk form of A·x = b.
type systemFile struct {
	A [][]float64 `yaml:"a"`
	B []float64   `yaml:"b"`
}

type solveReport struct {
	X            []batch.Number `json:"x" yaml:"x"`
	ResidualNorm batch.Number   `json:"residual_norm" yaml:"residual_norm"`
	Condition    batch.Number   `json:"condition" yaml:"condition"`
}

func newSolveCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "solve FILE",
		Short: "Solve a square linear system A·x = b read from a YAML or JSON file",
		Long: `Solve A·x = b with Gaussian elimination and partial pivoting. FILE holds
the coefficient matrix and right-hand side:

  a: [[2, 1], [1, 3]]
  b: [3, 5]

The solution is printed with the residual norm |A·x - b| and the condition number of A.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.RunE = root.withMetrics(func(cmd *cobra.Command, args []string) error {
		return runSolve(cmd, root, args[0])
	})
	return cmd
}

func runSolve(cmd *cobra.Command, root *rootOptions, path string) error {
	cfg := root.cfg
	solver, err := cfg.ToSolverConfig()
	if err != nil {
		return err
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return fmt.Errorf("read system file: %w", err)
	}
	var sys systemFile
	if err := yaml.Unmarshal(data, &sys); err != nil {
		return fmt.Errorf("%w: %s: %w", linalg.ErrInvalidInput, path, err)
	}

	x, err := linalg.SolveWithConfig(sys.A, sys.B, solver)
	if err != nil {
		return err
	}

	norm, err := linalg.ResidualNorm(sys.A, x, sys.B)
	if err != nil {
		return err
	}
	cond, err := linalg.ConditionNumber(sys.A)
	if err != nil {
		return err
	}

	prec := cfg.Output.Precision
	report := solveReport{ResidualNorm: batch.Number(norm), Condition: batch.Number(cond)}
	for _, v := range x {
		report.X = append(report.X, batch.Number(batch.Round(v, prec)))
	}

	var out string
	switch cfg.Output.Format {
	case "json", "yaml":
		out, err = encodeStructured(cfg.Output.Format, report)
	case "csv":
		out, err = solveCSV(x, prec)
	default:
		var sb strings.Builder
		for i, v := range x {
			fmt.Fprintf(&sb, "x[%d] = %s\n", i, strconv.FormatFloat(batch.Round(v, prec), 'f', prec, 64))
		}
		fmt.Fprintf(&sb, "residual norm: %.3g\n", norm)
		fmt.Fprintf(&sb, "condition number: %.4g\n", cond)
		out = sb.String()
	}
	if err != nil {
		return err
	}
	return writeOutput(cmd, cfg, out)
}

func solveCSV(x []float64, precision int) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"index", "x"}); err != nil {
		return "", err
	}
	for i, v := range x {
		if err := w.Write([]string{strconv.Itoa(i), strconv.FormatFloat(batch.Round(v, precision), 'f', precision, 64)}); err != nil {
			return "", err
		}
	}
	w.Flush()
	return buf.String(), w.Error()
}
