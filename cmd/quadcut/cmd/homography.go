package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/MeKo-Tech/quadcut/internal/batch"
	"github.com/MeKo-Tech/quadcut/internal/linalg"
	"github.com/MeKo-Tech/quadcut/internal/metrics"
	"github.com/MeKo-Tech/quadcut/internal/rectify"
	"github.com/MeKo-Tech/quadcut/internal/utils"
	"github.com/spf13/cobra"
)

// collinearEpsilon is the relative tolerance for the degenerate-quad warning.
const collinearEpsilon = 1e-9

type homographyOptions struct {
	src     string
	dst     string
	width   float64
	height  float64
	fit     bool
	apply   string
	inverse bool
}

// homographyReport is the structured (json/yaml) form of the command output.
type homographyReport struct {
	Matrix    batch.MatrixRecord  `json:"matrix" yaml:"matrix"`
	Condition batch.Number        `json:"condition" yaml:"condition"`
	Width     float64             `json:"width,omitempty" yaml:"width,omitempty"`
	Height    float64             `json:"height,omitempty" yaml:"height,omitempty"`
	Inverse   *batch.MatrixRecord `json:"inverse,omitempty" yaml:"inverse,omitempty"`
	Mapped    []mappedPoint       `json:"mapped,omitempty" yaml:"mapped,omitempty"`
}

type mappedPoint struct {
	From pointRecord `json:"from" yaml:"from"`
	To   pointRecord `json:"to" yaml:"to"`
}

func newHomographyCommand(root *rootOptions) *cobra.Command {
	opts := &homographyOptions{}

	cmd := &cobra.Command{
		Use:   "homography",
		Short: "Compute the homography mapping four source points onto four destination points",
		Long: `Compute the 3x3 projective matrix H with h9 = 1 that maps each source
point onto the matching destination point. The destination is either four
explicit points (--dst) or the rectangle (0,0)-(W,H) given by --width and
--height, listed clockwise from the top-left corner. With --fit the corners
are put in that order and the rectangle size is taken from the mean lengths
of opposite edges.

Examples:
  quadcut homography --src "0,0 1,0 1,1 0,1" --dst "0,0 2,0 2,2 0,2"
  quadcut homography --src "10,12 410,20 400,600 5,590" --width 400 --height 580 --inverse
  quadcut homography --src "0,0 1,0 1,1 0,1" --width 10 --height 10 --apply "0.5,0.5"
  quadcut homography --src "400,600 10,12 5,590 410,20" --fit`,
		Args: cobra.NoArgs,
	}
	cmd.RunE = root.withMetrics(func(cmd *cobra.Command, _ []string) error {
		return runHomography(cmd, root, opts)
	})

	f := cmd.Flags()
	f.StringVar(&opts.src, "src", "", "four source points \"x,y x,y x,y x,y\"")
	f.StringVar(&opts.dst, "dst", "", "four destination points \"x,y x,y x,y x,y\"")
	f.Float64Var(&opts.width, "width", 0, "target rectangle width (instead of --dst)")
	f.Float64Var(&opts.height, "height", 0, "target rectangle height (instead of --dst)")
	f.BoolVar(&opts.fit, "fit", false, "order the corners and size the target rectangle from the quad")
	f.StringVar(&opts.apply, "apply", "", "points to map through the homography")
	f.BoolVar(&opts.inverse, "inverse", false, "also print the inverse homography")
	_ = cmd.MarkFlagRequired("src")
	cmd.MarkFlagsMutuallyExclusive("dst", "width")
	cmd.MarkFlagsMutuallyExclusive("dst", "height")
	cmd.MarkFlagsMutuallyExclusive("fit", "dst")
	cmd.MarkFlagsMutuallyExclusive("fit", "width")
	cmd.MarkFlagsMutuallyExclusive("fit", "height")

	return cmd
}

func runHomography(cmd *cobra.Command, root *rootOptions, opts *homographyOptions) error {
	cfg := root.cfg
	solver, err := cfg.ToSolverConfig()
	if err != nil {
		return err
	}

	src, err := utils.ParsePoints(opts.src)
	if err != nil {
		return fmt.Errorf("invalid --src: %w", err)
	}
	if utils.HasCollinearTriple(src, collinearEpsilon) {
		slog.Warn("source points contain a collinear triple, the system is singular or ill-conditioned", "src", opts.src)
	} else if len(src) == rectify.Correspondences && !opts.fit && !utils.IsConvex(src) {
		if len(utils.ConvexHull(src)) < rectify.Correspondences {
			slog.Warn("source quad is concave, one corner lies inside the triangle of the others", "src", opts.src)
		} else {
			slog.Warn("source quad is not convex in the given corner order, --fit reorders it", "src", opts.src)
		}
	}

	var (
		h             rectify.Homography
		dst           []utils.Point
		width, height float64
	)
	switch {
	case opts.fit:
		h, err = observeHomography(func() (rectify.Homography, error) {
			fitted, w, ht, fitErr := rectify.QuadToFittedRect(src, solver)
			width, height = w, ht
			return fitted, fitErr
		})
		if err != nil {
			return err
		}
		src = utils.OrderQuad(src)
		dst = rectify.RectCorners(width, height)
		slog.Debug("fitted target rectangle", "width", width, "height", height)
	case opts.dst != "":
		dst, err = utils.ParsePoints(opts.dst)
		if err != nil {
			return fmt.Errorf("invalid --dst: %w", err)
		}
	case cmd.Flags().Changed("width") || cmd.Flags().Changed("height"):
		if !(opts.width > 0) || !(opts.height > 0) {
			return fmt.Errorf("%w: --width and --height must both be positive", linalg.ErrInvalidInput)
		}
		width, height = opts.width, opts.height
		dst = rectify.RectCorners(width, height)
	default:
		return errors.New("either --dst, --width and --height, or --fit is required")
	}

	if !opts.fit {
		h, err = observeHomography(func() (rectify.Homography, error) {
			return rectify.ComputeHomographyWithConfig(src, dst, solver)
		})
		if err != nil {
			return err
		}
	}

	report := homographyReport{
		Matrix:    batch.NewMatrixRecord(h, cfg.Output.Precision),
		Condition: batch.Number(conditionNumber(src, dst)),
		Width:     batch.Round(width, cfg.Output.Precision),
		Height:    batch.Round(height, cfg.Output.Precision),
	}

	var inv *rectify.Homography
	if opts.inverse {
		hi, err := h.Inverse()
		if err != nil {
			return fmt.Errorf("invert homography: %w", err)
		}
		m := batch.NewMatrixRecord(hi, cfg.Output.Precision)
		report.Inverse = &m
		inv = &hi
	}

	if opts.apply != "" {
		pts, err := utils.ParsePoints(opts.apply)
		if err != nil {
			return fmt.Errorf("invalid --apply: %w", err)
		}
		mapped, err := h.ApplyAll(pts)
		if err != nil {
			return err
		}
		for i, p := range pts {
			report.Mapped = append(report.Mapped, mappedPoint{
				From: newPointRecord(p, cfg.Output.Precision),
				To:   newPointRecord(mapped[i], cfg.Output.Precision),
			})
		}
	}

	out, err := formatHomography(h, inv, report, cfg.Output.Format, cfg.Output.Precision)
	if err != nil {
		return err
	}
	return writeOutput(cmd, cfg, out)
}

// observeHomography runs compute and records its outcome in the metrics.
func observeHomography(compute func() (rectify.Homography, error)) (rectify.Homography, error) {
	start := time.Now()
	h, err := compute()
	metrics.ObserveHomography(time.Since(start), err)
	return h, err
}

// conditionNumber reports the 2-norm condition number of the DLT system,
// NaN when it cannot be computed.
func conditionNumber(src, dst []utils.Point) float64 {
	a, _, err := rectify.BuildSystem(src, dst)
	if err != nil {
		return math.NaN()
	}
	c, err := linalg.ConditionNumber(a)
	if err != nil {
		slog.Debug("condition number unavailable", "error", err)
		return math.NaN()
	}
	return c
}

func formatHomography(h rectify.Homography, inv *rectify.Homography, report homographyReport, format string, precision int) (string, error) {
	switch format {
	case "json", "yaml":
		return encodeStructured(format, report)
	case "csv":
		return batch.Format([]batch.Result{{Name: "homography", Homography: h}}, "csv", precision)
	}

	var sb strings.Builder
	sb.WriteString("H =\n")
	sb.WriteString(batch.FormatMatrixText(h, precision, "  "))
	if report.Width > 0 {
		fmt.Fprintf(&sb, "target: %.*fx%.*f\n", precision, report.Width, precision, report.Height)
	}
	fmt.Fprintf(&sb, "condition number: %.4g\n", float64(report.Condition))
	if inv != nil {
		sb.WriteString("H^-1 =\n")
		sb.WriteString(batch.FormatMatrixText(*inv, precision, "  "))
	}
	for _, m := range report.Mapped {
		fmt.Fprintf(&sb, "%s -> %s\n", formatPoint(m.From, precision), formatPoint(m.To, precision))
	}
	return sb.String(), nil
}

func formatPoint(p pointRecord, precision int) string {
	return fmt.Sprintf("%.*f,%.*f", precision, float64(p.X), precision, float64(p.Y))
}
