package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/quadcut/internal/utils"
	"gopkg.in/yaml.v3"
)

// ErrInvalidJob is returned for structurally invalid job files.
var ErrInvalidJob = errors.New("batch: invalid job")

// Job is one homography request. Either Destination is set, or Width and
// Height describe the target rectangle.
type Job struct {
	Name        string
	Source      []utils.Point
	Destination []utils.Point
	Width       float64
	Height      float64
}

// jobFile mirrors the on-disk layout. JSON parses too since YAML is a superset.
type jobFile struct {
	Jobs []jobEntry `yaml:"jobs"`
}

type jobEntry struct {
	Name        string      `yaml:"name"`
	Source      [][]float64 `yaml:"source"`
	Destination [][]float64 `yaml:"destination"`
	Width       float64     `yaml:"width"`
	Height      float64     `yaml:"height"`
}

// LoadJobs reads and validates a single job file. Unnamed jobs are named
// after the file, e.g. "pages-2".
func LoadJobs(path string) ([]Job, error) {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the command line
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}
	prefix := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	jobs, err := parseJobs(data, prefix)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return jobs, nil
}

// LoadJobFiles loads every file and checks names are unique across all of them.
func LoadJobFiles(paths []string) ([]Job, error) {
	var all []Job
	for _, p := range paths {
		jobs, err := LoadJobs(p)
		if err != nil {
			return nil, err
		}
		all = append(all, jobs...)
	}
	if err := checkUniqueNames(all); err != nil {
		return nil, err
	}
	return all, nil
}

// ParseJobs decodes a job document. Unnamed jobs become "job-<n>".
func ParseJobs(data []byte) ([]Job, error) {
	return parseJobs(data, "job")
}

func parseJobs(data []byte, prefix string) ([]Job, error) {
	var f jobFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidJob, err)
	}
	if len(f.Jobs) == 0 {
		return nil, fmt.Errorf("%w: no jobs defined", ErrInvalidJob)
	}

	jobs := make([]Job, 0, len(f.Jobs))
	for i, entry := range f.Jobs {
		job, err := entry.toJob()
		if err != nil {
			return nil, fmt.Errorf("job %d: %w", i+1, err)
		}
		if job.Name == "" {
			job.Name = fmt.Sprintf("%s-%d", prefix, i+1)
		}
		jobs = append(jobs, job)
	}

	if err := checkUniqueNames(jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}

func (s jobEntry) toJob() (Job, error) {
	src, err := utils.FromPairs(s.Source)
	if err != nil {
		return Job{}, fmt.Errorf("%w: source: %w", ErrInvalidJob, err)
	}
	if len(src) == 0 {
		return Job{}, fmt.Errorf("%w: source points missing", ErrInvalidJob)
	}

	job := Job{Name: strings.TrimSpace(s.Name), Source: src, Width: s.Width, Height: s.Height}

	hasRect := s.Width != 0 || s.Height != 0
	switch {
	case len(s.Destination) > 0 && hasRect:
		return Job{}, fmt.Errorf("%w: give either destination or width/height, not both", ErrInvalidJob)
	case len(s.Destination) > 0:
		dst, err := utils.FromPairs(s.Destination)
		if err != nil {
			return Job{}, fmt.Errorf("%w: destination: %w", ErrInvalidJob, err)
		}
		job.Destination = dst
	case !hasRect:
		return Job{}, fmt.Errorf("%w: destination or width/height required", ErrInvalidJob)
	}

	return job, nil
}

func checkUniqueNames(jobs []Job) error {
	seen := make(map[string]struct{}, len(jobs))
	for _, j := range jobs {
		if _, dup := seen[j.Name]; dup {
			return fmt.Errorf("%w: duplicate job name %q", ErrInvalidJob, j.Name)
		}
		seen[j.Name] = struct{}{}
	}
	return nil
}
