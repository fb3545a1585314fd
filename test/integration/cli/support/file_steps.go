package support

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MeKo-Tech/quadcut/internal/testutil"
	"github.com/cucumber/godog"
)

// RegisterFileSteps registers steps that create and inspect files.
func (testCtx *TestContext) RegisterFileSteps(sc *godog.ScenarioContext) {
	sc.Step(`^a job file "([^"]*)" with the sample jobs$`, testCtx.aJobFileWithTheSampleJobs)
	sc.Step(`^a file "([^"]*)" containing:$`, testCtx.aFileContaining)
	sc.Step(`^the file "([^"]*)" should exist$`, testCtx.theFileShouldExist)
	sc.Step(`^the file "([^"]*)" should contain "([^"]*)"$`, testCtx.theFileShouldContain)
}

func (testCtx *TestContext) writeFile(name, content string) error {
	path := testCtx.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", path, err)
	}
	return os.WriteFile(path, []byte(content), 0o600)
}

func (testCtx *TestContext) aJobFileWithTheSampleJobs(name string) error {
	return testCtx.writeFile(name, testutil.SampleJobsYAML)
}

func (testCtx *TestContext) aFileContaining(name string, content *godog.DocString) error {
	return testCtx.writeFile(name, content.Content)
}

func (testCtx *TestContext) theFileShouldExist(name string) error {
	if !testutil.FileExists(testCtx.Path(name)) {
		return fmt.Errorf("file %s does not exist", testCtx.Path(name))
	}
	return nil
}

func (testCtx *TestContext) theFileShouldContain(name, text string) error {
	data, err := os.ReadFile(testCtx.Path(name))
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if !strings.Contains(string(data), text) {
		return fmt.Errorf("file %s does not contain %q:\n%s", name, text, data)
	}
	return nil
}
