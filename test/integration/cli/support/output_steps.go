package support

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/cucumber/godog"
)

// RegisterOutputSteps registers steps that inspect command output.
func (testCtx *TestContext) RegisterOutputSteps(sc *godog.ScenarioContext) {
	sc.Step(`^the output should contain "([^"]*)"$`, testCtx.theOutputShouldContain)
	sc.Step(`^the output should not contain "([^"]*)"$`, testCtx.theOutputShouldNotContain)
	sc.Step(`^the error should mention "([^"]*)"$`, testCtx.theErrorShouldMention)
	sc.Step(`^a warning should be logged about "([^"]*)"$`, testCtx.aWarningShouldBeLoggedAbout)
	sc.Step(`^the output should be valid JSON$`, testCtx.theOutputShouldBeValidJSON)
	sc.Step(`^the matrix entry h(\d) should be approximately (-?[\d.]+(?:[eE][-+]?\d+)?)$`, testCtx.theMatrixEntryShouldBeApproximately)
}

func (testCtx *TestContext) theOutputShouldContain(text string) error {
	if !strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output does not contain %q:\n%s", text, testCtx.LastOutput)
	}
	return nil
}

func (testCtx *TestContext) theOutputShouldNotContain(text string) error {
	if strings.Contains(testCtx.LastOutput, text) {
		return fmt.Errorf("output unexpectedly contains %q:\n%s", text, testCtx.LastOutput)
	}
	return nil
}

// theErrorShouldMention checks the returned error and stderr.
func (testCtx *TestContext) theErrorShouldMention(text string) error {
	if testCtx.LastError == nil {
		return fmt.Errorf("expected an error mentioning %q, command succeeded", text)
	}
	combined := strings.ToLower(testCtx.LastError.Error() + "\n" + testCtx.LastStderr)
	if !strings.Contains(combined, strings.ToLower(text)) {
		return fmt.Errorf("error does not mention %q: %v\nstderr: %s", text, testCtx.LastError, testCtx.LastStderr)
	}
	return nil
}

// aWarningShouldBeLoggedAbout looks for a WARN record in the JSON log on stderr.
func (testCtx *TestContext) aWarningShouldBeLoggedAbout(text string) error {
	for _, line := range strings.Split(testCtx.LastStderr, "\n") {
		if strings.Contains(line, `"level":"WARN"`) && strings.Contains(line, text) {
			return nil
		}
	}
	return fmt.Errorf("no warning about %q logged:\n%s", text, testCtx.LastStderr)
}

func (testCtx *TestContext) theOutputShouldBeValidJSON() error {
	if !json.Valid([]byte(testCtx.LastOutput)) {
		return fmt.Errorf("output is not valid JSON:\n%s", testCtx.LastOutput)
	}
	return nil
}

// theMatrixEntryShouldBeApproximately reads h1..h9 from JSON homography output.
func (testCtx *TestContext) theMatrixEntryShouldBeApproximately(index int, want float64) error {
	var report struct {
		Matrix [3][3]float64 `json:"matrix"`
	}
	if err := json.Unmarshal([]byte(testCtx.LastOutput), &report); err != nil {
		return fmt.Errorf("output is not a JSON homography: %w", err)
	}
	if index < 1 || index > 9 {
		return fmt.Errorf("matrix entry h%d does not exist", index)
	}
	got := report.Matrix[(index-1)/3][(index-1)%3]
	if math.Abs(got-want) > 1e-6 {
		return fmt.Errorf("h%d = %g, want %g", index, got, want)
	}
	return nil
}
