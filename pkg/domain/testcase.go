package domain

// TestCase is a saved expectation for a single node: run it with InputContext
// and check the output text.
type TestCase struct {
	ID                  string            `json:"id"`
	Name                string            `json:"name"`
	InputContext        map[string]string `json:"inputContext,omitempty"`
	ExpectedContains    []string          `json:"expectedContains,omitempty"`
	ExpectedNotContains []string          `json:"expectedNotContains,omitempty"`

	// Assert is an optional boolean expression evaluated over `output` and `text`.
	Assert string `json:"assert,omitempty"`
}

// TestCaseStatus is the verdict of a test case.
type TestCaseStatus string

const (
	TestCasePassed TestCaseStatus = "passed"
	TestCaseFailed TestCaseStatus = "failed"
)

// TestCaseResult is the outcome of one TestCase.
type TestCaseResult struct {
	CaseID     string         `json:"caseId"`
	Name       string         `json:"name"`
	Status     TestCaseStatus `json:"status"`
	Output     any            `json:"output,omitempty"`
	Error      string         `json:"error,omitempty"`
	Failures   []string       `json:"failures,omitempty"`
	DurationMs int64          `json:"durationMs"`
}
