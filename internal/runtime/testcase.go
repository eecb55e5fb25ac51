package runtime

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/weft/pkg/domain"
	"github.com/expr-lang/expr"
	json "github.com/goccy/go-json"
)

// RunTestCases executes node once per saved test case and checks the output.
//
// Each case context comes from its InputContext, grouped like manual run
// inputs. A case passes when the node succeeds, every ExpectedContains string
// occurs in the output text, no ExpectedNotContains string does, and Assert
// (when set) evaluates to true. Only a missing executor or a canceled ctx
// return an error; everything else is a failed case.
func (e *Engine) RunTestCases(ctx context.Context, node domain.Node) ([]domain.TestCaseResult, error) {
	if e.executor == nil {
		return nil, domain.ErrNoExecutor
	}
	if node.Model == "" {
		node.Model = e.defaultModel
	}

	results := make([]domain.TestCaseResult, 0, len(node.TestCases))
	for _, tc := range node.TestCases {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("%w: %v", domain.ErrRunCanceled, err)
		}
		res := e.runCase(ctx, node, tc)
		e.logger.Info("test case finished", "node_id", node.ID, "case_id", tc.ID, "status", res.Status)
		results = append(results, res)
	}
	return results, nil
}

func (e *Engine) runCase(ctx context.Context, node domain.Node, tc domain.TestCase) domain.TestCaseResult {
	res := domain.TestCaseResult{CaseID: tc.ID, Name: tc.Name, Status: domain.TestCaseFailed}

	inputs := make(map[domain.VariableReference]string, len(tc.InputContext))
	for k, v := range tc.InputContext {
		inputs[domain.VariableReference(k)] = v
	}
	inputs, err := SanitizeInputs(inputs)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	start := time.Now()
	resp, err := e.executor.Execute(ctx, domain.ExecutionRequest{
		Node:    node,
		Context: domain.ContextFromInputs(inputs).Map(),
	})
	res.DurationMs = time.Since(start).Milliseconds()

	switch {
	case err != nil:
		res.Error = err.Error()
		return res
	case !resp.Success:
		res.Error = resp.Error
		if res.Error == "" {
			res.Error = MsgUnknownError
		}
		return res
	}

	res.Output = resp.Output
	res.Failures = CheckOutput(tc, resp.Output)
	if len(res.Failures) == 0 {
		res.Status = domain.TestCasePassed
	}
	return res
}

// CheckOutput returns the expectations of tc that output does not meet.
func CheckOutput(tc domain.TestCase, output any) []string {
	text := OutputText(output)

	var failures []string
	for _, want := range tc.ExpectedContains {
		if !strings.Contains(text, want) {
			failures = append(failures, fmt.Sprintf("expected output to contain %q", want))
		}
	}
	for _, unwanted := range tc.ExpectedNotContains {
		if strings.Contains(text, unwanted) {
			failures = append(failures, fmt.Sprintf("expected output not to contain %q", unwanted))
		}
	}
	if tc.Assert != "" {
		ok, err := Assert(tc.Assert, output, text)
		switch {
		case err != nil:
			failures = append(failures, fmt.Sprintf("assert %q: %v", tc.Assert, err))
		case !ok:
			failures = append(failures, fmt.Sprintf("assert %q is false", tc.Assert))
		}
	}
	return failures
}

// Assert evaluates a boolean expression over `output` (the decoded value)
// and `text` (its string form).
func Assert(expression string, output any, text string) (bool, error) {
	env := map[string]any{"output": output, "text": text}
	program, err := expr.Compile(expression, expr.Env(env), expr.AsBool())
	if err != nil {
		return false, err
	}
	v, err := expr.Run(program, env)
	if err != nil {
		return false, err
	}
	b, _ := v.(bool)
	return b, nil
}

// OutputText is the string form used for substring checks: strings as is,
// other values as JSON.
func OutputText(output any) string {
	switch v := output.(type) {
	case nil:
		return ""
	case string:
		return v
	}
	raw, err := json.Marshal(output)
	if err != nil {
		return fmt.Sprint(output)
	}
	return string(raw)
}
