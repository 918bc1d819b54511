package miot

import (
	"context"
	"sync"
)

// Call records one invocation seen by MockRunner
type Call struct {
	Name string
	Args []string
}

// MockRunner implements Runner for testing. Responses are chosen by the
// first argument ("get" or "set"); Block makes every call wait for its
// context to end.
type MockRunner struct {
	mu        sync.Mutex
	calls     []Call
	responses map[string]Result
	errs      map[string]error
	Block     bool
}

// NewMockRunner creates a runner that answers every call with exit code 0
func NewMockRunner() *MockRunner {
	return &MockRunner{
		responses: make(map[string]Result),
		errs:      make(map[string]error),
	}
}

// SetResponse scripts the result for an operation ("get" or "set")
func (m *MockRunner) SetResponse(op string, result Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[op] = result
}

// SetError scripts a runner error for an operation
func (m *MockRunner) SetError(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[op] = err
}

// Calls returns a copy of the recorded invocations
func (m *MockRunner) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallsFor returns the recorded invocations for one operation
func (m *MockRunner) CallsFor(op string) []Call {
	var out []Call
	for _, c := range m.Calls() {
		if len(c.Args) > 0 && c.Args[0] == op {
			out = append(out, c)
		}
	}
	return out
}

// Run records the call and returns the scripted result
func (m *MockRunner) Run(ctx context.Context, name string, args []string) (Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Name: name, Args: append([]string(nil), args...)})
	op := ""
	if len(args) > 0 {
		op = args[0]
	}
	result := m.responses[op]
	err := m.errs[op]
	block := m.Block
	m.mu.Unlock()

	if block {
		<-ctx.Done()
		return Result{ExitCode: -1}, ctx.Err()
	}
	return result, err
}
