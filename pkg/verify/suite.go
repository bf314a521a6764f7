package verify

import (
	"errors"
	"fmt"
	"io"
)

// ErrCaseFailed is returned by RunFailFast when a case mismatches.
var ErrCaseFailed = errors.New("struct check failed")

// Case sets fields on a value and compares what it reads back.
// Returning an error aborts the case, e.g. when an encode step fails.
type Case struct {
	Name string
	Run  func(c *Checker) error
}

// Suite is an ordered list of cases.
type Suite struct {
	cases []Case
}

// Add appends cases to the suite.
func (s *Suite) Add(cases ...Case) {
	s.cases = append(s.cases, cases...)
}

// Len returns the number of cases.
func (s *Suite) Len() int { return len(s.cases) }

// Run executes every case, printing one line per mismatched field and an OK
// marker per passing case. It returns the number of failed cases.
func (s *Suite) Run(w io.Writer) int {
	failed := 0
	for _, tc := range s.cases {
		if !runCase(w, tc) {
			failed++
		}
	}
	return failed
}

// RunFailFast stops at the first failing case.
func (s *Suite) RunFailFast(w io.Writer) error {
	for _, tc := range s.cases {
		if !runCase(w, tc) {
			return fmt.Errorf("%w: %s", ErrCaseFailed, tc.Name)
		}
	}
	return nil
}

func runCase(w io.Writer, tc Case) bool {
	var c Checker
	if err := tc.Run(&c); err != nil {
		fmt.Fprintf(w, "FAIL %s: %v\n", tc.Name, err)
		return false
	}
	if len(c.mismatches) > 0 {
		for _, m := range c.mismatches {
			fmt.Fprintf(w, "FAIL %s: %s\n", tc.Name, m)
		}
		return false
	}
	fmt.Fprintf(w, "ok   %s (%d checks)\n", tc.Name, c.checks)
	return true
}
