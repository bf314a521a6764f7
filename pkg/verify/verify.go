// Package verify compares field values that were set on a value with what
// is read back from it, directly or after crossing the wire codec.
package verify

import (
	"fmt"
	"strings"

	"github.com/stretchr/testify/assert"
)

// Epsilon is the tolerance for floating point fields.
const Epsilon = 1e-6

// Mismatch describes one field whose read value differs from the written one.
type Mismatch struct {
	Field string
	Want  interface{}
	Got   interface{}
	// Detail is the assertion message, when the comparison produced one.
	Detail string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s: expected %v, got %v", m.Field, m.Want, m.Got)
}

// Checker accumulates named comparisons. The zero value is ready to use.
type Checker struct {
	checks     int
	mismatches []Mismatch
	detail     string
}

var _ assert.TestingT = (*Checker)(nil)

// Errorf receives the failure messages of the assertions run by the checker.
func (c *Checker) Errorf(format string, args ...interface{}) {
	c.detail = strings.TrimSpace(fmt.Sprintf(format, args...))
}

// Scope returns a checker that records into c with name prepended to every field.
func (c *Checker) Scope(name string) *Scope {
	return &Scope{c: c, prefix: name}
}

// Equal compares strings, enums, ints and bools exactly.
func (c *Checker) Equal(field string, want, got interface{}) {
	c.begin()
	if !assert.ObjectsAreEqual(want, got) {
		c.add(field, want, got)
	}
}

// Float compares within Epsilon. Two NaNs are equal.
func (c *Checker) Float(field string, want, got float64) {
	c.begin()
	if !assert.InDelta(c, want, got, Epsilon) {
		c.add(field, want, got)
	}
}

// Floats compares element-wise within Epsilon after checking the lengths.
func (c *Checker) Floats(field string, want, got []float64) {
	c.begin()
	if assert.InDeltaSlice(c, want, got, Epsilon) {
		return
	}
	if len(want) != len(got) {
		c.add(field+".len", len(want), len(got))
		return
	}
	for i := range want {
		if !assert.InDelta(c, want[i], got[i], Epsilon) {
			c.add(fmt.Sprintf("%s[%d]", field, i), want[i], got[i])
		}
	}
}

// Bytes compares byte slices exactly. Nil and empty are equal.
func (c *Checker) Bytes(field string, want, got []byte) {
	c.begin()
	if len(want) == 0 && len(got) == 0 {
		return
	}
	if !assert.ObjectsAreEqual(want, got) {
		c.add(field, fmt.Sprintf("%d bytes", len(want)), fmt.Sprintf("%d bytes (differ)", len(got)))
	}
}

// Checks returns how many comparisons were made.
func (c *Checker) Checks() int { return c.checks }

// Mismatches returns the failed comparisons in the order they were made.
func (c *Checker) Mismatches() []Mismatch { return c.mismatches }

// Err returns nil when every comparison matched.
func (c *Checker) Err() error {
	if len(c.mismatches) == 0 {
		return nil
	}
	lines := make([]string, len(c.mismatches))
	for i, m := range c.mismatches {
		lines[i] = m.String()
	}
	return fmt.Errorf("%d field(s) mismatched: %s", len(c.mismatches), strings.Join(lines, "; "))
}

func (c *Checker) begin() {
	c.checks++
	c.detail = ""
}

func (c *Checker) add(field string, want, got interface{}) {
	c.mismatches = append(c.mismatches, Mismatch{Field: field, Want: want, Got: got, Detail: c.detail})
	c.detail = ""
}

// Scope is a Checker view that prefixes field names.
type Scope struct {
	c      *Checker
	prefix string
}

func (s *Scope) Equal(field string, want, got interface{}) {
	s.c.Equal(s.prefix+"."+field, want, got)
}

func (s *Scope) Float(field string, want, got float64) {
	s.c.Float(s.prefix+"."+field, want, got)
}

func (s *Scope) Floats(field string, want, got []float64) {
	s.c.Floats(s.prefix+"."+field, want, got)
}

func (s *Scope) Bytes(field string, want, got []byte) {
	s.c.Bytes(s.prefix+"."+field, want, got)
}

// Scope nests another prefix.
func (s *Scope) Scope(name string) *Scope {
	return &Scope{c: s.c, prefix: s.prefix + "." + name}
}
