package types

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// enumTable maps enum values to their protocol names.
type enumTable[T ~int8 | ~int32 | ~int] map[T]string

func (e enumTable[T]) name(v T) string {
	if s, ok := e[v]; ok {
		return s
	}
	return fmt.Sprintf("UNKNOWN(%d)", int64(v))
}

// parse accepts the protocol name (case-insensitive) or the numeric value.
func (e enumTable[T]) parse(kind, s string) (T, error) {
	s = strings.TrimSpace(s)
	for v, name := range e {
		if strings.EqualFold(name, s) {
			return v, nil
		}
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if _, ok := e[T(n)]; ok {
			return T(n), nil
		}
	}
	var zero T
	return zero, fmt.Errorf("unknown %s %q", kind, s)
}

func (e enumTable[T]) names() []string {
	out := make([]string, 0, len(e))
	for _, name := range e {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
