// Package info decodes the text returned by the Redis INFO command.
package info

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
)

const sectionMarker = "# "

// ErrNotNumeric is matched by every NumberError.
var ErrNotNumeric = errors.New("value is not numeric")

// Line is one key:value record together with the section it appeared in.
type Line struct {
	Section string
	Key     string
	Value   string
}

// NumberError reports a field whose value could not be converted to a float.
type NumberError struct {
	Field string
	Value string
	Err   error
}

func (e *NumberError) Error() string {
	return fmt.Sprintf("field %q: cannot parse %q as number: %v", e.Field, e.Value, e.Err)
}

func (e *NumberError) Unwrap() []error {
	return []error{ErrNotNumeric, e.Err}
}

// Parse returns the key:value records of an INFO response.
// Section headers and lines without a colon produce no record.
func Parse(text string) iter.Seq[Line] {
	return func(yield func(Line) bool) {
		section := ""

		for raw := range strings.SplitSeq(text, "\n") {
			line := strings.TrimSuffix(raw, "\r")
			if line == "" {
				continue
			}

			if strings.HasPrefix(line, sectionMarker) {
				section = line[len(sectionMarker):]
				continue
			}

			key, value, found := strings.Cut(line, ":")
			if !found {
				continue
			}

			if !yield(Line{Section: section, Key: key, Value: value}) {
				return
			}
		}
	}
}

// ParsePartition decodes a keyspace value such as "keys=10,expires=2,avg_ttl=0".
// Segments without '=' are dropped; a repeated field keeps its last value.
func ParsePartition(value string) map[string]string {
	fields := make(map[string]string)

	for segment := range strings.SplitSeq(value, ",") {
		name, val, found := strings.Cut(segment, "=")
		if !found {
			continue
		}
		fields[name] = val
	}

	return fields
}

// ParseFloat converts value to a float64 and reports failures as *NumberError.
func ParseFloat(field, value string) (float64, error) {
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, &NumberError{Field: field, Value: value, Err: err}
	}
	return f, nil
}

// Coerce maps an INFO value onto a gauge value.
// "ok" and "true" become 1, "err", "fail" and "false" become 2,
// anything else must parse as a number.
func Coerce(value string) (float64, bool) {
	switch value {
	case "ok", "true":
		return 1, true
	case "err", "fail", "false":
		return 2, true
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
