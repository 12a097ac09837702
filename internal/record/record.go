// Package record defines the traffic count record and decodes raw input lines into validated records.
package record

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// LightPrefix is the fixed marker every light identifier starts with.
const LightPrefix = "TL"

// MinutesPerHour converts a minute timestamp into its hour bucket.
const MinutesPerHour = 60

// Record is a single validated car count observation.
type Record struct {
	TimestampMinutes int // minutes since midnight
	LightID          int
	Cars             int
}

// Hour returns the hour bucket of the record (truncating division).
func (r Record) Hour() int {
	return r.TimestampMinutes / MinutesPerHour
}

// IsZero reports whether every field is zero. Zero records are indistinguishable
// from padding and are skipped by the aggregator.
func (r Record) IsZero() bool {
	return r.TimestampMinutes == 0 && r.LightID == 0 && r.Cars == 0
}

var (
	// ErrFieldCount is returned when a line does not have exactly three fields.
	ErrFieldCount = errors.New("expected 3 comma separated fields")

	// ErrNegative is returned when a decoded number is below zero.
	ErrNegative = errors.New("negative value")

	// ErrClockDigits is returned when an hour or minute is not one or two digits.
	ErrClockDigits = errors.New("expected one or two clock digits")

	// ErrLightPrefix is returned when a light identifier lacks the TL marker.
	ErrLightPrefix = errors.New("missing " + LightPrefix + " prefix")
)

// ParseError describes why a line was rejected.
type ParseError struct {
	Field string // "line" | "time" | "light" | "cars"
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseLine decodes a "HH:MM,TLn,count" line.
func ParseLine(line string) (Record, error) {
	line = strings.TrimRight(line, "\r")

	fields := strings.Split(line, ",")
	if len(fields) != 3 {
		return Record{}, &ParseError{Field: "line", Value: line, Err: ErrFieldCount}
	}

	minutes, err := ParseClock(fields[0])
	if err != nil {
		return Record{}, err
	}

	lightID, err := ParseLightID(fields[1])
	if err != nil {
		return Record{}, err
	}

	cars, err := parseCount("cars", fields[2])
	if err != nil {
		return Record{}, err
	}

	return Record{
		TimestampMinutes: minutes,
		LightID:          lightID,
		Cars:             cars,
	}, nil
}

// ParseClock converts an "HH:MM" clock string into minutes since midnight.
// Hours and minutes are one or two digits each; their range is not checked.
func ParseClock(s string) (int, error) {
	hh, mm, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return 0, &ParseError{Field: "time", Value: s, Err: errors.New("missing ':' separator")}
	}

	hour, err := parseClockPart(hh)
	if err != nil {
		return 0, err
	}
	minute, err := parseClockPart(mm)
	if err != nil {
		return 0, err
	}

	return hour*MinutesPerHour + minute, nil
}

// parseClockPart parses one side of "HH:MM". Each side is one or two digits,
// which also keeps the minute total far from overflow.
func parseClockPart(s string) (int, error) {
	if n := len(strings.TrimSpace(s)); n < 1 || n > 2 {
		return 0, &ParseError{Field: "time", Value: s, Err: ErrClockDigits}
	}
	return parseCount("time", s)
}

// ParseLightID extracts the numeric id from a "TLn" identifier.
func ParseLightID(s string) (int, error) {
	s = strings.TrimSpace(s)
	id, ok := strings.CutPrefix(s, LightPrefix)
	if !ok {
		return 0, &ParseError{Field: "light", Value: s, Err: ErrLightPrefix}
	}
	return parseCount("light", id)
}

func parseCount(field, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, &ParseError{Field: field, Value: s, Err: err}
	}
	if n < 0 {
		return 0, &ParseError{Field: field, Value: s, Err: ErrNegative}
	}
	return n, nil
}
