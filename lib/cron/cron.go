// Copyright 2026 The Picard Authors
// SPDX-License-Identifier: Apache-2.0

package cron

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule is a parsed 5-field cron expression. The zero value matches
// nothing; use Parse.
type Schedule struct {
	fields [numFields]fieldSet
}

// fieldSet holds the allowed values of one cron field as a bitmask.
// Every field's value range fits in 64 bits.
type fieldSet uint64

func (f fieldSet) contains(value int) bool { return f&(1<<uint(value)) != 0 }

// Field order in the expression, and their value bounds.
const (
	fieldMinute = iota
	fieldHour
	fieldDayOfMonth
	fieldMonth
	fieldDayOfWeek
	numFields
)

var fieldBounds = [numFields]struct {
	name     string
	min, max int
}{
	{"minute", 0, 59},
	{"hour", 0, 23},
	{"day-of-month", 1, 31},
	{"month", 1, 12},
	{"day-of-week", 0, 6},
}

// Parse parses a cron expression of the form "m h dom mon dow". Each
// field accepts "*", single values, ranges (a-b), steps (*/n, a-b/n),
// and comma-separated lists of those.
func Parse(expression string) (Schedule, error) {
	parts := strings.Fields(expression)
	if len(parts) != numFields {
		return Schedule{}, fmt.Errorf("cron: expected %d fields, got %d", numFields, len(parts))
	}

	var schedule Schedule
	for i, part := range parts {
		bounds := fieldBounds[i]
		set, err := parseField(part, bounds.min, bounds.max)
		if err != nil {
			return Schedule{}, fmt.Errorf("cron: %s field: %w", bounds.name, err)
		}
		schedule.fields[i] = set
	}
	return schedule, nil
}

// Next returns the earliest time strictly after t that matches the
// schedule, in UTC. Impossible schedules (February 31) error out after
// a bounded search instead of looping forever; four years spans every
// leap-year case.
func (s Schedule) Next(t time.Time) (time.Time, error) {
	candidate := t.UTC().Truncate(time.Minute).Add(time.Minute)
	limit := candidate.AddDate(4, 0, 0)

	for candidate.Before(limit) {
		switch {
		case !s.fields[fieldMonth].contains(int(candidate.Month())):
			candidate = time.Date(candidate.Year(), candidate.Month()+1, 1, 0, 0, 0, 0, time.UTC)
		case !s.matchesDay(candidate):
			candidate = time.Date(candidate.Year(), candidate.Month(), candidate.Day()+1, 0, 0, 0, 0, time.UTC)
		case !s.fields[fieldHour].contains(candidate.Hour()):
			candidate = time.Date(candidate.Year(), candidate.Month(), candidate.Day(), candidate.Hour()+1, 0, 0, 0, time.UTC)
		case !s.fields[fieldMinute].contains(candidate.Minute()):
			candidate = candidate.Add(time.Minute)
		default:
			return candidate, nil
		}
	}
	return time.Time{}, fmt.Errorf("cron: no matching time within 4 years of %s", t.UTC().Format(time.RFC3339))
}

// matchesDay checks the day-of-month and day-of-week constraints. A
// wildcard field parses to an all-ones mask, so requiring both here
// yields standard behavior whenever at most one of the two is
// restricted. (Vixie cron ORs the two when both are restricted; a
// sweep schedule restricting both is not supported.)
func (s Schedule) matchesDay(t time.Time) bool {
	return s.fields[fieldDayOfMonth].contains(t.Day()) &&
		s.fields[fieldDayOfWeek].contains(int(t.Weekday()))
}

// parseField parses one comma-separated field into a value mask.
func parseField(field string, minimum, maximum int) (fieldSet, error) {
	var set fieldSet
	for _, term := range strings.Split(field, ",") {
		start, end, step, err := parseTerm(term, minimum, maximum)
		if err != nil {
			return 0, err
		}
		for value := start; value <= end; value += step {
			set |= 1 << uint(value)
		}
	}
	if set == 0 {
		return 0, fmt.Errorf("field %q produces empty set", field)
	}
	return set, nil
}

// parseTerm parses a single term (*, */n, v, a-b, a-b/n) into an
// inclusive range plus step.
func parseTerm(term string, minimum, maximum int) (start, end, step int, err error) {
	rangePart, stepPart, hasStep := strings.Cut(term, "/")
	step = 1
	if hasStep {
		step, err = strconv.Atoi(stepPart)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid step %q: %w", stepPart, err)
		}
		if step <= 0 {
			return 0, 0, 0, fmt.Errorf("step must be positive, got %d", step)
		}
	}

	switch {
	case rangePart == "*":
		start, end = minimum, maximum
	case strings.ContainsRune(rangePart, '-'):
		startPart, endPart, _ := strings.Cut(rangePart, "-")
		start, err = strconv.Atoi(startPart)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid range start %q: %w", startPart, err)
		}
		end, err = strconv.Atoi(endPart)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid range end %q: %w", endPart, err)
		}
		if start > end {
			return 0, 0, 0, fmt.Errorf("range start %d > end %d", start, end)
		}
	default:
		start, err = strconv.Atoi(rangePart)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid value %q: %w", rangePart, err)
		}
		end = start
	}

	if start < minimum || end > maximum {
		return 0, 0, 0, fmt.Errorf("value out of range [%d-%d]: got %d-%d", minimum, maximum, start, end)
	}
	return start, end, step, nil
}
