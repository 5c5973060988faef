package id

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	prefix     = "R"
	dateLayout = "20060102"
	seqDigits  = 3

	// MaxSeq is the largest per-day sequence an entry ID can carry.
	MaxSeq = 999
)

// DayPrefix returns the ID prefix shared by every entry of t's calendar day,
// e.g. "R20250115".
func DayPrefix(t time.Time) string {
	return prefix + t.Format(dateLayout)
}

// FormatEntryID returns an entry ID like "R20250115001".
func FormatEntryID(day time.Time, seq int) string {
	return fmt.Sprintf("%s%03d", DayPrefix(day), seq)
}

// ParseEntryID parses "R20250115001" into its day prefix and sequence.
func ParseEntryID(id string) (day string, seq int, err error) {
	want := len(prefix) + len(dateLayout) + seqDigits
	if len(id) != want || !strings.HasPrefix(id, prefix) {
		return "", 0, fmt.Errorf("invalid entry ID format: %q", id)
	}

	datePart := id[len(prefix) : len(prefix)+len(dateLayout)]
	if _, err := time.Parse(dateLayout, datePart); err != nil {
		return "", 0, fmt.Errorf("invalid date in entry ID %q: %w", id, err)
	}

	seq, err = strconv.Atoi(id[len(id)-seqDigits:])
	if err != nil {
		return "", 0, fmt.Errorf("invalid sequence in entry ID %q: %w", id, err)
	}
	return prefix + datePart, seq, nil
}

// LastSeq returns the sequence of the last ID in ids (in the given order)
// that belongs to day. Zero means the day has no entries yet.
func LastSeq(ids []string, day time.Time) int {
	want := DayPrefix(day)
	last := 0
	for _, s := range ids {
		if !strings.Contains(s, want) {
			continue
		}
		d, seq, err := ParseEntryID(s)
		if err != nil || d != want {
			continue
		}
		last = seq
	}
	return last
}
