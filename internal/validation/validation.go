package validation

import (
	"fmt"
	"regexp"
	"time"
)

const (
	// DateLayout is the wire format for calendar dates
	DateLayout = "2006-01-02"
	// TimeLayout is the wire format for service times
	TimeLayout = "15:04"

	// MaxPartySize caps party size; larger groups go through the venue directly
	MaxPartySize = 50
)

var timeRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// ValidateDate checks that the string is a real calendar date in
// YYYY-MM-DD form.
func ValidateDate(date string) error {
	if date == "" {
		return fmt.Errorf("date cannot be empty")
	}
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", date)
	}
	return nil
}

// ValidateTime checks a 24-hour HH:MM service time.
func ValidateTime(t string) error {
	if t == "" {
		return fmt.Errorf("time cannot be empty")
	}
	if !timeRegex.MatchString(t) {
		return fmt.Errorf("invalid time %q: expected HH:MM in 24-hour format", t)
	}
	return nil
}

// ValidatePartySize checks a reservation party size.
func ValidatePartySize(n int) error {
	if n < 1 {
		return fmt.Errorf("party size must be at least 1")
	}
	if n > MaxPartySize {
		return fmt.Errorf("party size %d exceeds maximum of %d", n, MaxPartySize)
	}
	return nil
}

// ValidateDateRange checks that begin and end are valid dates and that
// begin does not come after end.
func ValidateDateRange(begin, end string) error {
	if err := ValidateDate(begin); err != nil {
		return err
	}
	if err := ValidateDate(end); err != nil {
		return err
	}
	b, _ := time.Parse(DateLayout, begin)
	e, _ := time.Parse(DateLayout, end)
	if b.After(e) {
		return fmt.Errorf("begin date %s is after end date %s", begin, end)
	}
	return nil
}
