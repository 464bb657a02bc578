package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/seatsync/seatsync/internal/validation"
)

// availabilityWindowDays is the default search window for fetch_dates.
const availabilityWindowDays = 15

type fetchDatesParams struct {
	StartDate    string `json:"start_date,omitempty" jsonschema:"first date of the search window in YYYY-MM-DD, defaults to today"`
	RestaurantID string `json:"restaurant_id,omitempty" jsonschema:"restaurant to query, only needed when the account has more than one"`
}

func (s *Server) handleFetchDates(ctx context.Context, sess *Session, params fetchDatesParams) (*ToolResult, error) {
	start := params.StartDate
	if start == "" {
		start = time.Now().UTC().Format(validation.DateLayout)
	} else if err := validation.ValidateDate(start); err != nil {
		return nil, Errorf(CodeInvalidParams, "start_date: %v", err)
	}

	startDay, _ := time.Parse(validation.DateLayout, start)
	endDay := startDay.AddDate(0, 0, availabilityWindowDays)
	end := endDay.Format(validation.DateLayout)

	calendar, err := sess.Client.Calendar(ctx, start, end)
	if err != nil {
		return nil, err
	}

	dates := make([]string, 0, len(calendar))
	for _, day := range calendar {
		if !day.Available {
			continue
		}
		date := day.Date
		if len(date) > len(validation.DateLayout) {
			date = date[:len(validation.DateLayout)]
		}
		d, err := time.Parse(validation.DateLayout, date)
		if err != nil {
			continue
		}
		if d.Before(startDay) || d.After(endDay) {
			continue
		}
		dates = append(dates, date)
	}

	text := fmt.Sprintf("No availability between %s and %s.", start, end)
	if len(dates) > 0 {
		text = fmt.Sprintf("%d date(s) with availability between %s and %s: %s",
			len(dates), start, end, strings.Join(dates, ", "))
	}
	return ObjectResult(text, "dates", dates), nil
}

type fetchSlotsParams struct {
	Date         string `json:"date" jsonschema:"date to inspect in YYYY-MM-DD"`
	RestaurantID string `json:"restaurant_id,omitempty" jsonschema:"restaurant to query, only needed when the account has more than one"`
}

func (s *Server) handleFetchSlots(ctx context.Context, sess *Session, params fetchSlotsParams) (*ToolResult, error) {
	if err := validation.ValidateDate(params.Date); err != nil {
		return nil, Errorf(CodeInvalidParams, "date: %v", err)
	}

	calendar, err := sess.Client.Calendar(ctx, params.Date, params.Date)
	if err != nil {
		return nil, err
	}

	for _, day := range calendar {
		date := day.Date
		if len(date) > len(validation.DateLayout) {
			date = date[:len(validation.DateLayout)]
		}
		if date != params.Date {
			continue
		}
		if !day.Available || len(day.Shifts) == 0 {
			break
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Open slots on %s:\n", params.Date)
		for _, shift := range day.Shifts {
			fmt.Fprintf(&b, "- %s: %s\n", shift.Name, strings.Join(shift.Slots, ", "))
		}
		return ObjectResult(strings.TrimRight(b.String(), "\n"), "shifts", day.Shifts), nil
	}

	return ObjectResult(fmt.Sprintf("No bookable slots on %s.", params.Date), "shifts", []any{}), nil
}
