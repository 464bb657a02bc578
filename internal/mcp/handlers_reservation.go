package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/seatsync/seatsync/internal/audit"
	"github.com/seatsync/seatsync/internal/upstream"
	"github.com/seatsync/seatsync/internal/validation"
)

type searchReservationsParams struct {
	Date         string `json:"date,omitempty" jsonschema:"single day to search in YYYY-MM-DD, shorthand for equal begin_date and end_date"`
	BeginDate    string `json:"begin_date,omitempty" jsonschema:"first day of the search range in YYYY-MM-DD"`
	EndDate      string `json:"end_date,omitempty" jsonschema:"last day of the search range in YYYY-MM-DD"`
	Query        string `json:"query,omitempty" jsonschema:"free-text filter matching guest name, email, or phone"`
	RestaurantID string `json:"restaurant_id,omitempty" jsonschema:"restaurant to query, only needed when the account has more than one"`
}

func (s *Server) handleSearchReservations(ctx context.Context, sess *Session, params searchReservationsParams) (*ToolResult, error) {
	begin, end := params.BeginDate, params.EndDate
	if params.Date != "" {
		if begin != "" || end != "" {
			return nil, Errorf(CodeInvalidParams, "date cannot be combined with begin_date or end_date")
		}
		begin, end = params.Date, params.Date
	}
	if begin == "" && end == "" {
		today := time.Now().UTC().Format(validation.DateLayout)
		begin, end = today, today
	}
	if begin == "" || end == "" {
		return nil, Errorf(CodeInvalidParams, "begin_date and end_date must be given together")
	}
	if err := validation.ValidateDateRange(begin, end); err != nil {
		return nil, Errorf(CodeInvalidParams, "%v", err)
	}

	all, err := sess.Client.ListReservations(ctx, begin, end, params.Query)
	if err != nil {
		return nil, err
	}

	booked := make([]upstream.Reservation, 0, len(all))
	for _, r := range all {
		if r.Status == upstream.ReservationStatusBooked {
			booked = append(booked, r)
		}
	}

	if len(booked) == 0 {
		return ObjectResult(fmt.Sprintf("No booked reservations between %s and %s.", begin, end), "reservations", booked), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d booked reservation(s) between %s and %s:\n", len(booked), begin, end)
	for _, r := range booked {
		fmt.Fprintf(&b, "- %s %s, %s at %s, party of %d (id: %s)\n",
			r.FirstName, r.LastName, r.Date, r.Time, r.Covers, r.ID)
	}
	return ObjectResult(strings.TrimRight(b.String(), "\n"), "reservations", booked), nil
}

type getReservationParams struct {
	ReservationID string `json:"reservation_id" jsonschema:"id of the reservation to fetch"`
	RestaurantID  string `json:"restaurant_id,omitempty" jsonschema:"restaurant holding the reservation, only needed when the account has more than one"`
}

func (s *Server) handleGetReservation(ctx context.Context, sess *Session, params getReservationParams) (*ToolResult, error) {
	if params.ReservationID == "" {
		return nil, Errorf(CodeInvalidParams, "reservation_id is required")
	}

	res, err := sess.Client.GetReservation(ctx, params.ReservationID)
	if err != nil {
		return nil, err
	}

	return ObjectResult(describeReservation(res), "reservation", res), nil
}

type createReservationParams struct {
	Date         string `json:"date" jsonschema:"reservation date in YYYY-MM-DD"`
	Time         string `json:"time" jsonschema:"reservation time in HH:MM, pick one returned by fetch_slots"`
	PartySize    int    `json:"party_size" jsonschema:"number of guests"`
	FirstName    string `json:"first_name" jsonschema:"guest first name"`
	LastName     string `json:"last_name" jsonschema:"guest last name"`
	Email        string `json:"email,omitempty" jsonschema:"guest email address"`
	Phone        string `json:"phone,omitempty" jsonschema:"guest phone number"`
	Comment      string `json:"comment,omitempty" jsonschema:"note for the restaurant, such as allergies or a special occasion"`
	RestaurantID string `json:"restaurant_id,omitempty" jsonschema:"restaurant to book, only needed when the account has more than one"`
}

func (s *Server) handleCreateReservation(ctx context.Context, sess *Session, params createReservationParams) (*ToolResult, error) {
	if err := validation.ValidateDate(params.Date); err != nil {
		return nil, Errorf(CodeInvalidParams, "date: %v", err)
	}
	if err := validation.ValidateTime(params.Time); err != nil {
		return nil, Errorf(CodeInvalidParams, "time: %v", err)
	}
	if err := validation.ValidatePartySize(params.PartySize); err != nil {
		return nil, Errorf(CodeInvalidParams, "party_size: %v", err)
	}
	if params.FirstName == "" || params.LastName == "" {
		return nil, Errorf(CodeInvalidParams, "first_name and last_name are required")
	}

	booking := upstream.Booking{
		Date:      params.Date,
		Time:      params.Time,
		Covers:    params.PartySize,
		FirstName: params.FirstName,
		LastName:  params.LastName,
		Email:     params.Email,
		Phone:     params.Phone,
		Comment:   params.Comment,
	}

	res, err := sess.Client.CreateReservation(ctx, booking)
	if err != nil {
		audit.Default().LogFailure(audit.OpReservationCreate, sess.Username, sess.Client.Restaurant(), sess.RequestID, err)
		return nil, err
	}
	audit.Default().LogSuccess(audit.OpReservationCreate, sess.Username, sess.Client.Restaurant(), res.ID, sess.RequestID)

	text := fmt.Sprintf("Reservation confirmed for %s %s, %s at %s, party of %d (id: %s).",
		res.FirstName, res.LastName, res.Date, res.Time, res.Covers, res.ID)
	return ObjectResult(text, "reservation", res), nil
}

type rescheduleReservationParams struct {
	ReservationID string `json:"reservation_id" jsonschema:"id of the reservation to move"`
	Date          string `json:"date" jsonschema:"new reservation date in YYYY-MM-DD"`
	Time          string `json:"time" jsonschema:"new reservation time in HH:MM, pick one returned by fetch_slots"`
	PartySize     int    `json:"party_size,omitempty" jsonschema:"new number of guests, defaults to the original party size"`
	Comment       string `json:"comment,omitempty" jsonschema:"replacement note for the restaurant, defaults to the original comment"`
	RestaurantID  string `json:"restaurant_id,omitempty" jsonschema:"restaurant holding the reservation, only needed when the account has more than one"`
}

func (s *Server) handleRescheduleReservation(ctx context.Context, sess *Session, params rescheduleReservationParams) (*ToolResult, error) {
	if params.ReservationID == "" {
		return nil, Errorf(CodeInvalidParams, "reservation_id is required")
	}
	if err := validation.ValidateDate(params.Date); err != nil {
		return nil, Errorf(CodeInvalidParams, "date: %v", err)
	}
	if err := validation.ValidateTime(params.Time); err != nil {
		return nil, Errorf(CodeInvalidParams, "time: %v", err)
	}
	if params.PartySize != 0 {
		if err := validation.ValidatePartySize(params.PartySize); err != nil {
			return nil, Errorf(CodeInvalidParams, "party_size: %v", err)
		}
	}

	original, err := sess.Client.GetReservation(ctx, params.ReservationID)
	if err != nil {
		return nil, err
	}

	booking := upstream.Booking{
		Date:      params.Date,
		Time:      params.Time,
		Covers:    original.Covers,
		FirstName: original.FirstName,
		LastName:  original.LastName,
		Email:     original.Email,
		Phone:     original.Phone,
		Comment:   original.Comment,
	}
	if params.PartySize != 0 {
		booking.Covers = params.PartySize
	}
	if params.Comment != "" {
		booking.Comment = params.Comment
	}

	res, err := sess.Client.RescheduleReservation(ctx, params.ReservationID, booking)
	if err != nil {
		audit.Default().LogFailure(audit.OpReservationReschedule, sess.Username, sess.Client.Restaurant(), sess.RequestID, err)
		return nil, err
	}
	audit.Default().LogSuccess(audit.OpReservationReschedule, sess.Username, sess.Client.Restaurant(), res.ID, sess.RequestID)

	text := fmt.Sprintf("Reservation %s moved to %s at %s for %s %s, party of %d (new id: %s).",
		params.ReservationID, res.Date, res.Time, res.FirstName, res.LastName, res.Covers, res.ID)
	return ObjectResult(text, "reservation", res), nil
}

type cancelReservationParams struct {
	ReservationID string `json:"reservation_id" jsonschema:"id of the reservation to cancel"`
	Reason        string `json:"reason,omitempty" jsonschema:"reason recorded with the cancellation"`
	RestaurantID  string `json:"restaurant_id,omitempty" jsonschema:"restaurant holding the reservation, only needed when the account has more than one"`
}

func (s *Server) handleCancelReservation(ctx context.Context, sess *Session, params cancelReservationParams) (*ToolResult, error) {
	if params.ReservationID == "" {
		return nil, Errorf(CodeInvalidParams, "reservation_id is required")
	}

	res, err := sess.Client.CancelReservation(ctx, params.ReservationID, params.Reason)
	if err != nil {
		audit.Default().LogFailure(audit.OpReservationCancel, sess.Username, sess.Client.Restaurant(), sess.RequestID, err)
		return nil, err
	}
	audit.Default().LogSuccess(audit.OpReservationCancel, sess.Username, sess.Client.Restaurant(), params.ReservationID, sess.RequestID)

	text := fmt.Sprintf("Reservation %s canceled.", params.ReservationID)
	return ObjectResult(text, "reservation", res), nil
}

func describeReservation(r *upstream.Reservation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Reservation %s: %s %s, %s at %s, party of %d, status %s.",
		r.ID, r.FirstName, r.LastName, r.Date, r.Time, r.Covers, r.Status)
	if r.Comment != "" {
		fmt.Fprintf(&b, " Note: %s", r.Comment)
	}
	return b.String()
}
