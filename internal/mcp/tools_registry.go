package mcp

// registerAllTools registers all MCP tools with the registry
func (s *Server) registerAllTools(r *Registry) {
	s.registerRestaurantTools(r)
	s.registerAvailabilityTools(r)
	s.registerReservationTools(r)
}

func (s *Server) registerRestaurantTools(r *Registry) {
	Register(r, ToolDef{
		Name: "list_restaurants",
		Description: `List the restaurants attached to the authenticated account.

Returns id, name, city, and timezone for each restaurant. Accounts with a
single restaurant rarely need this: other tools auto-select the restaurant
when the account has exactly one. Use this first when a tool reports an
ambiguous restaurant, then pass restaurant_id to later calls.`,
	}, s.handleListRestaurants)
}

func (s *Server) registerAvailabilityTools(r *Registry) {
	Register(r, ToolDef{
		Name: "fetch_dates",
		Description: `Find dates with availability for online booking.

Without start_date, looks at the window from today through 15 days out.
With start_date (YYYY-MM-DD), the window starts there instead. Returns
only dates that have bookable capacity. Use fetch_slots afterwards to see
the service times on a chosen date.`,
	}, s.handleFetchDates)

	Register(r, ToolDef{
		Name: "fetch_slots",
		Description: `List bookable time slots on a specific date.

Requires date (YYYY-MM-DD). Returns the service shifts (for example lunch
and dinner) with their open times in HH:MM. Pick one of these times when
calling create_reservation or reschedule_reservation.`,
	}, s.handleFetchSlots)
}

func (s *Server) registerReservationTools(r *Registry) {
	Register(r, ToolDef{
		Name: "search_reservations",
		Description: `Search confirmed reservations.

Use date (YYYY-MM-DD) for a single day, or begin_date and end_date for a
range; defaults to today when none are given. An optional query string
matches guest name, email, or phone. Only reservations with status
"booked" are returned.`,
	}, s.handleSearchReservations)

	Register(r, ToolDef{
		Name: "get_reservation",
		Description: `Get a single reservation by its id.

Returns date, time, party size, guest details, status, and any comment.
Use search_reservations to find the id first.`,
	}, s.handleGetReservation)

	Register(r, ToolDef{
		Name: "create_reservation",
		Description: `Book a new reservation.

Requires date (YYYY-MM-DD), time (HH:MM, pick one from fetch_slots),
party_size, first_name, and last_name. Email, phone, and comment are
optional but help the restaurant contact the guest. Returns the confirmed
reservation including its id.`,
	}, s.handleCreateReservation)

	Register(r, ToolDef{
		Name: "reschedule_reservation",
		Description: `Move an existing reservation to a new date and time.

Requires reservation_id, date, and time. Party size and guest details
default to the original reservation; pass them only to change them. The
original reservation is replaced by the new one.`,
	}, s.handleRescheduleReservation)

	Register(r, ToolDef{
		Name: "cancel_reservation",
		Description: `Cancel a reservation.

Requires reservation_id. An optional reason is recorded with the
cancellation. Returns the reservation in its canceled state.`,
	}, s.handleCancelReservation)
}
