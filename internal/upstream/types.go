package upstream

// Restaurant is one restaurant attached to an account.
type Restaurant struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	City     string `json:"city,omitempty"`
	Timezone string `json:"timezone,omitempty"`
}

// CalendarDay is one day of the availability calendar.
type CalendarDay struct {
	Date      string  `json:"date"` // YYYY-MM-DD
	Available bool    `json:"available"`
	Shifts    []Shift `json:"shifts,omitempty"`
}

// Shift is a bookable service period with its time slots.
type Shift struct {
	Name  string   `json:"name"`
	Slots []string `json:"slots"` // HH:MM
}

// ReservationStatusBooked is the status of a confirmed reservation.
// Search results are filtered to this status before leaving the server.
const ReservationStatusBooked = "booked"

// Reservation as returned by the upstream admin API.
type Reservation struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	Date      string `json:"date"`
	Time      string `json:"time"`
	Covers    int    `json:"nb_guests"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Booking holds the user-supplied fields of a new or rescheduled reservation.
type Booking struct {
	Date      string
	Time      string
	Covers    int
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Comment   string
}

// Fixed upstream defaults submitted with every booking. These mirror what
// the reservation platform's own back office sends and must not vary per
// request.
const (
	defaultLocale           = "en"
	defaultPartyType        = "standard"
	defaultPaymentProcessor = "in_house"
	bookingSource           = "assistant"
	rescheduleOptionCode    = 1
)

// bookingPayload is the wire form of a booking request.
type bookingPayload struct {
	Date      string `json:"date"`
	Time      string `json:"time"`
	Covers    int    `json:"nb_guests"`
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Comment   string `json:"comment,omitempty"`

	Locale           string `json:"locale"`
	PartyType        string `json:"party_type"`
	PaymentProcessor string `json:"payment_processor"`
	Source           string `json:"source"`
	Status           string `json:"status"`

	// Set only when rescheduling: the reservation being replaced and the
	// platform's reschedule option code.
	RescheduledFrom  string `json:"rescheduled_from,omitempty"`
	RescheduleOption int    `json:"reschedule_option,omitempty"`
}

func newBookingPayload(b Booking) bookingPayload {
	return bookingPayload{
		Date:             b.Date,
		Time:             b.Time,
		Covers:           b.Covers,
		FirstName:        b.FirstName,
		LastName:         b.LastName,
		Email:            b.Email,
		Phone:            b.Phone,
		Comment:          b.Comment,
		Locale:           defaultLocale,
		PartyType:        defaultPartyType,
		PaymentProcessor: defaultPaymentProcessor,
		Source:           bookingSource,
		Status:           ReservationStatusBooked,
	}
}
