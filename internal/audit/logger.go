package audit

import (
	"encoding/json"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/seatsync/seatsync/internal/auth"
)

// Operation represents the type of auditable operation
type Operation string

const (
	OpReservationCreate     Operation = "reservation.create"
	OpReservationReschedule Operation = "reservation.reschedule"
	OpReservationCancel     Operation = "reservation.cancel"
)

// Event represents an audit log entry. Usernames are masked before
// logging; passwords and tokens never appear in events.
type Event struct {
	Timestamp     time.Time      `json:"timestamp"`
	Operation     Operation      `json:"operation"`
	Username      string         `json:"username,omitempty"`
	RestaurantID  string         `json:"restaurant_id,omitempty"`
	ReservationID string         `json:"reservation_id,omitempty"`
	RequestID     string         `json:"request_id,omitempty"`
	Success       bool           `json:"success"`
	Error         string         `json:"error,omitempty"`
	Details       map[string]any `json:"details,omitempty"`
}

// Logger handles audit logging
type Logger struct {
	logger  *slog.Logger
	enabled bool
	mu      sync.RWMutex
}

var (
	defaultLogger *Logger
	once          sync.Once
)

// Default returns the default audit logger
func Default() *Logger {
	once.Do(func() {
		defaultLogger = New(true)
	})
	return defaultLogger
}

// New creates a new audit logger
func New(enabled bool) *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	return &Logger{
		logger:  slog.New(handler),
		enabled: enabled,
	}
}

// SetEnabled enables or disables audit logging
func (l *Logger) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = enabled
}

// Log records an audit event
func (l *Logger) Log(event *Event) {
	l.mu.RLock()
	enabled := l.enabled
	l.mu.RUnlock()

	if !enabled {
		return
	}

	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	attrs := []any{
		slog.String("audit", "true"),
		slog.String("operation", string(event.Operation)),
		slog.Bool("success", event.Success),
	}

	if event.Username != "" {
		attrs = append(attrs, slog.String("username", auth.MaskUsername(event.Username)))
	}
	if event.RestaurantID != "" {
		attrs = append(attrs, slog.String("restaurant_id", event.RestaurantID))
	}
	if event.ReservationID != "" {
		attrs = append(attrs, slog.String("reservation_id", event.ReservationID))
	}
	if event.RequestID != "" {
		attrs = append(attrs, slog.String("request_id", event.RequestID))
	}
	if event.Error != "" {
		attrs = append(attrs, slog.String("error", event.Error))
	}
	if event.Details != nil {
		detailsJSON, _ := json.Marshal(event.Details)
		attrs = append(attrs, slog.String("details", string(detailsJSON)))
	}

	l.logger.Info("AUDIT", attrs...)
}

// LogSuccess records a successful operation
func (l *Logger) LogSuccess(op Operation, username, restaurantID, reservationID, requestID string) {
	l.Log(&Event{
		Operation:     op,
		Username:      username,
		RestaurantID:  restaurantID,
		ReservationID: reservationID,
		RequestID:     requestID,
		Success:       true,
	})
}

// LogFailure records a failed operation
func (l *Logger) LogFailure(op Operation, username, restaurantID, requestID string, err error) {
	errMsg := ""
	if err != nil {
		errMsg = err.Error()
	}
	l.Log(&Event{
		Operation:    op,
		Username:     username,
		RestaurantID: restaurantID,
		RequestID:    requestID,
		Success:      false,
		Error:        errMsg,
	})
}
