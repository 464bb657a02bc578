// Package upstream implements the client for the reservation platform's
// admin REST API. The client owns the token lifecycle for one inbound
// request: lazy login, encrypted cache lookup, and a single forced-login
// retry when the upstream rejects a token with 401.
package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/seatsync/seatsync/internal/auth"
	"github.com/seatsync/seatsync/internal/logger"
	"github.com/seatsync/seatsync/internal/metrics"
	"github.com/seatsync/seatsync/internal/tokencache"
)

var (
	// ErrNoRestaurant is returned when scope resolution finds no
	// restaurant on the account.
	ErrNoRestaurant = errors.New("no restaurant associated with this account")
	// ErrAmbiguousRestaurant is returned when scope resolution finds more
	// than one restaurant and none was requested explicitly.
	ErrAmbiguousRestaurant = errors.New("multiple restaurants on this account, specify restaurant_id")
)

// AuthError is a failed login against the upstream auth endpoint.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("upstream authentication failed: status %d: %s", e.Status, e.Body)
}

// APIError is a non-2xx upstream response outside the handled 401 path.
// Status and body are surfaced verbatim and never retried.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("upstream request failed: status %d: %s", e.Status, e.Body)
}

// Client is a request-scoped upstream API client. It is not safe for
// concurrent use; each inbound request builds its own and discards it.
type Client struct {
	httpClient *http.Client
	baseURL    string
	creds      auth.Credentials
	cache      *tokencache.Store
	cacheKey   string

	token        string // in-memory token slot, valid for this request only
	restaurantID string
}

// NewClient creates a client for one request's credentials.
func NewClient(baseURL string, creds auth.Credentials, cache *tokencache.Store) *Client {
	return &Client{
		httpClient:   &http.Client{},
		baseURL:      strings.TrimRight(baseURL, "/"),
		creds:        creds,
		cache:        cache,
		cacheKey:     creds.CacheKey(),
		restaurantID: creds.RestaurantID,
	}
}

// SetRestaurant pins the restaurant scope explicitly.
func (c *Client) SetRestaurant(id string) {
	c.restaurantID = id
}

// Restaurant returns the currently resolved restaurant scope, or "".
func (c *Client) Restaurant() string {
	return c.restaurantID
}

// ResolveRestaurant returns the restaurant scope, resolving it from the
// account when not explicitly set: exactly one restaurant auto-selects,
// zero or several fail.
func (c *Client) ResolveRestaurant(ctx context.Context) (string, error) {
	if c.restaurantID != "" {
		return c.restaurantID, nil
	}

	restaurants, err := c.ListRestaurants(ctx)
	if err != nil {
		return "", err
	}

	switch len(restaurants) {
	case 0:
		return "", ErrNoRestaurant
	case 1:
		c.restaurantID = restaurants[0].ID
		logger.Info("Auto-selected restaurant %s (%s) for %s", restaurants[0].ID, restaurants[0].Name, auth.MaskUsername(c.creds.Username))
		return c.restaurantID, nil
	default:
		names := make([]string, len(restaurants))
		for i, r := range restaurants {
			names[i] = fmt.Sprintf("%s (%s)", r.Name, r.ID)
		}
		return "", fmt.Errorf("%w: %s", ErrAmbiguousRestaurant, strings.Join(names, ", "))
	}
}

// getOrRefreshToken returns a bearer token: the in-memory one if present,
// else the cached one, else a fresh login. A cached entry that cannot be
// decrypted is treated as a miss and removed.
func (c *Client) getOrRefreshToken(ctx context.Context) (string, error) {
	if c.token != "" {
		return c.token, nil
	}

	token, err := c.cache.Get(c.cacheKey)
	if err == nil {
		metrics.RecordTokenCache("get", "hit")
		c.token = token
		return token, nil
	}
	if errors.Is(err, tokencache.ErrNotFound) {
		metrics.RecordTokenCache("get", "miss")
	} else {
		metrics.RecordTokenCache("get", "error")
		logger.Error("Cached token for %s unreadable, forcing login: %v", auth.MaskUsername(c.creds.Username), err)
		_ = c.cache.Delete(c.cacheKey)
	}

	if err := c.login(ctx); err != nil {
		return "", err
	}
	return c.token, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
}

// login authenticates against the upstream and persists the token,
// encrypted, to the cache. A cache write failure is logged, not fatal: the
// token is held in memory and is re-derivable by logging in again.
func (c *Client) login(ctx context.Context) error {
	body, err := json.Marshal(loginRequest{Username: c.creds.Username, Password: c.creds.Password})
	if err != nil {
		return fmt.Errorf("failed to encode login request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/login_check", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build login request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordLogin("error")
		return fmt.Errorf("login request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordLogin("error")
		return fmt.Errorf("failed to read login response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordLogin("failure")
		return &AuthError{Status: resp.StatusCode, Body: string(data)}
	}

	var lr loginResponse
	if err := json.Unmarshal(data, &lr); err != nil {
		metrics.RecordLogin("error")
		return fmt.Errorf("failed to decode login response: %w", err)
	}
	if lr.Token == "" {
		metrics.RecordLogin("error")
		return fmt.Errorf("login response contained no token")
	}

	metrics.RecordLogin("success")
	c.token = lr.Token
	if err := c.cache.Set(c.cacheKey, lr.Token); err != nil {
		metrics.RecordTokenCache("set", "error")
		logger.Error("Failed to cache token for %s: %v", auth.MaskUsername(c.creds.Username), err)
	} else {
		metrics.RecordTokenCache("set", "ok")
	}
	return nil
}

// do issues an authenticated request. On 401 it deletes the cached token,
// forces a fresh login and retries the same request exactly once; a second
// failure of any kind is terminal for the request.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	token, err := c.getOrRefreshToken(ctx)
	if err != nil {
		return err
	}

	status, data, err := c.send(ctx, method, path, token, body)
	if err != nil {
		return err
	}

	if status == http.StatusUnauthorized {
		logger.Info("Upstream rejected token for %s, retrying once with fresh login", auth.MaskUsername(c.creds.Username))
		if err := c.cache.Delete(c.cacheKey); err != nil {
			logger.Error("Failed to delete rejected token: %v", err)
		}
		c.token = ""
		if err := c.login(ctx); err != nil {
			return err
		}
		status, data, err = c.send(ctx, method, path, c.token, body)
		if err != nil {
			return err
		}
	}

	if status < 200 || status > 299 {
		return &APIError{Status: status, Body: string(data)}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode upstream response: %w", err)
		}
	}
	return nil
}

// send performs one HTTP exchange and returns the status and raw body.
func (c *Client) send(ctx context.Context, method, path, token string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstreamRequest(method, "error")
		return 0, nil, fmt.Errorf("upstream request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.RecordUpstreamRequest(method, "error")
		return 0, nil, fmt.Errorf("failed to read upstream response: %w", err)
	}

	metrics.RecordUpstreamRequest(method, fmt.Sprintf("%d", resp.StatusCode))
	return resp.StatusCode, data, nil
}

func (c *Client) adminPath(restaurantID, suffix string) string {
	return "/admin/restaurants/" + url.PathEscape(restaurantID) + suffix
}

// ListRestaurants returns the restaurants attached to the account.
func (c *Client) ListRestaurants(ctx context.Context) ([]Restaurant, error) {
	var restaurants []Restaurant
	if err := c.do(ctx, http.MethodGet, "/admin/restaurants", nil, &restaurants); err != nil {
		return nil, err
	}
	return restaurants, nil
}

// Calendar returns availability days in [begin, end], both YYYY-MM-DD.
func (c *Client) Calendar(ctx context.Context, begin, end string) ([]CalendarDay, error) {
	rid, err := c.ResolveRestaurant(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("begin", begin)
	q.Set("end", end)

	var days []CalendarDay
	if err := c.do(ctx, http.MethodGet, c.adminPath(rid, "/calendar?"+q.Encode()), nil, &days); err != nil {
		return nil, err
	}
	return days, nil
}

// ListReservations returns reservations in [begin, end], optionally
// filtered by a guest search string. All statuses are returned; callers
// filter as needed.
func (c *Client) ListReservations(ctx context.Context, begin, end, search string) ([]Reservation, error) {
	rid, err := c.ResolveRestaurant(ctx)
	if err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("begin", begin)
	q.Set("end", end)
	if search != "" {
		q.Set("search", search)
	}

	var reservations []Reservation
	if err := c.do(ctx, http.MethodGet, c.adminPath(rid, "/reservations?"+q.Encode()), nil, &reservations); err != nil {
		return nil, err
	}
	return reservations, nil
}

// GetReservation returns one reservation by id.
func (c *Client) GetReservation(ctx context.Context, id string) (*Reservation, error) {
	rid, err := c.ResolveRestaurant(ctx)
	if err != nil {
		return nil, err
	}

	var reservation Reservation
	if err := c.do(ctx, http.MethodGet, c.adminPath(rid, "/reservations/"+url.PathEscape(id)), nil, &reservation); err != nil {
		return nil, err
	}
	return &reservation, nil
}

// CreateReservation books a table, submitting the fixed upstream defaults
// alongside the user-supplied fields.
func (c *Client) CreateReservation(ctx context.Context, b Booking) (*Reservation, error) {
	rid, err := c.ResolveRestaurant(ctx)
	if err != nil {
		return nil, err
	}

	payload := newBookingPayload(b)

	var reservation Reservation
	if err := c.do(ctx, http.MethodPost, c.adminPath(rid, "/reservations"), payload, &reservation); err != nil {
		return nil, err
	}
	return &reservation, nil
}

// RescheduleReservation books a replacement reservation carrying a
// reference to the one being replaced and the platform's fixed reschedule
// option code.
func (c *Client) RescheduleReservation(ctx context.Context, replacesID string, b Booking) (*Reservation, error) {
	rid, err := c.ResolveRestaurant(ctx)
	if err != nil {
		return nil, err
	}

	payload := newBookingPayload(b)
	payload.RescheduledFrom = replacesID
	payload.RescheduleOption = rescheduleOptionCode

	var reservation Reservation
	if err := c.do(ctx, http.MethodPost, c.adminPath(rid, "/reservations"), payload, &reservation); err != nil {
		return nil, err
	}
	return &reservation, nil
}

// CancelReservation cancels a reservation by id.
func (c *Client) CancelReservation(ctx context.Context, id, reason string) (*Reservation, error) {
	rid, err := c.ResolveRestaurant(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]string{"status": "canceled"}
	if reason != "" {
		payload["cancel_reason"] = reason
	}

	var reservation Reservation
	if err := c.do(ctx, http.MethodPatch, c.adminPath(rid, "/reservations/"+url.PathEscape(id)), payload, &reservation); err != nil {
		return nil, err
	}
	return &reservation, nil
}
