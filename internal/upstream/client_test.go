package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/seatsync/seatsync/internal/auth"
	"github.com/seatsync/seatsync/internal/crypto"
	"github.com/seatsync/seatsync/internal/tokencache"
)

const testToken = "upstream-token-1"

// fakeUpstream simulates the reservation platform's admin API.
type fakeUpstream struct {
	srv *httptest.Server

	loginCalls  int
	adminCalls  int
	validToken  string
	reject      int // number of 401s still to serve on admin paths
	restaurants []Restaurant
	statusCode  int // forced status for admin paths (0 = none)
	statusBody  string
	lastPayload map[string]any
}

func newFakeUpstream(t *testing.T) *fakeUpstream {
	t.Helper()
	f := &fakeUpstream{
		validToken:  testToken,
		restaurants: []Restaurant{{ID: "rest_1", Name: "Chez Test"}},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/login_check", func(w http.ResponseWriter, r *http.Request) {
		f.loginCalls++
		var creds struct {
			Username string `json:"username"`
			Password string `json:"password"`
		}
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != "good-password" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid credentials."}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"token": f.validToken})
	})
	mux.HandleFunc("/admin/restaurants", func(w http.ResponseWriter, r *http.Request) {
		f.admin(w, r, func(w http.ResponseWriter) {
			_ = json.NewEncoder(w).Encode(f.restaurants)
		})
	})
	mux.HandleFunc("/admin/restaurants/", func(w http.ResponseWriter, r *http.Request) {
		f.admin(w, r, func(w http.ResponseWriter) {
			if r.Body != nil {
				var payload map[string]any
				if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
					f.lastPayload = payload
				}
			}
			switch {
			case strings.Contains(r.URL.Path, "/calendar"):
				_ = json.NewEncoder(w).Encode([]CalendarDay{})
			case strings.HasSuffix(r.URL.Path, "/reservations") && r.Method == http.MethodPost:
				_ = json.NewEncoder(w).Encode(Reservation{ID: "resv_1", Status: ReservationStatusBooked})
			default:
				_ = json.NewEncoder(w).Encode(Reservation{ID: "resv_1", Status: "canceled"})
			}
		})
	})

	f.srv = httptest.NewServer(mux)
	t.Cleanup(f.srv.Close)
	return f
}

func (f *fakeUpstream) admin(w http.ResponseWriter, r *http.Request, ok func(http.ResponseWriter)) {
	f.adminCalls++
	if f.reject > 0 {
		f.reject--
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if r.Header.Get("Authorization") != "Bearer "+f.validToken {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	if f.statusCode != 0 {
		w.WriteHeader(f.statusCode)
		_, _ = w.Write([]byte(f.statusBody))
		return
	}
	ok(w)
}

func newTestCache(t *testing.T) *tokencache.Store {
	t.Helper()
	key, err := crypto.GenerateRandomKey()
	if err != nil {
		t.Fatalf("GenerateRandomKey() error = %v", err)
	}
	cache, err := tokencache.NewStore(t.TempDir(), key)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	t.Cleanup(func() { _ = cache.Close() })
	return cache
}

func testCreds() auth.Credentials {
	return auth.Credentials{Username: "alice@example.com", Password: "good-password"}
}

func TestClient_EmptyCache_OneLogin(t *testing.T) {
	f := newFakeUpstream(t)
	cache := newTestCache(t)
	client := NewClient(f.srv.URL, testCreds(), cache)

	if _, err := client.ListRestaurants(context.Background()); err != nil {
		t.Fatalf("ListRestaurants() error = %v", err)
	}
	if f.loginCalls != 1 {
		t.Errorf("login calls = %d, want 1", f.loginCalls)
	}

	// In-memory token is reused within the same request
	if _, err := client.ListRestaurants(context.Background()); err != nil {
		t.Fatalf("second ListRestaurants() error = %v", err)
	}
	if f.loginCalls != 1 {
		t.Errorf("login calls after reuse = %d, want 1", f.loginCalls)
	}

	// Token was persisted for future requests
	cached, err := cache.Get("alice@example.com")
	if err != nil {
		t.Fatalf("cache.Get() error = %v", err)
	}
	if cached != testToken {
		t.Errorf("cached token = %q, want %q", cached, testToken)
	}
}

func TestClient_CachedToken_NoLogin(t *testing.T) {
	f := newFakeUpstream(t)
	cache := newTestCache(t)
	if err := cache.Set("alice@example.com", testToken); err != nil {
		t.Fatalf("cache.Set() error = %v", err)
	}

	client := NewClient(f.srv.URL, testCreds(), cache)
	if _, err := client.ListRestaurants(context.Background()); err != nil {
		t.Fatalf("ListRestaurants() error = %v", err)
	}
	if f.loginCalls != 0 {
		t.Errorf("login calls = %d, want 0", f.loginCalls)
	}
}

func TestClient_401ThenSuccess_RetriesOnce(t *testing.T) {
	f := newFakeUpstream(t)
	cache := newTestCache(t)
	if err := cache.Set("alice@example.com", "stale-token"); err != nil {
		t.Fatalf("cache.Set() error = %v", err)
	}

	client := NewClient(f.srv.URL, testCreds(), cache)
	restaurants, err := client.ListRestaurants(context.Background())
	if err != nil {
		t.Fatalf("ListRestaurants() error = %v", err)
	}
	if len(restaurants) != 1 {
		t.Errorf("restaurants = %d, want 1", len(restaurants))
	}
	if f.loginCalls != 1 {
		t.Errorf("login calls = %d, want exactly 1", f.loginCalls)
	}
	if f.adminCalls != 2 {
		t.Errorf("admin calls = %d, want exactly 2 (original + one retry)", f.adminCalls)
	}

	// The stale entry was replaced with the fresh token
	cached, err := cache.Get("alice@example.com")
	if err != nil {
		t.Fatalf("cache.Get() error = %v", err)
	}
	if cached != testToken {
		t.Errorf("cached token = %q, want %q", cached, testToken)
	}
}

func TestClient_401Twice_Terminal(t *testing.T) {
	f := newFakeUpstream(t)
	f.reject = 10 // reject every admin call regardless of token
	cache := newTestCache(t)
	if err := cache.Set("alice@example.com", testToken); err != nil {
		t.Fatalf("cache.Set() error = %v", err)
	}

	client := NewClient(f.srv.URL, testCreds(), cache)
	_, err := client.ListRestaurants(context.Background())
	if err == nil {
		t.Fatal("ListRestaurants() succeeded, want terminal error")
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", apiErr.Status)
	}
	if f.adminCalls != 2 {
		t.Errorf("admin calls = %d, want exactly 2 (no third attempt)", f.adminCalls)
	}
	if f.loginCalls != 1 {
		t.Errorf("login calls = %d, want exactly 1", f.loginCalls)
	}
}

func TestClient_LoginFailure(t *testing.T) {
	f := newFakeUpstream(t)
	cache := newTestCache(t)
	creds := testCreds()
	creds.Password = "wrong"

	client := NewClient(f.srv.URL, creds, cache)
	_, err := client.ListRestaurants(context.Background())

	var authErr *AuthError
	if !errors.As(err, &authErr) {
		t.Fatalf("error = %v, want *AuthError", err)
	}
	if authErr.Status != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", authErr.Status)
	}
}

func TestClient_BusinessError_Verbatim_NoRetry(t *testing.T) {
	f := newFakeUpstream(t)
	f.statusCode = http.StatusUnprocessableEntity
	f.statusBody = `{"message":"no table available for 8 guests"}`
	cache := newTestCache(t)
	if err := cache.Set("alice@example.com", testToken); err != nil {
		t.Fatalf("cache.Set() error = %v", err)
	}

	client := NewClient(f.srv.URL, testCreds(), cache)
	_, err := client.ListRestaurants(context.Background())

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if apiErr.Status != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", apiErr.Status)
	}
	if !strings.Contains(apiErr.Body, "no table available") {
		t.Errorf("body not surfaced verbatim: %q", apiErr.Body)
	}
	if f.adminCalls != 1 {
		t.Errorf("admin calls = %d, want 1 (business errors are not retried)", f.adminCalls)
	}
	if f.loginCalls != 0 {
		t.Errorf("login calls = %d, want 0", f.loginCalls)
	}
}

func TestClient_ResolveRestaurant(t *testing.T) {
	t.Run("exactly one auto-selects", func(t *testing.T) {
		f := newFakeUpstream(t)
		client := NewClient(f.srv.URL, testCreds(), newTestCache(t))

		rid, err := client.ResolveRestaurant(context.Background())
		if err != nil {
			t.Fatalf("ResolveRestaurant() error = %v", err)
		}
		if rid != "rest_1" {
			t.Errorf("restaurant = %q, want rest_1", rid)
		}
	})

	t.Run("zero fails", func(t *testing.T) {
		f := newFakeUpstream(t)
		f.restaurants = nil
		client := NewClient(f.srv.URL, testCreds(), newTestCache(t))

		_, err := client.ResolveRestaurant(context.Background())
		if !errors.Is(err, ErrNoRestaurant) {
			t.Errorf("error = %v, want ErrNoRestaurant", err)
		}
	})

	t.Run("multiple fails with candidates", func(t *testing.T) {
		f := newFakeUpstream(t)
		f.restaurants = []Restaurant{
			{ID: "rest_1", Name: "Chez Test"},
			{ID: "rest_2", Name: "La Table"},
		}
		client := NewClient(f.srv.URL, testCreds(), newTestCache(t))

		_, err := client.ResolveRestaurant(context.Background())
		if !errors.Is(err, ErrAmbiguousRestaurant) {
			t.Fatalf("error = %v, want ErrAmbiguousRestaurant", err)
		}
		if !strings.Contains(err.Error(), "rest_2") {
			t.Errorf("error does not list candidates: %v", err)
		}
	})

	t.Run("explicit scope skips listing", func(t *testing.T) {
		f := newFakeUpstream(t)
		creds := testCreds()
		creds.RestaurantID = "rest_9"
		client := NewClient(f.srv.URL, creds, newTestCache(t))

		rid, err := client.ResolveRestaurant(context.Background())
		if err != nil {
			t.Fatalf("ResolveRestaurant() error = %v", err)
		}
		if rid != "rest_9" {
			t.Errorf("restaurant = %q, want rest_9", rid)
		}
		if f.adminCalls != 0 {
			t.Errorf("admin calls = %d, want 0", f.adminCalls)
		}
	})
}

func TestClient_BookingDefaults(t *testing.T) {
	f := newFakeUpstream(t)
	creds := testCreds()
	creds.RestaurantID = "rest_1"
	client := NewClient(f.srv.URL, creds, newTestCache(t))

	_, err := client.CreateReservation(context.Background(), Booking{
		Date: "2026-09-04", Time: "19:30", Covers: 2,
		FirstName: "Ada", LastName: "Lovelace",
	})
	if err != nil {
		t.Fatalf("CreateReservation() error = %v", err)
	}

	p := f.lastPayload
	for field, want := range map[string]string{
		"locale":            defaultLocale,
		"party_type":        defaultPartyType,
		"payment_processor": defaultPaymentProcessor,
		"source":            bookingSource,
		"status":            ReservationStatusBooked,
	} {
		if p[field] != want {
			t.Errorf("payload[%q] = %v, want %q", field, p[field], want)
		}
	}
	if _, present := p["rescheduled_from"]; present {
		t.Error("create payload carries rescheduled_from")
	}
}

func TestClient_ReschedulePayload(t *testing.T) {
	f := newFakeUpstream(t)
	creds := testCreds()
	creds.RestaurantID = "rest_1"
	client := NewClient(f.srv.URL, creds, newTestCache(t))

	_, err := client.RescheduleReservation(context.Background(), "resv_7", Booking{
		Date: "2026-09-05", Time: "20:00", Covers: 4,
		FirstName: "Ada", LastName: "Lovelace",
	})
	if err != nil {
		t.Fatalf("RescheduleReservation() error = %v", err)
	}

	p := f.lastPayload
	if p["rescheduled_from"] != "resv_7" {
		t.Errorf("payload[rescheduled_from] = %v, want resv_7", p["rescheduled_from"])
	}
	if p["reschedule_option"] != float64(rescheduleOptionCode) {
		t.Errorf("payload[reschedule_option] = %v, want %d", p["reschedule_option"], rescheduleOptionCode)
	}
}
