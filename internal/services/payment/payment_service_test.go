package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSessionUnwrapsEnvelope(t *testing.T) {
	var gotAuth string
	var gotReq SessionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		require.Equal(t, "/checkout/sessions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": Session{
				ID:          "sess_1",
				URL:         "https://pay.example/sess_1",
				Status:      "open",
				AmountCents: 4998,
			},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test", "")
	sess, err := c.CreateSession(context.Background(), SessionRequest{
		Reference: "cart",
		LineItems: []LineItem{{ProductID: "p1", Name: "Workbook", UnitCents: 2999, Quantity: 1}},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk_test", gotAuth)
	assert.Equal(t, int64(2999), gotReq.LineItems[0].UnitCents)
	assert.Equal(t, "sess_1", sess.ID)
	assert.Equal(t, int64(4998), sess.AmountCents)
}

func TestCreateSessionVendorError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "invalid line items",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test", "")
	_, err := c.CreateSession(context.Background(), SessionRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid line items")
}

func TestGetSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/checkout/sessions/sess_9", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    Session{ID: "sess_9", Status: "paid"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test", "")
	sess, err := c.GetSession(context.Background(), "sess_9")
	require.NoError(t, err)
	assert.True(t, sess.Paid())
}

func TestGetSessionRetriesAfterOutage(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data":    Session{ID: "sess_9", Status: "paid"},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test", "")
	sess, err := c.GetSession(context.Background(), "sess_9")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, sess.Paid())
}

func TestGetSessionGivesUpAfterOneRetry(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test", "")
	_, err := c.GetSession(context.Background(), "sess_9")
	require.Error(t, err)
	assert.Equal(t, 2, calls)
}

func TestCreateSessionNeverRetries(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test", "")
	_, err := c.CreateSession(context.Background(), SessionRequest{Reference: "cart"})
	require.Error(t, err)
	assert.Equal(t, 1, calls, "a replayed create could double-charge")
}

func TestSessionPaidStates(t *testing.T) {
	assert.True(t, (&Session{Status: "paid"}).Paid())
	assert.True(t, (&Session{Status: "complete"}).Paid())
	assert.False(t, (&Session{Status: "open"}).Paid())
	assert.False(t, (&Session{Status: "failed"}).Paid())
}

func TestValidateSignature(t *testing.T) {
	c := NewClient("", "", "whsec_test")
	body := []byte(`{"type":"checkout.session.completed"}`)

	mac := hmac.New(sha256.New, []byte("whsec_test"))
	mac.Write(body)
	good := hex.EncodeToString(mac.Sum(nil))

	assert.True(t, c.ValidateSignature(good, body))
	assert.False(t, c.ValidateSignature(good, []byte("tampered")))
	assert.False(t, c.ValidateSignature("deadbeef", body))
}
