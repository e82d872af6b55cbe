package email

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
)

func TestSendStatusEmail(t *testing.T) {
	var gotPath string
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zerolog.Nop())
	if err := c.SendStatusEmail(context.Background(), "pat@example.com", "denied", "allergy", "semaglutide"); err != nil {
		t.Fatalf("SendStatusEmail: %v", err)
	}
	if gotPath != "/send-status-email" {
		t.Errorf("path = %s", gotPath)
	}
	if got["to"] != "pat@example.com" || got["status"] != "denied" ||
		got["denialReason"] != "allergy" || got["medication"] != "semaglutide" {
		t.Errorf("body = %v", got)
	}
}

func TestSendStatusEmailOmitsEmptyReason(t *testing.T) {
	var raw []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, r.ContentLength)
		r.Body.Read(buf)
		raw = buf
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zerolog.Nop())
	if err := c.SendStatusEmail(context.Background(), "pat@example.com", "prescribed", "", "tirzepatide"); err != nil {
		t.Fatalf("SendStatusEmail: %v", err)
	}
	var got map[string]interface{}
	json.Unmarshal(raw, &got)
	if _, present := got["denialReason"]; present {
		t.Error("empty denialReason should be omitted")
	}
}

func TestSendConfirmationEmail(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zerolog.Nop())
	if err := c.SendConfirmationEmail(context.Background(), "pat@example.com", "semaglutide", "4_months", 640); err != nil {
		t.Fatalf("SendConfirmationEmail: %v", err)
	}
	sub, _ := got["subscription"].(map[string]interface{})
	if sub["medication"] != "semaglutide" || sub["plan_type"] != "4_months" || sub["amount"] != float64(640) {
		t.Errorf("subscription = %v", sub)
	}
}

func TestSendReportsServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, zerolog.Nop())
	if err := c.SendStatusEmail(context.Background(), "x@example.com", "prescribed", "", "tirzepatide"); err == nil {
		t.Error("expected error for 500 response")
	}
}
