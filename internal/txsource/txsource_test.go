package txsource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"musd-rewards-watcher/internal/conversion"
	"musd-rewards-watcher/internal/txwatch"
)

func TestListDecodesRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/transactions" || r.Method != http.MethodGet {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`[{"id":"a","status":"submitted","type":"stablecoinConversion","txParams":{"from":"0x1","to":"0x2","data":"0x","value":"0x0"}}]`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Timeout: time.Second}, zerolog.Nop())
	list, err := c.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].Status != txwatch.StatusSubmitted || list[0].Type != txwatch.TypeConversion {
		t.Fatalf("decoded list wrong: %+v", list)
	}
}

func TestSubmitReturnsID(t *testing.T) {
	var got conversion.SubmitRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode submit body: %v", err)
		}
		_, _ = w.Write([]byte(`{"id":"tx-9"}`))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Timeout: time.Second}, zerolog.Nop())
	id, err := c.Submit(context.Background(), conversion.SubmitRequest{ChainID: "0x1", From: "0xabc"})
	if err != nil {
		t.Fatal(err)
	}
	if id != "tx-9" {
		t.Fatalf("id = %q", id)
	}
	if got.ChainID != "0x1" || got.From != "0xabc" {
		t.Fatalf("submitted payload wrong: %+v", got)
	}
}

func TestSubmitErrorCarriesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rejected", http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Timeout: time.Second}, zerolog.Nop())
	if _, err := c.Submit(context.Background(), conversion.SubmitRequest{}); err == nil {
		t.Fatal("non-2xx 应报错")
	}
}

func TestUpdatePaymentTokenPath(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, Timeout: time.Second}, zerolog.Nop())
	err := c.UpdatePaymentToken(context.Background(), "tx-9", conversion.PaymentToken{Symbol: "USDC"})
	if err != nil {
		t.Fatal(err)
	}
	if gotMethod != http.MethodPatch || gotPath != "/transactions/tx-9/payment-token" {
		t.Fatalf("unexpected request %s %s", gotMethod, gotPath)
	}
}
