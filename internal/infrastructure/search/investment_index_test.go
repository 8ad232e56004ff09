package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/oksasatya/invest-payout-engine/internal/domain/entity"
)

func newTestIndex(t *testing.T, h http.HandlerFunc) *InvestmentIndex {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	if err != nil {
		t.Fatal(err)
	}
	return NewInvestmentIndex(es, "investments")
}

func TestDocument(t *testing.T) {
	next := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	inv := &entity.Investment{ID: "inv_1", OwnerID: "u1", Amount: 100000, Status: entity.StatusActive, NextPaymentDate: &next}
	doc := Document(inv, &entity.OwnerInfo{Name: "Ada", Email: "ada@example.com"})
	if doc["owner_email"] != "ada@example.com" || doc["status"] != "active" || doc["next_payment_date"] == nil {
		t.Fatalf("unexpected document: %v", doc)
	}
	if _, ok := Document(inv, nil)["owner_name"]; ok {
		t.Fatal("owner fields set without owner")
	}
}

func TestQuerySizeClamp(t *testing.T) {
	for in, want := range map[int]int{0: 10, -1: 10, 25: 25, 51: 10} {
		if got := Query("x", in)["size"]; got != want {
			t.Errorf("size %d -> %v, want %d", in, got, want)
		}
	}
}

func TestIndexInvestment(t *testing.T) {
	var path, body string
	x := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	})
	inv := &entity.Investment{ID: "inv_1", OwnerID: "u1", Amount: 100000, Status: entity.StatusActive}
	if err := x.IndexInvestment(context.Background(), inv, nil); err != nil {
		t.Fatal(err)
	}
	if path != "/investments/_doc/inv_1" {
		t.Fatalf("path = %s", path)
	}
	if !strings.Contains(body, `"amount":100000`) {
		t.Fatalf("body = %s", body)
	}
}

func TestIndexInvestmentErrorStatus(t *testing.T) {
	x := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"mapper_parsing_exception"}`)
	})
	if err := x.IndexInvestment(context.Background(), &entity.Investment{ID: "inv_1"}, nil); err == nil {
		t.Fatal("expected error for 400 response")
	}
}

func TestSearchInvestments(t *testing.T) {
	var query map[string]any
	x := newTestIndex(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&query)
		_, _ = io.WriteString(w, `{"hits":{"hits":[{"_id":"inv_1","_source":{"id":"inv_1","owner_email":"ada@example.com"}}]}}`)
	})
	res, err := x.SearchInvestments(context.Background(), " ada ", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(res) != 1 || res[0]["id"] != "inv_1" {
		t.Fatalf("results = %v", res)
	}
	mm := query["query"].(map[string]any)["multi_match"].(map[string]any)
	if mm["query"] != "ada" || query["size"] != float64(5) {
		t.Fatalf("query = %v", query)
	}
}
