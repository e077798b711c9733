package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "berlin" {
			t.Errorf("q=%q, want berlin", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{"display_name": "Berlin, Deutschland", "lat": "52.52", "lon": "13.405"},
			{"display_name": "Berlin, NH, USA", "lat": "bogus", "lon": "-71.18"}
		]`))
	}))
	defer srv.Close()

	results, err := New(srv.URL).Search(context.Background(), "berlin")
	if err != nil {
		t.Fatal(err)
	}
	// The malformed second entry is skipped, not fatal.
	if len(results) != 1 {
		t.Fatalf("results=%d, want 1", len(results))
	}
	if results[0].Label != "Berlin, Deutschland" {
		t.Fatalf("label=%q", results[0].Label)
	}
	if results[0].Center.Lon() != 13.405 || results[0].Center.Lat() != 52.52 {
		t.Fatalf("center=%v", results[0].Center)
	}
}

func TestSearchServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	if _, err := New(srv.URL).Search(context.Background(), "berlin"); err == nil {
		t.Fatal("want error on 503")
	}
}
