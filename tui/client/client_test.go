package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClient_MessagesAndErrors(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/messages":
			gotQuery = r.URL.RawQuery
			w.Write([]byte(`[{"id":1,"sender":"Ahmed","message":"شقة","property_type":"apartment","price":"500 ألف جنيه"}]`))
		case "/ingest/run":
			w.WriteHeader(http.StatusConflict)
			w.Write([]byte(`{"success":false,"error":"ingest run already in progress"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := New(srv.URL + "/")
	msgs, err := c.Messages(context.Background(), "", "apartment", 50)
	if err != nil {
		t.Fatalf("messages: %v", err)
	}
	if gotQuery != "limit=50&property_type=apartment" {
		t.Fatalf("unexpected query %q", gotQuery)
	}
	if len(msgs) != 1 || *msgs[0].PropertyType != "apartment" || *msgs[0].Price != "500 ألف جنيه" {
		t.Fatalf("unexpected messages %+v", msgs)
	}

	err = c.RunIngest(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusConflict || apiErr.Message != "ingest run already in progress" {
		t.Fatalf("expected conflict error, got %v", err)
	}
}
