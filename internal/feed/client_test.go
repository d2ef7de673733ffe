package feed

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"TickPull/internal/domain/models"
	"TickPull/pkg/httpx"
)

func TestClientFetchClassification(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/EURUSD/2003/00/05/00h_ticks.bi5":
			_, _ = w.Write([]byte{1, 2, 3})
		case r.URL.Path == "/EURUSD/2003/00/05/01h_ticks.bi5":
			w.WriteHeader(http.StatusNotFound)
		case r.URL.Path == "/EURUSD/2003/00/05/02h_ticks.bi5":
			w.WriteHeader(http.StatusOK) // empty body
		default:
			w.WriteHeader(http.StatusBadGateway)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, httpx.NewClient())
	ctx := context.Background()
	ref := models.HourRef{Symbol: "EURUSD", Year: 2003, Month: 1, Day: 5}

	ref.Hour = 0
	body, err := c.Fetch(ctx, ref)
	if err != nil {
		t.Fatalf("fetch ok hour: %v", err)
	}
	if len(body) != 3 {
		t.Fatalf("unexpected body %v", body)
	}

	ref.Hour = 1
	if _, err := c.Fetch(ctx, ref); !errors.Is(err, ErrNoData) {
		t.Fatalf("404 should be ErrNoData, got %v", err)
	}

	ref.Hour = 2
	if _, err := c.Fetch(ctx, ref); !errors.Is(err, ErrNoData) {
		t.Fatalf("empty body should be ErrNoData, got %v", err)
	}

	ref.Hour = 3
	_, err = c.Fetch(ctx, ref)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("502 should be StatusError, got %v", err)
	}
	if se.Code != http.StatusBadGateway {
		t.Fatalf("unexpected status code %d", se.Code)
	}
}
