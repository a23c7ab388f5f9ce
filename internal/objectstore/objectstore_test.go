package objectstore

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/veridetect/plagiscan/internal/apperr"
)

func TestFetchObject_ReturnsBodyOnSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reports/doc.pdf" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Write([]byte("%PDF-1.4 fake content"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "key", "secret")
	data, err := client.FetchObject(t.Context(), "reports", "doc.pdf")
	if err != nil {
		t.Fatalf("FetchObject() error = %v", err)
	}
	if string(data) != "%PDF-1.4 fake content" {
		t.Errorf("unexpected body: %q", data)
	}
}

func TestFetchObject_ReturnsNotFoundFor404(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "")
	_, err := client.FetchObject(t.Context(), "reports", "missing.pdf")
	if apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}

func TestFetchObject_EscapesNestedPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/bucket/a%20b/c.pdf" && r.URL.EscapedPath() != "/bucket/a%20b/c.pdf" {
			t.Errorf("unexpected escaped path: %s", r.URL.EscapedPath())
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "", "")
	if _, err := client.FetchObject(t.Context(), "bucket", "a b/c.pdf"); err != nil {
		t.Fatalf("FetchObject() error = %v", err)
	}
}
