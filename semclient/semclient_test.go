package semclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestStaticClient_FetchKnown(t *testing.T) {
	c := NewStaticClient().Add(0xdeadbeef, "ADD", "add_bits.2({N})(x, y)")

	name, text, err := c.Fetch(context.Background(), 0xdeadbeef)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "ADD" {
		t.Errorf("name = %q, want %q", name, "ADD")
	}
	if text != "add_bits.2({N})(x, y)" {
		t.Errorf("text = %q, want the registered semantics text", text)
	}
}

func TestStaticClient_FetchUnknownIsNotFound(t *testing.T) {
	c := NewStaticClient()
	_, _, err := c.Fetch(context.Background(), 0x12345678)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestHTTPClient_FetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"name":"SUB","text":"sub_bits.2({N})(x, y)"}`))
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.Listener.Addr().String())
	name, text, err := c.Fetch(context.Background(), 0x1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "SUB" || text != "sub_bits.2({N})(x, y)" {
		t.Errorf("Fetch() = (%q, %q), want (SUB, sub_bits.2({N})(x, y))", name, text)
	}
}

func TestHTTPClient_FetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.Listener.Addr().String())
	_, _, err := c.Fetch(context.Background(), 0x2)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestHTTPClient_FetchTransportErrorIsNotFound(t *testing.T) {
	c := NewHTTPClient("127.0.0.1:1") // nothing listens here
	_, _, err := c.Fetch(context.Background(), 0x3)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
