package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPChecker_UsesHEAD(t *testing.T) {
	var method, ua string
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		ua = r.UserAgent()
		w.WriteHeader(200)
	}))
	defer s.Close()

	chk := NewHTTPChecker(2 * time.Second)
	code, err := chk.Head(context.Background(), s.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != 200 {
		t.Fatalf("want status 200, got %d", code)
	}
	if method != http.MethodHead {
		t.Fatalf("want HEAD, got %s", method)
	}
	if ua != userAgent {
		t.Fatalf("want user agent %q, got %q", userAgent, ua)
	}
}

func TestHTTPChecker_Status500(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", 500)
	}))
	defer s.Close()

	code, err := NewHTTPChecker(2*time.Second).Head(context.Background(), s.URL)
	if err != nil {
		t.Fatalf("a 500 is a response, not a transport error: %v", err)
	}
	if code != 500 {
		t.Fatalf("want status 500, got %d", code)
	}
}

func TestHTTPChecker_DoesNotFollowRedirects(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" {
			http.Redirect(w, r, "/elsewhere", http.StatusMovedPermanently)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer s.Close()

	code, err := NewHTTPChecker(2*time.Second).Head(context.Background(), s.URL+"/")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if code != http.StatusMovedPermanently {
		t.Fatalf("want 301, got %d", code)
	}
}

func TestHTTPChecker_TimeoutIsTransportError(t *testing.T) {
	// Server sleeps longer than client timeout
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(200)
	}))
	defer s.Close()

	code, err := NewHTTPChecker(50*time.Millisecond).Head(context.Background(), s.URL)
	if err == nil {
		t.Fatalf("want timeout error, got status %d", code)
	}
	if code != 0 {
		t.Fatalf("want status 0 on transport error, got %d", code)
	}
}

func TestHTTPChecker_DefaultTimeout(t *testing.T) {
	chk := NewHTTPChecker(0)
	if chk.Client.Timeout != 10*time.Second {
		t.Fatalf("want 10s default timeout, got %s", chk.Client.Timeout)
	}
}
