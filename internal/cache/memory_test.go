package cache

import (
	"strings"
	"testing"
	"time"
)

func TestMemoryStore_PutGet(t *testing.T) {
	s := NewMemoryStore(time.Minute)
	url := "https://example.com/tenders"

	if _, found := s.Get(url); found {
		t.Fatal("Expected empty store")
	}

	s.Put(url, Page{Body: []byte("<html></html>"), FinalURL: "https://www.example.com/tenders/"})

	page, found := s.Get(url)
	if !found {
		t.Fatal("Expected stored page")
	}
	if string(page.Body) != "<html></html>" {
		t.Errorf("Unexpected body: %s", page.Body)
	}
	if page.FinalURL != "https://www.example.com/tenders/" {
		t.Errorf("Expected final URL to be kept, got %s", page.FinalURL)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	s := NewMemoryStore(time.Millisecond)
	s.Put("https://example.com", Page{Body: []byte("v")})

	time.Sleep(5 * time.Millisecond)

	if _, found := s.Get("https://example.com"); found {
		t.Error("Expected page to expire")
	}
}

func TestMemoryStore_NoExpiry(t *testing.T) {
	s := NewMemoryStore(0)
	s.Put("https://example.com", Page{Body: []byte("v")})

	time.Sleep(2 * time.Millisecond)

	if _, found := s.Get("https://example.com"); !found {
		t.Error("Expected page to be kept when ttl is zero")
	}
}

func TestKey(t *testing.T) {
	a := Key("https://example.com/1")
	b := Key("https://example.com/2")

	if a == b {
		t.Error("Expected distinct keys for distinct URLs")
	}
	if !strings.HasPrefix(a, "tenderwatch:page:v1:") {
		t.Errorf("Unexpected key prefix: %s", a)
	}
}
