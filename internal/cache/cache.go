// Package cache keeps fetched pages for the rest of a run so a listing shared by
// several sources is downloaded once.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Page is a fetched document and the URL it was finally served from.
// Relative links on the page resolve against FinalURL.
type Page struct {
	Body     []byte
	FinalURL string
}

// PageStore holds pages keyed by URL
type PageStore interface {
	Get(rawURL string) (Page, bool)
	Put(rawURL string, page Page)
}

// Key generates a store key from a URL
func Key(rawURL string) string {
	hash := sha256.Sum256([]byte(rawURL))
	return "tenderwatch:page:v1:" + hex.EncodeToString(hash[:])
}
