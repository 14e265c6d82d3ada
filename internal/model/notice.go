package model

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Notice is a single tender listing candidate scraped from a source page
type Notice struct {
	Title    string  `json:"title"`              // Visible headline of the listing
	Buyer    *string `json:"buyer,omitempty"`    // Procuring entity, nil when the source does not expose it
	Deadline *string `json:"deadline,omitempty"` // Free-text closing date, never parsed
	URL      string  `json:"url"`                // Absolute URL resolved against the source page
	Source   string  `json:"source"`             // Tag of the adapter that produced it
}

// Text returns a pointer to s, or nil when s is blank
func Text(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// BuyerText returns the buyer or "" when absent
func (n Notice) BuyerText() string {
	if n.Buyer == nil {
		return ""
	}
	return *n.Buyer
}

// DeadlineText returns the deadline or "" when absent
func (n Notice) DeadlineText() string {
	if n.Deadline == nil {
		return ""
	}
	return *n.Deadline
}

// RelevanceText is the blob scored by the relevance filter: title and URL
func (n Notice) RelevanceText() string {
	return n.Title + " " + n.URL
}

// Fingerprint returns the dedup identity of the notice
func (n Notice) Fingerprint() string {
	return Fingerprint(n.Title, n.BuyerText(), n.DeadlineText(), n.URL)
}

// FingerprintSeparator joins the fingerprint fields. Changing it invalidates every persisted state file.
const FingerprintSeparator = "|"

// Fingerprint computes the hex SHA-256 of title|buyer|deadline|url.
// Absent optional fields contribute an empty string.
func Fingerprint(title, buyer, deadline, url string) string {
	joined := strings.Join([]string{title, buyer, deadline, url}, FingerprintSeparator)
	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:])
}
