package notify

import (
	"strings"
	"testing"

	"github.com/ppiankov/tenderwatch/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDigest(t *testing.T) {
	notices := []model.Notice{
		{Title: "ERP System Tender", URL: "http://x/1", Source: "EthiopianTender.com"},
		{
			Title:    "Web <Portal> & API",
			Buyer:    model.Text("Ministry of Innovation"),
			Deadline: model.Text("2025-07-01"),
			URL:      "http://x/2?a=1&b=2",
			Source:   "GlobalTenders (ET Software)",
		},
	}

	msg, err := FormatDigest(notices, 17)
	require.NoError(t, err)

	assert.Equal(t, "[ET Tenders] 2 new software/ICT notices", msg.Subject)
	assert.Contains(t, msg.HTML, "checked 17 items")
	assert.Contains(t, msg.HTML, "<b>ERP System Tender</b> &mdash; deadline: N/A")
	assert.Contains(t, msg.HTML, "&mdash; Ministry of Innovation &mdash; deadline: 2025-07-01")
	assert.Contains(t, msg.HTML, "(EthiopianTender.com)")
	assert.Contains(t, msg.HTML, "config/keywords.txt")

	// titles are escaped
	assert.Contains(t, msg.HTML, "Web &lt;Portal&gt; &amp; API")
	assert.NotContains(t, msg.HTML, "<Portal>")
	assert.Equal(t, 2, strings.Count(msg.HTML, "<li>"))
}

func TestFormatDigest_Empty(t *testing.T) {
	msg, err := FormatDigest(nil, 5)
	require.NoError(t, err)

	assert.Equal(t, "[ET Tenders] No new software/ICT notices", msg.Subject)
	assert.Contains(t, msg.HTML, "scanned 5 items")
	assert.NotContains(t, msg.HTML, "<li>")
}

func TestHeartbeatMessage(t *testing.T) {
	msg := HeartbeatMessage()
	assert.Equal(t, "[ET Tenders] Daily heartbeat", msg.Subject)
	assert.Contains(t, msg.HTML, "Watcher is running")
}
