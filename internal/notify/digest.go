// Package notify formats and delivers digest and heartbeat emails.
package notify

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/ppiankov/tenderwatch/internal/model"
)

// SubjectPrefix tags every outgoing email
const SubjectPrefix = "[ET Tenders]"

// Message is a rendered email
type Message struct {
	Subject string
	HTML    string
}

var digestTemplate = template.Must(template.New("digest").Parse(`
{{- if .Notices -}}
<p>New Ethiopia software/ICT tenders detected (checked {{.Checked}} items):</p>
<ul>
{{- range .Notices}}
<li><b>{{.Title}}</b>{{with .BuyerText}} &mdash; {{.}}{{end}} &mdash; deadline: {{with .DeadlineText}}{{.}}{{else}}N/A{{end}}<br><a href="{{.URL}}">{{.URL}}</a> <i>({{.Source}})</i></li>
{{- end}}
</ul>
<p style="color:#888">You can tune keywords in config/keywords.txt</p>
{{- else -}}
<p>No new matching tenders in the latest check (scanned {{.Checked}} items).</p>
<p style="color:#888">This is a heartbeat. You can tune keywords in config/keywords.txt</p>
{{- end}}
`))

// FormatDigest renders the digest for notices found in a run that checked `checked` candidates
func FormatDigest(notices []model.Notice, checked int) (Message, error) {
	subject := fmt.Sprintf("%s No new software/ICT notices", SubjectPrefix)
	if len(notices) > 0 {
		subject = fmt.Sprintf("%s %d new software/ICT notices", SubjectPrefix, len(notices))
	}

	var buf bytes.Buffer
	err := digestTemplate.Execute(&buf, struct {
		Notices []model.Notice
		Checked int
	}{notices, checked})
	if err != nil {
		return Message{}, fmt.Errorf("render digest: %w", err)
	}

	return Message{Subject: subject, HTML: buf.String()}, nil
}

// HeartbeatMessage is the daily "still running" email
func HeartbeatMessage() Message {
	return Message{
		Subject: SubjectPrefix + " Daily heartbeat",
		HTML:    "<p>Watcher is running.</p>",
	}
}
