package email

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"eventtracker/internal/domain/event"
)

var noticeTmpl = template.Must(template.New("notice").Parse(`<h1>Novo evento: {{.Title}}</h1>
<p><strong>Quando:</strong> {{.When}}</p>
<p><strong>Onde:</strong> {{.Location}}</p>
{{if .Category}}<p><strong>Categoria:</strong> {{.Category}}</p>{{end}}
<p>{{.Description}}</p>
<p><small>Criado por {{.CreatedBy}}</small></p>`))

// EventCreatedNotice composes the message announcing a new event.
func EventCreatedNotice(to []string, e event.Event, categoryLabel, creatorEmail string, loc *time.Location) (Message, error) {
	if loc == nil {
		loc = time.Local
	}
	when := e.Date.In(loc).Format("02/01/2006 15:04")
	var buf bytes.Buffer
	err := noticeTmpl.Execute(&buf, map[string]string{
		"Title":       e.Title,
		"When":        when,
		"Location":    e.Location,
		"Category":    categoryLabel,
		"Description": e.Description,
		"CreatedBy":   creatorEmail,
	})
	if err != nil {
		return Message{}, err
	}
	return Message{
		To:      to,
		Subject: "Novo evento: " + e.Title,
		HTML:    buf.String(),
		Text:    fmt.Sprintf("%s\n%s\n%s\n\n%s", e.Title, when, e.Location, e.Description),
	}, nil
}
