package app

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"
	"strings"

	"review_reminder/internal/domain/email"
	"review_reminder/internal/domain/notification"

	"github.com/google/uuid"
)

const defaultLanguage = "de"

// BuildReviewLink returns {baseURL}/review/{slug}, with ?sid={subscriberID} when
// the subscriber is known.
func BuildReviewLink(baseURL, slug string, subscriberID uuid.UUID) string {
	link := strings.TrimRight(baseURL, "/") + "/review/" + url.PathEscape(slug)
	if subscriberID != uuid.Nil {
		link += "?sid=" + subscriberID.String()
	}
	return link
}

type reminderCopy struct {
	subject string
	body    *template.Template
}

type reminderData struct {
	Name        string
	CompanyName string
	ReviewLink  string
}

var reminderTemplates = map[string]reminderCopy{
	"de": {
		subject: "Wie war Ihr Besuch bei %s?",
		body: template.Must(template.New("reminder_de").Parse(`<!DOCTYPE html>
<html lang="de">
<body style="font-family: sans-serif; color: #222;">
<p>{{if .Name}}Hallo {{.Name}},{{else}}Hallo,{{end}}</p>
<p>vielen Dank für Ihren Besuch bei {{.CompanyName}}. Wir würden uns sehr über eine kurze Google-Bewertung freuen.</p>
<p>Mit wenigen Klicks stellen Sie Ihre Bewertung aus vorbereiteten Stichpunkten zusammen:</p>
<p><a href="{{.ReviewLink}}" style="background: #1a73e8; color: #fff; padding: 10px 16px; text-decoration: none; border-radius: 4px;">Jetzt bewerten</a></p>
<p>Herzliche Grüße<br>{{.CompanyName}}</p>
</body>
</html>`)),
	},
	"en": {
		subject: "How was your visit to %s?",
		body: template.Must(template.New("reminder_en").Parse(`<!DOCTYPE html>
<html lang="en">
<body style="font-family: sans-serif; color: #222;">
<p>{{if .Name}}Hi {{.Name}},{{else}}Hi,{{end}}</p>
<p>thank you for visiting {{.CompanyName}}. We would really appreciate a short Google review.</p>
<p>Put your review together from a few prepared phrases in just a couple of clicks:</p>
<p><a href="{{.ReviewLink}}" style="background: #1a73e8; color: #fff; padding: 10px 16px; text-decoration: none; border-radius: 4px;">Write a review</a></p>
<p>Best regards<br>{{.CompanyName}}</p>
</body>
</html>`)),
	},
}

// ReminderRenderer renders the reminder email for a due subscription.
type ReminderRenderer struct {
	baseURL string
}

func NewReminderRenderer(baseURL string) *ReminderRenderer {
	return &ReminderRenderer{baseURL: baseURL}
}

// Render picks the copy by preferred language, falling back to German.
func (r *ReminderRenderer) Render(d *notification.DueSubscription) (email.Message, error) {
	lang := strings.ToLower(strings.TrimSpace(d.PreferredLanguage))
	copyText, ok := reminderTemplates[lang]
	if !ok {
		copyText = reminderTemplates[defaultLanguage]
	}

	var body bytes.Buffer
	err := copyText.body.Execute(&body, reminderData{
		Name:        d.SubscriberName.String,
		CompanyName: d.CompanyName,
		ReviewLink:  BuildReviewLink(r.baseURL, d.CompanySlug, d.SubscriberID),
	})
	if err != nil {
		return email.Message{}, fmt.Errorf("render reminder for %s: %w", d.SubscriberEmail, err)
	}

	return email.Message{
		To:       d.SubscriberEmail,
		Subject:  fmt.Sprintf(copyText.subject, d.CompanyName),
		HTMLBody: body.String(),
	}, nil
}
