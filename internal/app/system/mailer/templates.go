// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// ReminderEmailData holds data for dues reminder templates.
type ReminderEmailData struct {
	SiteName   string
	MemberName string
	GroupName  string
	Title      string
	Amount     string
	DueDate    string // e.g., "Mon, 03 Jun 2024"
	Link       string // optional
}

var reminderTmpl = template.Must(template.New("reminder").Parse(reminderHTMLTemplate))

// BuildReminderEmail creates a dues reminder with both HTML and text bodies.
func BuildReminderEmail(to string, data ReminderEmailData) Email {
	return Email{
		To:       to,
		Subject:  fmt.Sprintf("%s: %s is due %s", data.GroupName, data.Title, data.DueDate),
		TextBody: buildReminderText(data),
		HTMLBody: buildReminderHTML(data),
	}
}

func buildReminderText(data ReminderEmailData) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Hello %s,\n\n", data.MemberName)
	fmt.Fprintf(&buf, "This is a reminder that %q (%s) for %s is due on %s.\n", data.Title, data.Amount, data.GroupName, data.DueDate)
	buf.WriteString("We have no payment from you on record yet.\n\n")
	if data.Link != "" {
		buf.WriteString("Details: " + data.Link + "\n\n")
	}
	buf.WriteString("If you have already paid, please let your treasurer know.\n")
	fmt.Fprintf(&buf, "\n%s\n", data.SiteName)
	return buf.String()
}

func buildReminderHTML(data ReminderEmailData) string {
	var buf bytes.Buffer
	_ = reminderTmpl.Execute(&buf, data)
	return buf.String()
}

const reminderHTMLTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>Payment Reminder</title>
</head>
<body style="margin: 0; padding: 0; font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; background-color: #f3f4f6;">
  <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="background-color: #f3f4f6;">
    <tr>
      <td align="center" style="padding: 40px 20px;">
        <table role="presentation" width="100%" cellspacing="0" cellpadding="0" style="max-width: 480px; background-color: #ffffff; border-radius: 8px;">
          <tr>
            <td style="padding: 32px 32px 24px; text-align: center; border-bottom: 1px solid #e5e7eb;">
              <h1 style="margin: 0; font-size: 22px; font-weight: 600; color: #047857;">{{.GroupName}}</h1>
            </td>
          </tr>
          <tr>
            <td style="padding: 32px;">
              <p style="margin: 0 0 16px; font-size: 16px; color: #374151;">Hello {{.MemberName}},</p>
              <p style="margin: 0 0 24px; font-size: 16px; color: #374151; line-height: 1.5;">
                <strong>{{.Title}}</strong> is due on <strong>{{.DueDate}}</strong>.
                We have no payment from you on record yet.
              </p>
              <div style="background-color: #f3f4f6; border-radius: 8px; padding: 20px; text-align: center; margin-bottom: 24px;">
                <span style="font-size: 28px; font-weight: 700; color: #1f2937;">{{.Amount}}</span>
              </div>
              {{if .Link}}
              <table role="presentation" width="100%" cellspacing="0" cellpadding="0">
                <tr>
                  <td align="center">
                    <a href="{{.Link}}" style="display: inline-block; padding: 12px 28px; background-color: #047857; color: #ffffff; text-decoration: none; font-size: 15px; border-radius: 6px;">View details</a>
                  </td>
                </tr>
              </table>
              {{end}}
            </td>
          </tr>
          <tr>
            <td style="padding: 20px 32px; background-color: #f9fafb; border-top: 1px solid #e5e7eb; border-radius: 0 0 8px 8px;">
              <p style="margin: 0; font-size: 12px; color: #9ca3af; text-align: center;">
                If you have already paid, please let your treasurer know. Sent by {{.SiteName}}.
              </p>
            </td>
          </tr>
        </table>
      </td>
    </tr>
  </table>
</body>
</html>`
