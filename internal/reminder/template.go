// Package reminder renders and dispatches due maintenance reminders.
package reminder

import "strings"

// TemplateData holds the values substituted into a message template.
type TemplateData struct {
	ClientName      string
	Resource        string
	Date            string
	BusinessName    string
	BusinessContact string
}

// RenderTemplate replaces every occurrence of the known placeholders with
// the tenant's values. Unknown placeholders pass through verbatim so a
// typo in a template shows up in the message instead of failing the send.
func RenderTemplate(template string, data TemplateData) string {
	replacer := strings.NewReplacer(
		"{client_name}", data.ClientName,
		"{resource}", data.Resource,
		"{date}", data.Date,
		"{business_name}", data.BusinessName,
		"{business_contact}", data.BusinessContact,
	)
	return replacer.Replace(template)
}
