package schedule

import (
	"strings"

	"travelops-dispatch/services/recipient"
)

// renderBody substitutes recipient-derived variables into a stage body.
// Unknown placeholders are left alone; known placeholders with no value
// render as the empty string.
func renderBody(tpl string, ev *recipient.TriggerEvent) string {
	r := strings.NewReplacer(
		"{name}", ev.Name,
		"{phone}", ev.Phone,
		"{email}", ev.Email,
		"{product}", ev.Product,
		"{link}", ev.BookingLink,
	)
	return r.Replace(tpl)
}
