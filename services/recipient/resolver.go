package recipient

import (
	"strings"

	"travelops-dispatch/services/funnel"
)

// Resolve returns the contact address to target for a channel, or ok=false
// when the recipient has no usable address. Not having an address is not an
// error; it means the channel's funnels are skipped for this recipient.
func Resolve(ev *TriggerEvent, channel funnel.Channel) (string, bool) {
	switch channel {
	case funnel.ChannelEmail:
		email := strings.TrimSpace(ev.Email)
		return email, email != ""
	default:
		phone := normalizePhone(ev.Phone)
		return phone, phone != ""
	}
}

// normalizePhone strips everything but digits.
func normalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
