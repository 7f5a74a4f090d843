package whatsapp

import "strings"

// SenderKey holds the transport identifiers that may carry the sender's
// phone number, in descending order of trust.
type SenderKey struct {
	RemoteJid   string // chat identifier, may be an opaque "@lid" alias
	Participant string // real sender inside group/alias chats
	SenderPn    string // explicit public number, when the gateway provides it
}

// PreferredSender picks the identifier most likely to be the sender's real
// number: the explicit public number, then the raw chat id, then — only when
// the chat id is an opaque "@lid" alias — the participant field. The value is
// returned untouched so it can also serve as the reply destination.
func PreferredSender(key SenderKey) string {
	if key.SenderPn != "" {
		return key.SenderPn
	}
	if strings.Contains(key.RemoteJid, "@lid") && key.Participant != "" {
		return key.Participant
	}
	return key.RemoteJid
}

// NormalizePhone produces the best-effort canonical digit string used as the
// directory lookup key: the preferred sender identifier with all non-digits
// stripped, then the Brazilian ninth-digit repair.
func NormalizePhone(key SenderKey) string {
	return repairBRMobile(digitsOnly(PreferredSender(key)))
}

func digitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// repairBRMobile inserts the missing ninth digit into Brazilian mobile
// numbers that arrive with 12 digits instead of 13 (country code 55 + 2-digit
// area code + 8-digit subscriber number). Subscriber numbers starting with
// 6-9 are in the mobile range, so a 9 is prefixed.
//
// Known limitation: a landline number with the same digit count and a
// leading 6 would be mis-normalized. That behavior is kept as-is rather than
// guessed around.
func repairBRMobile(phone string) string {
	if !strings.HasPrefix(phone, "55") || len(phone) != 12 {
		return phone
	}
	subscriber := phone[4:]
	if subscriber[0] >= '6' && subscriber[0] <= '9' {
		return phone[:4] + "9" + subscriber
	}
	return phone
}
