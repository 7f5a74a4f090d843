package whatsapp

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name string
		key  SenderKey
		want string
	}{
		{
			name: "plain jid",
			key:  SenderKey{RemoteJid: "5511987654321@s.whatsapp.net"},
			want: "5511987654321",
		},
		{
			name: "explicit public number wins over jid",
			key: SenderKey{
				RemoteJid: "123456789@lid",
				SenderPn:  "5511987654321@s.whatsapp.net",
			},
			want: "5511987654321",
		},
		{
			name: "lid alias falls back to participant",
			key: SenderKey{
				RemoteJid:   "123456789@lid",
				Participant: "5511987654321@s.whatsapp.net",
			},
			want: "5511987654321",
		},
		{
			name: "lid alias without participant keeps alias digits",
			key:  SenderKey{RemoteJid: "123456789@lid"},
			want: "123456789",
		},
		{
			name: "missing ninth digit is repaired for mobile range",
			key:  SenderKey{RemoteJid: "557487654321@s.whatsapp.net"}, // 12 digits, subscriber starts with 8
			want: "5574987654321",
		},
		{
			name: "twelve digits outside mobile range left alone",
			key:  SenderKey{RemoteJid: "557433334444@s.whatsapp.net"}, // landline prefix 3
			want: "557433334444",
		},
		{
			name: "thirteen digits already complete",
			key:  SenderKey{RemoteJid: "5574987654321@s.whatsapp.net"},
			want: "5574987654321",
		},
		{
			name: "non-brazilian number untouched",
			key:  SenderKey{RemoteJid: "441134960000@s.whatsapp.net"},
			want: "441134960000",
		},
		{
			name: "formatting stripped",
			key:  SenderKey{SenderPn: "+55 (11) 98765-4321"},
			want: "5511987654321",
		},
		{
			name: "empty input",
			key:  SenderKey{},
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.key); got != tt.want {
				t.Errorf("NormalizePhone(%+v) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestPreferredSender(t *testing.T) {
	key := SenderKey{
		RemoteJid:   "123456789@lid",
		Participant: "5511987654321@s.whatsapp.net",
	}
	if got := PreferredSender(key); got != "5511987654321@s.whatsapp.net" {
		t.Errorf("expected participant for lid alias, got %q", got)
	}

	key.SenderPn = "5511999998888"
	if got := PreferredSender(key); got != "5511999998888" {
		t.Errorf("expected explicit public number to win, got %q", got)
	}
}
