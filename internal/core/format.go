package core

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatBRL renders an amount as Brazilian currency, e.g. 1500 becomes
// "R$ 1.500,00".
func FormatBRL(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	fixed := amount.Abs().StringFixed(2)

	intPart := fixed[:len(fixed)-3]
	fracPart := fixed[len(fixed)-2:]

	var grouped strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(digit)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%sR$ %s,%s", sign, grouped.String(), fracPart)
}

func formatDate(t time.Time) string {
	return t.Format("02/01/2006")
}

// renderPayableLine formats one payable for a chat reply.
// Example: 📅 10/03/2026 - *Conta de luz*\n   💰 R$ 150,00 - ⏳ Aberto
func renderPayableLine(p Payable) string {
	status := "⏳ Aberto"
	if p.IsPaid {
		status = "✅ Pago"
	}
	return fmt.Sprintf("📅 %s - *%s*\n   💰 %s - %s",
		formatDate(p.DueDate), p.Description, FormatBRL(p.Amount), status)
}

// renderLedgerLine formats one ledger entry for a chat reply.
// Example: 📈 *R$ 100,00* - Oferta\n   📅 10/02/2026
func renderLedgerLine(e LedgerEntry) string {
	icon := "📉"
	if e.Type == Income {
		icon = "📈"
	}
	return fmt.Sprintf("%s *%s* - %s\n   📅 %s",
		icon, FormatBRL(e.Amount), e.Description, formatDate(e.Date))
}

func renderNamedLine(name string) string {
	return "• " + name
}

const emptyResultLine = "_(Nenhum registro encontrado)_"
