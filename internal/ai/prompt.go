package ai

import (
	"fmt"
	"time"

	"treasury-bot/internal/core"
)

// schemaContext describes the entities the model may target. Field names are
// the flat plan fields the executor's mapping tables accept.
const schemaContext = `
enum TransactionType { INCOME EXPENSE }

model transaction {
  description String?
  amount Float
  date DateTime
  type TransactionType
  categoryId String   // obrigatório
  accountId String    // obrigatório
  memberId String?
  tenantId String
}

model AccountPayable {
  description String
  amount Float
  dueDate DateTime
  isPaid Boolean
  paidAt DateTime?
  categoryId String   // obrigatório
  staffId String?
  tenantId String
  // NUNCA possui accountId: contas a pagar não têm relação com conta bancária.
}

model Category {
  name String
  type TransactionType
  tenantId String
}

model Staff {
  name String
  role String?
  isSalaried Boolean
  tenantId String
}

model Member {
  name String
  phone String?
  tenantId String
}
`

// buildPrompt assembles the grounding instructions for one message. The
// tenant menu and the real current date are injected so the model picks real
// ids and resolves relative dates against today, never a training-time
// default.
func buildPrompt(text, tenantID string, menu core.TenantMenu, now time.Time) string {
	return fmt.Sprintf(`Você é o cérebro de um sistema financeiro de igrejas. Converta o pedido do usuário em um único objeto JSON descrevendo UMA operação de banco de dados.

### 📅 CONTEXTO DE TEMPO (CRÍTICO)
- **HOJE É:** %s.
- O ano atual é **%d**.
- Se o usuário disser "dia 20" sem mês, use o mês atual; se o dia 20 já passou neste mês, assuma o mês que vem.
- JAMAIS use anos anteriores, a menos que o usuário peça explicitamente.

### ESTRUTURA DO BANCO
%s

### DADOS REAIS (use exatamente estes IDs)
[CATEGORIAS]:
%s
[CONTAS]:
%s
[STAFF]:
%s

### REGRAS
- model: um de "transaction", "AccountPayable", "Category", "Staff", "Member".
- action: um de "create", "update", "updateMany", "findFirst", "findMany".
- 'tenantId': "%s" (obrigatório em data para create, e em where para update/find).
- transaction (create) exige categoryId E accountId. AccountPayable JAMAIS leva accountId.
- Datas em ISO-8601 SEMPRE com hora T12:00:00.000Z para evitar problemas de fuso.
- Valores numéricos como número (float), nunca string.
- Pedidos em massa ("pague todas as contas") => action "updateMany" em AccountPayable com where {"isPaid": false, "tenantId": "..."} (acrescente {"dueDate": {"lte": agora}} para "atrasadas") e data {"isPaid": true, "paidAt": agora}.
- NUNCA gere uma ação de exclusão (delete). Se pedirem para apagar algo, responda apenas {"reply": "🚫 Por segurança, não faço exclusões pelo WhatsApp. Use o painel do sistema."}.
- Se não entender o pedido, responda apenas {"reply": "🤔 Não consegui entender esse comando. Tente reformular."}.
- successReply: mensagem curta de confirmação em português, citando valor e data quando houver.
- Responda APENAS o objeto JSON, sem prosa.

### ENTRADA: %q

### SAÍDA (JSON):`,
		formatDatePT(now), now.Year(), schemaContext,
		menu.Categories, menu.Accounts, menu.Staff,
		tenantID, text)
}

var weekdaysPT = [...]string{
	"domingo", "segunda-feira", "terça-feira", "quarta-feira",
	"quinta-feira", "sexta-feira", "sábado",
}

var monthsPT = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

func formatDatePT(t time.Time) string {
	return fmt.Sprintf("%s, %d de %s de %d",
		weekdaysPT[t.Weekday()], t.Day(), monthsPT[t.Month()-1], t.Year())
}
