// Package greeting decides when the assistant speaks an automatic page
// greeting and composes its wording from the user's financial snapshot.
package greeting

import (
	"fmt"
	"strings"
	"time"

	"github.com/inovabank/nina/internal/finance"
)

// PageType tags the screen that triggered a greeting.
type PageType string

const (
	PageDashboard PageType = "dashboard"
	PagePlanner   PageType = "planner"
	PageCard      PageType = "card"
	PageGoals     PageType = "goals"
	PageOther     PageType = "other"
)

// ParsePageType maps a route tag to a known page type; anything unknown is
// PageOther, which never greets.
func ParsePageType(s string) PageType {
	switch PageType(strings.ToLower(strings.TrimSpace(s))) {
	case PageDashboard:
		return PageDashboard
	case PagePlanner:
		return PagePlanner
	case PageCard:
		return PageCard
	case PageGoals:
		return PageGoals
	default:
		return PageOther
	}
}

// Salutation picks the pt-BR time-of-day opener.
func Salutation(now time.Time) string {
	switch h := now.Hour(); {
	case h < 12:
		return "Bom dia"
	case h < 18:
		return "Boa tarde"
	default:
		return "Boa noite"
	}
}

// ComposeFirstAccess is the once-a-day opener spoken before the regular
// dashboard greeting on the first visit of the calendar day.
func ComposeFirstAccess(assistantName string, snap finance.Snapshot, now time.Time) string {
	return fmt.Sprintf("%s, %s! Eu sou a %s, sua assistente financeira. Vamos ver como estão suas finanças hoje.",
		Salutation(now), snap.UserName, assistantName)
}

// ComposeGreeting builds the page-specific spoken text. It is a pure
// function of the snapshot; PageOther and unknown tags produce "".
// Currency amounts are rendered as "R$ ..." and spoken in full by the
// speech normalizer.
func ComposeGreeting(page PageType, snap finance.Snapshot) string {
	switch page {
	case PageDashboard:
		return composeDashboard(snap)
	case PagePlanner:
		return composePlanner(snap)
	case PageCard:
		return composeCard(snap)
	case PageGoals:
		return composeGoals(snap)
	default:
		return ""
	}
}

func composeDashboard(snap finance.Snapshot) string {
	parts := []string{
		fmt.Sprintf("Olá, %s! Seu saldo disponível é de %s.", snap.UserName, snap.DebitBalance.BRL()),
		fmt.Sprintf("Hoje você já gastou %s.", snap.SpentToday.BRL()),
	}
	switch {
	case snap.DueTodayCount == 1:
		parts = append(parts, fmt.Sprintf("Você tem 1 pagamento vencendo hoje, de %s.", snap.DueTodayTotal.BRL()))
	case snap.DueTodayCount > 1:
		parts = append(parts, fmt.Sprintf("Você tem %d pagamentos vencendo hoje, somando %s.", snap.DueTodayCount, snap.DueTodayTotal.BRL()))
	}
	if clause := salaryClause(snap.DaysToSalary); clause != "" {
		parts = append(parts, clause)
	}
	return strings.Join(parts, " ")
}

func composePlanner(snap finance.Snapshot) string {
	parts := []string{goalsSentence(snap.ActiveGoals)}
	if snap.GoalsWithoutProgress == 1 {
		parts = append(parts, "1 meta ainda está sem progresso.")
	} else if snap.GoalsWithoutProgress > 1 {
		parts = append(parts, fmt.Sprintf("%d metas ainda estão sem progresso.", snap.GoalsWithoutProgress))
	}
	parts = append(parts, fmt.Sprintf("Seus compromissos mensais somam %s.", snap.MonthlyObligations.BRL()))
	if clause := salaryClause(snap.DaysToSalary); clause != "" {
		parts = append(parts, clause)
	}
	return strings.Join(parts, " ")
}

func composeCard(snap finance.Snapshot) string {
	return fmt.Sprintf("Seu limite de crédito é de %s. Você já utilizou %s e ainda tem %s disponível.",
		snap.CreditLimit.BRL(), snap.CreditUsed.BRL(), snap.CreditAvailable().BRL())
}

func composeGoals(snap finance.Snapshot) string {
	return goalsSentence(snap.ActiveGoals)
}

func goalsSentence(active int) string {
	switch {
	case active == 0:
		return "Você ainda não tem metas ativas."
	case active == 1:
		return "Você tem 1 meta ativa."
	default:
		return fmt.Sprintf("Você tem %d metas ativas.", active)
	}
}

func salaryClause(days int) string {
	switch {
	case days < 0:
		return ""
	case days == 0:
		return "Seu salário cai hoje!"
	case days == 1:
		return "Falta 1 dia para o próximo salário."
	default:
		return fmt.Sprintf("Faltam %d dias para o próximo salário.", days)
	}
}
