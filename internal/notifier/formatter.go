package notifier

import (
	"fmt"
	"strings"
	"time"

	"PixelSentinel/internal/bot"
	"PixelSentinel/internal/recorder"
)

// FormatDailyReport summarises the ledger since the previous report.
func FormatDailyReport(since time.Time, totals []recorder.SessionTotal) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>PixelSentinel report</b> | since %s\n\n", since.Format("2006-01-02 15:04")))
	if len(totals) == 0 {
		b.WriteString("No activity recorded.\n")
		return b.String()
	}

	var earned int64
	var claims int
	for _, t := range totals {
		b.WriteString(fmt.Sprintf("• <b>%s</b>: +%d PX (%d ads), balance %d", t.Session, t.Earned, t.Claims, t.LastBalance))
		if t.Failures > 0 {
			b.WriteString(fmt.Sprintf(", %d failed iterations", t.Failures))
		}
		b.WriteString("\n")
		earned += t.Earned
		claims += t.Claims
	}
	b.WriteString("  ─────────────────\n")
	b.WriteString(fmt.Sprintf("  Total: +%d PX from %d ads\n", earned, claims))
	return b.String()
}

// FormatBalances lists the live balance of every account.
func FormatBalances(snaps []bot.Snapshot) string {
	var b strings.Builder
	b.WriteString("💰 <b>Balances</b>\n\n")
	var total int64
	for _, s := range snaps {
		b.WriteString(fmt.Sprintf("%s: %d PX (%d ads)\n", s.Name, s.Balance, s.Claims))
		total += s.Balance
	}
	b.WriteString(fmt.Sprintf("\nTotal: %d PX", total))
	return b.String()
}

// FormatStatus shows loop health per account.
func FormatStatus(snaps []bot.Snapshot, now time.Time) string {
	var b strings.Builder
	b.WriteString("🤖 <b>Account status</b>\n\n")
	for _, s := range snaps {
		state := "running"
		switch {
		case s.CooldownUntil.After(now):
			state = fmt.Sprintf("cooldown until %s", s.CooldownUntil.Format("15:04"))
		case s.LastIteration.IsZero():
			state = "starting"
		}
		b.WriteString(fmt.Sprintf("<b>%s</b>: %s\n", s.Name, state))
		if !s.LastIteration.IsZero() {
			b.WriteString(fmt.Sprintf("  last iteration: %s\n", s.LastIteration.Format("2006-01-02 15:04")))
		}
		if s.LastError != "" {
			b.WriteString(fmt.Sprintf("  last error: %s\n", s.LastError))
		}
	}
	return b.String()
}
