package notify

import (
	"fmt"
	"html"
	"strings"

	"github.com/Jovzzqez008/sol-bot/internal/domain"
)

const (
	pumpFunURL     = "https://pump.fun/"
	dexScreenerURL = "https://dexscreener.com/solana/"
)

func alertTitle(rule string) string {
	switch rule {
	case "FAST_PUMP":
		return "🚀 Fast Pump"
	case "MOMENTUM":
		return "📈 Momentum"
	case "STEADY_CLIMB":
		return "🧗 Steady Climb"
	default:
		return "🚨 " + rule
	}
}

// alertColor maps gain to an embed color: green, yellow, then orange.
func alertColor(gain float64) int {
	switch {
	case gain >= 100:
		return 0x2ECC71
	case gain >= 50:
		return 0xF1C40F
	default:
		return 0xE67E22
	}
}

func formatUSD(v float64) string {
	switch {
	case v >= 1_000_000:
		return fmt.Sprintf("$%.2fM", v/1_000_000)
	case v >= 1_000:
		return fmt.Sprintf("$%.1fK", v/1_000)
	default:
		return fmt.Sprintf("$%.2f", v)
	}
}

func formatPrice(p float64) string {
	if p < 0.01 {
		return fmt.Sprintf("$%.10f", p)
	}
	return fmt.Sprintf("$%.4f", p)
}

func shortMint(mint string) string {
	if len(mint) <= 12 {
		return mint
	}
	return mint[:4] + "…" + mint[len(mint)-4:]
}

// alertHTML renders an alert for Telegram's HTML parse mode.
func alertHTML(s domain.Snapshot, a domain.Alert) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b> %s (%s)\n", html.EscapeString(alertTitle(a.RuleName)), html.EscapeString(s.Symbol), html.EscapeString(s.Name))
	fmt.Fprintf(&b, "Gain: <b>%+.1f%%</b> in %.1f min (%.1f%%/min)\n", a.GainPercent, a.TimeElapsed.Minutes(), a.Slope)
	fmt.Fprintf(&b, "Price: %s\n", formatPrice(a.PriceAtAlert))
	fmt.Fprintf(&b, "Market cap: %s\n", formatUSD(a.MarketCapAtAlert))
	fmt.Fprintf(&b, "Drawdown from peak: %.1f%%\n", s.DrawdownPercent())
	fmt.Fprintf(&b, "<code>%s</code>\n", html.EscapeString(s.Mint))
	fmt.Fprintf(&b, `<a href="%s%s">pump.fun</a> | <a href="%s%s">DexScreener</a>`, pumpFunURL, s.Mint, dexScreenerURL, s.Mint)
	return b.String()
}
