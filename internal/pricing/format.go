package pricing

import (
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer groups thousands ("12,345") in every human-readable string the
// cost model produces.
var printer = message.NewPrinter(language.English)

func formatCount(n int64) string {
	return printer.Sprintf("%d", n)
}

func formatYen(n int64) string {
	return "¥" + printer.Sprintf("%d", n)
}

func formatYenDecimal(d decimal.Decimal) string {
	if d.IsInteger() {
		return formatYen(d.IntPart())
	}
	return "¥" + printer.Sprintf("%.2f", d.InexactFloat64())
}
