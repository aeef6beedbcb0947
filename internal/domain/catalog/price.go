package catalog

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var usdAmount = regexp.MustCompile(`\$([0-9.]+)`)

// Localizer renders USD list prices in Indian rupees.
type Localizer struct {
	rate decimal.Decimal
}

// NewLocalizer returns a Localizer converting at rate rupees per dollar.
func NewLocalizer(rate float64) Localizer {
	return Localizer{rate: decimal.NewFromFloat(rate)}
}

// INR converts a price such as "$89.99" or "$49/month" to "₹7,469" or
// "₹4,067/month". Prices without a dollar amount, like "Free", are returned
// as is.
func (l Localizer) INR(price string) string {
	m := usdAmount.FindStringSubmatch(price)
	if m == nil {
		return price
	}
	usd, err := decimal.NewFromString(strings.TrimRight(m[1], "."))
	if err != nil {
		return price
	}
	inr := usd.Mul(l.rate).Round(0).IntPart()
	out := "₹" + groupIndian(inr)
	if strings.Contains(price, "/month") {
		out += "/month"
	}
	return out
}

// groupIndian formats n with en-IN digit grouping: the last three digits,
// then groups of two (1,23,45,678).
func groupIndian(n int64) string {
	neg := n < 0
	if neg {
		n = -n
	}
	digits := decimal.NewFromInt(n).String()
	if len(digits) <= 3 {
		if neg {
			return "-" + digits
		}
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	groups = append([]string{head}, groups...)
	out := strings.Join(groups, ",") + "," + tail
	if neg {
		return "-" + out
	}
	return out
}
