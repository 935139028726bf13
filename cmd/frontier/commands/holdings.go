package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aristath/frontier/internal/domain"
)

// parseHoldings turns TICKER=QUANTITY flag values into a portfolio.
func parseHoldings(values []string) (domain.Portfolio, error) {
	holdings := make([]domain.Holding, 0, len(values))
	for _, v := range values {
		ticker, qty, ok := strings.Cut(v, "=")
		if !ok {
			return domain.Portfolio{}, fmt.Errorf("holding %q: expected TICKER=QUANTITY", v)
		}
		n, err := strconv.Atoi(strings.TrimSpace(qty))
		if err != nil {
			return domain.Portfolio{}, fmt.Errorf("holding %q: quantity must be a whole number", v)
		}
		holdings = append(holdings, domain.Holding{Ticker: ticker, Quantity: n})
	}
	return domain.NewPortfolio(holdings)
}
