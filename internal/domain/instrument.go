package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Instrument is a tradable symbol. The set is closed and fixed at process start.
type Instrument string

const (
	BTCUSD Instrument = "BTC_USD"
	ETHUSD Instrument = "ETH_USD"
	LTCUSD Instrument = "LTC_USD"
	XRPUSD Instrument = "XRP_USD"
)

// priceScale is the number of decimal places integer prices are quoted in.
var priceScale = map[Instrument]int32{
	BTCUSD: 2,
	ETHUSD: 2,
	LTCUSD: 2,
	XRPUSD: 4,
}

// Instruments returns every known instrument in a stable order.
func Instruments() []Instrument {
	return []Instrument{BTCUSD, ETHUSD, LTCUSD, XRPUSD}
}

func ParseInstrument(s string) (Instrument, error) {
	in := Instrument(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := priceScale[in]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownInstrument, s)
	}
	return in, nil
}

func (i Instrument) Valid() bool {
	_, ok := priceScale[i]
	return ok
}

func (i Instrument) Scale() int32 { return priceScale[i] }

// FormatPrice renders an integer price in the instrument's display units,
// e.g. 1234567 on BTC_USD is 12345.67.
func (i Instrument) FormatPrice(price int64) decimal.Decimal {
	return decimal.New(price, -i.Scale())
}
