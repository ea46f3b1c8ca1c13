package enums

import "fmt"

// StockEntrySource records which path produced a stock mutation.
type StockEntrySource string

const (
	StockEntrySourceManual     StockEntrySource = "manual"
	StockEntrySourceBottle     StockEntrySource = "bottle"
	StockEntrySourceCorrection StockEntrySource = "correction"
)

var validStockEntrySources = []StockEntrySource{
	StockEntrySourceManual,
	StockEntrySourceBottle,
	StockEntrySourceCorrection,
}

func (s StockEntrySource) IsValid() bool {
	for _, candidate := range validStockEntrySources {
		if candidate == s {
			return true
		}
	}
	return false
}

func (s StockEntrySource) String() string {
	return string(s)
}

func ParseStockEntrySource(value string) (StockEntrySource, error) {
	for _, candidate := range validStockEntrySources {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock entry source %q", value)
}
