package core

import "fmt"

// Balance represents the available funds for a specific asset
type Balance struct {
	Asset string
	Free  float64
	Lock  float64
}

// Account represents a trading account with multiple asset balances
type Account struct {
	Balances []Balance
}

func NewAccount(balances []Balance) (Account, error) {
	if len(balances) == 0 {
		return Account{}, fmt.Errorf("invalid account balances")
	}

	return Account{Balances: balances}, nil
}

// Balance returns the balances of the asset and quote tickers, zero valued when absent
func (a Account) Balance(assetTick, quoteTick string) (Balance, Balance) {
	var assetBalance, quoteBalance Balance

	for _, balance := range a.Balances {
		switch balance.Asset {
		case assetTick:
			assetBalance = balance
		case quoteTick:
			quoteBalance = balance
		}
	}

	return assetBalance, quoteBalance
}
