package wallet

import (
	"strings"

	"github.com/congo-pay/wallet_api/internal/money"
)

// View names a response shape of the wallet API.
type View int

const (
	ViewList View = iota
	ViewRetrieve
	ViewCreate
	ViewOperation
)

type listItem struct {
	URL string `json:"url"`
	ID  string `json:"id"`
}

type balanceResponse struct {
	Balance money.Money `json:"balance"`
}

type createResponse struct {
	ID      string      `json:"id"`
	URL     string      `json:"url"`
	Balance money.Money `json:"balance"`
}

var presenters = map[View]func(baseURL string, s Snapshot) any{
	ViewList: func(baseURL string, s Snapshot) any {
		return listItem{URL: walletURL(baseURL, s.ID), ID: s.ID}
	},
	ViewRetrieve: func(_ string, s Snapshot) any {
		return balanceResponse{Balance: s.Balance}
	},
	ViewCreate: func(baseURL string, s Snapshot) any {
		return createResponse{ID: s.ID, URL: walletURL(baseURL, s.ID), Balance: s.Balance}
	},
	ViewOperation: func(_ string, s Snapshot) any {
		return balanceResponse{Balance: s.Balance}
	},
}

// Present renders one wallet for the given view.
func Present(view View, baseURL string, s Snapshot) any {
	return presenters[view](baseURL, s)
}

// PresentList renders wallets for the list view. It never returns nil so the
// JSON body is always an array.
func PresentList(baseURL string, wallets []Snapshot) []any {
	out := make([]any, 0, len(wallets))
	for _, s := range wallets {
		out = append(out, Present(ViewList, baseURL, s))
	}
	return out
}

func walletURL(baseURL, id string) string {
	return strings.TrimRight(baseURL, "/") + "/api/v1/wallets/" + id + "/"
}
