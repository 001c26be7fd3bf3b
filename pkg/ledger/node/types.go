package node

import "github.com/tanglewallet/walletd/pkg/ledger"

type transactionsResponse struct {
	Transactions []ledger.Message `json:"transactions"`
}

type balancesResponse struct {
	Balances []ledger.AddressBalance `json:"balances"`
}

type confirmationStatesResponse struct {
	States map[string]bool `json:"states"`
}

type outputsResponse struct {
	Outputs []ledger.Output `json:"outputs"`
}

type tipsResponse struct {
	Tip1 string `json:"tip1"`
	Tip2 string `json:"tip2"`
}

type postMessagesRequest struct {
	Messages []ledger.Message `json:"messages"`
}

type postMessagesResponse struct {
	IDs []string `json:"ids"`
}

type idsRequest struct {
	IDs []string `json:"ids"`
}
