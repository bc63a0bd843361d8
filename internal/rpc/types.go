package rpc

// RPCError represents a JSON-RPC error response
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *RPCError) Error() string {
	return e.Message
}

// BalanceResponse is the response from getBalance
type BalanceResponse struct {
	Result struct {
		Value uint64 `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}

// TokenAmount represents token balance information
type TokenAmount struct {
	Amount         string  `json:"amount"`
	Decimals       int     `json:"decimals"`
	UIAmountString string  `json:"uiAmountString"`
	UIAmount       float64 `json:"uiAmount"`
}

// TokenAccountsResponse is the response from getTokenAccountsByOwner
// with jsonParsed encoding.
type TokenAccountsResponse struct {
	Result struct {
		Value []struct {
			Pubkey  string `json:"pubkey"`
			Account struct {
				Data struct {
					Parsed struct {
						Info struct {
							Mint        string      `json:"mint"`
							Owner       string      `json:"owner"`
							TokenAmount TokenAmount `json:"tokenAmount"`
						} `json:"info"`
					} `json:"parsed"`
				} `json:"data"`
			} `json:"account"`
		} `json:"value"`
	} `json:"result"`
	Error *RPCError `json:"error"`
}

// TokenAccount is a flattened SPL token holding for an owner
type TokenAccount struct {
	Mint     string
	UIAmount float64
	Decimals int
}
