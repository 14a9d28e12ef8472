package etherscan

import "encoding/json"

// API response status values.
const (
	StatusFailure = "0"
	StatusSuccess = "1"
)

// BaseTx carries the fields shared by every record variant. All fields
// keep the provider's string encoding; parsing happens at the point of
// use.
type BaseTx struct {
	BlockNumber     string `json:"blockNumber"`
	TimeStamp       string `json:"timeStamp"`
	Hash            string `json:"hash"`
	From            string `json:"from"`
	To              string `json:"to"`
	ContractAddress string `json:"contractAddress"`
	Value           string `json:"value"`
	Gas             string `json:"gas"`
	GasUsed         string `json:"gasUsed"`
}

// NormalTx is a native-asset transaction sent to or from an address.
type NormalTx struct {
	BaseTx
	Nonce             string `json:"nonce"`
	BlockHash         string `json:"blockHash"`
	TransactionIndex  string `json:"transactionIndex"`
	GasPrice          string `json:"gasPrice"`
	IsError           string `json:"isError"`
	TxReceiptStatus   string `json:"txreceipt_status"`
	Input             string `json:"input"`
	CumulativeGasUsed string `json:"cumulativeGasUsed"`
	Confirmations     string `json:"confirmations"`
}

// InternalTx is a native-asset transfer triggered inside a contract
// call rather than by a signed transaction.
type InternalTx struct {
	BaseTx
	Input   string `json:"input"`
	Type    string `json:"type"`
	TraceID string `json:"traceId"`
	IsError string `json:"isError"`
	ErrCode string `json:"errCode"`
}

// Erc20Transfer is a token-transfer event. TokenSymbol is mutable on
// purpose: middleware may relabel it (e.g. liquidity-pool shares) so
// later chain members see the corrected symbol.
type Erc20Transfer struct {
	BaseTx
	Nonce             string `json:"nonce"`
	BlockHash         string `json:"blockHash"`
	TokenName         string `json:"tokenName"`
	TokenSymbol       string `json:"tokenSymbol"`
	TokenDecimal      string `json:"tokenDecimal"`
	TransactionIndex  string `json:"transactionIndex"`
	GasPrice          string `json:"gasPrice"`
	CumulativeGasUsed string `json:"cumulativeGasUsed"`
	Input             string `json:"input"`
	Confirmations     string `json:"confirmations"`
}

// apiResponse is the provider's response envelope. On failure Result
// holds an error string instead of the requested payload.
type apiResponse struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Result  json.RawMessage `json:"result"`
}
