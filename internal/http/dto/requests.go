package dto

type IssueTokenRequest struct {
	Address string `json:"address"`
	APIKey  string `json:"api_key"`
}

type InitializeRequest struct {
	Admin string `json:"admin"`
}

type TokenRequest struct {
	Token string `json:"token"`
}

type SetFeeRequest struct {
	Token  string `json:"token"`
	FeeBPS int    `json:"fee_bps"`
}

type MintRequest struct {
	Token  string `json:"token"`
	To     string `json:"to"`
	Amount int64  `json:"amount"`
}

type RoleRequest struct {
	User string `json:"user"`
	Role string `json:"role"`
}

type VerifyMerchantRequest struct {
	Status bool `json:"status"`
}

type SetAccountRequest struct {
	Account string `json:"account"`
}

type CreateInvoiceRequest struct {
	Description string `json:"description"`
	Amount      int64  `json:"amount"`
	Token       string `json:"token"`
}

// RefundRequest with a nil Amount refunds the full remaining balance.
type RefundRequest struct {
	Amount *int64 `json:"amount,omitempty"`
}

type WithdrawRequest struct {
	Token     string `json:"token"`
	Amount    int64  `json:"amount"`
	Recipient string `json:"recipient"`
}

type AccountRefundRequest struct {
	Token     string `json:"token"`
	Amount    int64  `json:"amount"`
	Recipient string `json:"recipient"`
}

type RestrictRequest struct {
	Restricted bool `json:"restricted"`
}
