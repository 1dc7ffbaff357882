package dto

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type SuccessResponse struct {
	OK   bool `json:"ok"`
	Data any  `json:"data,omitempty"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

type BoolResponse struct {
	Result bool `json:"result"`
}

type FeeResponse struct {
	Token  string `json:"token"`
	FeeBPS int    `json:"fee_bps"`
}

type BalanceResponse struct {
	Token   string `json:"token"`
	Balance int64  `json:"balance"`
}
