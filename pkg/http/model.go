package http

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string                 `json:"error" example:"No data available"`
	Code    string                 `json:"code" example:"ERR_NO_DATA"`
	Field   string                 `json:"field,omitempty"`
	Params  map[string]interface{} `json:"params,omitempty"`
	Details []ValidationError      `json:"details,omitempty"`
}

// ValidationError represents validation error detail.
type ValidationError struct {
	Code    string                 `json:"code,omitempty" example:"ERR_REQUIRED"`
	Field   string                 `json:"field,omitempty" example:"tickers"`
	Message string                 `json:"message,omitempty" example:"tickers is required"`
	Params  map[string]interface{} `json:"params,omitempty"`
}
