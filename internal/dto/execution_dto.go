package dto

// Execution languages accepted by the execute endpoint.
const (
	LanguageGo         = "go"
	LanguageExpression = "expression"
	LanguageSQL        = "sql"
)

// ExecutionRequest carries an ad-hoc snippet for evaluation.
type ExecutionRequest struct {
	Code     string `json:"code" validate:"required"`
	Language string `json:"language" validate:"required,oneof=go expression sql"`
	Database string `json:"database" validate:"omitempty,oneof=chinook northwind"`
}

// ExecutionResponse returns the serialized evaluation output.
type ExecutionResponse struct {
	Output   any    `json:"output"`
	Stdout   string `json:"stdout,omitempty"`
	Language string `json:"language"`
}
