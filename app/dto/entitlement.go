package dto

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type DecisionResponse struct {
	Active bool   `json:"active"`
	Plan   string `json:"plan,omitempty"`
	Status string `json:"status,omitempty"`
	Source string `json:"source"`
}

type EntitlementResponse struct {
	AccountID string  `json:"account_id"`
	PlanKey   string  `json:"plan_key"`
	Status    string  `json:"status"`
	StartsAt  *string `json:"starts_at,omitempty"`
	EndsAt    *string `json:"ends_at,omitempty"`
}

type ActivationResponse struct {
	Entitlement EntitlementResponse `json:"entitlement"`
}

type GrantCodeResponse struct {
	Code string `json:"code"`
}
