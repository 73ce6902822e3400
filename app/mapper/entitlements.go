package mapper

import (
	"time"

	"github.com/vibast-solutions/ms-go-entitlements/app/dto"
	"github.com/vibast-solutions/ms-go-entitlements/app/entity"
	"github.com/vibast-solutions/ms-go-entitlements/app/service"
)

func DecisionToResponse(decision service.Decision) dto.DecisionResponse {
	return dto.DecisionResponse{
		Active: decision.Active,
		Plan:   string(decision.Plan),
		Status: decision.Status,
		Source: decision.Source,
	}
}

func EntitlementToResponse(record *entity.EntitlementRecord) dto.EntitlementResponse {
	if record == nil {
		return dto.EntitlementResponse{}
	}

	return dto.EntitlementResponse{
		AccountID: record.AccountID,
		PlanKey:   string(record.PlanKey),
		Status:    record.Status,
		StartsAt:  formatTime(record.StartsAt),
		EndsAt:    formatTime(record.EndsAt),
	}
}

func formatTime(v *time.Time) *string {
	if v == nil {
		return nil
	}
	formatted := v.UTC().Format(time.RFC3339)
	return &formatted
}
