package queries

import (
	"context"

	"github.com/felixgeelhaar/trimly/internal/billing/domain"
)

// ListPlansHandler lists the plan catalog.
type ListPlansHandler struct {
	catalog *domain.Catalog
}

// NewListPlansHandler creates a new ListPlansHandler.
func NewListPlansHandler(catalog *domain.Catalog) *ListPlansHandler {
	return &ListPlansHandler{catalog: catalog}
}

// Handle returns every plan in catalog order.
func (h *ListPlansHandler) Handle(_ context.Context) []PlanDTO {
	plans := h.catalog.Plans()
	dtos := make([]PlanDTO, 0, len(plans))
	for _, p := range plans {
		prices := make(map[string]string, len(p.Prices))
		for cycle, price := range p.Prices {
			prices[string(cycle)] = price.StringFixed(2)
		}
		dtos = append(dtos, PlanDTO{
			ID:               string(p.ID),
			DisplayName:      p.DisplayName,
			Prices:           prices,
			FullMonthlyPrice: p.FullMonthlyPrice.StringFixed(2),
			MaxProfessionals: p.MaxProfessionals,
			Features:         p.Features,
		})
	}
	return dtos
}

// ListPartnersHandler lists all partners.
type ListPartnersHandler struct {
	partners domain.PartnerRepository
}

// NewListPartnersHandler creates a new ListPartnersHandler.
func NewListPartnersHandler(partners domain.PartnerRepository) *ListPartnersHandler {
	return &ListPartnersHandler{partners: partners}
}

// Handle executes the query.
func (h *ListPartnersHandler) Handle(ctx context.Context) ([]PartnerDTO, error) {
	partners, err := h.partners.List(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]PartnerDTO, 0, len(partners))
	for _, p := range partners {
		dtos = append(dtos, ToPartnerDTO(p))
	}
	return dtos, nil
}
