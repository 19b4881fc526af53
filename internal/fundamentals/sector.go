package fundamentals

// sectorLabels maps provider sector names to the labels used in B3 reports.
var sectorLabels = map[string]string{
	"Basic Materials":        "Materiais Básicos",
	"Communication Services": "Comunicação",
	"Consumer Cyclical":      "Consumo Cíclico",
	"Consumer Defensive":     "Consumo Não Cíclico",
	"Energy":                 "Energia",
	"Financial Services":     "Serviços Financeiros",
	"Healthcare":             "Saúde",
	"Industrials":            "Bens Industriais",
	"Real Estate":            "Construção e Imobiliário",
	"Technology":             "Tecnologia",
	"Utilities":              "Energia",
}

// UnknownSector is published when the provider reports no sector.
const UnknownSector = "N/A"

// SectorLabel translates a provider sector. Unmapped names pass through.
func SectorLabel(sector string) string {
	if sector == "" {
		return UnknownSector
	}
	if label, ok := sectorLabels[sector]; ok {
		return label
	}
	return sector
}
