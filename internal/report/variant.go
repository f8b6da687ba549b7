package report

import "fmt"

// Variant fixes the column set of a report.
type Variant string

const (
	// VariantUsage joins play and completion statistics.
	VariantUsage Variant = "usage"
	// VariantCatalog lists published assets without analytics.
	VariantCatalog Variant = "catalog"
)

func ParseVariant(s string) (Variant, error) {
	switch v := Variant(s); v {
	case VariantUsage, VariantCatalog:
		return v, nil
	default:
		return "", fmt.Errorf("unknown report variant %q (want %q or %q)", s, VariantUsage, VariantCatalog)
	}
}

// NeedsAnalytics reports whether the variant carries analytics columns.
func (v Variant) NeedsAnalytics() bool {
	return v == VariantUsage
}

// Row is one report line before formatting.
type Row struct {
	Title          Value
	AssetID        Value
	ProductionID   Value
	Duration       Value
	PlayCount      Value
	PlayedHours    Value
	CompletedCount Value
	CompletedHours Value
	PublishedOnDKA Value
	FirstPublished Value
	SlugURL        Value
	CanonicalURL   Value
}

func (v Variant) Header() []string {
	if v.NeedsAnalytics() {
		return []string{
			"Titel",
			"AssetID",
			"ProductionId",
			"Varighed",
			"Påbegyndte afspilninger",
			"Påbegyndte afspilningstimer",
			"Gennemførte afspilninger",
			"Gennemførte afspilningstimer",
			"Publiceret på DKA",
			"Først publiceret",
			"Webadresse",
			"Webadresse (alternativ)",
		}
	}
	return []string{
		"Titel",
		"AssetID",
		"ProductionId",
		"Varighed",
		"Publiceret på DKA",
		"Først publiceret",
		"Webadresse",
		"Webadresse (alternativ)",
	}
}

// Record formats r in the column order of the header.
func (v Variant) Record(r Row) []string {
	cells := []Value{r.Title, r.AssetID, r.ProductionID, r.Duration}
	if v.NeedsAnalytics() {
		cells = append(cells, r.PlayCount, r.PlayedHours, r.CompletedCount, r.CompletedHours)
	}
	cells = append(cells, r.PublishedOnDKA, r.FirstPublished, r.SlugURL, r.CanonicalURL)

	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = c.Format()
	}
	return out
}
