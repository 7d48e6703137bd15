package conversation

import "github.com/PabloGalante/ai-accountant/internal/domain"

// hydrogeologicalChart is the canned result of a map analysis. The file is
// not inspected.
func hydrogeologicalChart(fileName string) *domain.RichContent {
	return &domain.RichContent{
		Kind: domain.RichHydrogeologicalChart,
		Data: map[string]any{
			"file_name":  fileName,
			"title":      "Stage of Groundwater Extraction by Assessment Unit",
			"unit":       "percent",
			"categories": []string{"Safe", "Semi-Critical", "Critical", "Over-Exploited"},
			"series": []map[string]any{
				{"unit": "Block A", "extraction": 54.2, "category": "Safe"},
				{"unit": "Block B", "extraction": 78.9, "category": "Semi-Critical"},
				{"unit": "Block C", "extraction": 93.1, "category": "Critical"},
				{"unit": "Block D", "extraction": 121.6, "category": "Over-Exploited"},
				{"unit": "Block E", "extraction": 66.4, "category": "Safe"},
			},
			"period": "2024-2025",
		},
	}
}
