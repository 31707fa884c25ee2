package mlclient

import "strings"

// Grievance categories recognized by the classifier.
const (
	CategoryPayroll        = "Payroll and Salary Issue"
	CategoryEquipment      = "Sanitation Equipment Shortage"
	CategoryHarassment     = "Workplace Harassment"
	CategoryLeaveTransfer  = "Leave and Transfer Request"
	CategoryInfrastructure = "Infrastructure Problem"
	CategoryGeneral        = "General Complaint"
)

var categoryKeywords = map[string][]string{
	CategoryPayroll:        {"salary", "pay", "payment", "money", "bonus", "wage"},
	CategoryEquipment:      {"equipment", "tool", "machine", "broom", "dustbin", "glove"},
	CategoryHarassment:     {"harass", "bully", "threat", "abuse", "torture"},
	CategoryLeaveTransfer:  {"leave", "transfer", "holiday", "posting", "vacation"},
	CategoryInfrastructure: {"toilet", "water", "office", "building", "electricity"},
}

var urgentWords = []string{"urgent", "immediately", "emergency", "harass"}

// ClassifyGrievance runs local keyword classification. It is the
// fallback when the analysis service is unreachable, so the returned
// analysis is marked as not AI powered.
func ClassifyGrievance(text string) GrievanceAnalysis {
	lower := strings.ToLower(text)

	scores := make(map[string]float64)
	for category, keywords := range categoryKeywords {
		hits := 0
		for _, kw := range keywords {
			if strings.Contains(lower, kw) {
				hits++
			}
		}
		if hits > 0 {
			score := 0.5 + float64(hits)*0.15
			if score > 0.95 {
				score = 0.95
			}
			scores[category] = score
		}
	}
	if len(scores) == 0 {
		scores[CategoryGeneral] = 0.5
	}

	best := ""
	for category, score := range scores {
		if best == "" || score > scores[best] {
			best = category
		}
	}

	priority := "Medium"
	for _, w := range urgentWords {
		if strings.Contains(lower, w) {
			priority = "High"
			break
		}
	}

	summary := text
	if len(summary) > 100 {
		summary = summary[:100] + "..."
	}

	department := "Admin"
	if strings.Contains(strings.ToLower(best), "harassment") {
		department = "HR"
	}

	return GrievanceAnalysis{
		OriginalText:        text,
		DetectedLanguage:    "en",
		Category:            best,
		Confidence:          scores[best],
		Priority:            priority,
		Summary:             summary,
		Sentiment:           "Concerned",
		SuggestedAction:     "Review and assign to appropriate department",
		SuggestedDepartment: department,
		AIPowered:           false,
	}
}
