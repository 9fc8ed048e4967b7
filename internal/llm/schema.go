package llm

import "sort"

// ReportSchema is the strict JSON schema for the narrative fields of a
// report. Core-owned fields (language, timestamps, scores, profile, answers)
// are not part of it.
func ReportSchema() map[string]any {
	return object(map[string]any{
		"title":             str(),
		"disclaimer":        str(),
		"executive_summary": strList(),
		"priority_actions":  strList(),
		"summary": object(map[string]any{
			"bioage_estimate": str(),
			"key_focus":       strList(),
		}),
		"plan_90_days": list(object(map[string]any{
			"week":    map[string]any{"type": "integer"},
			"focus":   str(),
			"actions": strList(),
		})),
		"phases": list(object(map[string]any{
			"name":      str(),
			"objective": str(),
			"habits":    strList(),
			"training":  strList(),
			"nutrition": strList(),
			"recovery":  strList(),
		})),
		"risk_flags": strList(),
		"warnings":   strList(),
		"next_steps": strList(),
	})
}

// NarrativeFields lists the top-level keys of ReportSchema.
func NarrativeFields() []string {
	return []string{
		"title", "disclaimer", "executive_summary", "priority_actions", "summary",
		"plan_90_days", "phases", "risk_flags", "warnings", "next_steps",
	}
}

// object builds a strict object schema: every property required and no
// additional properties, as structured outputs demand.
func object(props map[string]any) map[string]any {
	required := make([]string, 0, len(props))
	for k := range props {
		required = append(required, k)
	}
	sort.Strings(required)
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

func list(items map[string]any) map[string]any {
	return map[string]any{"type": "array", "items": items}
}

func str() map[string]any {
	return map[string]any{"type": "string"}
}

func strList() map[string]any {
	return list(str())
}
