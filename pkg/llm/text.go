package llm

import "strings"

// StripCodeFence removes a surrounding markdown code fence (```sql, ```json, ```)
// from a completion. Text without a leading fence is returned trimmed.
func StripCodeFence(s string) string {
	cleaned := strings.TrimSpace(s)
	if !strings.HasPrefix(cleaned, "```") {
		return cleaned
	}

	lines := strings.Split(cleaned, "\n")
	end := len(lines)
	if end > 1 && strings.HasPrefix(strings.TrimSpace(lines[end-1]), "```") {
		end--
	}
	if end <= 1 {
		// Single-line fence such as ```SELECT 1```
		return strings.TrimSpace(strings.Trim(cleaned, "`"))
	}
	return strings.TrimSpace(strings.Join(lines[1:end], "\n"))
}

// ExtractJSON returns the outermost {...} object found in a completion after
// fence stripping, or "" when there is none.
func ExtractJSON(response string) string {
	cleaned := StripCodeFence(response)
	startIdx := strings.Index(cleaned, "{")
	endIdx := strings.LastIndex(cleaned, "}")

	if startIdx == -1 || endIdx == -1 || endIdx <= startIdx {
		return ""
	}

	return cleaned[startIdx : endIdx+1]
}
