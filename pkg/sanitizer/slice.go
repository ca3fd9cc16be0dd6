package sanitizer

import "strings"

// NormalizeStringSlice applies normalizer to every item and drops empty
// values and case-insensitive duplicates, keeping the first spelling.
func NormalizeStringSlice(items []string, normalizer Strategy) []string {
	if len(items) == 0 {
		return []string{}
	}

	seen := make(map[string]bool, len(items))
	result := make([]string, 0, len(items))

	for _, item := range items {
		normalized := normalizer(item)
		if normalized == "" {
			continue
		}
		key := strings.ToLower(normalized)
		if seen[key] {
			continue
		}
		seen[key] = true
		result = append(result, normalized)
	}

	return result
}

func NormalizeSubjects(subjects []string) []string {
	return NormalizeStringSlice(subjects, NormalizeSubject)
}

func NormalizeIDs(ids []string) []string {
	return NormalizeStringSlice(ids, strings.TrimSpace)
}
