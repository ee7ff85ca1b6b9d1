package index

import "strings"

// escapeQuery converts free text into a safe FTS5 match expression.
// Every token is double-quoted so query-syntax characters coming from
// document text (quotes, operators, parens, "NEAR", column filters) are
// treated literally, and tokens are OR-joined so a document matching any
// query token is a candidate rather than requiring all tokens.
func escapeQuery(queryText string) string {
	words := strings.Fields(queryText)
	if len(words) == 0 {
		return ""
	}

	terms := make([]string, 0, len(words))
	for _, w := range words {
		w = strings.Trim(w, `"`)
		if w == "" {
			continue
		}
		// Double any interior quotes so the token stays a single string.
		w = strings.ReplaceAll(w, `"`, `""`)
		terms = append(terms, `"`+w+`"`)
	}
	if len(terms) == 0 {
		return ""
	}
	return strings.Join(terms, " OR ")
}
