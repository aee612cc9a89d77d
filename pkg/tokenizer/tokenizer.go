// Package tokenizer estimates token counts for display purposes. The
// estimate follows the common ~4-characters-per-token heuristic for
// English text; exact counts would need a model-specific tokenizer.
package tokenizer

import "unicode/utf8"

func CountTokens(text string) int {
	if text == "" {
		return 0
	}
	n := utf8.RuneCountInString(text) / 4
	if n < 1 {
		n = 1
	}
	return n
}
