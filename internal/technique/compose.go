package technique

import "strings"

const separator = " | "

// Compose merges rule outputs into one verdict. Empty messages are dropped,
// duplicates keep their first position, and VerdictOK is returned when
// nothing is left.
func Compose(msgs ...string) string {
	seen := make(map[string]struct{}, len(msgs))
	out := make([]string, 0, len(msgs))
	for _, m := range msgs {
		if m == "" {
			continue
		}
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	if len(out) == 0 {
		return VerdictOK
	}
	return strings.Join(out, separator)
}
