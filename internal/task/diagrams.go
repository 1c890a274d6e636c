package task

import "strings"

// DiagramSeparator joins consecutive diagrams in a DiagramsOutput blob.
// The %% lines are Mermaid comments, so a joined blob still parses.
const DiagramSeparator = "\n\n%%\n%% --- Next Diagram ---\n%%\n\n"

// SplitDiagrams cuts the blob at each separator and drops blank segments.
func SplitDiagrams(blob string) []string {
	parts := strings.Split(blob, DiagramSeparator)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// JoinDiagrams is the inverse of SplitDiagrams for non-blank diagrams.
func JoinDiagrams(diagrams []string) string {
	return strings.Join(diagrams, DiagramSeparator)
}
