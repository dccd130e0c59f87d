package validate

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Format renders a human-readable report for the issue list.
func Format(issues []Issue) string {
	if len(issues) == 0 {
		return "No validation issues"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Validation failed with %d issues:\n\n", len(issues))
	for i, issue := range issues {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(formatIssue(issue))
	}
	sb.WriteString("\n")
	return sb.String()
}

func formatIssue(issue Issue) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "* %s: %s", issue.Kind, issue.Summary)

	for _, k := range issue.sortedParamKeys() {
		fmt.Fprintf(&sb, "\n  %s: %s", k, issue.Params[k])
	}

	for _, ctx := range issue.Contexts {
		sb.WriteString("\n")
		sb.WriteString(formatContext(ctx))
	}
	return sb.String()
}

func formatContext(ctx Context) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "  - %s::", ctx.Name)
	if ctx.Path != "" {
		sb.WriteString(" ")
		sb.WriteString(ctx.Path)
	}

	if msg := strings.TrimSpace(ctx.Message); msg != "" {
		for _, line := range strings.Split(msg, "\n") {
			sb.WriteString("\n    ")
			sb.WriteString(strings.TrimSpace(line))
		}
	}

	if ctx.Data != nil {
		sb.WriteString("\n")
		sb.WriteString(prefixLines(prettyJSON(ctx.Data), "    |> "))
	}
	return sb.String()
}

// prettyJSON renders context data; data snapshots are plain JSON values,
// so a marshal failure is a programmer error worth surfacing inline.
func prettyJSON(v any) string {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("<unserializable: %v>", err)
	}
	return string(data)
}

func prefixLines(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = prefix + line
	}
	return strings.Join(lines, "\n")
}
