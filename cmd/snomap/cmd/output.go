package cmd

import (
	"fmt"
	"strings"

	"github.com/carrick/snomap/internal/domain/mapping"
	"github.com/carrick/snomap/internal/ports"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorCyan   = "\033[36m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// formatConcept renders one name row:
//
//	195967001  Asthma (disorder)  [P/disorder] 2024-01
func formatConcept(c ports.Concept) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s%d%s  %s", colorCyan, c.CUI, colorReset, c.Name))
	if c.DescriptionType != "" {
		sb.WriteString(fmt.Sprintf("  %s[%s/%s]%s", colorGray, c.Status, c.DescriptionType, colorReset))
	} else {
		sb.WriteString(fmt.Sprintf("  %s[%s]%s", colorGray, c.Status, colorReset))
	}
	sb.WriteString(fmt.Sprintf(" %s%s%s", colorGray, c.Release, colorReset))
	return sb.String()
}

// formatConceptList renders a hit count header followed by the rows.
func formatConceptList(concepts []ports.Concept) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s⚡ %d hits%s\n", colorBold, len(concepts), colorReset))
	for _, c := range concepts {
		sb.WriteString("  " + formatConcept(c) + "\n")
	}
	return sb.String()
}

// formatAncestors renders the closure sorted by level then cui, indented by
// level.
func formatAncestors(ancestors []ports.Ancestor) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s⚡ %d ancestors%s\n", colorBold, len(ancestors), colorReset))
	for _, a := range ancestors {
		sb.WriteString(fmt.Sprintf("  %s%*s%s", colorGray, a.Level*2, "", colorReset))
		sb.WriteString(fmt.Sprintf("%s%d%s  %s  %sL%d%s\n",
			colorCyan, a.Concept.CUI, colorReset, a.Concept.Name, colorGray, a.Level, colorReset))
	}
	return sb.String()
}

// formatMappingRows renders the full mapping table: string, condition,
// grouping. Unresolved strings show as Unknown.
func formatMappingRows(rows []mapping.Row) string {
	var sb strings.Builder
	for _, r := range rows {
		if r.ConditionCUI < 0 {
			sb.WriteString(fmt.Sprintf("  %s%-40s%s %sUnknown%s\n",
				colorYellow, r.String, colorReset, colorGray, colorReset))
			continue
		}
		grouping := fmt.Sprintf("%sungrouped%s", colorGray, colorReset)
		if r.GroupingCUI >= 0 {
			grouping = fmt.Sprintf("%s%d%s %s", colorCyan, r.GroupingCUI, colorReset, r.GroupingName)
		}
		sb.WriteString(fmt.Sprintf("  %-40s %s%d%s %s  →  %s\n",
			r.String, colorCyan, r.ConditionCUI, colorReset, r.ConditionName, grouping))
	}
	return sb.String()
}
