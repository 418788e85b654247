// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import "strings"

// FormatTypstContent turns raw message text into Typst markup:
//
//  1. formulas are lifted out behind placeholders,
//  2. the remaining text is escaped,
//  3. escaped "**" bold markers collapse to a single "*",
//  4. lone newlines become forced line breaks,
//  5. formulas are translated and put back as math spans.
//
// Line breaks are applied before formulas return so a multi-line display
// formula keeps its own newlines.
func FormatTypstContent(text string) string {
	if text == "" {
		return ""
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")

	text, spans := ExtractMath(text)
	text = EscapeTypst(text)
	text = collapseBold(text)
	text = BreakLines(text)
	return restoreMath(text, spans)
}

// collapseBold maps escaped Markdown bold markers onto Typst strong
// emphasis. Opening and closing markers are not told apart, so an odd
// number of markers leaves emphasis open.
func collapseBold(text string) string {
	return strings.ReplaceAll(text, `\*\*`, "*")
}

// BreakLines converts each newline that is not part of a blank-line run
// into a Typst forced line break. Runs of two or more newlines are kept
// as paragraph breaks.
func BreakLines(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(text); {
		if text[i] != '\n' {
			b.WriteByte(text[i])
			i++
			continue
		}
		j := i
		for j < len(text) && text[j] == '\n' {
			j++
		}
		if j-i == 1 {
			b.WriteString(" \\\n")
		} else {
			b.WriteString(text[i:j])
		}
		i = j
	}
	return b.String()
}
