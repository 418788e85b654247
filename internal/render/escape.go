// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import "strings"

// typstEscapes lists the characters Typst markup treats specially, in
// table order, each paired with its escaped form.
var typstEscapes = []string{
	`\`, `\\`,
	`~`, `\~`,
	`_`, `\_`,
	`*`, `\*`,
	`"`, `\"`,
	`#`, `\#`,
	`$`, `\$`,
	`[`, `\[`,
	`]`, `\]`,
	`{`, `\{`,
	`}`, `\}`,
}

// A Replacer makes a single pass, so an escape it produces is never
// escaped again.
var (
	escaper   = strings.NewReplacer(typstEscapes...)
	unescaper = strings.NewReplacer(invert(typstEscapes)...)
)

func invert(pairs []string) []string {
	out := make([]string, 0, len(pairs))
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, pairs[i+1], pairs[i])
	}
	return out
}

// EscapeTypst escapes literal text for Typst markup.
func EscapeTypst(text string) string {
	return escaper.Replace(text)
}

// UnescapeTypst reverses EscapeTypst.
func UnescapeTypst(text string) string {
	return unescaper.Replace(text)
}

// typstString quotes s as a Typst string literal.
func typstString(s string) string {
	return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
}
