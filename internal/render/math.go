// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package render

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// MathSpan is one formula lifted out of message content.
type MathSpan struct {
	// ID is the placeholder token standing in for the formula.
	ID string
	// Formula is the captured LaTeX source between the delimiters.
	Formula string
	// Display is true for block math ($$..$$, \[..\]).
	Display bool
}

// Placeholders wrap the span index in a private use area rune, which
// neither the escape table nor any delimiter pattern touches.
const (
	markerFirst rune = 0xE000
	markerLast  rune = 0xF8FF
)

// placeholderMarker picks the first private use rune that does not occur
// in text, so a placeholder can never match user content.
func placeholderMarker(text string) (rune, bool) {
	for r := markerFirst; r <= markerLast; r++ {
		if !strings.ContainsRune(text, r) {
			return r, true
		}
	}
	return 0, false
}

// mathDelimiters are scanned in order; each class only sees text the
// earlier classes left behind.
var mathDelimiters = []struct {
	pattern *regexp.Regexp
	display bool
}{
	{regexp.MustCompile(`\$\$((?s:.+?))\$\$`), true},
	{regexp.MustCompile(`\\\[((?s:.+?))\\\]`), true},
	{regexp.MustCompile(`\\\(((?s:.+?))\\\)`), false},
	{regexp.MustCompile(`\$([^$\n]+?)\$`), false},
}

// ExtractMath replaces every delimited formula in text with a placeholder
// and returns the rewritten text together with the captured spans.
// Text that already uses every private use rune is returned untouched.
func ExtractMath(text string) (string, []MathSpan) {
	marker, ok := placeholderMarker(text)
	if !ok {
		return text, nil
	}
	mark := string(marker)
	var spans []MathSpan
	for _, d := range mathDelimiters {
		text = d.pattern.ReplaceAllStringFunc(text, func(match string) string {
			sub := d.pattern.FindStringSubmatch(match)
			id := mark + strconv.Itoa(len(spans)) + mark
			spans = append(spans, MathSpan{ID: id, Formula: sub[1], Display: d.display})
			return id
		})
	}
	return text, spans
}

// restoreMath substitutes each placeholder with its translated formula.
func restoreMath(text string, spans []MathSpan) string {
	if len(spans) == 0 {
		return text
	}
	pairs := make([]string, 0, 2*len(spans))
	for _, s := range spans {
		pairs = append(pairs, s.ID, mathSpan(s))
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

func mathSpan(s MathSpan) string {
	body := strings.TrimSpace(TranslateMath(s.Formula))
	if s.Display {
		return "$ " + body + " $"
	}
	return "$" + body + "$"
}

// TranslateMath transliterates a LaTeX formula into Typst math using the
// macro tables. Unknown commands are emitted as quoted literal text.
func TranslateMath(formula string) string {
	var b strings.Builder
	translateInto(&b, formula)
	return b.String()
}

func translateInto(b *strings.Builder, s string) {
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '\\':
			i = translateCommand(b, s, i)
		case c == '{':
			inner, next := readGroup(s, i)
			b.WriteByte('(')
			translateInto(b, inner)
			b.WriteByte(')')
			i = next
		case c == '}':
			b.WriteByte(')')
			i++
		case c == '"' || c == '#' || c == '$':
			b.WriteByte('\\')
			b.WriteByte(c)
			i++
		case isLetter(c):
			j := i
			for j < len(s) && isLetter(s[j]) {
				j++
			}
			writeLetters(b, s[i:j])
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
}

// translateCommand handles the backslash sequence starting at s[i] and
// returns the index just past it.
func translateCommand(b *strings.Builder, s string, i int) int {
	j := i + 1
	for j < len(s) && isLetter(s[j]) {
		j++
	}
	if j == i+1 {
		if j >= len(s) {
			b.WriteString(`\\`)
			return j
		}
		if sym, ok := escapedSymbols[s[j]]; ok {
			b.WriteString(sym)
		} else {
			b.WriteString(`\` + string(s[j]))
		}
		return j + 1
	}

	name := s[i+1 : j]
	if strippedMacros[name] {
		// \left. and \right. are invisible delimiters.
		if j < len(s) && s[j] == '.' {
			j++
		}
		return j
	}
	if sym, ok := symbolMacros[name]; ok {
		padLeft(b)
		b.WriteString(sym)
		if j < len(s) && (isLetter(s[j]) || isDigit(s[j]) || s[j] == '\\') {
			b.WriteByte(' ')
		}
		return j
	}
	if m, ok := argMacros[name]; ok {
		return translateArgMacro(b, s, j, m)
	}

	padLeft(b)
	b.WriteString(typstString(`\` + name))
	return j
}

func translateArgMacro(b *strings.Builder, s string, j int, m argMacro) int {
	var opt string
	hasOpt := false
	if m.optFormat != "" {
		k := skipSpaces(s, j)
		if k < len(s) && s[k] == '[' {
			if end := strings.IndexByte(s[k:], ']'); end >= 0 {
				opt = s[k+1 : k+end]
				hasOpt = true
				j = k + end + 1
			}
		}
	}

	args := make([]any, 0, m.args+1)
	if hasOpt {
		args = append(args, TranslateMath(opt))
	}
	for n := 0; n < m.args; n++ {
		arg, next := readArgument(s, j)
		j = next
		if m.literal {
			args = append(args, typstString(arg))
		} else {
			args = append(args, TranslateMath(arg))
		}
	}

	format := m.format
	if hasOpt {
		format = m.optFormat
	}
	padLeft(b)
	fmt.Fprintf(b, format, args...)
	return j
}

// readArgument reads a {..} group or, failing that, a single token.
func readArgument(s string, i int) (string, int) {
	i = skipSpaces(s, i)
	if i >= len(s) {
		return "", i
	}
	if s[i] == '{' {
		return readGroup(s, i)
	}
	if s[i] == '\\' {
		j := i + 1
		for j < len(s) && isLetter(s[j]) {
			j++
		}
		if j == i+1 && j < len(s) {
			j++
		}
		return s[i:j], j
	}
	return s[i : i+1], i + 1
}

// readGroup returns the contents of the balanced brace group opening at
// s[i] and the index just past its closing brace. An unterminated group
// runs to the end of s.
func readGroup(s string, i int) (string, int) {
	depth := 0
	for j := i; j < len(s); j++ {
		switch s[j] {
		case '\\':
			j++
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[i+1 : j], j + 1
			}
		}
	}
	return s[i+1:], len(s)
}

// writeLetters emits a run of letters. Known identifiers stay whole;
// anything else becomes single-letter variables, matching LaTeX's
// implicit multiplication.
func writeLetters(b *strings.Builder, run string) {
	if len(run) == 1 || mathIdents[run] {
		padLeft(b)
		b.WriteString(run)
		return
	}
	padLeft(b)
	for k := 0; k < len(run); k++ {
		if k > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte(run[k])
	}
}

// padLeft separates a word from a preceding letter or digit.
func padLeft(b *strings.Builder) {
	out := b.String()
	if n := len(out); n > 0 && (isLetter(out[n-1]) || isDigit(out[n-1])) {
		b.WriteByte(' ')
	}
}

func skipSpaces(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n') {
		i++
	}
	return i
}

func isLetter(c byte) bool { return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
