package transform

import (
	"fmt"
	"regexp"
	"strings"
)

// declPattern matches a primitive-annotated declaration whose initializer is
// a single literal, e.g. `let n: number = "x";`. It runs on masked source
// (comments blanked, string contents replaced) so it cannot match inside
// either.
var declPattern = regexp.MustCompile(
	`\b(?:let|const|var)\s+([A-Za-z_$][\w$]*)\s*:\s*(number|string|boolean|bigint)\s*=\s*` +
		`("[^"\n]*"|'[^'\n]*'|` + "`[^`]*`" + `|true|false|-?(?:0[xX][0-9a-fA-F_]+|[0-9][0-9_]*(?:\.[0-9_]*)?(?:[eE][+-]?[0-9]+)?)n?)` +
		`\s*(?:[;,)\n]|$)`)

// checkDeclarations reports TS2322 for literal initializers whose type
// cannot be assigned to the declared primitive type.
func checkDeclarations(file, source string) []Diagnostic {
	masked := mask(source)

	var diags []Diagnostic
	for _, m := range declPattern.FindAllStringSubmatchIndex(masked, -1) {
		declared := masked[m[4]:m[5]]
		literal := masked[m[6]:m[7]]

		actual := literalType(literal)
		if actual == declared {
			continue
		}
		line, col := position(source, m[2])
		diags = append(diags, Diagnostic{
			File:    file,
			Line:    line,
			Column:  col,
			Code:    "TS2322",
			Message: fmt.Sprintf("Type '%s' is not assignable to type '%s'.", actual, declared),
		})
	}
	return diags
}

func literalType(lit string) string {
	switch {
	case lit == "true" || lit == "false":
		return "boolean"
	case strings.HasPrefix(lit, `"`), strings.HasPrefix(lit, "'"), strings.HasPrefix(lit, "`"):
		return "string"
	case strings.HasSuffix(lit, "n"):
		return "bigint"
	default:
		return "number"
	}
}

// position converts a byte offset to a 1-based line and column.
func position(src string, off int) (int, int) {
	line := 1 + strings.Count(src[:off], "\n")
	col := off - strings.LastIndex(src[:off], "\n")
	return line, col
}

// mask blanks comments and replaces the contents of string and template
// literals with 'x', preserving byte offsets and newlines.
func mask(src string) string {
	b := []byte(src)
	for i := 0; i < len(b); i++ {
		switch {
		case b[i] == '/' && i+1 < len(b) && b[i+1] == '/':
			for ; i < len(b) && b[i] != '\n'; i++ {
				b[i] = ' '
			}
		case b[i] == '/' && i+1 < len(b) && b[i+1] == '*':
			end := strings.Index(src[i+2:], "*/")
			stop := len(b)
			if end >= 0 {
				stop = i + 2 + end + 2
			}
			for ; i < stop; i++ {
				if b[i] != '\n' {
					b[i] = ' '
				}
			}
			i--
		case b[i] == '"' || b[i] == '\'' || b[i] == '`':
			quote := b[i]
			for i++; i < len(b) && b[i] != quote; i++ {
				if b[i] == '\\' && i+1 < len(b) {
					b[i] = 'x'
					i++
				}
				if b[i] == '\n' && quote != '`' {
					break
				}
				if b[i] != '\n' {
					b[i] = 'x'
				}
			}
		}
	}
	return string(b)
}
