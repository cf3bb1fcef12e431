package templater

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokenNumber tokenKind = iota
	tokenString
	tokenIdent
	tokenOperator
	tokenLeftParen
	tokenRightParen
	tokenComma
	tokenDot
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

// tokenize splits an expression into tokens. Strings accept single or
// double quotes.
func tokenize(expr string) ([]token, error) {
	var tokens []token
	runes := []rune(expr)
	i := 0
	for i < len(runes) {
		ch := runes[i]
		switch {
		case unicode.IsSpace(ch):
			i++
		case unicode.IsDigit(ch) || (ch == '.' && i+1 < len(runes) && unicode.IsDigit(runes[i+1])):
			start := i
			seenDot := false
			for i < len(runes) && (unicode.IsDigit(runes[i]) || (runes[i] == '.' && !seenDot)) {
				if runes[i] == '.' {
					seenDot = true
				}
				i++
			}
			text := string(runes[start:i])
			num, err := strconv.ParseFloat(text, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid number %q at %d", text, start)
			}
			tokens = append(tokens, token{kind: tokenNumber, text: text, num: num, pos: start})
		case ch == '\'' || ch == '"':
			quote := ch
			start := i
			i++
			var sb strings.Builder
			closed := false
			for i < len(runes) {
				if runes[i] == '\\' && i+1 < len(runes) {
					sb.WriteRune(runes[i+1])
					i += 2
					continue
				}
				if runes[i] == quote {
					closed = true
					i++
					break
				}
				sb.WriteRune(runes[i])
				i++
			}
			if !closed {
				return nil, fmt.Errorf("unterminated string at %d", start)
			}
			tokens = append(tokens, token{kind: tokenString, text: sb.String(), pos: start})
		case unicode.IsLetter(ch) || ch == '_':
			start := i
			for i < len(runes) && (unicode.IsLetter(runes[i]) || unicode.IsDigit(runes[i]) || runes[i] == '_') {
				i++
			}
			tokens = append(tokens, token{kind: tokenIdent, text: string(runes[start:i]), pos: start})
		case ch == '(':
			tokens = append(tokens, token{kind: tokenLeftParen, text: "(", pos: i})
			i++
		case ch == ')':
			tokens = append(tokens, token{kind: tokenRightParen, text: ")", pos: i})
			i++
		case ch == ',':
			tokens = append(tokens, token{kind: tokenComma, text: ",", pos: i})
			i++
		case ch == '.':
			tokens = append(tokens, token{kind: tokenDot, text: ".", pos: i})
			i++
		default:
			op, width := matchOperator(runes[i:])
			if op == "" {
				return nil, fmt.Errorf("unexpected character %q at %d", string(ch), i)
			}
			tokens = append(tokens, token{kind: tokenOperator, text: op, pos: i})
			i += width
		}
	}
	return tokens, nil
}

var twoCharOperators = []string{"==", "!=", "<=", ">=", "&&", "||"}
var oneCharOperators = "+-*/%<>=!"

func matchOperator(runes []rune) (string, int) {
	if len(runes) >= 2 {
		pair := string(runes[:2])
		for _, op := range twoCharOperators {
			if pair == op {
				return op, 2
			}
		}
	}
	if strings.ContainsRune(oneCharOperators, runes[0]) {
		return string(runes[0]), 1
	}
	return "", 0
}
