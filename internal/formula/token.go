package formula

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

type TokenKind int

const (
	TokenColumn TokenKind = iota
	TokenIdent
	TokenNumber
	TokenString
	TokenOperator
	TokenLParen
	TokenRParen
	TokenComma
)

type Token struct {
	Kind  TokenKind
	Value string
	Pos   int
}

// source возвращает представление токена в тексте для интерпретатора.
func (t Token) source() string {
	switch t.Kind {
	case TokenString:
		return strconv.Quote(t.Value)
	case TokenColumn:
		return "[" + t.Value + "]"
	default:
		return t.Value
	}
}

// операторы в порядке убывания длины
var operators = []struct {
	text, norm string
}{
	{"===", "=="},
	{"!==", "!="},
	{"==", "=="},
	{"!=", "!="},
	{"<>", "!="},
	{"<=", "<="},
	{">=", ">="},
	{"&&", "&&"},
	{"||", "||"},
	{"=", "=="},
	{"<", "<"},
	{">", ">"},
	{"+", "+"},
	{"-", "-"},
	{"*", "*"},
	{"/", "/"},
	{"%", "%"},
	{"!", "!"},
	{"?", "?"},
	{":", ":"},
}

// Tokenize разбивает текст формулы на токены.
func Tokenize(formula string) ([]Token, error) {
	src := []rune(formula)
	var tokens []Token

	for i := 0; i < len(src); {
		ch := src[i]

		switch {
		case unicode.IsSpace(ch):
			i++

		case ch == '[':
			end := indexRune(src, i+1, ']')
			if end < 0 {
				return nil, fmt.Errorf("%w: не закрыта ссылка на колонку (позиция %d)", ErrSyntax, i)
			}
			tokens = append(tokens, Token{Kind: TokenColumn, Value: string(src[i+1 : end]), Pos: i})
			i = end + 1

		case ch == '"' || ch == '\'':
			var b strings.Builder
			j := i + 1
			for ; j < len(src) && src[j] != ch; j++ {
				if src[j] == '\\' && j+1 < len(src) {
					j++
				}
				b.WriteRune(src[j])
			}
			if j >= len(src) {
				return nil, fmt.Errorf("%w: не закрыта строка (позиция %d)", ErrSyntax, i)
			}
			tokens = append(tokens, Token{Kind: TokenString, Value: b.String(), Pos: i})
			i = j + 1

		case isDigit(ch) || (ch == '.' && i+1 < len(src) && isDigit(src[i+1])):
			j := i
			for j < len(src) && isDigit(src[j]) {
				j++
			}
			if j < len(src) && src[j] == '.' {
				j++
				for j < len(src) && isDigit(src[j]) {
					j++
				}
			}
			j += exponentLen(src[j:])
			text := string(src[i:j])
			if strings.HasPrefix(text, ".") {
				text = "0" + text
			}
			tokens = append(tokens, Token{Kind: TokenNumber, Value: text, Pos: i})
			i = j

		case unicode.IsLetter(ch) || ch == '_':
			j := i
			for j < len(src) && (unicode.IsLetter(src[j]) || isDigit(src[j]) || src[j] == '_') {
				j++
			}
			tokens = append(tokens, Token{Kind: TokenIdent, Value: string(src[i:j]), Pos: i})
			i = j

		case ch == '(':
			tokens = append(tokens, Token{Kind: TokenLParen, Value: "(", Pos: i})
			i++

		case ch == ')':
			tokens = append(tokens, Token{Kind: TokenRParen, Value: ")", Pos: i})
			i++

		case ch == ',':
			tokens = append(tokens, Token{Kind: TokenComma, Value: ",", Pos: i})
			i++

		default:
			op, n := matchOperator(src[i:])
			if n == 0 {
				return nil, fmt.Errorf("%w: неизвестный символ %q (позиция %d)", ErrSyntax, ch, i)
			}
			tokens = append(tokens, Token{Kind: TokenOperator, Value: op, Pos: i})
			i += n
		}
	}

	return tokens, nil
}

func matchOperator(src []rune) (string, int) {
	for _, op := range operators {
		n := len([]rune(op.text))
		if len(src) >= n && string(src[:n]) == op.text {
			return op.norm, n
		}
	}
	return "", 0
}

func indexRune(src []rune, from int, r rune) int {
	for i := from; i < len(src); i++ {
		if src[i] == r {
			return i
		}
	}
	return -1
}

// exponentLen — длина экспоненты вида e3, E-2, e+10 в начале src.
func exponentLen(src []rune) int {
	if len(src) < 2 || (src[0] != 'e' && src[0] != 'E') {
		return 0
	}
	n := 1
	if src[n] == '+' || src[n] == '-' {
		n++
	}
	if n >= len(src) || !isDigit(src[n]) {
		return 0
	}
	for n < len(src) && isDigit(src[n]) {
		n++
	}
	return n
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}
