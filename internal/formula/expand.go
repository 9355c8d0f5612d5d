package formula

import (
	"fmt"
	"strings"
)

type pseudoFunc struct {
	arity  int
	render func(args []string) string
}

var pseudoFuncs = map[string]pseudoFunc{
	"IF": {arity: 3, render: func(a []string) string {
		return fmt.Sprintf("(truthy(%s) ? (%s) : (%s))", a[0], a[1], a[2])
	}},
	"NOW": {arity: 0, render: func([]string) string {
		return "now()"
	}},
	"DAYS": {arity: 2, render: func(a []string) string {
		return fmt.Sprintf("daysBetween(%s, %s)", a[0], a[1])
	}},
	"ROUND": {arity: 1, render: func(a []string) string {
		return fmt.Sprintf("round(%s)", a[0])
	}},
}

// Expand переписывает псевдо-функции в выражение для интерпретатора.
// Вложенные вызовы и запятые внутри строк разбираются корректно.
func Expand(tokens []Token) (string, error) {
	parts := make([]string, 0, len(tokens))

	for i := 0; i < len(tokens); i++ {
		t := tokens[i]

		if t.Kind == TokenIdent && i+1 < len(tokens) && tokens[i+1].Kind == TokenLParen {
			if fn, ok := pseudoFuncs[t.Value]; ok {
				end, rawArgs, err := splitCall(tokens, i+1)
				if err != nil {
					return "", err
				}
				if len(rawArgs) != fn.arity {
					return "", fmt.Errorf("%w: %s ожидает аргументов: %d, передано: %d", ErrSyntax, t.Value, fn.arity, len(rawArgs))
				}

				args := make([]string, len(rawArgs))
				for j, raw := range rawArgs {
					if len(raw) == 0 {
						return "", fmt.Errorf("%w: пустой аргумент %s (позиция %d)", ErrSyntax, t.Value, t.Pos)
					}
					if args[j], err = Expand(raw); err != nil {
						return "", err
					}
				}

				parts = append(parts, fn.render(args))
				i = end
				continue
			}
		}

		parts = append(parts, t.source())
	}

	return strings.Join(parts, " "), nil
}

// splitCall разбирает аргументы вызова, начиная с открывающей скобки open.
// Возвращает индекс закрывающей скобки и токены аргументов.
func splitCall(tokens []Token, open int) (int, [][]Token, error) {
	var (
		args  [][]Token
		start = open + 1
		depth = 0
	)

	for i := open; i < len(tokens); i++ {
		switch tokens[i].Kind {
		case TokenLParen:
			depth++
		case TokenRParen:
			depth--
			if depth == 0 {
				if i > start || len(args) > 0 {
					args = append(args, tokens[start:i])
				}
				return i, args, nil
			}
		case TokenComma:
			if depth == 1 {
				args = append(args, tokens[start:i])
				start = i + 1
			}
		}
	}

	return 0, nil, fmt.Errorf("%w: не закрыта скобка вызова (позиция %d)", ErrSyntax, tokens[open].Pos)
}
