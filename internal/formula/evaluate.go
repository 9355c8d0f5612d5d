package formula

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/ast"
	"github.com/expr-lang/expr/vm"
)

var (
	// операторы выполняются функциями с приведением типов как в JS,
	// поэтому тип переменной не влияет на компиляцию
	binaryFuncs = map[string]string{
		"+": "add", "-": "sub", "*": "mul", "/": "div", "%": "mod",
		"<": "lt", ">": "gt", "<=": "le", ">=": "ge", "==": "eq", "!=": "ne",
	}
	unaryFuncs    = map[string]string{"-": "neg", "+": "pos", "!": "not"}
	functionNames = map[string]bool{"truthy": true, "now": true, "daysBetween": true, "round": true}
)

var binaryOps = map[string]func(a, b any) any{
	"add": jsAdd,
	"sub": func(a, b any) any { return toNumber(a) - toNumber(b) },
	"mul": func(a, b any) any { return toNumber(a) * toNumber(b) },
	"div": func(a, b any) any { return toNumber(a) / toNumber(b) },
	"mod": func(a, b any) any { return math.Mod(toNumber(a), toNumber(b)) },
	"lt":  func(a, b any) any { c, ok := jsCompare(a, b); return ok && c < 0 },
	"gt":  func(a, b any) any { c, ok := jsCompare(a, b); return ok && c > 0 },
	"le":  func(a, b any) any { c, ok := jsCompare(a, b); return ok && c <= 0 },
	"ge":  func(a, b any) any { c, ok := jsCompare(a, b); return ok && c >= 0 },
	"eq":  func(a, b any) any { return jsEquals(a, b) },
	"ne":  func(a, b any) any { return !jsEquals(a, b) },
}

var unaryOps = map[string]func(v any) any{
	"neg": func(v any) any { return -toNumber(v) },
	"pos": func(v any) any { return toNumber(v) },
	"not": func(v any) any { return !truthy(v) },
}

var dateLayouts = []string{
	time.DateOnly,
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	time.DateTime,
}

// Evaluator вычисляет выражение после подстановки и раскрытия псевдо-функций.
// Допускаются только литералы, переменные из env, арифметика, сравнения,
// тернарный оператор и вызовы встроенных функций.
type Evaluator struct {
	now       func() time.Time
	functions []expr.Option
}

func NewEvaluator(now func() time.Time) *Evaluator {
	if now == nil {
		now = time.Now
	}

	e := &Evaluator{now: now}
	e.functions = []expr.Option{
		expr.Function("truthy", func(params ...any) (any, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf("truthy: ожидается 1 аргумент")
			}
			return truthy(params[0]), nil
		}),
		expr.Function("now", func(params ...any) (any, error) {
			return e.now(), nil
		}),
		expr.Function("daysBetween", func(params ...any) (any, error) {
			if len(params) != 2 {
				return nil, fmt.Errorf("DAYS: ожидается 2 аргумента")
			}
			return daysBetween(params[0], params[1])
		}),
		expr.Function("round", func(params ...any) (any, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf("ROUND: ожидается 1 аргумент")
			}
			return math.Floor(toNumber(params[0]) + 0.5), nil
		}),
	}

	for name, op := range binaryOps {
		e.functions = append(e.functions, expr.Function(name, func(params ...any) (any, error) {
			if len(params) != 2 {
				return nil, fmt.Errorf("%s: ожидается 2 аргумента", name)
			}
			return op(params[0], params[1]), nil
		}))
	}
	for name, op := range unaryOps {
		e.functions = append(e.functions, expr.Function(name, func(params ...any) (any, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf("%s: ожидается 1 аргумент", name)
			}
			return op(params[0]), nil
		}))
	}

	return e
}

// Compile разбирает выражение и проверяет его по белому списку конструкций.
func (e *Evaluator) Compile(source string, env Env) (*vm.Program, error) {
	return e.compile(source, env, expr.Env(map[string]any(env)))
}

// CompileUntyped проверяет выражение без значений колонок: переменные из env
// известны только по именам и имеют тип any.
func (e *Evaluator) CompileUntyped(source string, env Env) (*vm.Program, error) {
	return e.compile(source, env, expr.AllowUndefinedVariables())
}

func (e *Evaluator) compile(source string, env Env, envOpt expr.Option) (*vm.Program, error) {
	g := &guard{env: env}

	opts := []expr.Option{
		envOpt,
		expr.DisableAllBuiltins(),
		expr.Optimize(false),
		expr.Patch(g),
	}
	opts = append(opts, e.functions...)

	program, err := expr.Compile(source, opts...)
	if g.err != nil {
		return nil, g.err
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrSyntax, firstLine(err.Error()))
	}

	return program, nil
}

// Evaluate возвращает сырой результат выражения (без нормализации).
func (e *Evaluator) Evaluate(source string, env Env) (out any, err error) {
	program, err := e.Compile(source, env)
	if err != nil {
		return nil, err
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("ошибка выполнения: %v", r)
		}
	}()

	return expr.Run(program, map[string]any(env))
}

// Normalize приводит результат к значению ячейки: числа округляются до двух
// знаков, бесконечность и NaN превращаются в 0, строки и логические — как есть.
func Normalize(v any) (any, error) {
	switch v := v.(type) {
	case nil, string, bool, time.Time:
		return v, nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case float32:
		return round2(float64(v)), nil
	case float64:
		return round2(v), nil
	default:
		return nil, fmt.Errorf("неподдерживаемый тип результата %T", v)
	}
}

func round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return 0
	}
	return math.Floor(x*100+0.5) / 100
}

type guard struct {
	env Env
	err error
}

func (g *guard) Visit(node *ast.Node) {
	if g.err != nil {
		return
	}

	switch n := (*node).(type) {
	case *ast.IntegerNode, *ast.FloatNode, *ast.StringNode, *ast.BoolNode, *ast.NilNode, *ast.ConditionalNode:
	case *ast.IdentifierNode:
		if _, ok := g.env[n.Value]; !ok && !functionNames[n.Value] {
			g.err = fmt.Errorf("%w: неизвестное имя %q", ErrForbidden, n.Value)
		}
	case *ast.UnaryNode:
		name, ok := unaryFuncs[n.Operator]
		if !ok {
			g.err = fmt.Errorf("%w: оператор %q", ErrForbidden, n.Operator)
			return
		}
		ast.Patch(node, call(name, n.Node))
	case *ast.BinaryNode:
		switch n.Operator {
		case "&&":
			// a && b возвращает a, если оно ложно, иначе b
			ast.Patch(node, &ast.ConditionalNode{Cond: call("truthy", n.Left), Exp1: n.Right, Exp2: n.Left})
		case "||":
			ast.Patch(node, &ast.ConditionalNode{Cond: call("truthy", n.Left), Exp1: n.Left, Exp2: n.Right})
		default:
			name, ok := binaryFuncs[n.Operator]
			if !ok {
				g.err = fmt.Errorf("%w: оператор %q", ErrForbidden, n.Operator)
				return
			}
			ast.Patch(node, call(name, n.Left, n.Right))
		}
	case *ast.CallNode:
		callee, ok := n.Callee.(*ast.IdentifierNode)
		if !ok || !functionNames[callee.Value] {
			g.err = fmt.Errorf("%w: неизвестная функция", ErrForbidden)
		}
	default:
		g.err = fmt.Errorf("%w: %T", ErrForbidden, n)
	}
}

func call(name string, args ...ast.Node) *ast.CallNode {
	return &ast.CallNode{Callee: &ast.IdentifierNode{Value: name}, Arguments: args}
}

func truthy(v any) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != ""
	case int:
		return v != 0
	case float64:
		return v != 0 && !math.IsNaN(v)
	default:
		return true
	}
}

func toNumber(v any) float64 {
	switch v := v.(type) {
	case nil:
		return 0
	case bool:
		if v {
			return 1
		}
		return 0
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case float64:
		return v
	case time.Time:
		return float64(v.UnixMilli())
	case string:
		if strings.TrimSpace(v) == "" {
			return 0
		}
		switch n := stringValue(v).(type) {
		case int:
			return float64(n)
		case float64:
			return n
		}
	}
	return math.NaN()
}

func toTime(v any) (time.Time, error) {
	switch v := v.(type) {
	case time.Time:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("некорректная дата %q", v)
	case int, int64, float64:
		return time.UnixMilli(int64(toNumber(v))).UTC(), nil
	default:
		return time.Time{}, fmt.Errorf("некорректная дата %v", v)
	}
}

// daysBetween — число дней между a и b с округлением вверх.
func daysBetween(a, b any) (any, error) {
	ta, err := toTime(a)
	if err != nil {
		return nil, err
	}
	tb, err := toTime(b)
	if err != nil {
		return nil, err
	}

	return math.Ceil(float64(ta.Sub(tb)) / float64(24*time.Hour)), nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
