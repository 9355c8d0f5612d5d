package formula

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		formula string
		valid   bool
		err     string
	}{
		{name: "простая формула", formula: "[Сумма ДЗ] * 1.20", valid: true},
		{name: "вложенные скобки", formula: "(1+(2*3))", valid: true},
		{name: "не закрыта скобка", formula: "(1+2", err: "Не закрыта скобка"},
		{name: "лишняя закрывающая", formula: "1+2)", err: "Лишняя закрывающая скобка"},
		{name: "закрывающая раньше открывающей", formula: ")(", err: "Лишняя закрывающая скобка"},
		{name: "window", formula: "window.location", err: `Использование "window" запрещено`},
		{name: "eval внутри слова", formula: "[retrieval] + 1", err: `Использование "eval" запрещено`},
		{name: "регистр учитывается", formula: "[Window] + 1", valid: true},
		{name: "запрет раньше скобок", formula: "fetch(", err: `Использование "fetch" запрещено`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.formula)
			assert.Equal(t, tt.valid, res.Valid)
			assert.Equal(t, tt.err, res.Error)
		})
	}
}
