package formula

import (
	"fmt"
	"strings"
)

// forbiddenWords проверяются простым вхождением подстроки, с учетом регистра.
var forbiddenWords = []string{"window", "document", "alert", "fetch", "localStorage", "eval", "elem"}

// Validate проверяет формулу до вычисления: запрещенные слова и баланс скобок.
func Validate(formula string) ValidationResult {
	for _, word := range forbiddenWords {
		if strings.Contains(formula, word) {
			return ValidationResult{Error: fmt.Sprintf("Использование %q запрещено", word)}
		}
	}

	balance := 0
	for _, ch := range formula {
		switch ch {
		case '(':
			balance++
		case ')':
			balance--
		}
		if balance < 0 {
			return ValidationResult{Error: "Лишняя закрывающая скобка"}
		}
	}
	if balance != 0 {
		return ValidationResult{Error: "Не закрыта скобка"}
	}

	return ValidationResult{Valid: true}
}
