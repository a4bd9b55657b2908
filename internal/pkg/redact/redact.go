// redact маскирует чувствительные данные сессии (токены, e-mail) перед
// записью в логи. Токены никогда не пишутся целиком, даже на уровне debug.
package redact

import "strings"

// Email маскирует e-mail для логирования.
//
// Правила:
//   - строка должна содержать ровно один '@', иначе возвращается "***";
//   - локальная часть заменяется на первые два символа (по рунам) + "***";
//   - если локальная часть не длиннее двух символов: "***@<domain>".
//
// Примеры:
//
//	"foobar@example.com" -> "fo***@example.com"
//	"ab@ex.com"          -> "***@ex.com"
//	"no-at"              -> "***"
func Email(s string) string {
	if strings.Count(s, "@") != 1 {
		return "***"
	}

	i := strings.IndexByte(s, '@')
	local, domain := s[:i], s[i+1:]

	lr := []rune(local)
	if len(lr) > 2 {
		local = string(lr[:2]) + "***"
	} else {
		local = "***"
	}

	return local + "@" + domain
}

// Token возвращает безопасное представление токена: маркер наличия и
// последние четыре символа для сопоставления в логах. Пустой токен: "<none>".
func Token(s string) string {
	if s == "" {
		return "<none>"
	}

	r := []rune(s)
	if len(r) <= 8 {
		return "[REDACTED_TOKEN]"
	}

	return "[REDACTED_TOKEN]…" + string(r[len(r)-4:])
}

func Password() string { return "[REDACTED_PASSWORD]" }
