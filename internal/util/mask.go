// Package util junta helpers chicos sin otro hogar.
package util

import "strings"

// MaskIdentity oculta la mayor parte de un UPN o identidad antes de loguearlo:
// "eric.cartman@southpark.fr" queda "e…@s….fr". Las identidades sin '@'
// conservan solo la primera y la última letra.
func MaskIdentity(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	user, dom, ok := strings.Cut(s, "@")
	if !ok || user == "" {
		switch {
		case s == "":
			return ""
		case len([]rune(s)) <= 3:
			return "***"
		}
		r := []rune(s)
		return string(r[0]) + "…" + string(r[len(r)-1])
	}

	if r := []rune(user); len(r) > 1 {
		user = string(r[0]) + "…"
	}
	parts := strings.Split(dom, ".")
	if r := []rune(parts[0]); len(r) > 1 {
		parts[0] = string(r[0]) + "…"
	}
	return user + "@" + strings.Join(parts, ".")
}
