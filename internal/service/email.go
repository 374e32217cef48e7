package service

import "strings"

// NameFromEmail derives a display name from an email's local part:
// "john.doe@example.com" -> "John Doe", "bob123@test.com" -> "Bob".
// Returns "" when nothing name-like remains.
func NameFromEmail(email string) string {
	email = strings.TrimSpace(email)
	if email == "" {
		return ""
	}

	local := email
	if at := strings.IndexByte(email, '@'); at >= 0 {
		local = email[:at]
	}

	// Keep letters and separators only
	var b strings.Builder
	for _, r := range local {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || r == '.' || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	local = b.String()
	if local == "" {
		return ""
	}

	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-'
	})

	words := make([]string, 0, len(parts))
	for _, part := range parts {
		if part == "" {
			continue
		}
		words = append(words, strings.ToUpper(part[:1])+strings.ToLower(part[1:]))
	}
	return strings.Join(words, " ")
}
