package codegen

import "strings"

// PascalCase derives a JSX component name from a component id:
// "account-summary" -> "AccountSummary". Characters outside [a-zA-Z0-9]
// act as word breaks. A leading digit is prefixed so the result stays a
// valid identifier.
func PascalCase(id string) string {
	var b strings.Builder
	upper := true
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z':
			if upper {
				b.WriteRune(r - 'a' + 'A')
			} else {
				b.WriteRune(r)
			}
			upper = false
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r)
			upper = false
		case r >= '0' && r <= '9':
			if b.Len() == 0 {
				b.WriteString("Screen")
			}
			b.WriteRune(r)
			upper = true
		default:
			upper = true
		}
	}
	if b.Len() == 0 {
		return "Screen"
	}
	return b.String()
}

// KebabCase derives a module file name from a component id:
// "AccountSummary" -> "account-summary". Runs of invalid characters
// collapse into one dash.
func KebabCase(id string) string {
	var b strings.Builder
	lastDash := true
	for i, r := range id {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		case r >= 'A' && r <= 'Z':
			if !lastDash && i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r - 'A' + 'a')
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.Trim(b.String(), "-")
}
