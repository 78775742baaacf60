package helpers

import (
	"strings"

	"marzban-go/pkg/marzban"
)

// TemplateUsername applies a template's username prefix and suffix to a base name
// Например: prefix "vip_", suffix "_de", base "alice" -> "vip_alice_de"
func TemplateUsername(template *marzban.UserTemplate, base string) string {
	var sb strings.Builder
	if template.UsernamePrefix != nil {
		sb.WriteString(*template.UsernamePrefix)
	}
	sb.WriteString(base)
	if template.UsernameSuffix != nil {
		sb.WriteString(*template.UsernameSuffix)
	}
	return sb.String()
}

// ExtractBaseUsername strips a template's prefix and suffix from a username.
// Names that do not carry both affixes are returned unchanged.
func ExtractBaseUsername(template *marzban.UserTemplate, username string) string {
	base := username
	if template.UsernamePrefix != nil {
		if !strings.HasPrefix(base, *template.UsernamePrefix) {
			return username
		}
		base = strings.TrimPrefix(base, *template.UsernamePrefix)
	}
	if template.UsernameSuffix != nil {
		if !strings.HasSuffix(base, *template.UsernameSuffix) {
			return username
		}
		base = strings.TrimSuffix(base, *template.UsernameSuffix)
	}
	return base
}
