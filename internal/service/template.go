package service

import "strings"

const defaultRecipientName = "Customer"

// renderTemplate substitutes the {name} placeholder with the recipient's
// name, falling back to a generic salutation when the name is blank.
func renderTemplate(message, name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		name = defaultRecipientName
	}
	return strings.ReplaceAll(message, "{name}", name)
}
