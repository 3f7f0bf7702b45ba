package taskstore

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	maxNameLen     = 64
	maxIdentityLen = 256
)

// Collection and field names double as file stems and cache routing keys, so
// the grammar is deliberately narrow.
var nameRe = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

func validateCollection(name string) error {
	if len(name) > maxNameLen || !nameRe.MatchString(name) {
		return newError(ErrCodeValidation, name, "",
			fmt.Sprintf("invalid collection name %q: must match [a-z_][a-z0-9_]* and be at most %d characters", name, maxNameLen), nil)
	}
	return nil
}

func validateFieldName(collection, field string) error {
	if len(field) > maxNameLen || !nameRe.MatchString(field) {
		return newError(ErrCodeValidation, collection, "",
			fmt.Sprintf("invalid field name %q: must match [a-z_][a-z0-9_]* and be at most %d characters", field, maxNameLen), nil)
	}
	return nil
}

func validateIdentity(collection, id string) error {
	if strings.TrimSpace(id) == "" {
		return newError(ErrCodeValidation, collection, id, "identity must be non-blank", nil)
	}
	if len(id) > maxIdentityLen {
		return newError(ErrCodeValidation, collection, id,
			fmt.Sprintf("identity exceeds %d characters", maxIdentityLen), nil)
	}
	return nil
}
