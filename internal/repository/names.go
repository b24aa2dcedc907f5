package repository

import (
	"fmt"
	"strings"

	"gamebook/shared/models"
)

// checkName rejects names that would escape the storage directory.
func checkName(kind, name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%s name is empty: %w", kind, models.ErrInvalidInput)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("%s name %q is not a plain file name: %w", kind, name, models.ErrInvalidInput)
	}
	return nil
}
