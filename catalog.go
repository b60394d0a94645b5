package formwork

import (
	"fmt"

	"github.com/aretw0/formwork/pkg/domain"
)

// WithCatalog sets the static form categories and types. When types are given,
// new templates must name an active type.
func WithCatalog(categories []domain.FormCategory, types []domain.FormType) Option {
	return func(e *Engine) {
		e.categories = append([]domain.FormCategory(nil), categories...)
		e.types = append([]domain.FormType(nil), types...)
	}
}

// Categories lists the configured form categories.
func (e *Engine) Categories() []domain.FormCategory {
	return append([]domain.FormCategory(nil), e.categories...)
}

// Types lists the configured form types, optionally restricted to one category.
func (e *Engine) Types(categoryID string) []domain.FormType {
	var out []domain.FormType
	for _, t := range e.types {
		if categoryID == "" || t.CategoryID == categoryID {
			out = append(out, t)
		}
	}
	return out
}

func (e *Engine) checkType(typeID string) error {
	if len(e.types) == 0 || typeID == "" {
		return nil
	}
	for _, t := range e.types {
		if t.ID == typeID {
			if !t.IsActive {
				return fmt.Errorf("%w: form type %q is inactive", domain.ErrInvalidTemplate, typeID)
			}
			return nil
		}
	}
	return fmt.Errorf("%w: unknown form type %q", domain.ErrInvalidTemplate, typeID)
}
