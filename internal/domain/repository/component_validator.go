package repository

import "uigen/internal/domain/entity"

// ComponentValidator проверяет ответ модели и приводит его к GeneratedComponent.
type ComponentValidator interface {
	Parse(raw string) (entity.GeneratedComponent, error)
	Schema() any
}
