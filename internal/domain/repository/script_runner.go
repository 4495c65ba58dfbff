package repository

import (
	"context"
	"uigen/internal/domain/entity"
)

// ScriptRunner executes untrusted setup scripts outside the service process.
// A returned error means the runtime itself failed; script errors are reported
// in the result.
type ScriptRunner interface {
	Run(ctx context.Context, script string) (entity.ScriptResult, error)
}
