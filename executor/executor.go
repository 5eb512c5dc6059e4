// Package executor maps named operations to backend collaborator calls. The
// catalog is fixed: every operation maps to exactly one backend.Client call,
// and destructive operations require an explicit confirm=true argument
// before any backend traffic happens.
package executor

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/gridbase/gridgate/backend"
	errs "github.com/gridbase/gridgate/internal/errors"
)

type handlerFunc func(ctx context.Context, client backend.Client, args Args) (any, error)

// Operation is one entry in the catalog.
type Operation struct {
	Name        string
	Description string
	Destructive bool

	handler handlerFunc
}

// OperationInfo is the catalog entry exposed through the protocol's listing
// method.
type OperationInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Destructive bool   `json:"destructive,omitempty"`
}

// Executor owns the operation catalog.
type Executor struct {
	order []string
	ops   map[string]*Operation
}

// New builds the executor with the full fixed catalog registered.
func New() *Executor {
	e := &Executor{ops: make(map[string]*Operation)}
	e.registerCatalog()
	return e
}

func (e *Executor) register(op *Operation) {
	e.ops[op.Name] = op
	e.order = append(e.order, op.Name)
}

// Catalog lists every operation in registration order.
func (e *Executor) Catalog() []OperationInfo {
	infos := make([]OperationInfo, 0, len(e.order))
	for _, name := range e.order {
		op := e.ops[name]
		infos = append(infos, OperationInfo{
			Name:        op.Name,
			Description: op.Description,
			Destructive: op.Destructive,
		})
	}
	return infos
}

// Execute runs one operation against the given per-session backend client.
// It never returns an error: every outcome, including collaborator
// failures, is normalized into a tagged Result.
func (e *Executor) Execute(ctx context.Context, client backend.Client, name string, args Args) *Result {
	op, ok := e.ops[name]
	if !ok {
		return notFoundResult("unknown operation " + name)
	}
	if args == nil {
		args = Args{}
	}

	// The confirmation guard fires before any backend call is attempted.
	if op.Destructive && !args.Bool("confirm") {
		return notConfirmedResult(op.Name)
	}

	payload, err := op.handler(ctx, client, args)
	if err != nil {
		switch {
		case errs.Is(err, errs.ErrInvalidArgument):
			return validationResult(err.Error())
		case errs.Is(err, errs.ErrBackendNotFound):
			return notFoundResult("backend object not found")
		default:
			log.Error().Str("operation", op.Name).Err(err).Msg("backend call failed")
			return backendErrorResult(op.Name)
		}
	}
	return successResult(payload)
}
