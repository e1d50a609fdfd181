package cli

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed request_schema.cue
var requestSchemaCUE string

// Request is a declarative query description, loaded from a CUE file and
// validated against the embedded #Request schema.
type Request struct {
	Table    string      `json:"table"`
	Select   []string    `json:"select,omitempty"`
	Filters  []Filter    `json:"filters,omitempty"`
	Order    []OrderTerm `json:"order,omitempty"`
	Limit    *int        `json:"limit,omitempty"`
	Offset   *int        `json:"offset,omitempty"`
	Distinct bool        `json:"distinct,omitempty"`
	Joins    []JoinSpec  `json:"joins,omitempty"`
}

// Filter is one predicate: either a column/op/value triple or a nested
// all/any group.
type Filter struct {
	Column string   `json:"column,omitempty"`
	Op     string   `json:"op,omitempty"`
	Value  any      `json:"value,omitempty"`
	All    []Filter `json:"all,omitempty"`
	Any    []Filter `json:"any,omitempty"`
}

// OrderTerm is one ORDER BY element.
type OrderTerm struct {
	Column string `json:"column"`
	Desc   bool   `json:"desc,omitempty"`
}

// JoinSpec declares an association to join or prefetch.
type JoinSpec struct {
	Key                string     `json:"key,omitempty"`
	Table              string     `json:"table"`
	Association        string     `json:"association"`
	Kind               string     `json:"kind"`
	OriginColumns      []string   `json:"originColumns,omitempty"`
	DestinationColumns []string   `json:"destinationColumns,omitempty"`
	Filters            []Filter   `json:"filters,omitempty"`
	Joins              []JoinSpec `json:"joins,omitempty"`
}

// LoadRequest reads a CUE request file, unifies it with the embedded
// schema, and decodes it.
func LoadRequest(path string) (*Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "reading request file", err)
	}

	ctx := cuecontext.New()

	schemaValue := ctx.CompileString(requestSchemaCUE, cue.Filename("request_schema.cue"))
	if err := schemaValue.Err(); err != nil {
		return nil, fmt.Errorf("compiling request schema: %w", err)
	}
	requestSchema := schemaValue.LookupPath(cue.ParsePath("#Request"))
	if err := requestSchema.Err(); err != nil {
		return nil, fmt.Errorf("looking up request schema: %w", err)
	}

	document := ctx.CompileBytes(data, cue.Filename(path))
	if err := document.Err(); err != nil {
		return nil, WrapExitError(ExitFailure, "parsing request file", err)
	}

	unified := requestSchema.Unify(document)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, WrapExitError(ExitFailure, "request does not match the schema", err)
	}

	var req Request
	if err := unified.Decode(&req); err != nil {
		return nil, WrapExitError(ExitFailure, "decoding request", err)
	}
	return &req, nil
}
