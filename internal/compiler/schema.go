package compiler

import (
	_ "embed"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/roach88/mirc/internal/mir"
)

//go:embed schema.cue
var schemaSource []byte

// SchemaError is a structural violation found by the CUE schema.
type SchemaError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *SchemaError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// schema holds the compiled #Document definition. cue.Context is not safe
// for concurrent use, so every check holds mu.
type schema struct {
	mu  sync.Mutex
	ctx *cue.Context
	doc cue.Value
}

var loadSchema = sync.OnceValues(func() (*schema, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(schemaSource, cue.Filename("schema.cue"))
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	def := v.LookupPath(cue.ParsePath("#Document"))
	if !def.Exists() {
		return nil, &SchemaError{Field: "#Document", Message: "definition not found"}
	}
	return &schema{ctx: ctx, doc: def}, nil
})

// CheckSchema unifies a raw document with the structural schema and returns
// one SchemaError per violation.
func CheckSchema(raw map[string]any) ([]*SchemaError, error) {
	s, err := loadSchema()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	val := s.ctx.Encode(raw)
	if err := val.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	err = s.doc.Unify(val).Validate()
	if err == nil {
		return nil, nil
	}

	seen := map[string]bool{}
	var out []*SchemaError
	for _, e := range errors.Errors(err) {
		se := &SchemaError{Field: cuePath(e.Path()), Message: e.Error()}
		if pos := errors.Positions(e); len(pos) > 0 {
			se.Pos = pos[0]
		}
		key := se.Field + "\x00" + se.Message
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, se)
	}
	return out, nil
}

// ValidateBytes parses a JSON or YAML document, checks its structure against
// the schema and then validates the decoded document. Schema issues come
// first.
func ValidateBytes(data []byte, format mir.Format) *Result {
	raw, err := mir.Parse(data, format)
	if err != nil {
		return (&Result{Issues: []Issue{{
			Code:     CodeDocumentDecodeFailed,
			Severity: mir.SeverityError,
			Message:  err.Error(),
		}}}).finish()
	}

	var schemaIssues []Issue
	errs, err := CheckSchema(raw)
	if err != nil {
		schemaIssues = append(schemaIssues, Issue{
			Code:     CodeSchemaInvalid,
			Severity: mir.SeverityError,
			Message:  err.Error(),
		})
	}
	for _, se := range errs {
		schemaIssues = append(schemaIssues, Issue{
			Code:     CodeSchemaInvalid,
			Severity: mir.SeverityError,
			Path:     se.Field,
			Message:  se.Message,
		})
	}

	res := Validate(raw)
	res.Issues = append(schemaIssues, res.Issues...)
	return res.finish()
}

// cuePath renders CUE selectors in the structural path notation used by
// diagnostics: list indices in brackets.
func cuePath(sels []string) string {
	var b strings.Builder
	for _, s := range sels {
		if _, err := strconv.Atoi(s); err == nil {
			b.WriteString("[" + s + "]")
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(s)
	}
	return b.String()
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	if pos := errors.Positions(first); len(pos) > 0 {
		return &SchemaError{Field: "cue", Message: first.Error(), Pos: pos[0]}
	}
	return err
}
