package compiler

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/roach88/mirc/internal/ir"
	"github.com/roach88/mirc/internal/mir"
)

// Issue codes.
const (
	CodeNodeIDRequired        = "MIR_NODE_ID_REQUIRED"
	CodeNodeTypeRequired      = "MIR_NODE_TYPE_REQUIRED"
	CodeDataPickInvalid       = "MIR_DATA_PICK_INVALID"
	CodeDataSourceInvalid     = "MIR_DATA_SOURCE_INVALID"
	CodeDataExtendInvalid     = "MIR_DATA_EXTEND_INVALID"
	CodeListSourceInvalid     = "MIR_LIST_SOURCE_INVALID"
	CodeListAliasInvalid      = "MIR_LIST_ALIAS_INVALID"
	CodeListKeyByInvalid      = "MIR_LIST_KEYBY_INVALID"
	CodeListArrayFieldInvalid = "MIR_LIST_ARRAY_FIELD_INVALID"
	CodeListEmptyNodeNotFound = "MIR_LIST_EMPTY_NODE_NOT_FOUND"
	CodeListEmptyNodeCycle    = "MIR_LIST_EMPTY_NODE_CYCLE"
	CodeNodeFieldInvalid      = mir.CodeNodeFieldInvalid
	CodeDocumentFieldInvalid  = mir.CodeDocumentFieldInvalid
	CodeRefAmbiguous          = "MIR_REF_AMBIGUOUS"
	CodeDocumentDecodeFailed  = "MIR_DOCUMENT_DECODE_FAILED"
	CodeSchemaInvalid         = "MIR_SCHEMA_INVALID"
)

// Issue is one authoring-contract violation.
type Issue struct {
	Code       string       `json:"code"`
	Severity   mir.Severity `json:"severity"`
	Path       string       `json:"path"`
	Message    string       `json:"message"`
	Suggestion string       `json:"suggestion,omitempty"`
}

// Error implements the error interface.
func (i Issue) Error() string {
	if i.Path != "" {
		return fmt.Sprintf("[%s] %s: %s", i.Code, i.Path, i.Message)
	}
	return fmt.Sprintf("[%s] %s", i.Code, i.Message)
}

// Result is the outcome of validating one document.
type Result struct {
	// Document is the decoded document at the current schema version; nil
	// when the input could not be decoded.
	Document    *mir.Document    `json:"document,omitempty"`
	FromVersion string           `json:"fromVersion,omitempty"`
	Issues      []Issue          `json:"issues"`
	Diagnostics []mir.Diagnostic `json:"diagnostics,omitempty"`
	HasError    bool             `json:"hasError"`
}

// Codes returns the issue codes in report order.
func (r *Result) Codes() []string {
	codes := make([]string, len(r.Issues))
	for i, is := range r.Issues {
		codes[i] = is.Code
	}
	return codes
}

func (r *Result) finish() *Result {
	r.HasError = len(r.Issues) > 0
	if r.Issues == nil {
		r.Issues = []Issue{}
	}
	return r
}

// Validate migrates a raw document to the current schema version and checks
// it. It collects every issue rather than stopping at the first.
func Validate(raw map[string]any) *Result {
	migrated, from := mir.Migrate(raw)
	doc, err := mir.FromRaw(migrated)
	if err != nil {
		return (&Result{
			FromVersion: from,
			Issues: []Issue{{
				Code:     CodeDocumentDecodeFailed,
				Severity: mir.SeverityError,
				Message:  err.Error(),
			}},
		}).finish()
	}
	res := ValidateDocument(doc)
	res.FromVersion = from
	return res
}

// ValidateDocument checks an already decoded document. Fields the decoder
// had to coerce or drop are reported first, as issues.
func ValidateDocument(doc *mir.Document) *Result {
	_, diags := ir.Normalize(doc)
	v := &validator{ids: map[string]bool{}, ancestors: map[string]bool{}}

	var rest []mir.Diagnostic
	for _, d := range diags {
		if d.Source == mir.SourceDocument {
			v.add(d.Code, d.Path, d.Message, d.Suggestion)
			continue
		}
		rest = append(rest, d)
	}

	if doc != nil {
		mir.Walk(doc.UI.Root, func(n *mir.ComponentNode) {
			if n.ID != "" {
				v.ids[n.ID] = true
			}
		})
		v.node(doc.UI.Root, ir.RootPath)
	}
	return (&Result{Document: doc, Issues: v.issues, Diagnostics: rest}).finish()
}

type validator struct {
	ids map[string]bool
	// ancestors holds the ids on the path to the node being checked,
	// including the node itself.
	ancestors map[string]bool
	issues    []Issue
}

func (v *validator) add(code, path, msg, suggestion string) {
	v.issues = append(v.issues, Issue{
		Code:       code,
		Severity:   mir.SeverityError,
		Path:       path,
		Message:    msg,
		Suggestion: suggestion,
	})
}

func (v *validator) node(n *mir.ComponentNode, path string) {
	if n == nil {
		return
	}

	if n.ID != "" && !v.ancestors[n.ID] {
		v.ancestors[n.ID] = true
		defer delete(v.ancestors, n.ID)
	}

	if strings.TrimSpace(n.ID) == "" {
		v.add(CodeNodeIDRequired, path+".id", "node id is required", "give the node a unique id")
	}
	if strings.TrimSpace(n.Type) == "" {
		v.add(CodeNodeTypeRequired, path+".type", "node type is required", "set the node type")
	}

	v.ambiguous(n.Text, path+".text")
	v.ambiguous(n.Style, path+".style")
	v.ambiguous(n.Props, path+".props")
	v.ambiguous(n.Events, path+".events")

	if n.Data != nil {
		v.data(n.Data, path+".data")
	}
	if n.List != nil {
		v.list(n.List, path+".list")
	}

	for i, c := range n.Children {
		v.node(c, ir.ChildPath(path, i))
	}
}

func (v *validator) data(d *mir.DataConfig, path string) {
	if d.Pick != nil {
		if s, ok := d.Pick.(string); !ok || strings.TrimSpace(s) == "" {
			v.add(CodeDataPickInvalid, path+".pick", "data.pick must be a non-empty path string", `e.g. "user.profile"`)
		}
	}
	if d.Source != nil {
		v.reference(d.Source, path+".source", CodeDataSourceInvalid, "data.source")
	}
	if d.Extend != nil {
		if _, ok := d.Extend.(map[string]any); !ok {
			v.add(CodeDataExtendInvalid, path+".extend",
				fmt.Sprintf("data.extend must be a map, got %s", kindOf(d.Extend)),
				"use an object of keys to override")
		} else {
			v.ambiguous(d.Extend, path+".extend")
		}
	}
	v.ambiguous(d.Value, path+".value")
	v.ambiguous(d.Mock, path+".mock")
}

func (v *validator) list(l *mir.ListConfig, path string) {
	if l.Source != nil {
		v.reference(l.Source, path+".source", CodeListSourceInvalid, "list.source")
	}
	v.alias(l.ItemAs, path+".itemAs")
	v.alias(l.IndexAs, path+".indexAs")
	if l.KeyBy != nil {
		if _, ok := l.KeyBy.(string); !ok {
			v.add(CodeListKeyByInvalid, path+".keyBy",
				fmt.Sprintf("list.keyBy must be a string path, got %s", kindOf(l.KeyBy)), "")
		}
	}
	if l.ArrayField != nil {
		if _, ok := l.ArrayField.(string); !ok {
			v.add(CodeListArrayFieldInvalid, path+".arrayField",
				fmt.Sprintf("list.arrayField must be a string path, got %s", kindOf(l.ArrayField)), "")
		}
	}
	if l.EmptyNodeID != nil {
		id, ok := l.EmptyNodeID.(string)
		switch {
		case !ok || !v.ids[id]:
			v.add(CodeListEmptyNodeNotFound, path+".emptyNodeId",
				fmt.Sprintf("list.emptyNodeId %v does not match any node id", l.EmptyNodeID),
				"point emptyNodeId at an existing node")
		case v.ancestors[id]:
			v.add(CodeListEmptyNodeCycle, path+".emptyNodeId",
				fmt.Sprintf("list.emptyNodeId %q names the list node or one of its ancestors", id),
				"point emptyNodeId at a child of the list")
		}
	}
}

func (v *validator) alias(a any, path string) {
	if a == nil {
		return
	}
	s, ok := a.(string)
	if !ok || !mir.IsIdentifier(s) {
		v.add(CodeListAliasInvalid, path,
			fmt.Sprintf("alias %v is not a valid identifier", a),
			"use letters, digits, _ or $, not starting with a digit")
	}
}

// reference requires a single recognized reference tag. Objects carrying
// several tags are reported as ambiguous rather than invalid.
func (v *validator) reference(val any, path, code, field string) {
	if mir.RefTagCount(val) > 1 {
		v.add(CodeRefAmbiguous, path,
			fmt.Sprintf("%s carries more than one reference tag", field),
			"keep exactly one of $param, $state, $data, $item, $index")
		return
	}
	if !mir.IsRef(val) {
		v.add(code, path,
			fmt.Sprintf("%s must be a reference like {\"$data\": \"items\"}, got %s", field, kindOf(val)),
			"use one of $param, $state, $data, $item, $index")
	}
}

// ambiguous reports every nested object carrying several reference tags.
func (v *validator) ambiguous(val any, path string) {
	switch x := val.(type) {
	case map[string]any:
		if mir.RefTagCount(x) > 1 {
			v.add(CodeRefAmbiguous, path,
				"object carries more than one reference tag and is treated as a literal",
				"keep exactly one of $param, $state, $data, $item, $index")
			return
		}
		for _, k := range sortedKeys(x) {
			v.ambiguous(x[k], path+"."+k)
		}
	case []any:
		for i, e := range x {
			v.ambiguous(e, fmt.Sprintf("%s[%d]", path, i))
		}
	}
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case float64:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}
