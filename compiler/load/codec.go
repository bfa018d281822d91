package load

import (
	"encoding/json"
	"fmt"
)

// envelope is the JSON wire form of a statement. Exactly one of the
// kind members is set, selected by Kind.
type envelope struct {
	Kind        string       `json:"kind"`
	Select      *Select      `json:"select,omitempty"`
	Execute     *Execute     `json:"execute,omitempty"`
	CreateTable *CreateTable `json:"create_table,omitempty"`
	CreateView  *CreateView  `json:"create_view,omitempty"`
}

// MarshalStatement encodes a statement into a JSON envelope that can
// be decoded back with UnmarshalStatement.
func MarshalStatement(s Statement) ([]byte, error) {
	e := envelope{Kind: KindOf(s)}
	switch s := s.(type) {
	case *Select:
		e.Select = s
	case *Execute:
		e.Execute = s
	case *CreateTable:
		e.CreateTable = s
	case *CreateView:
		e.CreateView = s
	default:
		return nil, fmt.Errorf("unknown statement type %T", s)
	}
	return json.Marshal(e)
}

// UnmarshalStatement decodes a JSON envelope into a statement.
func UnmarshalStatement(buf []byte) (Statement, error) {
	var e envelope
	if err := json.Unmarshal(buf, &e); err != nil {
		return nil, err
	}
	return e.statement()
}

func (e *envelope) statement() (Statement, error) {
	switch e.Kind {
	case KindSelect:
		if e.Select == nil {
			return nil, fmt.Errorf("envelope kind %q without a payload", e.Kind)
		}
		return e.Select, nil
	case KindExecute:
		if e.Execute == nil {
			return nil, fmt.Errorf("envelope kind %q without a payload", e.Kind)
		}
		return e.Execute, nil
	case KindCreateTable:
		if e.CreateTable == nil {
			return nil, fmt.Errorf("envelope kind %q without a payload", e.Kind)
		}
		return e.CreateTable, nil
	case KindCreateView:
		if e.CreateView == nil {
			return nil, fmt.Errorf("envelope kind %q without a payload", e.Kind)
		}
		return e.CreateView, nil
	default:
		return nil, fmt.Errorf("unknown statement kind %q", e.Kind)
	}
}

// Document is a file worth of statements belonging to one namespace.
type Document struct {
	Namespace  string
	Statements []Statement
}

type documentJSON struct {
	Namespace  string     `json:"namespace"`
	Statements []envelope `json:"statements,omitempty"`
}

// MarshalDocument encodes a document to JSON.
func MarshalDocument(d *Document) ([]byte, error) {
	out := documentJSON{Namespace: d.Namespace}
	for _, s := range d.Statements {
		e := envelope{Kind: KindOf(s)}
		switch s := s.(type) {
		case *Select:
			e.Select = s
		case *Execute:
			e.Execute = s
		case *CreateTable:
			e.CreateTable = s
		case *CreateView:
			e.CreateView = s
		default:
			return nil, fmt.Errorf("unknown statement type %T", s)
		}
		out.Statements = append(out.Statements, e)
	}
	return json.MarshalIndent(out, "", "  ")
}

// UnmarshalDocument decodes a document from JSON. Every statement in
// the document is validated before it is returned.
func UnmarshalDocument(buf []byte) (*Document, error) {
	var in documentJSON
	if err := json.Unmarshal(buf, &in); err != nil {
		return nil, err
	}
	if in.Namespace == "" {
		return nil, fmt.Errorf("document without a namespace")
	}
	d := &Document{Namespace: in.Namespace}
	for i := range in.Statements {
		s, err := in.Statements[i].statement()
		if err != nil {
			return nil, fmt.Errorf("namespace %q: %w", in.Namespace, err)
		}
		if err := Validate(s); err != nil {
			return nil, fmt.Errorf("namespace %q: %w", in.Namespace, err)
		}
		d.Statements = append(d.Statements, s)
	}
	return d, nil
}
