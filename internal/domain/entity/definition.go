package entity

type BindingKind string

const (
	BindingRef      BindingKind = "ref"
	BindingComputed BindingKind = "computed"
	BindingMethod   BindingKind = "method"
	BindingValue    BindingKind = "value"
)

// Binding is one name returned from a component's setup script.
type Binding struct {
	Kind  BindingKind `json:"kind"`
	Value any         `json:"value,omitempty"`
}

// ComponentDefinition is what the host produces for a generated component:
// a render template plus the initial state exposed by its setup script.
type ComponentDefinition struct {
	Template  string             `json:"template"`
	Bindings  map[string]Binding `json:"bindings"`
	Error     string             `json:"error,omitempty"`      // setup script failed
	LoadError string             `json:"load_error,omitempty"` // component could not be built
}

// Failed reports whether either setup or loading went wrong.
func (d ComponentDefinition) Failed() bool {
	return d.Error != "" || d.LoadError != ""
}

// ScriptResult is the outcome of executing a setup script in the restricted runtime.
type ScriptResult struct {
	OK       bool               `json:"ok"`
	Bindings map[string]Binding `json:"bindings,omitempty"`
	Error    string             `json:"error,omitempty"`
}
