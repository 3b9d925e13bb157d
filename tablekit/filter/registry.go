package filter

// ArgAppender is the slice of the SQL builder a custom handler needs: it
// appends one argument and returns its placeholder.
type ArgAppender interface {
	Arg(v any) string
}

// Handler implements a custom filter kind. Decode and Encode must be mutual
// inverses; Constraint renders the SQL predicate against the resolved column
// expression, appending arguments through the builder.
type Handler interface {
	Decode(raw string) (Value, bool)
	Encode(v Value) string
	Constraint(b ArgAppender, expr string, v Value) (string, error)
}

// Registry resolves custom kind handlers by id. Registries are explicit
// values passed to whoever decodes or compiles; there is no package-level
// registration.
type Registry struct {
	handlers map[string]Handler
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{handlers: map[string]Handler{}}
}

// Register binds a handler id. Re-registering an id replaces the handler.
func (r *Registry) Register(id string, h Handler) {
	if r.handlers == nil {
		r.handlers = map[string]Handler{}
	}
	r.handlers[id] = h
}

// Lookup resolves a handler id. A nil registry resolves nothing.
func (r *Registry) Lookup(id string) (Handler, bool) {
	if r == nil || r.handlers == nil {
		return nil, false
	}
	h, ok := r.handlers[id]
	return h, ok
}
