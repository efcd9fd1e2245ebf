package env

// Plugin is a capability activated on an environment. What it does is
// decided by the visitor interfaces it also implements.
type Plugin interface {
	Name() string
}

// Configurator constructs a plugin. An engine calls CreatePlugin for every
// configurator, in order, before each render.
type Configurator interface {
	Name() string
	CreatePlugin() (Plugin, error)
}

// SelectorVisitor rewrites rule-set selectors.
type SelectorVisitor interface {
	Plugin
	VisitSelector(selector string) string
}

// DeclarationVisitor rewrites declarations after variables are substituted.
type DeclarationVisitor interface {
	Plugin
	VisitDeclaration(property, value string) (string, string)
}

// VisitSelector passes selector through every SelectorVisitor in order.
func (e *Env) VisitSelector(selector string) string {
	for _, p := range e.plugins {
		if v, ok := p.(SelectorVisitor); ok {
			selector = v.VisitSelector(selector)
		}
	}
	return selector
}

// VisitDeclaration passes a declaration through every DeclarationVisitor in order.
func (e *Env) VisitDeclaration(property, value string) (string, string) {
	for _, p := range e.plugins {
		if v, ok := p.(DeclarationVisitor); ok {
			property, value = v.VisitDeclaration(property, value)
		}
	}
	return property, value
}
