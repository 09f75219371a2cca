package processor

import "strings"

// GroupKey identifies the unit by which records are aggregated and written:
// a package and a (possibly empty, possibly dotted) type path within it.
type GroupKey struct {
	Package string
	Type    string
}

// QualifiedName joins the package and type with a dot. Keys with no type
// yield just the package.
func (k GroupKey) QualifiedName() string {
	if k.Type == "" {
		return k.Package
	}
	return k.Package + "." + k.Type
}

// OwningGroup computes the group of the given element: its nearest enclosing
// type, any further enclosing types joined outer-to-inner with dots, and the
// enclosing package. Non-type scopes in between (such as methods) are
// skipped. It returns false if the element has no enclosing package.
func OwningGroup(e *Element) (GroupKey, bool) {
	var types []string
	var pkg *Element
	for p := e.Enclosing; p != nil; p = p.Enclosing {
		if p.Kind.IsType() {
			types = append(types, p.Name)
		} else if p.Kind == KindPackage {
			pkg = p
			break
		}
	}
	if pkg == nil {
		return GroupKey{}, false
	}
	for i, j := 0, len(types)-1; i < j; i, j = i+1, j-1 {
		types[i], types[j] = types[j], types[i]
	}
	return GroupKey{Package: pkg.QualifiedName, Type: strings.Join(types, ".")}, true
}

// Groups aggregates items by key. Keys are iterated in the order in which they
// were first added and items within a key keep insertion order. The zero value
// is ready to use.
type Groups[T any] struct {
	keys  []GroupKey
	items map[GroupKey][]T
}

// Add appends an item to the given group.
func (g *Groups[T]) Add(k GroupKey, item T) {
	if g.items == nil {
		g.items = map[GroupKey][]T{}
	}
	if _, ok := g.items[k]; !ok {
		g.keys = append(g.keys, k)
	}
	g.items[k] = append(g.items[k], item)
}

// Keys returns the group keys in first-encounter order.
func (g *Groups[T]) Keys() []GroupKey {
	keys := make([]GroupKey, len(g.keys))
	copy(keys, g.keys)
	return keys
}

// Items returns the items in the given group.
func (g *Groups[T]) Items(k GroupKey) []T {
	return g.items[k]
}

// Len returns the number of groups.
func (g *Groups[T]) Len() int {
	return len(g.keys)
}
