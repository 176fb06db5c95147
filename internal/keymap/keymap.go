// Package keymap resolves normalized key combinations to actions through
// a prioritized binding table with context guards. It is pure dispatch
// logic: no input handling, no UI.
package keymap

import (
	"sort"
	"strings"
)

// Combo is a normalized key combination descriptor such as "ctrl+s" or
// "ctrl+shift+z". Normalize produces the canonical form.
type Combo string

// modifier ordering for canonical combos
var modifierOrder = map[string]int{
	"ctrl":  0,
	"alt":   1,
	"shift": 2,
	"meta":  3,
}

// Normalize canonicalizes a key combination: lowercased, modifiers in a
// fixed order, the non-modifier key last. "Shift+Ctrl+S" and "ctrl+shift+s"
// normalize to the same Combo.
func Normalize(raw string) Combo {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(raw)), "+")

	var mods []string
	key := ""
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, isMod := modifierOrder[p]; isMod {
			mods = append(mods, p)
		} else {
			key = p
		}
	}

	sort.Slice(mods, func(i, j int) bool {
		return modifierOrder[mods[i]] < modifierOrder[mods[j]]
	})

	if key != "" {
		mods = append(mods, key)
	}
	return Combo(strings.Join(mods, "+"))
}

// Predicate guards a binding: the binding only fires when the predicate
// accepts the dispatch context. A nil predicate always accepts.
type Predicate[C any] func(ctx C) bool

// Action is the handler invoked when a binding fires.
type Action[C any] func(ctx C) error

// Binding pairs a key combination with a guarded action.
type Binding[C any] struct {
	Combo     Combo
	Predicate Predicate[C]
	Action    Action[C]

	// Name identifies the binding in logs and tests.
	Name string
}

// Keymap is an ordered binding list. For a given combo the first binding
// whose predicate accepts the context wins; order is priority.
type Keymap[C any] struct {
	bindings []Binding[C]
}

// New creates a keymap from bindings in priority order.
func New[C any](bindings ...Binding[C]) *Keymap[C] {
	return &Keymap[C]{bindings: bindings}
}

// Bind appends a binding at the lowest priority.
func (k *Keymap[C]) Bind(combo string, name string, pred Predicate[C], action Action[C]) {
	k.bindings = append(k.bindings, Binding[C]{
		Combo:     Normalize(combo),
		Predicate: pred,
		Action:    action,
		Name:      name,
	})
}

// Resolve returns the first binding matching the combo whose predicate
// accepts the context, or ok=false when nothing matches. It does not run
// the action.
func (k *Keymap[C]) Resolve(raw string, ctx C) (Binding[C], bool) {
	combo := Normalize(raw)
	for _, b := range k.bindings {
		if b.Combo != combo {
			continue
		}
		if b.Predicate != nil && !b.Predicate(ctx) {
			continue
		}
		return b, true
	}
	return Binding[C]{}, false
}

// Dispatch resolves the combo and runs the winning action. The boolean
// reports whether any binding fired.
func (k *Keymap[C]) Dispatch(raw string, ctx C) (bool, error) {
	b, ok := k.Resolve(raw, ctx)
	if !ok {
		return false, nil
	}
	return true, b.Action(ctx)
}
