package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/verte-zerg/stopit/internal/model"
)

// KeyMap binds terminal keys to the logical task keys.
type KeyMap struct {
	Left     key.Binding
	Right    key.Binding
	Abort    key.Binding
	Continue key.Binding
}

// Default key names.
var (
	DefaultLeftKeys     = []string{"left"}
	DefaultRightKeys    = []string{"right"}
	DefaultAbortKeys    = []string{"esc"}
	DefaultContinueKeys = []string{"space"}
)

// DefaultKeyMap returns arrow keys for responses, esc to abort and space to continue.
func DefaultKeyMap() KeyMap {
	km, err := NewKeyMap(DefaultLeftKeys, DefaultRightKeys, DefaultAbortKeys, DefaultContinueKeys)
	if err != nil {
		panic(err)
	}
	return km
}

// NewKeyMap builds a KeyMap. Every binding needs at least one key and no
// key may be bound twice.
func NewKeyMap(left, right, abort, cont []string) (KeyMap, error) {
	seen := map[string]string{}
	bind := func(name string, keys []string) (key.Binding, error) {
		if len(keys) == 0 {
			return key.Binding{}, fmt.Errorf("no keys bound to %s", name)
		}
		var names []string
		for _, k := range keys {
			for _, n := range normalizeKey(k) {
				if other, ok := seen[n]; ok {
					return key.Binding{}, fmt.Errorf("key %q bound to both %s and %s", k, other, name)
				}
				seen[n] = name
				names = append(names, n)
			}
		}
		return key.NewBinding(key.WithKeys(names...), key.WithHelp(keys[0], name)), nil
	}
	var km KeyMap
	var err error
	if km.Left, err = bind("left", left); err != nil {
		return KeyMap{}, err
	}
	if km.Right, err = bind("right", right); err != nil {
		return KeyMap{}, err
	}
	if km.Abort, err = bind("abort", abort); err != nil {
		return KeyMap{}, err
	}
	if km.Continue, err = bind("continue", cont); err != nil {
		return KeyMap{}, err
	}
	return km, nil
}

// normalizeKey maps config spellings to the names reported by key messages.
func normalizeKey(k string) []string {
	k = strings.ToLower(strings.TrimSpace(k))
	switch k {
	case "space", " ":
		return []string{" ", "space"}
	case "escape":
		return []string{"esc"}
	}
	return []string{k}
}

// Lookup translates a key message into a logical key.
func (k KeyMap) Lookup(msg tea.KeyMsg) (model.Key, bool) {
	switch {
	case key.Matches(msg, k.Abort):
		return model.KeyAbort, true
	case key.Matches(msg, k.Left):
		return model.KeyLeft, true
	case key.Matches(msg, k.Right):
		return model.KeyRight, true
	case key.Matches(msg, k.Continue):
		return model.KeyContinue, true
	}
	return "", false
}
