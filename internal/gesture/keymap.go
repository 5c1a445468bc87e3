package gesture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

var ErrUnknownKey = errors.New("unknown key")

// Binding maps a key press to a box-select invocation.
type Binding struct {
	Key          EventType `yaml:"key" json:"key"`
	Ctrl         bool      `yaml:"ctrl" json:"ctrl"`
	WaitForInput bool      `yaml:"waitForInput" json:"waitForInput"`
	Extend       bool      `yaml:"extend" json:"extend"`
}

// Keymap holds the bindings that start a box-select gesture. Bindings are
// registered and unregistered explicitly; there is no package-level keymap.
type Keymap struct {
	mu       sync.RWMutex
	name     string
	bindings []Binding
}

type keymapFile struct {
	Name     string    `yaml:"name"`
	Bindings []Binding `yaml:"bindings"`
}

func NewKeymap(name string) *Keymap {
	return &Keymap{name: name}
}

// DefaultKeymap binds Ctrl+LeftMouse and Ctrl+RightMouse to an immediate
// drag and Ctrl+B to a drag that waits for a click and extends the selection.
func DefaultKeymap() *Keymap {
	k := NewKeymap("Graph Editor")
	k.Register(Binding{Key: LeftMouse, Ctrl: true})
	k.Register(Binding{Key: RightMouse, Ctrl: true})
	k.Register(Binding{Key: KeyB, Ctrl: true, WaitForInput: true, Extend: true})
	return k
}

// LoadKeymap reads bindings from YAML:
//
//	name: Graph Editor
//	bindings:
//	  - key: LEFTMOUSE
//	    ctrl: true
func LoadKeymap(r io.Reader) (*Keymap, error) {
	var f keymapFile
	if err := yaml.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode keymap: %w", err)
	}

	k := NewKeymap(f.Name)
	for _, b := range f.Bindings {
		if err := validKey(b.Key); err != nil {
			return nil, err
		}
		k.Register(b)
	}
	return k, nil
}

// LoadKeymapFile reads a YAML keymap from path.
func LoadKeymapFile(path string) (*Keymap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open keymap: %w", err)
	}
	defer f.Close()
	return LoadKeymap(f)
}

func (k *Keymap) Name() string {
	return k.name
}

// Register adds b, replacing an existing binding for the same key chord.
func (k *Keymap) Register(b Binding) {
	k.mu.Lock()
	defer k.mu.Unlock()
	for i, existing := range k.bindings {
		if existing.Key == b.Key && existing.Ctrl == b.Ctrl {
			k.bindings[i] = b
			return
		}
	}
	k.bindings = append(k.bindings, b)
}

// Unregister removes the binding for a key chord.
func (k *Keymap) Unregister(key EventType, ctrl bool) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	for i, b := range k.bindings {
		if b.Key == key && b.Ctrl == ctrl {
			k.bindings = append(k.bindings[:i], k.bindings[i+1:]...)
			return true
		}
	}
	return false
}

// Clear removes every binding.
func (k *Keymap) Clear() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.bindings = nil
}

func (k *Keymap) Bindings() []Binding {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return append([]Binding(nil), k.bindings...)
}

// Match returns the binding triggered by a key press.
func (k *Keymap) Match(ev Event) (Binding, bool) {
	if ev.Value != Press {
		return Binding{}, false
	}
	k.mu.RLock()
	defer k.mu.RUnlock()
	for _, b := range k.bindings {
		if b.Key == ev.Type && b.Ctrl == ev.Ctrl {
			return b, true
		}
	}
	return Binding{}, false
}

func validKey(key EventType) error {
	switch key {
	case LeftMouse, RightMouse, Esc, KeyB:
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
}
