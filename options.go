package orrery

import "fmt"

// DrawOptions is an ordered set of named boolean switches. Insertion order
// is preserved so a UI layer can generate one control per option in a
// stable order.
type DrawOptions struct {
	names  []string
	values map[string]bool
}

// NewDrawOptions returns an empty option set.
func NewDrawOptions() *DrawOptions {
	return &DrawOptions{values: make(map[string]bool)}
}

// Add registers a new option with its default. Adding an existing name is an error.
func (o *DrawOptions) Add(name string, value bool) error {
	if name == "" {
		return fmt.Errorf("orrery: draw option name is empty")
	}
	if _, ok := o.values[name]; ok {
		return fmt.Errorf("orrery: draw option %q already exists", name)
	}
	o.names = append(o.names, name)
	o.values[name] = value
	return nil
}

// Set changes an existing option.
func (o *DrawOptions) Set(name string, value bool) error {
	if _, ok := o.values[name]; !ok {
		return fmt.Errorf("orrery: unknown draw option %q", name)
	}
	o.values[name] = value
	return nil
}

// Toggle flips an existing option and returns its new value.
func (o *DrawOptions) Toggle(name string) (bool, error) {
	v, ok := o.values[name]
	if !ok {
		return false, fmt.Errorf("orrery: unknown draw option %q", name)
	}
	o.values[name] = !v
	return !v, nil
}

// Get returns an option's value and whether it exists.
func (o *DrawOptions) Get(name string) (value, ok bool) {
	value, ok = o.values[name]
	return value, ok
}

// Names returns the option names in insertion order. The returned slice
// MUST NOT be mutated.
func (o *DrawOptions) Names() []string {
	return o.names
}

// Len returns the number of options.
func (o *DrawOptions) Len() int {
	return len(o.names)
}

// Each calls fn for every option in insertion order.
func (o *DrawOptions) Each(fn func(name string, value bool)) {
	for _, name := range o.names {
		fn(name, o.values[name])
	}
}
