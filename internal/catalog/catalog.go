// internal/catalog/catalog.go
package catalog

import (
	"fmt"
	"sort"
)

// MaxRegisters bounds the full addressable space of one catalog.
const MaxRegisters = 400

// Catalog is the immutable set of register definitions, split into a dynamic
// (continuously polled) and a static (fetched once) address set.
type Catalog struct {
	defs    map[uint16]Definition
	dynamic map[uint16]struct{}
	static  map[uint16]struct{}

	dynamicAddrs []uint16 // sorted
	staticAddrs  []uint16 // sorted
}

// New builds a catalog from the dynamic and static definition lists.
// The two address sets must be disjoint and addresses unique.
func New(dynamic, static []Definition) (*Catalog, error) {
	if len(dynamic)+len(static) > MaxRegisters {
		return nil, fmt.Errorf("catalog: %d registers exceeds limit of %d",
			len(dynamic)+len(static), MaxRegisters)
	}

	c := &Catalog{
		defs:    make(map[uint16]Definition),
		dynamic: make(map[uint16]struct{}),
		static:  make(map[uint16]struct{}),
	}

	for _, d := range dynamic {
		if _, dup := c.defs[d.Address]; dup {
			return nil, fmt.Errorf("catalog: duplicate register address %d", d.Address)
		}
		c.defs[d.Address] = d
		c.dynamic[d.Address] = struct{}{}
		c.dynamicAddrs = append(c.dynamicAddrs, d.Address)
	}

	for _, d := range static {
		if _, dup := c.defs[d.Address]; dup {
			return nil, fmt.Errorf("catalog: duplicate register address %d", d.Address)
		}
		c.defs[d.Address] = d
		c.static[d.Address] = struct{}{}
		c.staticAddrs = append(c.staticAddrs, d.Address)
	}

	sort.Slice(c.dynamicAddrs, func(i, j int) bool { return c.dynamicAddrs[i] < c.dynamicAddrs[j] })
	sort.Slice(c.staticAddrs, func(i, j int) bool { return c.staticAddrs[i] < c.staticAddrs[j] })

	return c, nil
}

// Lookup returns the definition at address, if any.
func (c *Catalog) Lookup(addr uint16) (Definition, bool) {
	d, ok := c.defs[addr]
	return d, ok
}

func (c *Catalog) IsDynamic(addr uint16) bool {
	_, ok := c.dynamic[addr]
	return ok
}

func (c *Catalog) IsStatic(addr uint16) bool {
	_, ok := c.static[addr]
	return ok
}

// Words returns the register width in 16-bit words, or 0 for an undefined
// address.
func (c *Catalog) Words(addr uint16) uint16 {
	d, ok := c.defs[addr]
	if !ok {
		return 0
	}
	return d.Words()
}

// Is32Bit reports whether the register at addr occupies two addresses.
func (c *Catalog) Is32Bit(addr uint16) bool {
	d, ok := c.defs[addr]
	return ok && d.Type.Is32Bit()
}

// DynamicAddresses returns the sorted dynamic address set.
// The returned slice must not be modified.
func (c *Catalog) DynamicAddresses() []uint16 { return c.dynamicAddrs }

// StaticAddresses returns the sorted static address set.
// The returned slice must not be modified.
func (c *Catalog) StaticAddresses() []uint16 { return c.staticAddrs }

// Addresses returns the sorted union of both address sets.
func (c *Catalog) Addresses() []uint16 {
	out := make([]uint16, 0, len(c.defs))
	out = append(out, c.dynamicAddrs...)
	out = append(out, c.staticAddrs...)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Size is the number of defined registers.
func (c *Catalog) Size() int { return len(c.defs) }
