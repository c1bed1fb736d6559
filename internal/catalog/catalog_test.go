// internal/catalog/catalog_test.go
package catalog

import "testing"

func TestNew_DisjointSets(t *testing.T) {
	c, err := New(ET112Dynamic(), ET112Static())
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	if !c.IsDynamic(0) || c.IsStatic(0) {
		t.Fatalf("address 0 should be dynamic only")
	}
	if !c.IsStatic(770) || c.IsDynamic(770) {
		t.Fatalf("address 770 should be static only")
	}
	if got, want := c.Size(), len(ET112Dynamic())+len(ET112Static()); got != want {
		t.Fatalf("Size()=%d want=%d", got, want)
	}
}

func TestNew_DuplicateAddressRejected(t *testing.T) {
	dyn := []Definition{{Address: 5, Type: Uint16}}
	sta := []Definition{{Address: 5, Type: Uint16}}

	if _, err := New(dyn, sta); err == nil {
		t.Fatalf("expected duplicate address error, got nil")
	}
}

func TestWords(t *testing.T) {
	c, err := New(ET112Dynamic(), ET112Static())
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	if w := c.Words(0); w != 2 { // Volts, INT32
		t.Fatalf("Words(0)=%d want=2", w)
	}
	if w := c.Words(14); w != 1 { // Power Factor, INT16
		t.Fatalf("Words(14)=%d want=1", w)
	}
	if w := c.Words(9999); w != 0 {
		t.Fatalf("Words(9999)=%d want=0", w)
	}
}

func TestAddressesSorted(t *testing.T) {
	c, err := New(ET112Dynamic(), ET112Static())
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	addrs := c.Addresses()
	for i := 1; i < len(addrs); i++ {
		if addrs[i-1] >= addrs[i] {
			t.Fatalf("addresses not strictly sorted at %d: %d >= %d", i, addrs[i-1], addrs[i])
		}
	}
}

func TestScaleOr1(t *testing.T) {
	d := Definition{Address: 770, Type: Uint16}
	if s := d.ScaleOr1(); s != 1.0 {
		t.Fatalf("ScaleOr1()=%v want=1.0", s)
	}

	d.Scale = 0.001
	if s := d.ScaleOr1(); s != 0.001 {
		t.Fatalf("ScaleOr1()=%v want=0.001", s)
	}
}
