package memmap

import (
	"io"
	"os"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Map is a firmware memory map in firmware order.
type Map struct {
	Descriptors []Descriptor `yaml:"descriptors" json:"descriptors"`
}

// Load decodes a YAML memory map:
//
//	descriptors:
//	  - type: conventional
//	    start: 0x100000
//	    pages: 256
func Load(r io.Reader) (*Map, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var m Map
	if err := dec.Decode(&m); err != nil {
		if errors.Is(err, io.EOF) {
			return &m, nil
		}
		return nil, errors.Wrap(err, "memmap: decode")
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// LoadFile reads a YAML memory map from path.
func LoadFile(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "memmap: open")
	}
	defer f.Close()
	return Load(f)
}

// Validate checks that descriptors start on page boundaries, fit in the
// address space and do not overlap.
func (m *Map) Validate() error {
	sorted := make([]Descriptor, len(m.Descriptors))
	copy(sorted, m.Descriptors)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PhysicalStart < sorted[j].PhysicalStart
	})

	for i, d := range sorted {
		if d.PhysicalStart%PageSize != 0 {
			return errors.Errorf("memmap: descriptor at %#x is not page aligned", d.PhysicalStart)
		}
		if d.Len() > ^uint64(0)-d.PhysicalStart {
			return errors.Errorf("memmap: descriptor at %#x overflows the address space", d.PhysicalStart)
		}
		if i > 0 && sorted[i-1].End() > d.PhysicalStart {
			return errors.Errorf("memmap: descriptors at %#x and %#x overlap",
				sorted[i-1].PhysicalStart, d.PhysicalStart)
		}
	}
	return nil
}

// Usable returns the conventional ranges in firmware order. With
// reserveNullPage set, the page at address 0 is never included so the heap
// cannot hand out a null address.
func (m *Map) Usable(reserveNullPage bool) []Range {
	var out []Range
	for _, d := range m.Descriptors {
		if !d.Type.Usable() || d.NumberOfPages == 0 {
			continue
		}
		r := Range{Start: d.PhysicalStart, Len: d.Len()}
		if reserveNullPage && r.Start == 0 {
			r.Start += PageSize
			r.Len -= PageSize
		}
		if r.Len == 0 {
			continue
		}
		out = append(out, r)
	}
	return out
}

// UsableBytes sums the lengths returned by Usable.
func (m *Map) UsableBytes(reserveNullPage bool) uint64 {
	var n uint64
	for _, r := range m.Usable(reserveNullPage) {
		n += r.Len
	}
	return n
}
