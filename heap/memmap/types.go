// Package memmap models the firmware memory map consumed by the allocator.
//
// A Map is an ordered list of descriptors, each stating a physical start
// address, a length in 4 KiB pages and a usage class. Only conventional
// memory is handed to the allocator; everything else is reserved by the
// firmware or already holds loaded images.
package memmap

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/joshuapare/heapkit/internal/format"
)

// PageSize is the firmware page unit used by NumberOfPages.
const PageSize = format.PageSize

// MemoryType classifies a memory map descriptor. Values follow the firmware
// numbering.
type MemoryType uint32

const (
	Reserved MemoryType = iota
	LoaderCode
	LoaderData
	BootServicesCode
	BootServicesData
	RuntimeServicesCode
	RuntimeServicesData
	Conventional
	Unusable
	ACPIReclaim
	ACPINVS
	MMIO
	MMIOPortSpace
	PalCode
	Persistent
)

var typeNames = [...]string{
	Reserved:            "reserved",
	LoaderCode:          "loader_code",
	LoaderData:          "loader_data",
	BootServicesCode:    "boot_services_code",
	BootServicesData:    "boot_services_data",
	RuntimeServicesCode: "runtime_services_code",
	RuntimeServicesData: "runtime_services_data",
	Conventional:        "conventional",
	Unusable:            "unusable",
	ACPIReclaim:         "acpi_reclaim",
	ACPINVS:             "acpi_nvs",
	MMIO:                "mmio",
	MMIOPortSpace:       "mmio_port_space",
	PalCode:             "pal_code",
	Persistent:          "persistent",
}

func (t MemoryType) String() string {
	if int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "type_" + strconv.FormatUint(uint64(t), 10)
}

// Usable reports whether memory of this type may back the heap.
func (t MemoryType) Usable() bool {
	return t == Conventional
}

// ParseMemoryType accepts a type name (case and dash insensitive), its
// numeric value, or the type_N form String uses for unnamed types.
func ParseMemoryType(s string) (MemoryType, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for i, n := range typeNames {
		if n == name {
			return MemoryType(i), nil
		}
	}
	v, err := strconv.ParseUint(strings.TrimPrefix(name, "type_"), 0, 32)
	if err != nil {
		return 0, errors.Errorf("memmap: unknown memory type %q", s)
	}
	return MemoryType(v), nil
}

// UnmarshalYAML decodes a type name or number.
func (t *MemoryType) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind != yaml.ScalarNode {
		return errors.Errorf("memmap: line %d: memory type must be a scalar", n.Line)
	}
	v, err := ParseMemoryType(n.Value)
	if err != nil {
		return errors.Wrapf(err, "line %d", n.Line)
	}
	*t = v
	return nil
}

// MarshalText encodes the type by name, used for JSON output.
func (t MemoryType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// UnmarshalText decodes a type name or number, used for JSON input.
func (t *MemoryType) UnmarshalText(b []byte) error {
	v, err := ParseMemoryType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// MarshalYAML encodes the type by name.
func (t MemoryType) MarshalYAML() (any, error) {
	return t.String(), nil
}

// Descriptor is one memory map entry.
type Descriptor struct {
	Type          MemoryType `yaml:"type" json:"type"`
	PhysicalStart uint64     `yaml:"start" json:"start"`
	NumberOfPages uint64     `yaml:"pages" json:"pages"`
	Attribute     uint64     `yaml:"attribute,omitempty" json:"attribute,omitempty"`
}

// Len returns the descriptor length in bytes, saturating on overflow.
func (d Descriptor) Len() uint64 {
	if d.NumberOfPages > ^uint64(0)/PageSize {
		return ^uint64(0)
	}
	return d.NumberOfPages * PageSize
}

// End returns the first address past the descriptor, saturating on overflow.
func (d Descriptor) End() uint64 {
	return format.AddSat(d.PhysicalStart, d.Len())
}

// Range is a usable physical range.
type Range struct {
	Start uint64 `json:"start"`
	Len   uint64 `json:"len"`
}

// End returns the first address past r.
func (r Range) End() uint64 { return r.Start + r.Len }
