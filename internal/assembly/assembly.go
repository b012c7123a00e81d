package assembly

import (
	"fmt"
	"strconv"
	"strings"
)

// Descriptor is a parsed module + offset identifying a binary symbol location.
type Descriptor struct {
	// Module is the binary module or package name
	Module string

	// Offset is the instruction offset within the module
	Offset uint64
}

// String reconstructs the wire form "module@0xOFFSET" (lowercase hex).
func (d *Descriptor) String() string {
	return fmt.Sprintf("%s@0x%x", d.Module, d.Offset)
}

// Parse splits a raw module identifier of the form "module@0xOFFSET" (hex) or
// "module@OFFSET" (decimal) into a Descriptor. Returns nil for empty input or
// any shape mismatch; callers treat nil as "omit the assembly panel", never as
// an error.
func Parse(raw string) *Descriptor {
	if raw == "" {
		return nil
	}

	at := strings.LastIndex(raw, "@")
	if at <= 0 || at == len(raw)-1 {
		return nil
	}

	module := raw[:at]
	offsetText := raw[at+1:]

	var offset uint64
	var err error
	if strings.HasPrefix(offsetText, "0x") || strings.HasPrefix(offsetText, "0X") {
		offset, err = strconv.ParseUint(offsetText[2:], 16, 64)
	} else {
		offset, err = strconv.ParseUint(offsetText, 10, 64)
	}
	if err != nil {
		return nil
	}

	return &Descriptor{Module: module, Offset: offset}
}
