package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/pflag"

	"pvztk/process"
)

// pathValue is a pflag.Value holding a comma separated MemoryPath.
type pathValue struct {
	path process.MemoryPath
}

var _ pflag.Value = (*pathValue)(nil)

func (v *pathValue) String() string {
	parts := make([]string, len(v.path))
	for i, off := range v.path {
		parts[i] = fmt.Sprintf("0x%x", uint64(off))
	}
	return strings.Join(parts, ",")
}

func (v *pathValue) Set(s string) error {
	path, err := process.ParsePath(s)
	if err != nil {
		return err
	}
	v.path = path
	return nil
}

func (v *pathValue) Type() string {
	return "offsets"
}

// kindValue is a pflag.Value selecting one of valueKinds by name.
type kindValue struct {
	kind valueKind
}

var _ pflag.Value = (*kindValue)(nil)

func (v *kindValue) String() string {
	return v.kind.name
}

func (v *kindValue) Set(s string) error {
	k, ok := valueKinds[strings.ToLower(s)]
	if !ok {
		return fmt.Errorf("unknown type %q, want one of %s", s, strings.Join(kindNames(), ", "))
	}
	v.kind = k
	return nil
}

func (v *kindValue) Type() string {
	return "type"
}

func kindNames() []string {
	names := make([]string, 0, len(valueKinds))
	for name := range valueKinds {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
