package main

import (
	"encoding/hex"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"pvztk/process"
)

// valueKind knows how to move one --type through an Accessor.
type valueKind struct {
	name string

	// read returns a T for count 1, a []T otherwise. Strings ignore count.
	read func(acc *process.Accessor, path process.MemoryPath, count int) (any, error)

	// parse converts --value, also returning the count read needs to get
	// the same value back.
	parse func(s string) (any, int, error)

	write func(acc *process.Accessor, path process.MemoryPath, v any) error
}

var valueKinds = map[string]valueKind{
	"int8":    scalarKind("int8", parseInt[int8](8)),
	"int16":   scalarKind("int16", parseInt[int16](16)),
	"int32":   scalarKind("int32", parseInt[int32](32)),
	"int64":   scalarKind("int64", parseInt[int64](64)),
	"uint8":   scalarKind("uint8", parseUint[uint8](8)),
	"uint16":  scalarKind("uint16", parseUint[uint16](16)),
	"uint32":  scalarKind("uint32", parseUint[uint32](32)),
	"uint64":  scalarKind("uint64", parseUint[uint64](64)),
	"float32": scalarKind("float32", parseFloat[float32](32)),
	"float64": scalarKind("float64", parseFloat[float64](64)),
	"string":  stringKind,
	"bytes":   bytesKind,
}

func scalarKind[T process.Scalar](name string, parse func(string) (T, error)) valueKind {
	return valueKind{
		name: name,
		read: func(acc *process.Accessor, path process.MemoryPath, count int) (any, error) {
			if count == 1 {
				v, err := process.TryRead[T](acc, path)
				return v, err
			}
			v, err := process.TryReadArray[T](acc, path, count)
			return v, err
		},
		parse: func(s string) (any, int, error) {
			v, err := parse(s)
			return v, 1, err
		},
		write: func(acc *process.Accessor, path process.MemoryPath, v any) error {
			return process.TryWrite(acc, path, v.(T))
		},
	}
}

func parseInt[T ~int8 | ~int16 | ~int32 | ~int64](bits int) func(string) (T, error) {
	return func(s string) (T, error) {
		v, err := strconv.ParseInt(s, 0, bits)
		return T(v), err
	}
}

func parseUint[T ~uint8 | ~uint16 | ~uint32 | ~uint64](bits int) func(string) (T, error) {
	return func(s string) (T, error) {
		v, err := strconv.ParseUint(s, 0, bits)
		return T(v), err
	}
}

func parseFloat[T ~float32 | ~float64](bits int) func(string) (T, error) {
	return func(s string) (T, error) {
		v, err := strconv.ParseFloat(s, bits)
		return T(v), err
	}
}

var stringKind = valueKind{
	name: "string",
	read: func(acc *process.Accessor, path process.MemoryPath, _ int) (any, error) {
		s, err := acc.TryReadString(path)
		return s, err
	},
	parse: func(s string) (any, int, error) {
		return s, 1, nil
	},
	write: func(acc *process.Accessor, path process.MemoryPath, v any) error {
		return acc.TryWriteString(path, v.(string))
	},
}

// bytesKind takes hex on the command line, "ff 00 10" or "ff0010".
var bytesKind = valueKind{
	name: "bytes",
	read: func(acc *process.Accessor, path process.MemoryPath, count int) (any, error) {
		v, err := process.TryReadArray[uint8](acc, path, count)
		return v, err
	},
	parse: func(s string) (any, int, error) {
		data, err := hex.DecodeString(strings.Join(strings.Fields(s), ""))
		if err != nil {
			return nil, 0, err
		}
		return data, len(data), nil
	},
	write: func(acc *process.Accessor, path process.MemoryPath, v any) error {
		return process.TryWriteArray(acc, path, v.([]byte))
	},
}

// writeValue parses value as k and writes it at path. With verify the value
// is read back and compared, since a successful write is never implied.
func writeValue(acc *process.Accessor, k valueKind, path process.MemoryPath, value string, verify bool) error {
	v, count, err := k.parse(value)
	if err != nil {
		return fmt.Errorf("invalid %s value %q: %w", k.name, value, err)
	}

	if err := k.write(acc, path, v); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if !verify {
		return nil
	}

	got, err := k.read(acc, path, count)
	if err != nil {
		return fmt.Errorf("verify %s: %w", path, err)
	}
	if !reflect.DeepEqual(got, v) {
		return fmt.Errorf("verify %s: wrote %v, read back %v", path, v, got)
	}
	return nil
}
