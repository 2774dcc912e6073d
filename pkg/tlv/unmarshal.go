package tlv

import (
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/moov-io/bertlv"
)

// ErrTagNotFound is returned by Lookup when the tag is absent.
var ErrTagNotFound = errors.New("tag not found")

// Unmarshaler lets a field type decode its own value.
type Unmarshaler interface {
	UnmarshalTLV(data []byte) error
}

// DecodePackets decodes data and returns it as bertlv packets.
func DecodePackets(data []byte) ([]bertlv.TLV, error) {
	list, err := Decode(data)
	if err != nil {
		return nil, err
	}
	return Packets(list)
}

// Unmarshal decodes data and maps the objects onto the fields of target,
// which must be a pointer to a struct. Fields select their object with a
// `tlv:"9F38"` struct tag; a []bertlv.TLV field tagged `tlv:",unknown"`
// collects the objects no field claimed.
func Unmarshal(data []byte, target any) error {
	packets, err := DecodePackets(data)
	if err != nil {
		return err
	}
	return UnmarshalFromPackets(packets, target)
}

// UnmarshalFromPackets is Unmarshal for packets that are already decoded.
// A slice field receives every occurrence of its tag.
func UnmarshalFromPackets(packets []bertlv.TLV, target any) error {
	v := reflect.ValueOf(target)
	if v.Kind() != reflect.Pointer || v.IsNil() {
		return fmt.Errorf("unmarshal target must be a non-nil pointer, got %T", target)
	}
	v = v.Elem()
	t := v.Type()

	claimed := make([]bool, len(packets))
	for i := 0; i < v.NumField(); i++ {
		tag, ok := fieldTag(t.Field(i))
		if !ok {
			continue
		}
		for idx, packet := range packets {
			if !strings.EqualFold(packet.Tag, tag) {
				continue
			}
			if err := assign(packet, v.Field(i)); err != nil {
				return fmt.Errorf("field %s (%s): %w", t.Field(i).Name, tag, err)
			}
			claimed[idx] = true
		}
	}

	if field, ok := unknownField(v); ok {
		var rest []bertlv.TLV
		for idx, packet := range packets {
			if !claimed[idx] {
				rest = append(rest, packet)
			}
		}
		if len(rest) > 0 {
			field.Set(reflect.ValueOf(rest))
		}
	}
	return nil
}

func fieldTag(f reflect.StructField) (string, bool) {
	cfg := f.Tag.Get("tlv")
	if cfg == "" || f.Name == "Unknown" {
		return "", false
	}
	tag, _, _ := strings.Cut(cfg, ",")
	if tag == "" {
		return "", false
	}
	return strings.ToUpper(tag), true
}

func unknownField(v reflect.Value) (reflect.Value, bool) {
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		f := t.Field(i)
		if f.Tag.Get("tlv") == ",unknown" || f.Name == "Unknown" {
			return v.Field(i), v.Field(i).CanSet()
		}
	}
	return reflect.Value{}, false
}

// assign grows slices of non-byte elements, otherwise decodes in place.
func assign(packet bertlv.TLV, field reflect.Value) error {
	if field.Kind() == reflect.Slice && !isByteSlice(field) {
		elem := reflect.New(field.Type().Elem()).Elem()
		if err := decodeInto(packet, elem); err != nil {
			return err
		}
		field.Set(reflect.Append(field, elem))
		return nil
	}
	return decodeInto(packet, field)
}

func decodeInto(packet bertlv.TLV, field reflect.Value) error {
	if field.CanAddr() {
		if u, ok := field.Addr().Interface().(Unmarshaler); ok {
			return u.UnmarshalTLV(rawValue(packet))
		}
	}

	switch {
	case isByteSlice(field):
		field.SetBytes(rawValue(packet))
	case field.Kind() == reflect.String:
		field.SetString(hex.EncodeToString(packet.Value))
	case field.Kind() == reflect.Struct:
		return decodeStruct(packet, field.Addr())
	case field.Kind() == reflect.Pointer && field.Type().Elem().Kind() == reflect.Struct:
		if field.IsNil() {
			field.Set(reflect.New(field.Type().Elem()))
		}
		return decodeStruct(packet, field)
	}
	return nil
}

func decodeStruct(packet bertlv.TLV, ptr reflect.Value) error {
	if len(packet.TLVs) > 0 {
		return UnmarshalFromPackets(packet.TLVs, ptr.Interface())
	}
	return Unmarshal(packet.Value, ptr.Interface())
}

// rawValue returns the value bytes, re-encoding nested packets.
func rawValue(p bertlv.TLV) []byte {
	if len(p.TLVs) > 0 {
		if enc, err := bertlv.Encode(p.TLVs); err == nil {
			return enc
		}
	}
	return p.Value
}

// GetValue returns the value of the first top level object carrying tag.
func GetValue(data []byte, tag uint) ([]byte, error) {
	list, err := Decode(data)
	if err != nil {
		return nil, err
	}
	want := fmt.Sprintf("%X", tag)
	if len(want)%2 == 1 {
		want = "0" + want
	}
	n, ok := list.Find(want)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTagNotFound, want)
	}
	return n.Value, nil
}

func isByteSlice(v reflect.Value) bool {
	return v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8
}
