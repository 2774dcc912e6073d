package tlv

import (
	"bytes"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/gregLibert/smart-card-shell/pkg/buffer"
)

func TestDecode(t *testing.T) {
	long := bytes.Repeat([]byte{0xAB}, 0x80)

	tests := []struct {
		name      string
		input     []byte
		wantTags  []string
		wantLens  []int
		wantError bool
	}{
		{
			name:     "Single primitive",
			input:    buffer.MustHex("84 02 1122"),
			wantTags: []string{"84"},
			wantLens: []int{2},
		},
		{
			name:     "Two byte and three byte tags",
			input:    buffer.MustHex("9F38 03 9F6604", "DF8101 01 AA"),
			wantTags: []string{"9F38", "DF8101"},
			wantLens: []int{3, 1},
		},
		{
			name:     "Long form 81",
			input:    append(buffer.MustHex("C1 81 80"), long...),
			wantTags: []string{"C1"},
			wantLens: []int{0x80},
		},
		{
			name:     "Long form 82 with zero value",
			input:    buffer.MustHex("C2 82 0000"),
			wantTags: []string{"C2"},
			wantLens: []int{0},
		},
		{
			name:     "Empty input",
			input:    nil,
			wantTags: nil,
			wantLens: nil,
		},
		{
			name:      "Indefinite length",
			input:     buffer.MustHex("30 80 0000"),
			wantError: true,
		},
		{
			name:      "Too many length bytes",
			input:     buffer.MustHex("C1 85 0000000001 AA"),
			wantError: true,
		},
		{
			name:      "Truncated tag",
			input:     buffer.MustHex("9F"),
			wantError: true,
		},
		{
			name:      "Missing length",
			input:     buffer.MustHex("84"),
			wantError: true,
		},
		{
			name:      "Partial list before overrun",
			input:     buffer.MustHex("84 01 AA", "85 05 01"),
			wantTags:  []string{"84"},
			wantLens:  []int{1},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := Decode(tt.input)
			if (err != nil) != tt.wantError {
				t.Fatalf("Decode() error = %v, wantError %v", err, tt.wantError)
			}
			if err != nil {
				var malformed *MalformedError
				if !errors.As(err, &malformed) {
					t.Errorf("expected *MalformedError, got %T", err)
				}
			}

			var tags []string
			var lens []int
			for _, n := range list {
				tags = append(tags, n.Tag.String())
				lens = append(lens, n.Length)
			}
			if diff := cmp.Diff(tt.wantTags, tags); diff != "" {
				t.Errorf("tags mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantLens, lens); diff != "" {
				t.Errorf("lengths mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMalformedErrorFields(t *testing.T) {
	_, err := Decode(buffer.MustHex("84 01 AA", "5A 08 1234"))

	var malformed *MalformedError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected *MalformedError, got %v", err)
	}
	want := MalformedError{
		Offset:    3,
		Tag:       Tag{0x5A},
		Length:    8,
		Remaining: 2,
		Reason:    "value overruns the buffer",
	}
	if diff := cmp.Diff(want, *malformed); diff != "" {
		t.Errorf("MalformedError mismatch (-want +got):\n%s", diff)
	}
}

func TestConstructed(t *testing.T) {
	tests := []struct {
		tag  Tag
		want bool
	}{
		{Tag{0x6F}, true},
		{Tag{0xA5}, true},
		{Tag{0xBF, 0x0C}, true},
		{Tag{0x84}, false},
		{Tag{0x9F, 0x38}, false},
		{Tag{}, false},
	}
	for _, tt := range tests {
		if got := tt.tag.Constructed(); got != tt.want {
			t.Errorf("Tag(%s).Constructed() = %v, want %v", tt.tag, got, tt.want)
		}
	}
}

func TestChildren(t *testing.T) {
	list, err := Decode(buffer.MustHex("6F 07 84 02 A000 87 01 01"))
	if err != nil {
		t.Fatal(err)
	}

	children, err := list[0].Children()
	if err != nil {
		t.Fatal(err)
	}
	if len(children) != 2 {
		t.Fatalf("expected 2 children, got %d", len(children))
	}

	sfi, ok := children.Find("87")
	if !ok || !bytes.Equal(sfi.Value, []byte{0x01}) {
		t.Errorf("Find(87) = %+v, %v", sfi, ok)
	}

	leaf, err := children[0].Children()
	if err != nil || leaf != nil {
		t.Errorf("primitive Children() = %v, %v", leaf, err)
	}
}
