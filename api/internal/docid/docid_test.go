package docid

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCPF(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  bool
	}{
		{"known valid", "11144477735", true},
		{"valid with mask", "111.444.777-35", true},
		{"last digit corrupted", "11144477736", false},
		{"first check digit corrupted", "11144477745", false},
		{"too short", "1114447773", false},
		{"too long", "111444777350", false},
		{"empty", "", false},
		{"letters only", "abcdefghijk", false},
		{"cnpj length", "11222333000181", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ValidateCPF(tc.input))
		})
	}
}

func TestValidateCPF_RejectsRepeatedDigits(t *testing.T) {
	for d := '0'; d <= '9'; d++ {
		s := strings.Repeat(string(d), 11)
		assert.False(t, ValidateCPF(s), s)
	}
}

func TestValidateCNPJ(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  bool
	}{
		{"known valid", "11222333000181", true},
		{"valid with mask", "11.222.333/0001-81", true},
		{"another valid", "45.997.418/0001-53", true},
		{"last digit corrupted", "11222333000182", false},
		{"first check digit corrupted", "11222333000191", false},
		{"too short", "1122233300018", false},
		{"empty", "", false},
		{"letters only", "ab.cde.fgh/ijkl-mn", false},
		{"cpf length", "11144477735", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ValidateCNPJ(tc.input))
		})
	}
}

func TestValidateCNPJ_RejectsRepeatedDigits(t *testing.T) {
	for d := '0'; d <= '9'; d++ {
		s := strings.Repeat(string(d), 14)
		assert.False(t, ValidateCNPJ(s), s)
	}
}

func TestValidate_DetectsKind(t *testing.T) {
	kind, ok := Validate("111.444.777-35")
	assert.Equal(t, KindCPF, kind)
	assert.True(t, ok)

	kind, ok = Validate("11.222.333/0001-81")
	assert.Equal(t, KindCNPJ, kind)
	assert.True(t, ok)

	kind, ok = Validate("11222333000182")
	assert.Equal(t, KindCNPJ, kind)
	assert.False(t, ok)

	kind, ok = Validate("123")
	assert.Equal(t, KindUnknown, kind)
	assert.False(t, ok)
}

func TestFormat(t *testing.T) {
	s, ok := FormatCPF("11144477735")
	assert.True(t, ok)
	assert.Equal(t, "111.444.777-35", s)

	s, ok = FormatCNPJ("11222333000181")
	assert.True(t, ok)
	assert.Equal(t, "11.222.333/0001-81", s)

	_, ok = FormatCPF("11144477736")
	assert.False(t, ok)

	kind, s, ok := Format(" 11222333000181 ")
	assert.True(t, ok)
	assert.Equal(t, KindCNPJ, kind)
	assert.Equal(t, "11.222.333/0001-81", s)
}

func TestDigits(t *testing.T) {
	assert.Equal(t, "11144477735", Digits("111.444.777-35"))
	assert.Equal(t, "", Digits("abc"))
	assert.Equal(t, "12", Digits("a1-b2"))
	// full-width digits are not ASCII digits
	assert.Equal(t, "2", Digits("１2"))
	assert.Equal(t, "7", Digits("٣7"))
}
