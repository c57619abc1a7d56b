// Package docid validates and formats Brazilian taxpayer identifiers (CPF and CNPJ).
//
// Every function here is pure: input is normalized by dropping anything that is
// not a digit, the length is checked, and only then the check digits are computed.
// Invalid input of any shape yields false, never a panic.
package docid

import "strings"

type Kind string

const (
	KindUnknown Kind = ""
	KindCPF     Kind = "cpf"
	KindCNPJ    Kind = "cnpj"
)

const (
	cpfLen  = 11
	cnpjLen = 14
)

// Digits returns only the ASCII digits of s, in order.
func Digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if c := s[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ValidateCPF reports whether input carries a structurally valid CPF.
func ValidateCPF(input string) bool {
	d := Digits(input)
	if len(d) != cpfLen || allSame(d) {
		return false
	}
	// weights 10..2, then 11..2
	if checkDigit(d[:9], descending(10)) != digitAt(d, 9) {
		return false
	}
	return checkDigit(d[:10], descending(11)) == digitAt(d, 10)
}

// ValidateCNPJ reports whether input carries a structurally valid CNPJ.
func ValidateCNPJ(input string) bool {
	d := Digits(input)
	if len(d) != cnpjLen || allSame(d) {
		return false
	}
	if checkDigit(d[:12], cyclic(12)) != digitAt(d, 12) {
		return false
	}
	return checkDigit(d[:13], cyclic(13)) == digitAt(d, 13)
}

// Validate detects the identifier kind from its digit count and validates it.
func Validate(input string) (Kind, bool) {
	switch len(Digits(input)) {
	case cpfLen:
		return KindCPF, ValidateCPF(input)
	case cnpjLen:
		return KindCNPJ, ValidateCNPJ(input)
	default:
		return KindUnknown, false
	}
}

// FormatCPF renders a valid CPF as 000.000.000-00.
func FormatCPF(input string) (string, bool) {
	if !ValidateCPF(input) {
		return "", false
	}
	d := Digits(input)
	return d[0:3] + "." + d[3:6] + "." + d[6:9] + "-" + d[9:11], true
}

// FormatCNPJ renders a valid CNPJ as 00.000.000/0000-00.
func FormatCNPJ(input string) (string, bool) {
	if !ValidateCNPJ(input) {
		return "", false
	}
	d := Digits(input)
	return d[0:2] + "." + d[2:5] + "." + d[5:8] + "/" + d[8:12] + "-" + d[12:14], true
}

// Format renders input with the mask of its detected kind.
func Format(input string) (Kind, string, bool) {
	kind, ok := Validate(input)
	if !ok {
		return kind, "", false
	}
	if kind == KindCPF {
		s, _ := FormatCPF(input)
		return kind, s, true
	}
	s, _ := FormatCNPJ(input)
	return kind, s, true
}

// checkDigit computes 11 - (sum mod 11) over digits, collapsing 10 and 11 to 0.
func checkDigit(digits string, weights []int) int {
	sum := 0
	for i := 0; i < len(digits); i++ {
		sum += int(digits[i]-'0') * weights[i]
	}
	dv := 11 - sum%11
	if dv >= 10 {
		return 0
	}
	return dv
}

// descending returns from, from-1, ..., 2.
func descending(from int) []int {
	w := make([]int, 0, from-1)
	for v := from; v >= 2; v-- {
		w = append(w, v)
	}
	return w
}

// cyclic returns n weights running 2..9 from the rightmost position leftwards.
func cyclic(n int) []int {
	w := make([]int, n)
	v := 2
	for i := n - 1; i >= 0; i-- {
		w[i] = v
		v++
		if v > 9 {
			v = 2
		}
	}
	return w
}

func digitAt(d string, i int) int { return int(d[i] - '0') }

func allSame(d string) bool {
	for i := 1; i < len(d); i++ {
		if d[i] != d[0] {
			return false
		}
	}
	return true
}
