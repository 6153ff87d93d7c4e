package phone

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeCanonicalFormIsIdempotent(t *testing.T) {
	for _, number := range []string{
		"+351912345678",
		"+33612345678",
		"+41791234567",
		"+447911123456",
		"+12125551234",
	} {
		assert.Equal(t, number, Normalize(number))
		assert.Equal(t, number, Normalize(Normalize(number)))
	}
}

func TestNormalizeInternationalPrefix(t *testing.T) {
	assert.Equal(t, "+351912345678", Normalize("00351912345678"))
	assert.Equal(t, "+33612345678", Normalize("0033612345678"))
}

func TestNormalizeStripsSeparators(t *testing.T) {
	assert.Equal(t, "+351912345678", Normalize("+351 912 345 678"))
	assert.Equal(t, "+33612345678", Normalize("+33 6-12-34-56-78"))
	assert.Equal(t, "+351912345678", Normalize("(00)351 912.345.678"))
}

func TestNormalizeLeadingZeroFormats(t *testing.T) {
	cases := map[string]string{
		"0791234567":   "+41791234567",   // Swiss 07[4-9]
		"0612345678":   "+33612345678",   // French 06
		"0712345678":   "+33712345678",   // French 07 (071 is outside the Swiss 07[4-9] block)
		"0912345678":   "+351912345678",  // Portuguese 09
		"07911123456":  "+447911123456",  // UK
		"015123456789": "+4915123456789", // German
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestNormalizePortugueseBeforeFrench(t *testing.T) {
	// 09 numbers must resolve to Portugal, not to the French 09 block.
	assert.Equal(t, "+351912345678", Normalize("0912345678"))
	assert.Equal(t, "+351961234567", Normalize("0961234567"))
	// 06 and 07 (outside the Swiss block) still resolve to France.
	assert.Equal(t, "+33612345678", Normalize("0612345678"))
	assert.Equal(t, "+33701234567", Normalize("0701234567"))
}

func TestNormalizeSwissBeforeFrench(t *testing.T) {
	// 074-079 must resolve to Switzerland even though the French 07 block
	// would also match.
	assert.Equal(t, "+41741234567", Normalize("0741234567"))
	assert.Equal(t, "+41791234567", Normalize("0791234567"))
	// 070-073 fall through to France.
	assert.Equal(t, "+33701234567", Normalize("0701234567"))
}

func TestNormalizeBareFormats(t *testing.T) {
	assert.Equal(t, "+393331234567", Normalize("3331234567")) // Italy
	assert.Equal(t, "+34612345678", Normalize("612345678"))   // Spain
	assert.Equal(t, "+34712345678", Normalize("712345678"))   // Spain
	assert.Equal(t, "+351912345678", Normalize("912345678"))  // Portugal
	assert.Equal(t, "+12125551234", Normalize("2125551234"))  // North America
}

func TestNormalizeNineDigitDefaultsToPortugal(t *testing.T) {
	assert.Equal(t, "+351812345678", Normalize("812345678"))
}

func TestNormalizeUnrecognizedGetsBestEffortPrefix(t *testing.T) {
	assert.Equal(t, "+12345", Normalize("12345"))
}

func TestNormalizeTotality(t *testing.T) {
	assert.Equal(t, "", Normalize(""))
	assert.Equal(t, "", Normalize("   "))
	assert.Equal(t, "", Normalize("+"))
	assert.Equal(t, "", Normalize("abc"))
	assert.Equal(t, "", Normalize("()-. "))
}

func TestNormalizeDeterminism(t *testing.T) {
	in := "0791234567"
	first := Normalize(in)
	for i := 0; i < 100; i++ {
		if got := Normalize(in); got != first {
			t.Fatalf("normalize not deterministic: %q then %q", first, got)
		}
	}
}
