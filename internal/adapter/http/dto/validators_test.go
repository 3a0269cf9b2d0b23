package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinorUnits(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"150.00", 15000},
		{"150", 15000},
		{"0.01", 1},
		{"1234.5", 123450},
		{" 42.10 ", 4210},
	}
	for _, tt := range tests {
		got, err := MinorUnits(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestMinorUnits_Rejects(t *testing.T) {
	for _, in := range []string{"", "abc", "0", "-5.00", "0.001", "10.999"} {
		_, err := MinorUnits(in)
		assert.Error(t, err, in)
	}
}

func TestMinorUnits_Int64Boundary(t *testing.T) {
	// Largest representable amount: math.MaxInt64 minor units.
	got, err := MinorUnits("92233720368547758.07")
	require.NoError(t, err)
	assert.Equal(t, int64(9223372036854775807), got)

	// One cent past int64, and an amount past uint64, must both be
	// rejected rather than wrapping to a small bogus value.
	for _, in := range []string{"92233720368547758.08", "184467440737095517.16"} {
		_, err := MinorUnits(in)
		assert.Error(t, err, in)
	}
}

func TestValidateSafeID(t *testing.T) {
	valid := []string{"beneficiary-77", "vendor.shop_01", "Admin123"}
	invalid := []string{"has space", "semi;colon", "<script>", "a/b"}

	for _, s := range valid {
		assert.True(t, safeStringRe.MatchString(s), s)
	}
	for _, s := range invalid {
		assert.False(t, safeStringRe.MatchString(s), s)
	}
}

func TestSanitizeStruct(t *testing.T) {
	desc := "  <b>bulk rice</b>  "
	req := SpendRequest{
		Beneficiary: "  beneficiary-77  ",
		Description: desc,
		ReceiptHash: strPtr("  abc123  "),
	}

	SanitizeStruct(&req)

	assert.Equal(t, "beneficiary-77", req.Beneficiary)
	assert.Equal(t, "&lt;b&gt;bulk rice&lt;/b&gt;", req.Description)
	assert.Equal(t, "abc123", *req.ReceiptHash)
}

func TestSanitizeStruct_NonStructIsNoOp(t *testing.T) {
	s := "  untouched  "
	SanitizeStruct(s) // not a pointer
	SanitizeStruct(&s)
	assert.Equal(t, "  untouched  ", s)
}

func strPtr(s string) *string { return &s }
