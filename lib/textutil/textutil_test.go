package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "acme waste", NormalizeName("  ACME   Waste \n"))
}

func TestNormalizeCompanyName(t *testing.T) {
	cases := []struct {
		input    string
		expected string
	}{
		{"ACME WASTE MANAGEMENT LIMITED", "acme waste management"},
		{"Acme Waste Management Ltd.", "acme waste management"},
		{"J&B Cleaning Services PLC", "jb cleaning services"},
		{"Brights Facilities (London) LLP", "brights facilities london"},
		{"LIMITED EDITIONS LTD", "limited editions"},
		{"No Suffix Here", "no suffix here"},
	}
	for _, c := range cases {
		require.Equal(t, c.expected, NormalizeCompanyName(c.input), "input: %q", c.input)
	}
}
