package timezone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTimestamp(t *testing.T) {
	cases := []struct {
		in     time.Time
		expect string
	}{
		{
			// winter, GMT == UTC
			in:     time.Date(2024, time.January, 31, 15, 45, 3, 0, time.UTC),
			expect: "20240131_154503",
		},
		{
			// summer, BST == UTC+1
			in:     time.Date(2024, time.July, 1, 23, 30, 0, 0, time.UTC),
			expect: "20240702_003000",
		},
	}

	for _, test := range cases {
		require.Equal(t, test.expect, Timestamp(test.in))
	}
}
