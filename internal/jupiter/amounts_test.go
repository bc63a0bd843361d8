package jupiter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToRawAmount(t *testing.T) {
	cases := []struct {
		name     string
		ui       float64
		decimals int
		want     uint64
	}{
		{"1.5 USDC at 6 decimals", 1.5, 6, 1500000},
		{"whole SOL at 9 decimals", 2, 9, 2000000000},
		{"dust below one raw unit floors", 0.0000001, 6, 0},
		{"fractional raw floors down", 1.9999999, 6, 1999999},
		{"zero", 0, 9, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ToRawAmount(tc.ui, tc.decimals)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := ToRawAmount(-1, 6)
	assert.Error(t, err)
}

func TestFromRawAmount(t *testing.T) {
	got, err := FromRawAmount("150000000", 6)
	require.NoError(t, err)
	assert.Equal(t, 150.0, got)

	got, err = FromRawAmount("1500000000", 9)
	require.NoError(t, err)
	assert.Equal(t, 1.5, got)

	_, err = FromRawAmount("not-a-number", 6)
	assert.Error(t, err)
}

func TestSlippageToBps(t *testing.T) {
	assert.Equal(t, uint16(50), SlippageToBps(0.5))
	assert.Equal(t, uint16(100), SlippageToBps(1))
	// sub-bps precision floors rather than rounds
	assert.Equal(t, uint16(12), SlippageToBps(0.129))
	assert.Equal(t, uint16(0), SlippageToBps(-3))
}
