package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yapishu/up8-ticket/pkg/codec"
	"github.com/yapishu/up8-ticket/pkg/crypto/shamir"
)

func TestValidateHex(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"deadbeef", false},
		{"DEADbeef", false},
		{"", true},
		{"abc", true},
		{"zz", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			err := ValidateHex(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestParseAdditionalInput(t *testing.T) {
	b, err := ParseAdditionalInput("")
	require.NoError(t, err)
	assert.Nil(t, b)

	b, err = ParseAdditionalInput(" 0xc0ffee ")
	require.NoError(t, err)
	assert.Equal(t, []byte{0xc0, 0xff, 0xee}, b)

	_, err = ParseAdditionalInput("xyz")
	assert.Error(t, err)
}

func TestValidateBitsAndCount(t *testing.T) {
	assert.NoError(t, ValidateBits(256))
	assert.Error(t, ValidateBits(0))
	assert.Error(t, ValidateBits(250))

	assert.NoError(t, ValidateCount(1))
	assert.NoError(t, ValidateCount(MaxCount))
	assert.Error(t, ValidateCount(0))
	assert.Error(t, ValidateCount(MaxCount+1))
}

func TestValidateTicket(t *testing.T) {
	assert.NoError(t, ValidateTicket("~marzod", codec.Q{}))
	assert.Error(t, ValidateTicket("~", codec.Q{}))
	assert.Error(t, ValidateTicket("marzod", codec.Q{}))
	assert.NoError(t, ValidateTicket("00ff", codec.Hex{}))
}

func TestValidateShare(t *testing.T) {
	wire := shamir.Share{Index: 3, Data: []byte{1, 2, 3}}.Bytes()

	share, err := ValidateShare(codec.Q{}.Encode(wire), codec.Q{})
	require.NoError(t, err)
	assert.Equal(t, byte(3), share.Index)
	assert.Equal(t, []byte{1, 2, 3}, share.Data)

	_, err = ValidateShare("~zod", codec.Q{})
	assert.ErrorIs(t, err, shamir.ErrMalformedShare)

	_, err = ValidateShare("nope", codec.Q{})
	assert.ErrorIs(t, err, codec.ErrInvalidEncoding)
}

func TestValidateDerivationPath(t *testing.T) {
	for _, p := range []string{"m", "m/0", "m/44'/0'/0'/0/0", "M/84h/0h/0h"} {
		assert.NoError(t, ValidateDerivationPath(p), p)
	}
	for _, p := range []string{"", "44/0", "m/", "m//0", "m/a", "m/2147483648", "m/44'/99999999999'"} {
		assert.Error(t, ValidateDerivationPath(p), p)
	}
}

func TestValidateSplitParams(t *testing.T) {
	assert.NoError(t, ValidateSplitParams(5, 3))
	assert.NoError(t, ValidateSplitParams(255, 255))
	assert.Error(t, ValidateSplitParams(1, 1))
	assert.Error(t, ValidateSplitParams(5, 1))
	assert.Error(t, ValidateSplitParams(3, 4))
	assert.Error(t, ValidateSplitParams(256, 2))
}

func TestValidateFormat(t *testing.T) {
	assert.NoError(t, ValidateFormat("yaml"))
	assert.Error(t, ValidateFormat("xml"))
}

func TestSplitLines(t *testing.T) {
	input := "  ~doznec \r\n\r\n# comment\n~marzod\r~fipfes  \n"
	assert.Equal(t, []string{"~doznec", "~marzod", "~fipfes"}, SplitLines(input))
	assert.Empty(t, SplitLines("\n\n"))
}
