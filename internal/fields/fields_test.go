package fields

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidators(t *testing.T) {
	t.Run("amount bounds", func(t *testing.T) {
		assert.True(t, ValidAmount(50_000))
		assert.True(t, ValidAmount(10_000))
		assert.False(t, ValidAmount(9_999))
		assert.False(t, ValidAmount(10_000_001))
	})

	t.Run("age bounds", func(t *testing.T) {
		assert.True(t, ValidAge(18))
		assert.True(t, ValidAge(100))
		assert.False(t, ValidAge(17))
		assert.False(t, ValidAge(101))
	})

	t.Run("tenure bounds", func(t *testing.T) {
		assert.True(t, ValidTenure(36))
		assert.False(t, ValidTenure(3))
		assert.False(t, ValidTenure(400))
	})

	t.Run("pan format", func(t *testing.T) {
		assert.True(t, ValidPAN("ABCDE1234F"))
		assert.False(t, ValidPAN("abcde1234f"))
		assert.False(t, ValidPAN("ABC1234567"))
	})

	t.Run("aadhaar format", func(t *testing.T) {
		assert.True(t, ValidAadhaar("123456789012"))
		assert.False(t, ValidAadhaar("12345678901"))
		assert.False(t, ValidAadhaar("12345678901a"))
	})

	t.Run("pincode format", func(t *testing.T) {
		assert.True(t, ValidPincode("560001"))
		assert.False(t, ValidPincode("060001"))
		assert.False(t, ValidPincode("5600"))
	})
}

func TestSchemaSets(t *testing.T) {
	assert.Len(t, Required, 7)
	assert.Len(t, KYC, 4)
	assert.Contains(t, Required, LoanAmount)
	assert.Contains(t, KYC, PAN)
}
