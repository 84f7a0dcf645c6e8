package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"credgen/internal/fields"
)

func TestMissingFieldsAreDerived(t *testing.T) {
	s := NewApplicationState("s1", time.Now())
	require.Len(t, s.MissingFields(), len(fields.Required))

	s.ApplyEntities(map[string]Value{
		fields.Name:       TextValue("Riya Sharma"),
		fields.LoanAmount: NumberValue(500_000),
	})

	missing := s.MissingFields()
	assert.Len(t, missing, len(fields.Required)-2)
	assert.NotContains(t, missing, fields.Name)
	assert.NotContains(t, missing, fields.LoanAmount)
}

func TestApplyEntitiesIgnoresUnsetValues(t *testing.T) {
	s := NewApplicationState("s1", time.Now())
	s.ApplyEntities(map[string]Value{fields.Name: TextValue("Riya")})
	s.ApplyEntities(map[string]Value{fields.Name: {}})

	name, ok := s.Text(fields.Name)
	require.True(t, ok)
	assert.Equal(t, "Riya", name)
}

func TestKYCCompleteness(t *testing.T) {
	s := NewApplicationState("s1", time.Now())
	assert.False(t, s.KYCComplete())

	s.ApplyEntities(map[string]Value{
		fields.PAN:     TextValue("ABCDE1234F"),
		fields.Aadhaar: TextValue("123456789012"),
		fields.Address: TextValue("12 MG Road, Bangalore"),
		fields.Pincode: TextValue("560001"),
	})
	assert.True(t, s.KYCComplete())
}

func TestCloneIsDeep(t *testing.T) {
	s := NewApplicationState("s1", time.Now())
	s.ApplyEntities(map[string]Value{fields.Income: NumberValue(400_000)})
	rate := 12.5
	s.InterestRate = &rate

	c := s.Clone()
	c.ApplyEntities(map[string]Value{fields.Income: NumberValue(900_000)})
	*c.InterestRate = 9.5
	c.CurrentOffer = &Offer{Type: OfferApproved}

	income, _ := s.Number(fields.Income)
	assert.Equal(t, 400_000.0, income)
	assert.Equal(t, 12.5, *s.InterestRate)
	assert.Nil(t, s.CurrentOffer)
}

func TestNumberAndTextAccessors(t *testing.T) {
	s := NewApplicationState("s1", time.Now())
	s.ApplyEntities(map[string]Value{
		fields.Age:  NumberValue(30),
		fields.Name: TextValue("Arun"),
	})

	_, ok := s.Number(fields.Name)
	assert.False(t, ok, "text entity must not read as number")
	_, ok = s.Text(fields.Age)
	assert.False(t, ok, "numeric entity must not read as text")

	age, ok := s.Number(fields.Age)
	require.True(t, ok)
	assert.Equal(t, 30.0, age)
}
