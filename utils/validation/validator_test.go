package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type roleRequest struct {
	Name string `validate:"required,min=2"`
	Role string `validate:"required,role"`
}

type ratingRequest struct {
	Rating int `validate:"required,gte=1,lte=5"`
}

func TestValidateStructCustomRole(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateStruct(roleRequest{Name: "Ada", Role: "trainer"}))

	err := v.ValidateStruct(roleRequest{Name: "Ada", Role: "admin"})
	assert.EqualError(t, err, "Role must be one of student, trainer, manager")
}

func TestValidateStructRatingBounds(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateStruct(ratingRequest{Rating: 5}))
	assert.Error(t, v.ValidateStruct(ratingRequest{Rating: 6}))
	assert.Error(t, v.ValidateStruct(ratingRequest{Rating: 0}))
}

func TestSanitizeText(t *testing.T) {
	assert.Equal(t, "Great video!", SanitizeText("  <b>Great</b> video!<script>alert(1)</script> "))
	assert.Equal(t, "plain", SanitizeText("plain"))
	assert.Equal(t, "", SanitizeText("<style>p{}</style>"))
}

func TestValidateUsername(t *testing.T) {
	ok, _ := ValidateUsername("jane.doe")
	assert.True(t, ok)

	ok, msg := ValidateUsername("no spaces")
	assert.False(t, ok)
	assert.NotEmpty(t, msg)
}

func TestValidatePassword(t *testing.T) {
	ok, problems := ValidatePassword("12345678")
	assert.False(t, ok)
	assert.Len(t, problems, 1)

	ok, _ = ValidatePassword("secret123")
	assert.True(t, ok)
}
