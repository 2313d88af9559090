package pkg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPublicObjectURL(t *testing.T) {
	assert.Equal(t, "https://storage.googleapis.com/avatars/u1/a.png", PublicObjectURL("", "avatars", "u1/a.png"))
	assert.Equal(t, "https://cdn.example.com/u1/a.png", PublicObjectURL("https://cdn.example.com/", "avatars", "/u1/a.png"))
}
