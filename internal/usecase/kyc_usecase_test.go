package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeFileName(t *testing.T) {
	assert.Equal(t, "passport.pdf", sanitizeFileName("passport.pdf"))
	assert.Equal(t, "my_id-card_2026.png", sanitizeFileName("my_id-card_2026.png"))
	//空白と記号は_に置換
	assert.Equal(t, "my_passport__1_.jpg", sanitizeFileName("my passport (1).jpg"))
	assert.Equal(t, "______.pdf", sanitizeFileName("運転免許証.pdf"))
}
