package usecase

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewReferralCode(t *testing.T) {
	code := newReferralCode()
	assert.True(t, strings.HasPrefix(code, "YAF-"))
	assert.Len(t, code, len("YAF-")+8)
	//大文字に正規化されている
	assert.Equal(t, strings.ToUpper(code), code)

	//毎回違うコードが出る
	assert.NotEqual(t, code, newReferralCode())
}
