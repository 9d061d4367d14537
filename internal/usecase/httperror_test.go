package usecase

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAsHTTPError(t *testing.T) {
	err := NewHTTPError(http.StatusConflict, "already exists")
	he, ok := AsHTTPError(err)
	assert.True(t, ok)
	assert.Equal(t, http.StatusConflict, he.Status)
	assert.Equal(t, "already exists", he.Message)

	_, ok = AsHTTPError(errors.New("plain"))
	assert.False(t, ok)
}

func TestNormalizePage(t *testing.T) {
	page, limit := normalizePage(0, 0)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, limit)

	page, limit = normalizePage(-3, -1)
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, limit)

	page, limit = normalizePage(2, 25)
	assert.Equal(t, 2, page)
	assert.Equal(t, 25, limit)

	//上限100でキャップ
	_, limit = normalizePage(1, 500)
	assert.Equal(t, 100, limit)
}

func TestNewPagination(t *testing.T) {
	p := newPagination(2, 10, 30)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 10, p.Limit)
	assert.Equal(t, int64(30), p.Total)
	assert.Equal(t, 3, p.TotalPages)

	//端数は切り上げ
	p = newPagination(1, 10, 31)
	assert.Equal(t, 4, p.TotalPages)

	p = newPagination(1, 10, 0)
	assert.Equal(t, 0, p.TotalPages)
}
