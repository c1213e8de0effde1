package services

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableURL(t *testing.T) {
	s := NewQRCodeService("https://order.example.com/")
	assert.Equal(t, "https://order.example.com/restaurant/3/table/5/menu", s.TableURL(3, 5))
}

func TestTableQRCode(t *testing.T) {
	png, err := NewQRCodeService("https://order.example.com").TableQRCode(3, 5)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, []byte("\x89PNG\r\n\x1a\n")))
}
