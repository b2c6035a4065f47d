package qrcode_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soundrift/soundrift/pkg/qrcode"
)

var pngMagic = []byte{0x89, 0x50, 0x4E, 0x47}

func TestGenerate(t *testing.T) {
	t.Parallel()

	png, err := qrcode.Generate("https://soundrift.local/share/track/abc", 256)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(png, pngMagic))
}

func TestGenerateDefaultSize(t *testing.T) {
	t.Parallel()

	png, err := qrcode.Generate("https://soundrift.local", 0)
	require.NoError(t, err)
	assert.NotEmpty(t, png)
}

func TestGenerateEmptyContent(t *testing.T) {
	t.Parallel()

	_, err := qrcode.Generate("   ", 128)
	assert.ErrorIs(t, err, qrcode.ErrEmptyContent)
}

func TestGenerateBase64Image(t *testing.T) {
	t.Parallel()

	img, err := qrcode.GenerateBase64Image("https://soundrift.local", 128)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(img, "data:image/png;base64,"))
}
