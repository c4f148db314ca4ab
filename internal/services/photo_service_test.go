package services

import (
	"encoding/base64"
	"testing"

	contextutils "repairlog/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeDataURI(t *testing.T) {
	payload := []byte{0xff, 0xd8, 0xff, 0xe0}
	uri := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(payload)

	contentType, data, err := DecodeDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", contentType)
	assert.Equal(t, payload, data)
}

func TestDecodeDataURIDefaultsContentType(t *testing.T) {
	uri := "data:;base64," + base64.StdEncoding.EncodeToString([]byte("x"))

	contentType, _, err := DecodeDataURI(uri)
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", contentType)
}

func TestDecodeDataURIRejectsPlainBase64(t *testing.T) {
	_, _, err := DecodeDataURI(base64.StdEncoding.EncodeToString([]byte("x")))
	assert.True(t, contextutils.IsError(err, contextutils.ErrPhotoCaptureFailed))
}

func TestDecodeDataURIRejectsNonBase64Encoding(t *testing.T) {
	_, _, err := DecodeDataURI("data:image/png,rawbytes")
	assert.True(t, contextutils.IsError(err, contextutils.ErrPhotoCaptureFailed))
}

func TestDecodeDataURIRejectsCorruptPayload(t *testing.T) {
	_, _, err := DecodeDataURI("data:image/png;base64,not-valid-base64!!!")
	assert.True(t, contextutils.IsError(err, contextutils.ErrPhotoCaptureFailed))
}
