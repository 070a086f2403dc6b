package util

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMediaToken(t *testing.T) {
	cases := map[string]string{
		"https://res.cloudinary.com/demo/image/upload/v1700/abc123.png": "abc123",
		"http://localhost:5000/uploads/avatar_1700.jpg":                 "avatar_1700",
		"https://bucket.s3.amazonaws.com/media/xyz":                     "xyz",
		"": "",
	}
	for in, want := range cases {
		assert.Equal(t, want, MediaToken(in), in)
	}
}

func TestDecodeDataURL(t *testing.T) {
	r, ext, err := DecodeDataURL("data:image/png;base64,aGVsbG8=")
	assert.NoError(t, err)
	assert.Equal(t, ".png", ext)
	body, _ := io.ReadAll(r)
	assert.Equal(t, "hello", string(body))

	_, _, err = DecodeDataURL("https://example.com/a.png")
	assert.ErrorIs(t, err, ErrInvalidDataURL)

	_, _, err = DecodeDataURL("data:text/plain;base64,aGVsbG8=")
	assert.ErrorIs(t, err, ErrInvalidDataURL)
}
