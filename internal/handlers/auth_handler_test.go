package handlers

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeNext(t *testing.T) {
	kept := []string{
		"/admin/",
		"/client/12/profile/",
		"/backup/?page=2",
	}
	for _, next := range kept {
		assert.Equal(t, next, safeNext(next), next)
	}

	rejected := []string{
		"",
		"admin/",
		"https://evil.com/",
		"//evil.com",
		"/\t/evil.com",
		"/\n/evil.com",
		"/\r\n/evil.com",
		"/ /evil.com",
		"/\\evil.com",
		"\\\\evil.com",
		"/\x7f/evil.com",
	}
	for _, next := range rejected {
		assert.Equal(t, adminURL, safeNext(next), "%q", next)
	}
}
