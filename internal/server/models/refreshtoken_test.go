package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRefreshToken_Active(t *testing.T) {
	now := time.Now()

	assert.True(t, (&RefreshToken{ExpiresAt: now.Add(time.Second)}).Active(now))
	assert.False(t, (&RefreshToken{ExpiresAt: now}).Active(now))
	assert.False(t, (&RefreshToken{ExpiresAt: now.Add(-time.Second)}).Active(now))
	assert.False(t, (&RefreshToken{ExpiresAt: now.Add(time.Hour), Revoked: true}).Active(now))
}
