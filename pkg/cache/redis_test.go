package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/studyplan-api/pkg/config"
)

func TestOptions(t *testing.T) {
	opts := Options(config.RedisConfig{Host: "cache", Port: 6380, Password: "pw", DB: 2})
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 5*time.Second, opts.DialTimeout)
}

func TestNamespace(t *testing.T) {
	assert.Equal(t, "studyplan:cache", Namespace("studyplan", "", "cache"))
	assert.Equal(t, "cache", Namespace("", "cache"))
	assert.Empty(t, Namespace())
}
