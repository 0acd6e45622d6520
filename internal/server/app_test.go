package server

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/dmitrijs2005/ermil/internal/server/config"
	"github.com/dmitrijs2005/ermil/internal/server/providers"
	"github.com/dmitrijs2005/ermil/internal/server/providers/dialogs"
	"github.com/dmitrijs2005/ermil/internal/server/providers/s3images"
	"github.com/dmitrijs2005/ermil/internal/server/sessions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	return c
}

func TestNewSessionStore(t *testing.T) {
	c := testConfig()

	store, err := newSessionStore(c)
	require.NoError(t, err)
	assert.IsType(t, &sessions.MemoryStore{}, store)

	mr := miniredis.RunT(t)
	c.RedisAddr = mr.Addr()
	store, err = newSessionStore(c)
	require.NoError(t, err)

	rs, ok := store.(*sessions.RedisStore)
	require.True(t, ok)
	defer rs.Close()
	assert.NoError(t, rs.Ping(context.Background()))

	require.NoError(t, rs.Save(context.Background(), &sessions.Session{ID: "s1", State: "Unauthenticated", UpdatedAt: time.Now()}))
	got, err := rs.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, "Unauthenticated", got.State)
}

func TestNewImageHost(t *testing.T) {
	ctx := context.Background()
	c := testConfig()

	host, err := newImageHost(ctx, c, http.DefaultClient, providers.Caller{})
	require.NoError(t, err)
	assert.IsType(t, &dialogs.Client{}, host)

	c.ImageBackend = config.ImageBackendS3
	host, err = newImageHost(ctx, c, http.DefaultClient, providers.Caller{})
	require.NoError(t, err)
	assert.IsType(t, &s3images.Host{}, host)

	c.ImageBackend = "ftp"
	_, err = newImageHost(ctx, c, http.DefaultClient, providers.Caller{})
	assert.ErrorContains(t, err, "unknown image backend")
}
