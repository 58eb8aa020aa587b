package store

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name    string
		addr    string
		wantDB  int
		healthy bool
		wantErr bool
	}{
		{name: "host and port", addr: mr.Addr(), healthy: true},
		{name: "url with db", addr: "redis://" + mr.Addr() + "/2", wantDB: 2, healthy: true},
		{name: "nothing listening", addr: "127.0.0.1:1"},
		{name: "bad scheme", addr: "http://" + mr.Addr(), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewRedis(tt.addr)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = r.Close() })

			assert.Equal(t, tt.wantDB, r.Client.Options().DB)
			assert.Equal(t, tt.healthy, r.Healthy(context.Background()))
		})
	}
}

func TestNilRedis(t *testing.T) {
	var r *Redis
	assert.False(t, r.Healthy(context.Background()))
	assert.NoError(t, r.Close())
}
