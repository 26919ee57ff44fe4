package storage

import (
	"standbot/internal/structures"
	"standbot/internal/testutil"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewStateStore_File(t *testing.T) {
	conf := &structures.Config{StateStore: structures.StateStoreConfig{Driver: "file"}}
	fm := NewFileManager(&testutil.MockCompressor{}, &testutil.MockLogger{})

	s, err := NewStateStore(conf, nil, fm, &testutil.MockLogger{}, &testutil.MockMetrics{})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStateStore{}, s)
}

func TestNewStateStore_Redis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	conf := &structures.Config{StateStore: structures.StateStoreConfig{Driver: "redis"}}

	s, err := NewStateStore(conf, client, nil, &testutil.MockLogger{}, &testutil.MockMetrics{})
	require.NoError(t, err)
	assert.IsType(t, &RedisStateStore{}, s)

	_, err = NewStateStore(conf, nil, nil, &testutil.MockLogger{}, &testutil.MockMetrics{})
	assert.Error(t, err)
}

func TestNewStateStore_Unknown(t *testing.T) {
	conf := &structures.Config{StateStore: structures.StateStoreConfig{Driver: "etcd"}}
	_, err := NewStateStore(conf, nil, nil, &testutil.MockLogger{}, &testutil.MockMetrics{})
	assert.Error(t, err)
}
