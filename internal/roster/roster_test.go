package roster

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gardenjournal/internal/googletest"
	"gardenjournal/internal/sheets"
)

func newFakeRoster(t *testing.T, rows ...[]string) (*googletest.Sheets, *sheets.Client) {
	t.Helper()
	fake := googletest.NewSheets(t)
	fake.SetTab("학생명단", append([][]string{{"학번", "이름"}}, rows...)...)
	return fake, sheets.New(fake.Service(t), "sheet-id")
}

func TestAuthenticate(t *testing.T) {
	_, client := newFakeRoster(t, []string{" 123 ", "Kim "}, []string{"456", "Lee"})
	svc := NewService(client, "학생명단", nil, 0)

	tests := []struct {
		name    string
		id      string
		student string
		wantErr error
	}{
		{name: "exact match", id: "123", student: "Kim"},
		{name: "second row", id: "456", student: "Lee"},
		{name: "wrong id", id: "124", student: "Kim", wantErr: ErrInvalidCredentials},
		{name: "wrong name", id: "123", student: "Park", wantErr: ErrInvalidCredentials},
		{name: "untrimmed id", id: " 123", student: "Kim", wantErr: ErrInvalidCredentials},
		{name: "untrimmed name", id: "123", student: "Kim ", wantErr: ErrInvalidCredentials},
		{name: "empty input", wantErr: ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, err := svc.Authenticate(context.Background(), tt.id, tt.student)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, Student{}, st)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, Student{ID: tt.id, Name: tt.student}, st)
		})
	}
}

func TestEmptyRosterIsNotAnError(t *testing.T) {
	fake := googletest.NewSheets(t)
	svc := NewService(sheets.New(fake.Service(t), "sheet-id"), "학생명단", nil, 0)

	students, err := svc.Students(context.Background())
	require.NoError(t, err)
	assert.Empty(t, students)

	_, err = svc.Authenticate(context.Background(), "123", "Kim")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestMalformedRoster(t *testing.T) {
	fake := googletest.NewSheets(t)
	fake.SetTab("학생명단", []string{"id", "name"}, []string{"123", "Kim"})
	svc := NewService(sheets.New(fake.Service(t), "sheet-id"), "학생명단", nil, 0)

	_, err := svc.Authenticate(context.Background(), "123", "Kim")
	assert.ErrorIs(t, err, ErrMalformedRoster)
}

func TestRosterReadFailurePropagates(t *testing.T) {
	fake, client := newFakeRoster(t, []string{"123", "Kim"})
	fake.SetFailing(true)
	svc := NewService(client, "학생명단", nil, 0)

	_, err := svc.Authenticate(context.Background(), "123", "Kim")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrInvalidCredentials))
}

func TestCacheWithinWindow(t *testing.T) {
	fake, client := newFakeRoster(t, []string{"123", "Kim"})
	cache := NewMemoryCache()
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }
	svc := NewService(client, "학생명단", cache, 30*time.Second)

	_, err := svc.Authenticate(context.Background(), "123", "Kim")
	require.NoError(t, err)
	_, err = svc.Authenticate(context.Background(), "123", "Kim")
	require.NoError(t, err)
	assert.Equal(t, 1, fake.Reads(), "second login inside the window is served from cache")

	// A student added to the sheet shows up after the window.
	fake.SetTab("학생명단", []string{"학번", "이름"}, []string{"123", "Kim"}, []string{"789", "Choi"})
	_, err = svc.Authenticate(context.Background(), "789", "Choi")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	now = now.Add(31 * time.Second)
	_, err = svc.Authenticate(context.Background(), "789", "Choi")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.Reads())
}

func TestRedisCacheErrorFallsThrough(t *testing.T) {
	fake, client := newFakeRoster(t, []string{"123", "Kim"})
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	t.Cleanup(func() { _ = rdb.Close() })

	svc := NewService(client, "학생명단", NewRedisCache(rdb, ""), 30*time.Second)
	st, err := svc.Authenticate(context.Background(), "123", "Kim")
	require.NoError(t, err)
	assert.Equal(t, "Kim", st.Name)
	assert.Equal(t, 1, fake.Reads())
}

func TestMemoryCacheCopies(t *testing.T) {
	cache := NewMemoryCache()
	in := []Student{{ID: "1", Name: "A"}}
	require.NoError(t, cache.Set(context.Background(), in, time.Minute))
	in[0].Name = "changed"

	got, ok, err := cache.Get(context.Background())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "A", got[0].Name)
}

func TestRedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	ctx := context.Background()
	cache := NewRedisCache(rdb, "")

	_, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "empty redis is a miss")

	want := []Student{{ID: "0123", Name: "Kim"}, {ID: "456", Name: "Lee"}}
	require.NoError(t, cache.Set(ctx, want, 30*time.Second))
	assert.True(t, mr.Exists("garden:roster"))

	got, ok, err := cache.Get(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, want, got)

	mr.FastForward(31 * time.Second)
	_, ok, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "entry expires with the window")

	require.NoError(t, mr.Set("garden:roster", "not json"))
	_, _, err = cache.Get(ctx)
	assert.Error(t, err)
}

func TestServiceWithRedisCache(t *testing.T) {
	fake, client := newFakeRoster(t, []string{"123", "Kim"})
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	svc := NewService(client, "학생명단", NewRedisCache(rdb, "garden:roster"), 30*time.Second)
	for i := 0; i < 3; i++ {
		_, err := svc.Authenticate(context.Background(), "123", "Kim")
		require.NoError(t, err)
	}
	assert.Equal(t, 1, fake.Reads())

	mr.FastForward(31 * time.Second)
	_, err := svc.Authenticate(context.Background(), "123", "Kim")
	require.NoError(t, err)
	assert.Equal(t, 2, fake.Reads())
}
