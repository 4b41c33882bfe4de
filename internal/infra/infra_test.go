package infra

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := NewRedisClient(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	got, err := mr.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
}

func TestNewRedisClientErrors(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "")
	assert.Error(t, err)

	_, err = NewRedisClient(context.Background(), "not a url")
	assert.ErrorContains(t, err, "parse redis url")
}

func TestNewPostgresPoolRejectsBadURL(t *testing.T) {
	_, err := NewPostgresPool(context.Background(), "")
	assert.Error(t, err)

	_, err = NewPostgresPool(context.Background(), "postgres://%zz")
	assert.ErrorContains(t, err, "parse postgres config")
}

func TestEmbeddedMigrations(t *testing.T) {
	versions, err := migrationVersions()
	require.NoError(t, err)
	assert.Equal(t, []uint{1}, versions)

	src, err := iofs.New(migrationFiles, "migrations")
	require.NoError(t, err)
	defer src.Close()

	r, _, err := src.ReadUp(1)
	require.NoError(t, err)
	defer r.Close()
	body, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Contains(t, string(body), "CHECK (balance >= 0)")
	assert.Contains(t, string(body), "NUMERIC(10, 2)")

	down, _, err := src.ReadDown(1)
	require.NoError(t, err)
	down.Close()
}

// versionSource serves versions in order and fails Next with nextErr at the end.
type versionSource struct {
	source.Driver
	versions []uint
	nextErr  error
}

func (s versionSource) First() (uint, error) { return s.versions[0], nil }

func (s versionSource) Next(version uint) (uint, error) {
	for i, v := range s.versions[:len(s.versions)-1] {
		if v == version {
			return s.versions[i+1], nil
		}
	}
	return 0, s.nextErr
}

func TestListVersions(t *testing.T) {
	end := &fs.PathError{Op: "next", Path: "migrations", Err: fs.ErrNotExist}
	versions, err := listVersions(versionSource{versions: []uint{1, 2, 5}, nextErr: end})
	require.NoError(t, err)
	assert.Equal(t, []uint{1, 2, 5}, versions)

	broken := errors.New("read failed")
	_, err = listVersions(versionSource{versions: []uint{1, 2}, nextErr: broken})
	require.ErrorIs(t, err, broken)
	assert.ErrorContains(t, err, "after 2")
}
