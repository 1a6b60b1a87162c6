package workflow

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"io/fs"
	"path/filepath"
	"strings"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	imgpkg "buscapet/backend/image"
)

type fakeStore struct {
	objects map[string][]byte
	deleted []string

	putCalls   int
	failPutOn  int // fail the nth Put, 1-based; 0 never fails
	failDelete bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (f *fakeStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	f.putCalls++
	if f.failPutOn != 0 && f.putCalls == f.failPutOn {
		return "", errors.New("injected put failure")
	}
	f.objects[key] = data
	return f.URL(key), nil
}

func (f *fakeStore) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	if f.failDelete {
		return errors.New("injected delete failure")
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeStore) URL(key string) string {
	return "https://test/" + key
}

type fakeResolver struct {
	lat, lon float64
	ok       bool
	err      error
}

func (f *fakeResolver) Resolve(ctx context.Context, neighborhood, street string) (float64, float64, bool, error) {
	return f.lat, f.lon, f.ok, f.err
}

func photoPNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 200, 150))))
	return buf.Bytes()
}

func stagedFileCount(t *testing.T, dir string) int {
	t.Helper()
	count := 0
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			count++
		}
		return nil
	})
	require.NoError(t, err)
	return count
}

func newRegistrar(t *testing.T, store *fakeStore, resolver LocationResolver) (*Registrar, sqlmock.Sqlmock) {
	t.Helper()
	dbc, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { dbc.Close() })
	return &Registrar{
		DB:         dbc,
		Store:      store,
		Locations:  resolver,
		ScratchDir: t.TempDir(),
	}, mock
}

func lostPetInput(t *testing.T) *Input {
	return &Input{
		PetName:      "Rex",
		Species:      "Cachorro",
		Street:       "Rua A",
		Neighborhood: "Centro",
		Contact:      "(19) 99999-0000",
		Comment:      "Coleira azul",
		Status:       "Perdi meu PET",
		Filename:     "rex.png",
		File:         bytes.NewReader(photoPNG(t)),
	}
}

func TestRegisterSuccess(t *testing.T) {
	store := newFakeStore()
	reg, mock := newRegistrar(t, store, &fakeResolver{lat: -22.75, lon: -47.33, ok: true})

	mock.ExpectBegin()
	mock.ExpectExec("INSERT\\s+INTO cases (.+)").WillReturnResult(sqlmock.NewResult(42, 1))
	mock.ExpectCommit()

	res, err := reg.Register(context.Background(), lostPetInput(t))
	require.NoError(t, err)

	assert.Equal(t, int64(42), res.CaseID)
	assert.True(t, res.LocationTried)
	assert.True(t, res.LocationFound)
	require.NotNil(t, res.Latitude)
	assert.Equal(t, -22.75, *res.Latitude)
	assert.Equal(t, -47.33, *res.Longitude)

	// Both asset keys resolve to stored objects.
	require.Len(t, store.objects, 2)
	var originalKey, thumbKey string
	for key := range store.objects {
		switch {
		case strings.HasPrefix(key, "uploads/imagens_pet/"):
			originalKey = key
		case strings.HasPrefix(key, "uploads/thumbnails_pet/thumb_"):
			thumbKey = key
		}
	}
	assert.NotEmpty(t, originalKey)
	assert.NotEmpty(t, thumbKey)

	// Thumbnail fits the 100x100 box.
	img, _, err := image.Decode(bytes.NewReader(store.objects[thumbKey]))
	require.NoError(t, err)
	assert.LessOrEqual(t, img.Bounds().Dx(), imgpkg.ThumbnailMaxWidth)
	assert.LessOrEqual(t, img.Bounds().Dy(), imgpkg.ThumbnailMaxHeight)

	// Staged scratch files are gone after success.
	assert.Equal(t, 0, stagedFileCount(t, reg.ScratchDir))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterValidation(t *testing.T) {
	testCases := []struct {
		name  string
		mutate func(*Input)
		want  error
	}{
		{"no file", func(in *Input) { in.File = nil; in.Filename = "" }, ErrNoFile},
		{"disallowed extension", func(in *Input) { in.Filename = "rex.gif" }, ErrBadExtension},
		{"empty file", func(in *Input) { in.File = bytes.NewReader(nil) }, ErrNoFile},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			store := newFakeStore()
			reg, mock := newRegistrar(t, store, &fakeResolver{})

			in := lostPetInput(t)
			testCase.mutate(in)

			_, err := reg.Register(context.Background(), in)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
			assert.ErrorIs(t, err, testCase.want)

			// No side effects at all.
			assert.Empty(t, store.objects)
			assert.Zero(t, store.putCalls)
			assert.Equal(t, 0, stagedFileCount(t, reg.ScratchDir))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRegisterThumbnailFailure(t *testing.T) {
	store := newFakeStore()
	reg, mock := newRegistrar(t, store, &fakeResolver{})

	in := lostPetInput(t)
	in.File = bytes.NewReader([]byte("not an image at all"))

	_, err := reg.Register(context.Background(), in)
	require.Error(t, err)
	assert.ErrorIs(t, err, imgpkg.ErrDecode)

	// No uploads happened and the staged original was cleaned up.
	assert.Empty(t, store.objects)
	assert.Zero(t, store.putCalls)
	assert.Equal(t, 0, stagedFileCount(t, reg.ScratchDir))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterSecondUploadFailureCompensatesFirst(t *testing.T) {
	store := newFakeStore()
	store.failPutOn = 2
	reg, mock := newRegistrar(t, store, &fakeResolver{})

	_, err := reg.Register(context.Background(), lostPetInput(t))
	require.Error(t, err)

	// The successful original upload was compensated away.
	assert.Empty(t, store.objects)
	require.Len(t, store.deleted, 1)
	assert.True(t, strings.HasPrefix(store.deleted[0], "uploads/imagens_pet/"))
	assert.Equal(t, 0, stagedFileCount(t, reg.ScratchDir))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterInsertFailureCompensatesBothUploads(t *testing.T) {
	store := newFakeStore()
	reg, mock := newRegistrar(t, store, &fakeResolver{lat: -22.75, lon: -47.33, ok: true})

	mock.ExpectBegin()
	mock.ExpectExec("INSERT\\s+INTO cases (.+)").WillReturnError(errors.New("connection lost"))
	mock.ExpectRollback()

	_, err := reg.Register(context.Background(), lostPetInput(t))
	require.Error(t, err)

	// Both just-uploaded assets were deleted, thumbnail first.
	assert.Empty(t, store.objects)
	require.Len(t, store.deleted, 2)
	assert.True(t, strings.HasPrefix(store.deleted[0], "uploads/thumbnails_pet/thumb_"))
	assert.True(t, strings.HasPrefix(store.deleted[1], "uploads/imagens_pet/"))
	assert.Equal(t, 0, stagedFileCount(t, reg.ScratchDir))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterCompensationDeleteFailureStillReportsOriginalError(t *testing.T) {
	store := newFakeStore()
	store.failDelete = true
	reg, mock := newRegistrar(t, store, &fakeResolver{})

	insertErr := errors.New("insert exploded")
	mock.ExpectBegin()
	mock.ExpectExec("INSERT\\s+INTO cases (.+)").WillReturnError(insertErr)
	mock.ExpectRollback()

	_, err := reg.Register(context.Background(), lostPetInput(t))
	require.Error(t, err)
	assert.ErrorIs(t, err, insertErr)

	// Compensation was attempted exactly once per uploaded asset.
	assert.Len(t, store.deleted, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterLocationMissStillCreatesCase(t *testing.T) {
	store := newFakeStore()
	reg, mock := newRegistrar(t, store, &fakeResolver{ok: false})

	mock.ExpectBegin()
	mock.ExpectExec("INSERT\\s+INTO cases (.+)").WillReturnResult(sqlmock.NewResult(7, 1))
	mock.ExpectCommit()

	in := lostPetInput(t)
	in.Street = "Rua Z"

	res, err := reg.Register(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.CaseID)
	assert.True(t, res.LocationTried)
	assert.False(t, res.LocationFound)
	assert.Nil(t, res.Latitude)
	assert.Nil(t, res.Longitude)
	assert.Len(t, store.objects, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterResolverErrorIsBestEffort(t *testing.T) {
	store := newFakeStore()
	reg, mock := newRegistrar(t, store, &fakeResolver{err: errors.New("lookup timed out")})

	mock.ExpectBegin()
	mock.ExpectExec("INSERT\\s+INTO cases (.+)").WillReturnResult(sqlmock.NewResult(8, 1))
	mock.ExpectCommit()

	res, err := reg.Register(context.Background(), lostPetInput(t))
	require.NoError(t, err)
	assert.False(t, res.LocationFound)
	assert.Nil(t, res.Latitude)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRegisterSkipsLookupWithoutAddress(t *testing.T) {
	store := newFakeStore()
	reg, mock := newRegistrar(t, store, &fakeResolver{lat: 1, lon: 2, ok: false})

	mock.ExpectBegin()
	mock.ExpectExec("INSERT\\s+INTO cases (.+)").WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	in := lostPetInput(t)
	in.Street = ""
	in.Neighborhood = ""

	res, err := reg.Register(context.Background(), in)
	require.NoError(t, err)
	assert.False(t, res.LocationTried)
	assert.False(t, res.LocationFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
