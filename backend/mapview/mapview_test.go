package mapview

import (
	"context"
	"database/sql"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buscapet/backend/util"
)

type urlStore struct{}

func (urlStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return "", nil
}
func (urlStore) Delete(ctx context.Context, key string) error { return nil }
func (urlStore) URL(key string) string                        { return "https://cdn.test/" + key }

const openCasesPattern = "SELECT(.+)FROM cases\\s+WHERE resolved = 0\\s+ORDER BY created_at DESC"

var openCasesColumns = []string{"id", "pet_name", "species", "neighborhood", "status", "thumbnail_key", "latitude", "longitude"}

func newBuilder(t *testing.T) (*Builder, sqlmock.Sqlmock) {
	t.Helper()
	dbc, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { dbc.Close() })
	return &Builder{DB: dbc, Store: urlStore{}}, mock
}

func TestBuildFiltersAndColorsMarkers(t *testing.T) {
	b, mock := newBuilder(t)
	mock.ExpectQuery(openCasesPattern).
		WillReturnRows(sqlmock.NewRows(openCasesColumns).
			AddRow(1, "Rex", "Cachorro", "Centro", "Perdi meu PET", "uploads/thumbnails_pet/thumb_a.jpg", -22.75, -47.33).
			AddRow(2, "Mia", "Gato", "Jardim", "Encontrei um PET", "uploads/thumbnails_pet/thumb_b.jpg", -22.76, -47.34).
			AddRow(3, "SemMapa", "Cachorro", "Centro", "Perdi meu PET", "uploads/thumbnails_pet/thumb_c.jpg", nil, nil).
			AddRow(4, "SemFoto", "Gato", "Centro", "Perdi meu PET", "", -22.70, -47.30))

	m, err := b.Build(context.Background())
	require.NoError(t, err)

	// Cases without coordinates or a thumbnail never become markers.
	require.Len(t, m.Markers, 2)

	rex := m.Markers[0]
	assert.Equal(t, int64(1), rex.CaseID)
	assert.Equal(t, util.StatusLost, rex.Status)
	assert.Equal(t, "red", rex.Color)
	assert.Equal(t, "https://cdn.test/uploads/thumbnails_pet/thumb_a.jpg", rex.ThumbnailURL)
	assert.Equal(t, "/pets/1", rex.DetailsURL)

	mia := m.Markers[1]
	assert.Equal(t, "green", mia.Color)
	assert.Equal(t, util.StatusFound, mia.Status)

	// Center is the mean of the two present coordinates.
	assert.InDelta(t, -22.755, m.CenterLat, 0.001)
	assert.InDelta(t, -47.335, m.CenterLon, 0.001)
	assert.Equal(t, DefaultZoom, m.Zoom)
}

func TestBuildFallbackCenterWithoutCoordinates(t *testing.T) {
	b, mock := newBuilder(t)
	mock.ExpectQuery(openCasesPattern).
		WillReturnRows(sqlmock.NewRows(openCasesColumns).
			AddRow(3, "SemMapa", "Cachorro", "Centro", "Perdi meu PET", "uploads/thumbnails_pet/thumb_c.jpg", nil, nil))

	m, err := b.Build(context.Background())
	require.NoError(t, err)

	assert.Empty(t, m.Markers)
	assert.Equal(t, FallbackLat, m.CenterLat)
	assert.Equal(t, FallbackLon, m.CenterLon)
	assert.Equal(t, FallbackZoom, m.Zoom)
}

func TestBuildEmptyMap(t *testing.T) {
	b, mock := newBuilder(t)
	mock.ExpectQuery(openCasesPattern).
		WillReturnRows(sqlmock.NewRows(openCasesColumns))

	m, err := b.Build(context.Background())
	require.NoError(t, err)
	assert.Empty(t, m.Markers)
	assert.Equal(t, FallbackZoom, m.Zoom)
}

func TestBuildPropagatesQueryError(t *testing.T) {
	b, mock := newBuilder(t)
	mock.ExpectQuery(openCasesPattern).WillReturnError(sql.ErrConnDone)

	_, err := b.Build(context.Background())
	assert.Error(t, err)
}

func TestToGeoJSON(t *testing.T) {
	b, mock := newBuilder(t)
	mock.ExpectQuery(openCasesPattern).
		WillReturnRows(sqlmock.NewRows(openCasesColumns).
			AddRow(1, "Rex", "Cachorro", "Centro", "Perdi meu PET", "uploads/thumbnails_pet/thumb_a.jpg", -22.75, -47.33))

	m, err := b.Build(context.Background())
	require.NoError(t, err)

	fc := ToGeoJSON(m)
	require.Len(t, fc.Features, 1)
	f := fc.Features[0]
	require.True(t, f.Geometry.IsPoint())
	assert.Equal(t, []float64{-47.33, -22.75}, f.Geometry.Point)
	assert.Equal(t, "red", f.Properties["color"])
	assert.Equal(t, "/pets/1", f.Properties["details_url"])
}
