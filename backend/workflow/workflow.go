// Package workflow orchestrates pet-case registration: staging the
// uploaded photo, deriving its thumbnail, uploading both to the asset
// store, resolving coordinates and inserting the case row. Each step
// declares a compensating action; on abort the compensations of the
// completed steps run in reverse order, so either a case row exists with
// both assets stored, or nothing is left behind.
package workflow

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"buscapet/backend/db"
	imgpkg "buscapet/backend/image"
	"buscapet/backend/server/api"
	"buscapet/backend/storage"
	"buscapet/backend/util"

	"github.com/apex/log"
)

var (
	// ErrValidation tags user-input failures. They abort the attempt
	// before any side effect happens.
	ErrValidation = errors.New("validation failed")

	ErrNoFile       = fmt.Errorf("%w: no photo selected", ErrValidation)
	ErrBadExtension = fmt.Errorf("%w: file type not allowed", ErrValidation)
)

// LocationResolver is satisfied by location.Resolver.
type LocationResolver interface {
	Resolve(ctx context.Context, neighborhood, street string) (lat, lon float64, ok bool, err error)
}

// Publisher is satisfied by rabbitmq.Publisher. A nil publisher disables
// the event feed.
type Publisher interface {
	Publish(message any) error
}

// Registrar wires the collaborators of the registration workflow.
type Registrar struct {
	DB         *sql.DB
	Store      storage.Store
	Locations  LocationResolver
	ScratchDir string
	Events     Publisher
}

// Input carries one registration request. File is the uploaded photo.
type Input struct {
	PetName      string
	Species      string
	Street       string
	Neighborhood string
	City         string
	Contact      string
	Comment      string
	Status       string

	Filename string
	File     io.Reader
}

// Result reports a successful registration. LocationFound is false both
// when the lookup missed and when it was skipped; LocationTried tells
// the two apart so callers can surface the right warning.
type Result struct {
	CaseID        int64
	Latitude      *float64
	Longitude     *float64
	LocationTried bool
	LocationFound bool
}

// step is one state of the forward-only registration machine. compensate
// undoes the step's side effect when a later step aborts the attempt.
type step struct {
	name       string
	run        func(ctx context.Context) error
	compensate func(ctx context.Context)
}

type registration struct {
	r  *Registrar
	in *Input

	data        []byte
	contentType string

	thumbData        []byte
	thumbContentType string

	stagedOriginal string
	stagedThumb    string

	originalKey string
	thumbKey    string

	latitude  *float64
	longitude *float64
	found     bool
	tried     bool

	caseID int64
}

// Register runs the registration state machine. On any failure the
// compensations of the already-completed steps are executed in reverse
// order, exactly once each, and the original error is returned.
func (r *Registrar) Register(ctx context.Context, in *Input) (*Result, error) {
	s := &registration{r: r, in: in}
	steps := []step{
		{name: "validate", run: s.validate},
		{name: "stage", run: s.stage, compensate: s.removeStagedOriginal},
		{name: "thumbnail", run: s.thumbnail, compensate: s.removeStagedThumb},
		{name: "upload-original", run: s.uploadOriginal, compensate: s.deleteOriginal},
		{name: "upload-thumbnail", run: s.uploadThumbnail, compensate: s.deleteThumbnail},
		{name: "resolve-location", run: s.resolveLocation},
		{name: "insert-row", run: s.insertRow},
	}

	completed := make([]step, 0, len(steps))
	for _, st := range steps {
		if err := st.run(ctx); err != nil {
			log.Errorf("Registration aborted at %s: %v", st.name, err)
			for i := len(completed) - 1; i >= 0; i-- {
				if completed[i].compensate != nil {
					completed[i].compensate(ctx)
				}
			}
			return nil, err
		}
		completed = append(completed, st)
	}

	// Full success: the staged scratch files are no longer needed.
	s.removeStagedOriginal(ctx)
	s.removeStagedThumb(ctx)
	s.publish()

	return &Result{
		CaseID:        s.caseID,
		Latitude:      s.latitude,
		Longitude:     s.longitude,
		LocationTried: s.tried,
		LocationFound: s.found,
	}, nil
}

func (s *registration) validate(ctx context.Context) error {
	if s.in.File == nil || s.in.Filename == "" {
		return ErrNoFile
	}
	if !util.AllowedExtension(s.in.Filename) {
		return ErrBadExtension
	}
	data, err := io.ReadAll(s.in.File)
	if err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}
	if len(data) == 0 {
		return ErrNoFile
	}
	s.data = data
	s.contentType = contentTypeFor(s.in.Filename)
	return nil
}

func (s *registration) stage(ctx context.Context) error {
	unique := util.UniqueFilename(s.in.Filename, time.Now())
	s.originalKey = util.OriginalKey(unique)
	s.thumbKey = util.ThumbnailKey(unique)

	dir := filepath.Join(s.r.ScratchDir, "imagens_pet")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create scratch dir: %w", err)
	}
	s.stagedOriginal = filepath.Join(dir, unique)
	if err := os.WriteFile(s.stagedOriginal, s.data, 0o644); err != nil {
		s.stagedOriginal = ""
		return fmt.Errorf("failed to stage upload: %w", err)
	}
	return nil
}

func (s *registration) thumbnail(ctx context.Context) error {
	thumb, contentType, err := imgpkg.Thumbnail(s.data, imgpkg.ThumbnailMaxWidth, imgpkg.ThumbnailMaxHeight)
	if err != nil {
		return err
	}
	s.thumbData = thumb
	s.thumbContentType = contentType

	dir := filepath.Join(s.r.ScratchDir, "thumbnails_pet")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create scratch dir: %w", err)
	}
	s.stagedThumb = filepath.Join(dir, "thumb_"+filepath.Base(s.stagedOriginal))
	if err := os.WriteFile(s.stagedThumb, thumb, 0o644); err != nil {
		s.stagedThumb = ""
		return fmt.Errorf("failed to stage thumbnail: %w", err)
	}
	return nil
}

func (s *registration) uploadOriginal(ctx context.Context) error {
	_, err := s.r.Store.Put(ctx, s.originalKey, s.data, s.contentType)
	return err
}

func (s *registration) uploadThumbnail(ctx context.Context) error {
	_, err := s.r.Store.Put(ctx, s.thumbKey, s.thumbData, s.thumbContentType)
	return err
}

func (s *registration) resolveLocation(ctx context.Context) error {
	// Best effort: a miss or a lookup error only degrades map precision.
	s.tried = s.in.Neighborhood != "" && s.in.Street != ""
	lat, lon, ok, err := s.r.Locations.Resolve(ctx, s.in.Neighborhood, s.in.Street)
	if err != nil {
		log.Warnf("Coordinate lookup failed for %s, %s: %v", s.in.Street, s.in.Neighborhood, err)
		return nil
	}
	if ok {
		s.latitude = &lat
		s.longitude = &lon
		s.found = true
	}
	return nil
}

func (s *registration) insertRow(ctx context.Context) error {
	city := s.in.City
	if city == "" {
		city = "Americana/SP"
	}
	id, err := db.InsertCase(ctx, s.r.DB, &api.Case{
		PetName:      s.in.PetName,
		Species:      s.in.Species,
		Street:       s.in.Street,
		Neighborhood: s.in.Neighborhood,
		City:         city,
		Contact:      s.in.Contact,
		Comment:      s.in.Comment,
		PhotoKey:     s.originalKey,
		ThumbnailKey: s.thumbKey,
		Latitude:     s.latitude,
		Longitude:    s.longitude,
		Status:       util.ParseStatus(s.in.Status),
		CreatedAt:    time.Now(),
	})
	if err != nil {
		return err
	}
	s.caseID = id
	return nil
}

func (s *registration) removeStagedOriginal(ctx context.Context) {
	removeStaged(s.stagedOriginal)
	s.stagedOriginal = ""
}

func (s *registration) removeStagedThumb(ctx context.Context) {
	removeStaged(s.stagedThumb)
	s.stagedThumb = ""
}

func (s *registration) deleteOriginal(ctx context.Context) {
	s.deleteUploaded(ctx, s.originalKey)
}

func (s *registration) deleteThumbnail(ctx context.Context) {
	s.deleteUploaded(ctx, s.thumbKey)
}

// deleteUploaded is the compensating delete for an uploaded asset. It is
// attempted exactly once; a failure leaves an orphan that only shows up
// in the logs, never in a case row.
func (s *registration) deleteUploaded(ctx context.Context, key string) {
	if err := s.r.Store.Delete(ctx, key); err != nil {
		log.Errorf("Orphaned asset %s: compensating delete failed: %v", key, err)
	}
}

func (s *registration) publish() {
	if s.r.Events == nil {
		return
	}
	err := s.r.Events.Publish(api.CaseEvent{
		ID:           s.caseID,
		Species:      s.in.Species,
		Status:       util.ParseStatus(s.in.Status),
		Neighborhood: s.in.Neighborhood,
		Latitude:     s.latitude,
		Longitude:    s.longitude,
		CreatedAt:    time.Now(),
	})
	if err != nil {
		log.Errorf("Failed to publish case %d event: %v", s.caseID, err)
	}
}

func removeStaged(path string) {
	if path == "" {
		return
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		log.Errorf("Failed to remove staged file %s: %v", path, err)
	}
}

func contentTypeFor(filename string) string {
	if strings.ToLower(filepath.Ext(filename)) == ".png" {
		return "image/png"
	}
	return "image/jpeg"
}
