package patterns

import (
	"errors"
	"fmt"

	"github.com/pixel-beads/api/datastore"
	"github.com/pixel-beads/api/models"
	"github.com/pixel-beads/api/rle"
)

// ErrNotFound is returned when no pattern has the requested ID.
var ErrNotFound = errors.New("pattern not found")

// Service validates patterns against the reference table before they reach
// the repository.
type Service struct {
	Repo   datastore.PatternRepository
	Colors ColorSource
}

func NewService(repo datastore.PatternRepository, colors ColorSource) *Service {
	return &Service{Repo: repo, Colors: colors}
}

func (s *Service) Create(req models.PatternCreateRequest) (models.Pattern, error) {
	if err := req.Validate(); err != nil {
		return models.Pattern{}, err
	}
	if err := ValidatePalette(req.Palette, s.Colors); err != nil {
		return models.Pattern{}, err
	}
	if err := ValidateData(req.Data, req.Width, req.Height, len(req.Palette)); err != nil {
		return models.Pattern{}, err
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	return s.Repo.Create(models.Pattern{
		Name:        req.Name,
		Description: req.Description,
		Width:       req.Width,
		Height:      req.Height,
		Palette:     req.Palette,
		Data:        req.Data,
		Tags:        tags,
	})
}

// Update merges req into the stored pattern. The palette is re-checked only
// when it changes; the pixel data whenever it or the grid it must fit changes.
func (s *Service) Update(id int64, req models.PatternUpdateRequest) (models.Pattern, error) {
	if err := req.Validate(); err != nil {
		return models.Pattern{}, err
	}

	pattern, err := s.Get(id)
	if err != nil {
		return models.Pattern{}, err
	}

	req.Apply(&pattern)

	if req.Palette != nil {
		if err := ValidatePalette(pattern.Palette, s.Colors); err != nil {
			return models.Pattern{}, err
		}
	}
	if req.TouchesGrid() {
		if err := ValidateData(pattern.Data, pattern.Width, pattern.Height, len(pattern.Palette)); err != nil {
			return models.Pattern{}, err
		}
	}

	updated, err := s.Repo.Update(pattern)
	if datastore.IsNoRows(err) {
		return models.Pattern{}, ErrNotFound
	}
	return updated, err
}

func (s *Service) Get(id int64) (models.Pattern, error) {
	pattern, err := s.Repo.Get(id)
	if datastore.IsNoRows(err) {
		return models.Pattern{}, ErrNotFound
	}
	return pattern, err
}

func (s *Service) List(query models.PatternListQuery) (models.PatternList, error) {
	if err := query.Normalize(); err != nil {
		return models.PatternList{}, err
	}
	return s.Repo.List(query)
}

func (s *Service) Delete(id int64) error {
	deleted, err := s.Repo.Delete(id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotFound
	}
	return nil
}

// Pixels decodes the stored grid of p.
func (s *Service) Pixels(p models.Pattern) ([]int, error) {
	pixels, err := rle.Decode(p.Data, p.Width*p.Height)
	if err != nil {
		return nil, fmt.Errorf("pattern %d: %w", p.ID, err)
	}
	return pixels, nil
}

// Stats returns the bead usage of the pattern with the given ID.
func (s *Service) Stats(id int64) (models.UsageStats, error) {
	pattern, err := s.Get(id)
	if err != nil {
		return models.UsageStats{}, err
	}
	pixels, err := s.Pixels(pattern)
	if err != nil {
		return models.UsageStats{}, err
	}
	return ComputeStats(pixels, pattern.Palette, s.Colors), nil
}
