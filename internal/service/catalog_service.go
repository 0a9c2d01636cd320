package service

import (
	"context"

	"unipark/internal/db"
	"unipark/internal/entities"
	apperr "unipark/internal/errors"

	"github.com/rs/zerolog"
)

// CatalogService is the read model over areas and spaces plus the small
// administrative surface that maintains them. Availability here is advisory;
// the reserve insert is authoritative.
type CatalogService struct {
	spaces SpaceStore
	log    zerolog.Logger
}

func NewCatalogService(spaces SpaceStore, log zerolog.Logger) *CatalogService {
	return &CatalogService{spaces: spaces, log: log}
}

func (s *CatalogService) ListAvailable(ctx context.Context, areaID int, date string) (*entities.AvailableSpacesResponse, error) {
	if _, err := parseDate(date); err != nil {
		return nil, err
	}
	spaces, err := s.spaces.ListAvailable(ctx, areaID, date)
	if err != nil {
		return nil, err
	}
	resp := &entities.AvailableSpacesResponse{Date: date, AreaID: areaID}
	for _, sp := range spaces {
		resp.Spaces = append(resp.Spaces, entities.SpaceResponse{
			ID: sp.ID, AreaID: sp.AreaID, Label: sp.Label, Bookable: sp.Bookable,
		})
	}
	return resp, nil
}

func (s *CatalogService) CreateArea(ctx context.Context, req entities.CreateAreaRequest) (*db.Area, error) {
	if req.Name == "" || req.AreaType == "" {
		return nil, apperr.NewHTTPError(400, "name and area_type are required")
	}
	area := &db.Area{Name: req.Name, AreaType: req.AreaType, Description: req.Description}
	if err := s.spaces.CreateArea(ctx, area); err != nil {
		return nil, err
	}
	s.log.Info().Int("area_id", area.ID).Str("name", area.Name).Msg("area created")
	return area, nil
}

func (s *CatalogService) ListAreas(ctx context.Context) ([]db.Area, error) {
	return s.spaces.ListAreas(ctx)
}

func (s *CatalogService) CreateSpace(ctx context.Context, req entities.CreateSpaceRequest) (*db.Space, error) {
	if req.AreaID == 0 || req.Label == "" {
		return nil, apperr.NewHTTPError(400, "area_id and label are required")
	}
	space := &db.Space{AreaID: req.AreaID, Label: req.Label, Bookable: req.Bookable}
	if err := s.spaces.CreateSpace(ctx, space); err != nil {
		return nil, err
	}
	s.log.Info().Int("space_id", space.ID).Str("label", space.Label).Msg("space created")
	return space, nil
}

func (s *CatalogService) ListSpaces(ctx context.Context, areaID int) ([]db.Space, error) {
	return s.spaces.ListSpacesByArea(ctx, areaID)
}

func (s *CatalogService) SetBookable(ctx context.Context, spaceID int, bookable bool) error {
	return s.spaces.SetBookable(ctx, spaceID, bookable)
}
