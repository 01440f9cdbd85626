package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"lostfound/internal/apperr"
	"lostfound/internal/config"
	"lostfound/internal/models"
	"lostfound/internal/repository"
	"lostfound/internal/storage"
)

// ImageUpload is a photo attached to a create or update request.
type ImageUpload struct {
	FileName string
	Reader   io.Reader
}

type CreateItemRequest struct {
	OwnerID     string
	Name        string
	Description string
	Category    string
	DateFound   string
	// Location is the raw JSON location payload; empty means none.
	Location string
	Image    *ImageUpload
}

// UpdateItemRequest carries a partial update; nil fields are left unchanged.
// An empty Location clears the stored location.
type UpdateItemRequest struct {
	ItemID      string
	RequesterID string
	Name        *string
	Description *string
	Category    *string
	DateFound   *string
	Location    *string
	Image       *ImageUpload
}

type ItemService interface {
	CreateItem(ctx context.Context, req CreateItemRequest) (*models.Item, error)
	GetItem(ctx context.Context, itemID string) (*models.Item, error)
	ListItems(ctx context.Context, filter models.ItemFilter) ([]models.Item, error)
	ListCreatedItems(ctx context.Context, userID string) ([]models.Item, error)
	UpdateItem(ctx context.Context, req UpdateItemRequest) (*models.Item, error)
	DeleteItem(ctx context.Context, itemID, requesterID string) error
}

type itemService struct {
	itemRepo repository.ItemRepository
	images   storage.ImageStore
	cfg      *config.Config
	logger   *slog.Logger
}

func NewItemService(itemRepo repository.ItemRepository, images storage.ImageStore, cfg *config.Config, logger *slog.Logger) ItemService {
	return &itemService{
		itemRepo: itemRepo,
		images:   images,
		cfg:      cfg,
		logger:   logger,
	}
}

// ParseDateFound validates a YYYY-MM-DD date and returns it normalized.
func ParseDateFound(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperr.Validation("dateFound is required")
	}

	date, err := time.Parse(models.DateLayout, value)
	if err != nil {
		return "", apperr.Validation("dateFound must be a date in YYYY-MM-DD format")
	}

	return date.Format(models.DateLayout), nil
}

type locationPayload struct {
	Building    string `json:"building"`
	Coordinates *struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	} `json:"coordinates"`
}

// ParseLocation decodes the optional JSON location payload. Empty input and
// JSON null mean no location.
func ParseLocation(raw string) (*models.Location, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == "null" {
		return nil, nil
	}

	var payload locationPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, apperr.Validation("location must be a JSON object")
	}

	loc := &models.Location{Building: strings.TrimSpace(payload.Building)}

	if c := payload.Coordinates; c != nil {
		if c.Lat == nil || c.Lng == nil {
			return nil, apperr.Validation("location coordinates need both lat and lng")
		}
		if *c.Lat < -90 || *c.Lat > 90 {
			return nil, apperr.Validation("latitude must be between -90 and 90")
		}
		if *c.Lng < -180 || *c.Lng > 180 {
			return nil, apperr.Validation("longitude must be between -180 and 180")
		}
		loc.Coordinates = &models.Coordinates{Lat: *c.Lat, Lng: *c.Lng}
	}

	if loc.Building == "" && loc.Coordinates == nil {
		return nil, nil
	}

	return loc, nil
}

func requireText(field, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", apperr.Validation("%s is required", field)
	}
	return value, nil
}

// uploadImage processes and stores the photo, returning its object key and URL.
func (s *itemService) uploadImage(ctx context.Context, itemID string, upload *ImageUpload) (string, string, error) {
	if s.images == nil {
		return "", "", apperr.Internal("image storage is not configured", nil)
	}

	img, err := storage.ProcessImage(upload.FileName, upload.Reader, s.cfg.ImageMaxDimension)
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImage) {
			return "", "", apperr.Validation("image must be a JPEG or PNG file")
		}
		return "", "", fmt.Errorf("processing image: %w", err)
	}

	key, url, err := s.images.Upload(ctx, itemID, img)
	if err != nil {
		return "", "", fmt.Errorf("storing image: %w", err)
	}

	return key, url, nil
}

// removeImage deletes an object best-effort; failures only leave an orphaned object.
func (s *itemService) removeImage(ctx context.Context, key string) {
	if key == "" || s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		s.logger.Warn("removing image failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

func (s *itemService) CreateItem(ctx context.Context, req CreateItemRequest) (*models.Item, error) {
	name, err := requireText("name", req.Name)
	if err != nil {
		return nil, err
	}
	description, err := requireText("description", req.Description)
	if err != nil {
		return nil, err
	}
	dateFound, err := ParseDateFound(req.DateFound)
	if err != nil {
		return nil, err
	}
	location, err := ParseLocation(req.Location)
	if err != nil {
		return nil, err
	}

	item := &models.Item{
		ItemID:      uuid.New().String(),
		OwnerID:     req.OwnerID,
		Name:        name,
		Description: description,
		Category:    strings.TrimSpace(req.Category),
		DateFound:   dateFound,
		Location:    location,
	}

	if req.Image != nil {
		item.ImageKey, item.ImageURL, err = s.uploadImage(ctx, item.ItemID, req.Image)
		if err != nil {
			return nil, err
		}
	}

	if err := s.itemRepo.Create(ctx, item); err != nil {
		s.removeImage(ctx, item.ImageKey)
		return nil, err
	}

	itemsCreatedTotal.Inc()
	return item, nil
}

func (s *itemService) GetItem(ctx context.Context, itemID string) (*models.Item, error) {
	return s.itemRepo.GetByID(ctx, itemID)
}

func (s *itemService) ListItems(ctx context.Context, filter models.ItemFilter) ([]models.Item, error) {
	return s.itemRepo.List(ctx, filter)
}

func (s *itemService) ListCreatedItems(ctx context.Context, userID string) ([]models.Item, error) {
	return s.itemRepo.ListByOwner(ctx, userID)
}

// ownedItem loads the item and checks that requesterID owns it.
func (s *itemService) ownedItem(ctx context.Context, itemID, requesterID string) (*models.Item, error) {
	item, err := s.itemRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.OwnerID != requesterID {
		return nil, apperr.Forbidden("only the owner can modify this item")
	}
	return item, nil
}

func (s *itemService) UpdateItem(ctx context.Context, req UpdateItemRequest) (*models.Item, error) {
	item, err := s.ownedItem(ctx, req.ItemID, req.RequesterID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if item.Name, err = requireText("name", *req.Name); err != nil {
			return nil, err
		}
	}
	if req.Description != nil {
		if item.Description, err = requireText("description", *req.Description); err != nil {
			return nil, err
		}
	}
	if req.Category != nil {
		item.Category = strings.TrimSpace(*req.Category)
	}
	if req.DateFound != nil {
		if item.DateFound, err = ParseDateFound(*req.DateFound); err != nil {
			return nil, err
		}
	}
	if req.Location != nil {
		if item.Location, err = ParseLocation(*req.Location); err != nil {
			return nil, err
		}
	}

	oldKey := ""
	if req.Image != nil {
		key, url, err := s.uploadImage(ctx, item.ItemID, req.Image)
		if err != nil {
			return nil, err
		}
		oldKey = item.ImageKey
		item.ImageKey, item.ImageURL = key, url
	}

	if err := s.itemRepo.Update(ctx, item); err != nil {
		if req.Image != nil {
			s.removeImage(ctx, item.ImageKey)
		}
		return nil, err
	}

	s.removeImage(ctx, oldKey)
	return item, nil
}

func (s *itemService) DeleteItem(ctx context.Context, itemID, requesterID string) error {
	item, err := s.ownedItem(ctx, itemID, requesterID)
	if err != nil {
		return err
	}

	if err := s.itemRepo.Delete(ctx, itemID); err != nil {
		return err
	}

	s.removeImage(ctx, item.ImageKey)
	itemsDeletedTotal.Inc()

	s.logger.Info("item deleted",
		slog.String("item_id", itemID),
		slog.String("owner_id", requesterID),
	)
	return nil
}
