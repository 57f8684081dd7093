package usecase

import (
	"context"
	"io"
	"strings"

	"rentalhub/internal/domain/entity"
	"rentalhub/internal/domain/repository"
	"rentalhub/internal/domain/service"
	"rentalhub/pkg/errors"
	"rentalhub/pkg/logger"
)

const (
	MsgDeleteWhileRented = "Product cannot be deleted while a rental is in progress"

	maxListingImages = 8
)

type ListingUseCase struct {
	listingRepo      repository.ListingRepository
	conversationRepo repository.ConversationRepository
	files            service.FileUploadService
	limiter          RateLimiter
}

func NewListingUseCase(
	listingRepo repository.ListingRepository,
	conversationRepo repository.ConversationRepository,
	files service.FileUploadService,
	limiter RateLimiter,
) *ListingUseCase {
	return &ListingUseCase{
		listingRepo:      listingRepo,
		conversationRepo: conversationRepo,
		files:            files,
		limiter:          limiter,
	}
}

type ListingInput struct {
	Title       string  `json:"title" validate:"required,max=120"`
	Description string  `json:"description" validate:"max=4000"`
	Category    string  `json:"category" validate:"required"`
	PriceBase   float64 `json:"price_base" validate:"required,gt=0"`
	Quantity    int     `json:"quantity" validate:"gte=0"`
}

func (uc *ListingUseCase) CreateListing(ctx context.Context, ownerID string, input ListingInput) (*entity.Listing, error) {
	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}

	listing := &entity.Listing{
		OwnerID:       ownerID,
		Title:         strings.TrimSpace(input.Title),
		Description:   input.Description,
		Category:      input.Category,
		PriceBase:     input.PriceBase,
		Quantity:      quantity,
		Images:        []entity.ListingImage{},
		Available:     true,
		RatedBy:       map[string]float64{},
		FlaggedBy:     []string{},
		FlaggedReason: []string{},
	}

	if err := uc.listingRepo.Create(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

// UpdateListing edits the catalogue fields. Rental and moderation state are left alone.
func (uc *ListingUseCase) UpdateListing(ctx context.Context, listingID, ownerID string, input ListingInput) (*entity.Listing, error) {
	return transactListing(ctx, uc.listingRepo, listingID, func(l *entity.Listing) error {
		if l.OwnerID != ownerID {
			return errors.Forbidden("You don't have permission to update this product", nil)
		}
		l.Title = strings.TrimSpace(input.Title)
		l.Description = input.Description
		l.Category = input.Category
		l.PriceBase = input.PriceBase
		if input.Quantity > 0 {
			l.Quantity = input.Quantity
		}
		return nil
	})
}

func (uc *ListingUseCase) GetListing(ctx context.Context, listingID string) (*entity.Listing, error) {
	return uc.listingRepo.GetByID(ctx, listingID)
}

// ListListings is the public catalogue: available listings only.
func (uc *ListingUseCase) ListListings(ctx context.Context, category string, limit, offset int) ([]*entity.Listing, int64, error) {
	return uc.listingRepo.List(ctx, repository.ListingFilter{Category: category, AvailableOnly: true}, limit, offset)
}

func (uc *ListingUseCase) ListMyListings(ctx context.Context, ownerID string, limit, offset int) ([]*entity.Listing, int64, error) {
	return uc.listingRepo.List(ctx, repository.ListingFilter{OwnerID: ownerID}, limit, offset)
}

// WatchListing streams the listing until ctx ends.
func (uc *ListingUseCase) WatchListing(ctx context.Context, listingID string) (<-chan *entity.Listing, error) {
	if _, err := uc.listingRepo.GetByID(ctx, listingID); err != nil {
		return nil, err
	}
	return uc.listingRepo.Watch(ctx, listingID)
}

// DeleteListing lets an owner remove a listing that has no rental in progress.
func (uc *ListingUseCase) DeleteListing(ctx context.Context, listingID, ownerID string) error {
	listing, err := uc.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return err
	}
	if listing.OwnerID != ownerID {
		return errors.Forbidden("You don't have permission to delete this product", nil)
	}
	if !listing.RentalStatus.IsIdle() {
		return errors.Aborted(MsgDeleteWhileRented)
	}

	if err := deleteListing(ctx, uc.listingRepo, uc.conversationRepo, listingID); err != nil {
		return err
	}
	uc.deleteImages(ctx, listing.Images)
	return nil
}

// AddImage uploads an image and appends it to the listing. The upload is removed again if the listing update fails.
func (uc *ListingUseCase) AddImage(ctx context.Context, listingID, ownerID string, file io.Reader, contentType string) (*entity.Listing, error) {
	if uc.files == nil {
		return nil, errors.BadRequest("File uploads are not configured", nil)
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, errors.BadRequest("Only image uploads are allowed", nil)
	}
	if err := allow(ctx, uc.limiter, ownerID, "upload"); err != nil {
		return nil, err
	}

	current, err := uc.listingRepo.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if current.OwnerID != ownerID {
		return nil, errors.Forbidden("You don't have permission to update this product", nil)
	}

	url, err := uc.files.UploadFile(ctx, file, contentType, "listings/"+listingID, true)
	if err != nil {
		return nil, errors.Internal("Failed to upload image", err)
	}

	listing, err := transactListing(ctx, uc.listingRepo, listingID, func(l *entity.Listing) error {
		if len(l.Images) >= maxListingImages {
			return errors.BadRequest("A product can have at most 8 images", nil)
		}
		l.Images = append(l.Images, entity.ListingImage{URL: url, DisplayOrder: len(l.Images)})
		return nil
	})
	if err != nil {
		uc.deleteImages(ctx, []entity.ListingImage{{URL: url}})
		return nil, err
	}
	return listing, nil
}

func (uc *ListingUseCase) deleteImages(ctx context.Context, images []entity.ListingImage) {
	if uc.files == nil {
		return
	}
	for _, img := range images {
		if err := uc.files.DeleteFile(ctx, img.URL); err != nil {
			logger.Warn("Failed to delete image %s: %v", img.URL, err)
		}
	}
}
