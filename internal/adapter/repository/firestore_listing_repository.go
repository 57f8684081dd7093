package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"rentalhub/internal/domain/entity"
	"rentalhub/internal/domain/repository"
	"rentalhub/pkg/errors"
	"rentalhub/pkg/logger"
)

const listingsCollection = "products"

type firestoreListingRepository struct {
	client *firestore.Client
}

func NewFirestoreListingRepository(client *firestore.Client) repository.ListingRepository {
	return &firestoreListingRepository{
		client: client,
	}
}

func (r *firestoreListingRepository) Create(ctx context.Context, listing *entity.Listing) error {
	if listing.ID == "" {
		doc := r.client.Collection(listingsCollection).NewDoc()
		listing.ID = doc.ID
	}

	now := time.Now()
	if listing.CreatedAt.IsZero() {
		listing.CreatedAt = now
	}
	listing.UpdatedAt = now
	listing.ReportCount = len(listing.FlaggedBy)

	_, err := r.client.Collection(listingsCollection).Doc(listing.ID).Create(ctx, listing)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return errors.Conflict("Product already exists")
		}
		return errors.Internal("Failed to create product", err)
	}

	return nil
}

func (r *firestoreListingRepository) GetByID(ctx context.Context, id string) (*entity.Listing, error) {
	doc, err := r.client.Collection(listingsCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Product", err)
		}
		return nil, errors.Internal("Failed to get product", err)
	}

	var listing entity.Listing
	if err := doc.DataTo(&listing); err != nil {
		return nil, errors.Internal("Failed to parse product data", err)
	}
	listing.ID = doc.Ref.ID

	return &listing, nil
}

func (r *firestoreListingRepository) Transact(ctx context.Context, id string, fn repository.ListingMutation) (*entity.Listing, error) {
	docRef := r.client.Collection(listingsCollection).Doc(id)

	return transactDocument(ctx, r.client, docRef, func(listing *entity.Listing) error {
		listing.ID = id
		return fn(listing)
	}, func(listing *entity.Listing) {
		listing.ReportCount = len(listing.FlaggedBy)
		listing.UpdatedAt = time.Now()
	}, "Failed to update product")
}

func (r *firestoreListingRepository) Delete(ctx context.Context, id string) error {
	_, err := r.client.Collection(listingsCollection).Doc(id).Delete(ctx)
	if err != nil {
		return errors.Internal("Failed to delete product", err)
	}
	return nil
}

func (r *firestoreListingRepository) List(ctx context.Context, filter repository.ListingFilter, limit, offset int) ([]*entity.Listing, int64, error) {
	query := r.client.Collection(listingsCollection).Query

	if filter.OwnerID != "" {
		query = query.Where("ownerId", "==", filter.OwnerID)
	}
	if filter.Category != "" {
		query = query.Where("category", "==", filter.Category)
	}
	if filter.AvailableOnly {
		query = query.Where("available", "==", true)
	}
	if filter.Flagged != nil {
		query = query.Where("flagged", "==", *filter.Flagged)
	}
	if filter.Reported {
		query = query.Where("reportCount", ">", 0).OrderBy("reportCount", firestore.Desc)
	} else {
		query = query.OrderBy("createdAt", firestore.Desc)
	}

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, 0, errors.Internal("Failed to count products", err)
	}
	total := int64(len(allDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	listings, err := r.collect(query.Documents(ctx))
	if err != nil {
		return nil, 0, err
	}
	return listings, total, nil
}

func (r *firestoreListingRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*entity.Listing, error) {
	query := r.client.Collection(listingsCollection).Where("ownerId", "==", ownerID)
	return r.collect(query.Documents(ctx))
}

func (r *firestoreListingRepository) Watch(ctx context.Context, id string) (<-chan *entity.Listing, error) {
	snapshots := r.client.Collection(listingsCollection).Doc(id).Snapshots(ctx)
	out := make(chan *entity.Listing, 1)

	go func() {
		defer close(out)
		defer snapshots.Stop()

		for {
			snap, err := snapshots.Next()
			if err != nil {
				if status.Code(err) != codes.Canceled && ctx.Err() == nil {
					logger.Warn("Listing watch %s ended: %v", id, err)
				}
				return
			}
			if !snap.Exists() {
				return
			}

			var listing entity.Listing
			if err := snap.DataTo(&listing); err != nil {
				logger.Error("Failed to parse product %s from snapshot: %v", id, err)
				continue
			}
			listing.ID = snap.Ref.ID

			select {
			case out <- &listing:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (r *firestoreListingRepository) collect(iter *firestore.DocumentIterator) ([]*entity.Listing, error) {
	defer iter.Stop()

	var listings []*entity.Listing
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate products", err)
		}
		var listing entity.Listing
		if err := doc.DataTo(&listing); err != nil {
			return nil, errors.Internal("Failed to parse product data", err)
		}
		listing.ID = doc.Ref.ID
		listings = append(listings, &listing)
	}
	return listings, nil
}
