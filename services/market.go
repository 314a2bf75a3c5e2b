package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cppla/sigil/models"
	"github.com/cppla/sigil/utils"
)

// ListTitleForSale moves an unlocked title from the user into a new
// active listing.
func (s *Service) ListTitleForSale(ctx context.Context, uid uint, achievementID string, price int) (*models.MarketListing, error) {
	a, ok := s.registry.Get(achievementID)
	if !ok {
		return nil, ErrAchievementNotFound
	}
	if !a.IsTitle {
		return nil, ErrNotTitle
	}
	if price <= 0 {
		return nil, invalid("price must be positive")
	}
	var listing models.MarketListing
	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		var row models.UserAchievement
		err := lockForUpdate(tx).Where("user_id = ? AND achievement_id = ?", uid, achievementID).First(&row).Error
		if err != nil {
			return notFound(err, ErrTitleNotHeld)
		}
		if row.State != models.AchievementUnlocked {
			return ErrTitleNotHeld
		}
		if err := tx.Model(&row).Update("state", models.AchievementTraded).Error; err != nil {
			return err
		}
		listing = models.MarketListing{
			ID:            uuid.NewString(),
			SellerID:      uid,
			AchievementID: achievementID,
			Price:         price,
			Status:        models.ListingActive,
		}
		return tx.Create(&listing).Error
	})
	if err != nil {
		return nil, err
	}
	utils.Sugar.Infow("title listed", "listing_id", listing.ID, "seller_id", uid, "achievement_id", achievementID, "price", price)
	return &listing, nil
}

// PurchaseTitle buys an active listing: shards move from buyer to seller
// and the title lands in the buyer's unlocked set.
func (s *Service) PurchaseTitle(ctx context.Context, buyerID uint, listingID string) (*models.MarketListing, error) {
	var listing models.MarketListing
	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&listing, "id = ?", listingID).Error; err != nil {
			return notFound(err, ErrListingNotFound)
		}
		if listing.Status != models.ListingActive {
			return ErrListingUnavailable
		}
		if listing.SellerID == buyerID {
			return ErrSelfPurchase
		}

		// lock both wallets in id order
		first, second := buyerID, listing.SellerID
		if second < first {
			first, second = second, first
		}
		users := map[uint]*models.User{}
		for _, id := range []uint{first, second} {
			u, err := lockUser(tx, id)
			if err != nil {
				return err
			}
			users[id] = u
		}
		buyer := users[buyerID]

		var held models.UserAchievement
		err := lockForUpdate(tx).Where("user_id = ? AND achievement_id = ?", buyerID, listing.AchievementID).First(&held).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			held = models.UserAchievement{UserID: buyerID, AchievementID: listing.AchievementID}
		case err != nil:
			return err
		case held.State != models.AchievementTraded:
			return ErrAlreadyOwned
		default:
			// traded while the buyer's own listing is still open
			var open int64
			if err := tx.Model(&models.MarketListing{}).
				Where("seller_id = ? AND achievement_id = ? AND status = ?", buyerID, listing.AchievementID, models.ListingActive).
				Count(&open).Error; err != nil {
				return err
			}
			if open > 0 {
				return ErrTitleListed
			}
		}
		if buyer.AetherShards < listing.Price {
			return ErrInsufficientShards
		}

		if err := tx.Model(&models.User{}).Where("id = ?", buyerID).
			Update("aether_shards", gorm.Expr("aether_shards - ?", listing.Price)).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", listing.SellerID).
			Update("aether_shards", gorm.Expr("aether_shards + ?", listing.Price)).Error; err != nil {
			return err
		}
		held.State = models.AchievementUnlocked
		if err := tx.Save(&held).Error; err != nil {
			return err
		}
		listing.Status = models.ListingSold
		listing.BuyerID = &buyerID
		return tx.Model(&listing).Updates(map[string]interface{}{
			"status":   listing.Status,
			"buyer_id": buyerID,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	utils.Sugar.Infow("title purchased", "listing_id", listingID, "buyer_id", buyerID, "price", listing.Price)
	return &listing, nil
}

// CancelListing withdraws an active listing and returns the title to the seller.
func (s *Service) CancelListing(ctx context.Context, uid uint, listingID string) (*models.MarketListing, error) {
	var listing models.MarketListing
	err := s.withRetry(ctx, func(tx *gorm.DB) error {
		if err := lockForUpdate(tx).First(&listing, "id = ?", listingID).Error; err != nil {
			return notFound(err, ErrListingNotFound)
		}
		if listing.SellerID != uid {
			return ErrListingNotFound
		}
		if listing.Status != models.ListingActive {
			return ErrListingUnavailable
		}
		if err := tx.Model(&models.UserAchievement{}).
			Where("user_id = ? AND achievement_id = ?", uid, listing.AchievementID).
			Update("state", models.AchievementUnlocked).Error; err != nil {
			return err
		}
		listing.Status = models.ListingCancelled
		return tx.Model(&listing).Update("status", listing.Status).Error
	})
	if err != nil {
		return nil, err
	}
	return &listing, nil
}

// ListActiveListings returns open listings, newest first.
func (s *Service) ListActiveListings(ctx context.Context) ([]models.MarketListing, error) {
	var out []models.MarketListing
	err := s.db.WithContext(ctx).Where("status = ?", models.ListingActive).Order("created_at DESC").Find(&out).Error
	return out, err
}
