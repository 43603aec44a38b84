package catalog

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/crownleather-backend/pkg/db/models"
	"github.com/angelmondragon/crownleather-backend/pkg/logger"
)

const placeholderImage = "/placeholder.svg"

type seedItem struct {
	id          int
	name        string
	price       int64
	category    string
	image       string
	description string
}

var storefrontItems = []seedItem{
	{1, "Classic Leather Handbag", 299, "Handbags", placeholderImage,
		"Elegant handcrafted leather handbag perfect for everyday use. Features premium Italian leather and gold-tone hardware."},
	{2, "Executive Briefcase", 449, "Bags", placeholderImage,
		"Professional leather briefcase with multiple compartments. Ideal for business professionals who value style and functionality."},
	{3, "Vintage Wallet", 89, "Wallets", "https://hstengineer.lon1.digitaloceanspaces.com/messages/hst-ai-79886222-72ca-4c74-aac9-100fe66e24ed/attachments/3dd0aa11-9b12-407e-863e-fa01c2b4d1e6.png",
		"Compact leather wallet with RFID protection. Features multiple card slots and a bill compartment."},
	{4, "Leather Belt", 79, "Accessories", placeholderImage,
		"Premium leather belt with reversible design. Available in black and brown with polished buckle."},
	{5, "Crossbody Bag", 199, "Handbags", placeholderImage,
		"Stylish crossbody bag perfect for travel. Features adjustable strap and secure zipper closure."},
	{6, "Card Holder", 45, "Wallets", placeholderImage,
		"Minimalist leather card holder. Slim design holds up to 8 cards with easy access."},
	{7, "Travel Duffel", 349, "Bags", placeholderImage,
		"Spacious leather duffel bag for weekend trips. Features reinforced handles and shoulder strap."},
	{8, "Key Fob", 29, "Accessories", placeholderImage,
		"Elegant leather key fob with metal ring. Perfect gift or personal accessory."},
}

const defaultSeedStock = 25

// SeedStorefront inserts the storefront items that are missing. Existing rows,
// including ones edited through the admin screens, are left alone.
func SeedStorefront(ctx context.Context, repo *Repository, logg *logger.Logger) error {
	now := time.Now().UTC()
	rows := make([]models.CatalogItem, 0, len(storefrontItems))
	for _, it := range storefrontItems {
		rows = append(rows, models.CatalogItem{
			ID:          it.id,
			Name:        it.name,
			Price:       decimal.NewFromInt(it.price),
			Category:    it.category,
			Image:       it.image,
			Description: it.description,
			Stock:       defaultSeedStock,
			IsActive:    true,
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	added, err := repo.InsertMissing(ctx, rows)
	if err != nil {
		return err
	}
	if logg != nil && added > 0 {
		logg.Info(logg.WithField(ctx, "added", added), "catalog seeded")
	}
	return nil
}
