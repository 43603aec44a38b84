package orders

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/crownleather-backend/pkg/db/models"
	"github.com/angelmondragon/crownleather-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/crownleather-backend/pkg/errors"
)

const topProductsLimit = 5

// Tier buckets customers by lifetime spend.
type Tier string

const (
	TierBronze Tier = "Bronze"
	TierSilver Tier = "Silver"
	TierGold   Tier = "Gold"
	TierVIP    Tier = "VIP"
)

var (
	vipThreshold    = decimal.NewFromInt(1000)
	goldThreshold   = decimal.NewFromInt(500)
	silverThreshold = decimal.NewFromInt(200)
)

func TierFor(spent decimal.Decimal) Tier {
	switch {
	case spent.GreaterThanOrEqual(vipThreshold):
		return TierVIP
	case spent.GreaterThanOrEqual(goldThreshold):
		return TierGold
	case spent.GreaterThanOrEqual(silverThreshold):
		return TierSilver
	default:
		return TierBronze
	}
}

type CustomerSummary struct {
	IdentityID    string
	Email         string
	FirstName     string
	LastName      string
	JoinedAt      time.Time
	TotalOrders   int64
	TotalSpent    decimal.Decimal
	LastOrderDate *time.Time
	Tier          Tier
}

type ProductSales struct {
	CatalogItemID int
	Name          string
	UnitsSold     int64
	Revenue       decimal.Decimal
}

// SalesSummary aggregates the whole order history. Cancelled orders count
// toward TotalOrders and OrdersByStatus but not toward revenue.
type SalesSummary struct {
	TotalRevenue      decimal.Decimal
	TotalOrders       int64
	TotalCustomers    int64
	AverageOrderValue decimal.Decimal
	OrdersByStatus    map[enums.OrderStatus]int64
	TopProducts       []ProductSales
}

type CustomerSummaryDTO struct {
	ID            string     `json:"id"`
	Email         string     `json:"email"`
	FirstName     string     `json:"firstName"`
	LastName      string     `json:"lastName"`
	JoinedAt      time.Time  `json:"joinedAt"`
	TotalOrders   int64      `json:"totalOrders"`
	TotalSpent    string     `json:"totalSpent"`
	LastOrderDate *time.Time `json:"lastOrderDate"`
	Tier          Tier       `json:"tier"`
}

type ProductSalesDTO struct {
	CatalogItemID int    `json:"catalogItemId"`
	Name          string `json:"name"`
	Sales         int64  `json:"sales"`
	Revenue       string `json:"revenue"`
}

type SalesSummaryDTO struct {
	TotalRevenue      string                      `json:"totalRevenue"`
	TotalOrders       int64                       `json:"totalOrders"`
	TotalCustomers    int64                       `json:"totalCustomers"`
	AverageOrderValue string                      `json:"averageOrderValue"`
	OrdersByStatus    map[enums.OrderStatus]int64 `json:"ordersByStatus"`
	TopProducts       []ProductSalesDTO           `json:"topProducts"`
}

func (c CustomerSummary) DTO() CustomerSummaryDTO {
	return CustomerSummaryDTO{
		ID:            c.IdentityID,
		Email:         c.Email,
		FirstName:     c.FirstName,
		LastName:      c.LastName,
		JoinedAt:      c.JoinedAt,
		TotalOrders:   c.TotalOrders,
		TotalSpent:    c.TotalSpent.StringFixed(2),
		LastOrderDate: c.LastOrderDate,
		Tier:          c.Tier,
	}
}

func (s SalesSummary) DTO() SalesSummaryDTO {
	top := make([]ProductSalesDTO, 0, len(s.TopProducts))
	for _, p := range s.TopProducts {
		top = append(top, ProductSalesDTO{
			CatalogItemID: p.CatalogItemID,
			Name:          p.Name,
			Sales:         p.UnitsSold,
			Revenue:       p.Revenue.StringFixed(2),
		})
	}
	return SalesSummaryDTO{
		TotalRevenue:      s.TotalRevenue.StringFixed(2),
		TotalOrders:       s.TotalOrders,
		TotalCustomers:    s.TotalCustomers,
		AverageOrderValue: s.AverageOrderValue.StringFixed(2),
		OrdersByStatus:    s.OrdersByStatus,
		TopProducts:       top,
	}
}

// CustomerSummaries lists every customer with order totals, newest sign-ups first.
func (s *service) CustomerSummaries(ctx context.Context) ([]CustomerSummary, error) {
	var (
		customers []models.Identity
		totals    []identityTotals
		lasts     []identityLastOrder
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		customers, err = s.repo.customers(gctx)
		return err
	})
	g.Go(func() (err error) {
		totals, err = s.repo.totalsByIdentity(gctx)
		return err
	})
	g.Go(func() (err error) {
		lasts, err = s.repo.lastOrders(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load customer summaries")
	}

	byIdentity := make(map[string]identityTotals, len(totals))
	for _, t := range totals {
		byIdentity[t.IdentityID] = t
	}
	lastByIdentity := make(map[string]time.Time, len(lasts))
	for _, l := range lasts {
		lastByIdentity[l.IdentityID] = l.CreatedAt
	}

	out := make([]CustomerSummary, 0, len(customers))
	for _, c := range customers {
		t := byIdentity[c.ID]
		summary := CustomerSummary{
			IdentityID:  c.ID,
			Email:       c.Email,
			FirstName:   c.FirstName,
			LastName:    c.LastName,
			JoinedAt:    c.CreatedAt,
			TotalOrders: t.OrderCount,
			TotalSpent:  t.TotalSpent.Round(2),
			Tier:        TierFor(t.TotalSpent),
		}
		if last, ok := lastByIdentity[c.ID]; ok {
			summary.LastOrderDate = &last
		}
		out = append(out, summary)
	}
	return out, nil
}

func (s *service) SalesSummary(ctx context.Context) (SalesSummary, error) {
	var (
		revenue   revenueRow
		statuses  []statusCount
		top       []productSales
		customers []models.Identity
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		revenue, err = s.repo.revenue(gctx)
		return err
	})
	g.Go(func() (err error) {
		statuses, err = s.repo.statusCounts(gctx)
		return err
	})
	g.Go(func() (err error) {
		top, err = s.repo.topProducts(gctx, topProductsLimit)
		return err
	})
	g.Go(func() (err error) {
		customers, err = s.repo.customers(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return SalesSummary{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load sales summary")
	}

	summary := SalesSummary{
		TotalRevenue:      revenue.Revenue.Round(2),
		TotalCustomers:    int64(len(customers)),
		AverageOrderValue: decimal.Zero,
		OrdersByStatus:    make(map[enums.OrderStatus]int64, len(statuses)),
		TopProducts:       make([]ProductSales, 0, len(top)),
	}
	for _, sc := range statuses {
		summary.OrdersByStatus[sc.Status] = sc.Count
		summary.TotalOrders += sc.Count
	}
	if revenue.Orders > 0 {
		summary.AverageOrderValue = revenue.Revenue.Div(decimal.NewFromInt(revenue.Orders)).Round(2)
	}
	for _, p := range top {
		summary.TopProducts = append(summary.TopProducts, ProductSales{
			CatalogItemID: p.CatalogItemID,
			Name:          p.Name,
			UnitsSold:     p.Units,
			Revenue:       p.Revenue.Round(2),
		})
	}
	return summary, nil
}
