package database

import (
	"encoding/json"
	"log/slog"
	"time"

	"bakery_manager/constants"
	"bakery_manager/model"
	"bakery_manager/utils"

	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var seedWindows = []struct {
	start, end, label string
}{
	{"09:00", "11:00", "9:00 AM - 11:00 AM"},
	{"11:00", "13:00", "11:00 AM - 1:00 PM"},
	{"13:00", "15:00", "1:00 PM - 3:00 PM"},
	{"15:00", "17:00", "3:00 PM - 5:00 PM"},
}

// SeedData creates the admin account, a starter catalog and the next week of time slots.
// Existing rows are left alone.
func SeedData(db *gorm.DB, log *slog.Logger) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hearthstone-admin"), bcrypt.DefaultCost)
	if err != nil {
		log.Error("hash seed password", "err", err)
		return
	}
	admin := model.Customer{
		Email:    "admin@hearthstone.example",
		FullName: "Hearthstone Admin",
		Password: string(hash),
		Role:     constants.ROLE_ADMIN,
	}
	if err := db.Where(model.Customer{Email: admin.Email}).FirstOrCreate(&admin).Error; err != nil {
		log.Error("seed admin", "err", err)
	}

	products := []model.Product{
		{Name: "Sourdough Loaf", Category: "bread", Description: "Naturally leavened, 24 hour ferment.", Variants: []model.ProductVariant{
			{Name: "Regular", Price: decimal.RequireFromString("8.50"), StockQuantity: utils.Ptr(40)},
		}},
		{Name: "Croissant", Category: "pastry", Description: "Laminated butter croissant.", Variants: []model.ProductVariant{
			{Name: "Single", Price: decimal.RequireFromString("4.25")},
			{Name: "Box of 6", Price: decimal.RequireFromString("22.00")},
		}},
		{Name: "Celebration Cake", Category: "cake", Description: "Vanilla sponge with berry compote.", Variants: []model.ProductVariant{
			{Name: "6 inch", Price: decimal.RequireFromString("38.00"), StockQuantity: utils.Ptr(8)},
			{Name: "8 inch", Price: decimal.RequireFromString("52.00"), StockQuantity: utils.Ptr(6)},
		}},
	}
	for _, p := range products {
		p.Slug = slug.Make(p.Name)
		p.IsActive = true
		for i := range p.Variants {
			p.Variants[i].IsAvailable = true
		}
		var existing model.Product
		if err := db.Where("slug = ?", p.Slug).First(&existing).Error; err == nil {
			continue
		}
		if err := db.Create(&p).Error; err != nil {
			log.Error("seed product", "product", p.Name, "err", err)
		}
	}

	zones := []model.DeliveryZone{
		{
			Name:                  "Downtown",
			ZipCodes:              datatypes.JSONSlice[string]{"97201", "97204", "97205"},
			MinimumOrder:          decimal.RequireFromString("20.00"),
			DeliveryFee:           decimal.RequireFromString("5.00"),
			FreeDeliveryThreshold: decimal.NewNullDecimal(decimal.RequireFromString("75.00")),
			EstimatedTime:         "30-45 min",
			IsActive:              true,
		},
		{
			Name:          "Eastside",
			ZipCodes:      datatypes.JSONSlice[string]{"97214", "97215", "97232"},
			MinimumOrder:  decimal.RequireFromString("30.00"),
			DeliveryFee:   decimal.RequireFromString("8.00"),
			EstimatedTime: "45-60 min",
			IsActive:      true,
		},
	}
	for _, z := range zones {
		if err := db.Where(model.DeliveryZone{Name: z.Name}).FirstOrCreate(&z).Error; err != nil {
			log.Error("seed zone", "zone", z.Name, "err", err)
		}
	}

	welcome := model.DiscountCode{
		Code:     "WELCOME10",
		Type:     model.DiscountPercentage,
		Value:    decimal.NewFromInt(10),
		IsActive: true,
	}
	if err := db.Where(model.DiscountCode{Code: welcome.Code}).FirstOrCreate(&welcome).Error; err != nil {
		log.Error("seed discount code", "err", err)
	}

	today := utils.NewCustomDate(time.Now())
	for d := 0; d < 7; d++ {
		date := utils.NewCustomDate(today.AddDate(0, 0, d))
		for _, w := range seedWindows {
			slot := model.TimeSlot{
				Date:        date,
				StartTime:   w.start,
				EndTime:     w.end,
				Label:       w.label,
				MaxOrders:   10,
				IsAvailable: true,
			}
			err := db.Where("date = ? AND start_time = ?", date.String(), w.start).
				Attrs(slot).
				FirstOrCreate(&slot).Error
			if err != nil {
				log.Error("seed time slot", "date", date.String(), "start", w.start, "err", err)
			}
		}
	}

	value, err := json.Marshal(model.DefaultBusinessSettings())
	if err != nil {
		log.Error("encode default settings", "err", err)
		return
	}
	setting := model.Setting{Key: model.SettingBusiness, Value: datatypes.JSON(value)}
	if err := db.Where(model.Setting{Key: setting.Key}).FirstOrCreate(&setting).Error; err != nil {
		log.Error("seed settings", "err", err)
	}
	log.Info("seed data ready")
}
