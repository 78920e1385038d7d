package database

import (
	"context"

	"bakery_manager/model"
	"bakery_manager/utils"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

func (s *Store) GetVariants(ctx context.Context, ids []uuid.UUID) ([]model.ProductVariant, error) {
	var variants []model.ProductVariant
	err := s.db.WithContext(ctx).
		Preload("Product").
		Where("id IN ?", ids).
		Find(&variants).Error
	return variants, err
}

func (s *Store) ListActiveProducts(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := s.db.WithContext(ctx).
		Preload("Variants", "is_available = ?", true).
		Where("is_active = ?", true).
		Order("category, name").
		Find(&products).Error
	return products, err
}

func (s *Store) ProductSlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.Product{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (s *Store) CreateProduct(ctx context.Context, product *model.Product) error {
	return duplicate(s.db.WithContext(ctx).Create(product).Error)
}

// FindTimeSlot looks up an available slot by day and window start ("HH:MM").
func (s *Store) FindTimeSlot(ctx context.Context, date utils.CustomDate, start string) (*model.TimeSlot, error) {
	var slot model.TimeSlot
	err := s.db.WithContext(ctx).
		Where("date = ? AND start_time = ? AND is_available = ?", date.String(), start, true).
		First(&slot).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &slot, nil
}

// ReserveTimeSlot claims one unit of capacity. It reports false when the slot filled up
// or closed in the meantime.
func (s *Store) ReserveTimeSlot(ctx context.Context, slotID uuid.UUID) (bool, error) {
	res := s.db.WithContext(ctx).Model(&model.TimeSlot{}).
		Where("id = ? AND is_available = ? AND current_orders < max_orders", slotID, true).
		Update("current_orders", gorm.Expr("current_orders + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// ReleaseTimeSlot returns capacity claimed for an order that was never created.
func (s *Store) ReleaseTimeSlot(ctx context.Context, slotID uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&model.TimeSlot{}).
		Where("id = ?", slotID).
		Update("current_orders", gorm.Expr("GREATEST(current_orders - 1, 0)")).Error
}

func (s *Store) ListTimeSlots(ctx context.Context, date utils.CustomDate) ([]model.TimeSlot, error) {
	var slots []model.TimeSlot
	err := s.db.WithContext(ctx).
		Where("date = ? AND is_available = ?", date.String(), true).
		Order("start_time").
		Find(&slots).Error
	return slots, err
}

func (s *Store) CreateTimeSlot(ctx context.Context, slot *model.TimeSlot) error {
	return duplicate(s.db.WithContext(ctx).Create(slot).Error)
}

// CloseElapsedTimeSlots marks slots dated before today as unavailable.
func (s *Store) CloseElapsedTimeSlots(ctx context.Context, today utils.CustomDate) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.TimeSlot{}).
		Where("date < ? AND is_available = ?", today.String(), true).
		Update("is_available", false)
	return res.RowsAffected, res.Error
}

func (s *Store) ActiveDeliveryZones(ctx context.Context) ([]model.DeliveryZone, error) {
	var zones []model.DeliveryZone
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("name").Find(&zones).Error
	return zones, err
}

func (s *Store) CreateDeliveryZone(ctx context.Context, zone *model.DeliveryZone) error {
	return s.db.WithContext(ctx).Create(zone).Error
}

func (s *Store) FindDiscountCode(ctx context.Context, code string) (*model.DiscountCode, error) {
	var discount model.DiscountCode
	err := s.db.WithContext(ctx).
		Where("code = ?", model.NormalizeDiscountCode(code)).
		First(&discount).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &discount, nil
}

func (s *Store) CreateDiscountCode(ctx context.Context, discount *model.DiscountCode) error {
	discount.Code = model.NormalizeDiscountCode(discount.Code)
	return duplicate(s.db.WithContext(ctx).Create(discount).Error)
}

func (s *Store) FindCustomerByEmail(ctx context.Context, email string) (*model.Customer, error) {
	var customer model.Customer
	err := s.db.WithContext(ctx).Where("email = ?", model.NormalizeEmail(email)).First(&customer).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &customer, nil
}

func (s *Store) GetCustomer(ctx context.Context, id uuid.UUID) (*model.Customer, error) {
	var customer model.Customer
	if err := s.db.WithContext(ctx).First(&customer, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &customer, nil
}

func (s *Store) CreateCustomer(ctx context.Context, customer *model.Customer) error {
	customer.Email = model.NormalizeEmail(customer.Email)
	return duplicate(s.db.WithContext(ctx).Create(customer).Error)
}

func (s *Store) GetSetting(ctx context.Context, key string) (*model.Setting, error) {
	var setting model.Setting
	if err := s.db.WithContext(ctx).First(&setting, "key = ?", key).Error; err != nil {
		return nil, notFound(err)
	}
	return &setting, nil
}

func (s *Store) SaveSetting(ctx context.Context, setting *model.Setting) error {
	return s.db.WithContext(ctx).Save(setting).Error
}
