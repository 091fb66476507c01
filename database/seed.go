package database

import (
	"cinema_ticketing/constants"
	"cinema_ticketing/model"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// NewPublicCode returns the short code printed on tickets.
func NewPublicCode() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:12])
}

func SeedData(db *gorm.DB, log *zap.Logger) {
	bytes, err := bcrypt.GenerateFromPassword([]byte("123456cn"), 10)
	if err != nil {
		log.Error("failed to hash seed password", zap.Error(err))
		return
	}
	hashPassword := string(bytes)

	customers := []model.Customer{
		{Email: "admin@cinema.local", UserName: "Administration", Password: hashPassword, Role: constants.ROLE_ADMIN, IsActive: true},
		{Email: "demo@cinema.local", UserName: "Demo", Password: hashPassword, Role: constants.ROLE_CUSTOMER, IsActive: true},
	}

	for _, customer := range customers {
		// Tạo mới nếu không tồn tại
		if err := db.Where(model.Customer{Email: customer.Email}).FirstOrCreate(&customer).Error; err != nil {
			log.Error("failed to seed customer", zap.String("email", customer.Email), zap.Error(err))
			continue
		}

		if customer.Role != constants.ROLE_CUSTOMER {
			continue
		}
		var count int64
		db.Model(&model.Booking{}).Where("customer_id = ?", customer.ID).Count(&count)
		if count > 0 {
			continue
		}
		booking := model.Booking{
			PublicCode:   NewPublicCode(),
			CustomerID:   &customer.ID,
			TotalPrice:   190_000,
			Status:       constants.BOOKING_PENDING,
			CustomerName: customer.UserName,
			Email:        customer.Email,
			Items: []model.BookingItem{
				{Kind: constants.ITEM_TICKET, Name: "Ghế G7", Quantity: 2, UnitPrice: 75_000},
				{Kind: constants.ITEM_PRODUCT, Name: "Combo bắp nước", Quantity: 1, UnitPrice: 40_000},
			},
		}
		if err := db.Create(&booking).Error; err != nil {
			log.Error("failed to seed booking", zap.String("email", customer.Email), zap.Error(err))
		}
	}
}
