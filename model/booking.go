package model

import "time"

// Booking is a customer's order of tickets and concession items. Its status
// only moves PENDING -> CONFIRMED or PENDING -> CANCELLED.
type Booking struct {
	DTO
	PublicCode   string        `gorm:"unique;size:20" json:"publicCode"`
	CustomerID   *uint         `gorm:"index" json:"customerId,omitempty"` // nil for guest checkout
	Customer     *Customer     `json:"-"`
	ShowtimeID   *uint         `json:"showtimeId,omitempty"`
	TotalPrice   float64       `gorm:"not null" json:"totalPrice"`
	Status       string        `gorm:"size:20;not null;default:PENDING;index" json:"status"`
	CustomerName string        `json:"customerName"`
	Email        string        `json:"email"`
	Phone        string        `json:"phone"`
	ConfirmedAt  *time.Time    `json:"confirmedAt,omitempty"`
	CancelledAt  *time.Time    `json:"cancelledAt,omitempty"`
	Items        []BookingItem `gorm:"foreignKey:BookingID" json:"items"`
}

type BookingItem struct {
	DTO
	BookingID uint    `gorm:"not null;index" json:"bookingId"`
	Kind      string  `gorm:"size:20;not null" json:"kind"` // TICKET, PRODUCT
	Name      string  `json:"name"`
	Quantity  int     `gorm:"not null;default:1" json:"quantity"`
	UnitPrice float64 `gorm:"not null" json:"unitPrice"`
}

type BookingResponse struct {
	ID           uint                  `json:"id"`
	PublicCode   string                `json:"publicCode"`
	Status       string                `json:"status"`
	TotalPrice   float64               `json:"totalPrice"`
	CustomerName string                `json:"customerName"`
	Email        string                `json:"email"`
	CreatedAt    time.Time             `json:"createdAt"`
	ConfirmedAt  *time.Time            `json:"confirmedAt,omitempty"`
	Items        []BookingItemResponse `json:"items"`
	QRCode       string                `json:"qrCode,omitempty"`
}

type BookingItemResponse struct {
	Kind      string  `json:"kind"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unitPrice"`
}

type FilterBooking struct {
	Status string `query:"status" validate:"omitempty,oneof=PENDING CONFIRMED CANCELLED"`
}
