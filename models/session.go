package models

import (
	"regexp"
	"strings"
	"time"
)

var phonePattern = regexp.MustCompile(`^\+?[1-9][0-9]{9,14}$`)

// NormalizePhone strips spaces and dashes people type between digit groups.
func NormalizePhone(s string) string {
	return strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(s))
}

// ValidPhoneNumber accepts 10 to 15 digit numbers with an optional leading +.
func ValidPhoneNumber(s string) bool {
	return phonePattern.MatchString(NormalizePhone(s))
}

// Role is one of the fixed user categories of the dashboard.
type Role string

const (
	RoleVendor          Role = "vendor"
	RoleSupplier        Role = "supplier"
	RoleAdmin           Role = "admin"
	RoleDeliveryPartner Role = "delivery-partner"
)

// AllRoles lists every role in display order.
var AllRoles = []Role{RoleVendor, RoleSupplier, RoleAdmin, RoleDeliveryPartner}

// ParseRole accepts the canonical role names plus "buyer" as an alias for vendor.
func ParseRole(s string) (Role, bool) {
	switch s {
	case "vendor", "buyer":
		return RoleVendor, true
	case "supplier":
		return RoleSupplier, true
	case "admin":
		return RoleAdmin, true
	case "delivery-partner", "delivery_partner", "delivery":
		return RoleDeliveryPartner, true
	}
	return "", false
}

// Identity is an authenticated user record.
type Identity struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	PhoneNumber string    `gorm:"uniqueIndex;not null" json:"phone_number"`
	Role        Role      `gorm:"type:varchar(32);not null" json:"role"`
	Location    string    `json:"location,omitempty"`
	AvatarRef   string    `json:"avatar_ref,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"-"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"-"`
}

// TableName pins the GORM table name.
func (Identity) TableName() string { return "identities" }

// Session is the identity echo kept for the lifetime of one signed-in client.
type Session struct {
	SessionID string    `json:"session_id"`
	Identity  Identity  `json:"identity"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SignInResponse is returned by sign-in and registration.
type SignInResponse struct {
	Token   string  `json:"token"`
	Session Session `json:"session"`
}

// RequestCodeRequest is the payload for POST /session/code.
type RequestCodeRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required,phone"`
}

// SignInRequest is the payload for POST /session.
type SignInRequest struct {
	PhoneNumber string `json:"phone_number" binding:"required,phone"`
	Code        string `json:"code" binding:"required"`
}

// RegisterRequest is the payload for POST /session/register.
type RegisterRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=100"`
	PhoneNumber string `json:"phone_number" binding:"required,phone"`
	Role        string `json:"role" binding:"required,role"`
	Location    string `json:"location" binding:"max=200"`
}

// AvatarUploadResponse carries a presigned upload target for the caller's avatar.
type AvatarUploadResponse struct {
	UploadURL string            `json:"upload_url"`
	Headers   map[string]string `json:"headers,omitempty"`
	AvatarRef string            `json:"avatar_ref"`
}

// AvatarUploadRequest is the payload for POST /session/avatar.
type AvatarUploadRequest struct {
	ContentType string `json:"content_type" binding:"required"`
}
