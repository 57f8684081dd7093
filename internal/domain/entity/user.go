package entity

import (
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	KYCStatusNone     = "none"
	KYCStatusPending  = "pending"
	KYCStatusVerified = "verified"
	KYCStatusRejected = "rejected"
)

type User struct {
	ID          string `json:"id" firestore:"id"`
	Email       string `json:"email" firestore:"email"`
	DisplayName string `json:"display_name" firestore:"displayName"`
	Phone       string `json:"phone,omitempty" firestore:"phone,omitempty"`
	Role        string `json:"role" firestore:"role"`

	// KYC
	Verified     bool     `json:"verified" firestore:"verified"`
	KYCStatus    string   `json:"kyc_status" firestore:"kycStatus"`
	KYCDocuments []string `json:"kyc_documents" firestore:"kycDocuments"`

	// FlagCount only moves through moderation actions.
	FlagCount int `json:"flag_count" firestore:"flagCount"`

	FCMTokens []string `json:"-" firestore:"fcmTokens"`

	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.KYCDocuments != nil {
		c.KYCDocuments = append([]string(nil), u.KYCDocuments...)
	}
	if u.FCMTokens != nil {
		c.FCMTokens = append([]string(nil), u.FCMTokens...)
	}
	return &c
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
