package models

import (
	"time"
)

// Booking statuses.
const (
	BookingStatusPending   = "pending"
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
)

// Booking approval statuses.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// Booking is a travel reservation. It is a primary entity of its own, but is
// also created as a side effect when an inquiry is assigned with booking
// creation requested.
//
// Older documents predate PackageDetails and carry a flat Price/Currency pair
// instead; the invoice renderer accepts both shapes.
type Booking struct {
	ID             string          `bson:"_id,omitempty" json:"id,omitempty"`
	InquiryID      string          `bson:"inquiry_id,omitempty" json:"inquiryId,omitempty"`
	PackageName    string          `bson:"package_name" json:"packageName"`
	PackageDetails *PackageDetails `bson:"package_details,omitempty" json:"packageDetails,omitempty"`
	CustomerName   string          `bson:"customer_name" json:"customerName"`
	CustomerEmail  string          `bson:"customer_email" json:"customerEmail"`
	CustomerPhone  string          `bson:"customer_phone,omitempty" json:"customerPhone,omitempty"`
	AgentID        string          `bson:"agent_id,omitempty" json:"agentId,omitempty"`
	Status         string          `bson:"status" json:"status"`
	ApprovalStatus string          `bson:"approval_status" json:"approvalStatus"`
	Travellers     int             `bson:"travellers,omitempty" json:"travellers,omitempty"`
	Price          float64         `bson:"price,omitempty" json:"price,omitempty"`       // legacy flat shape
	Currency       string          `bson:"currency,omitempty" json:"currency,omitempty"` // legacy flat shape
	CreatedAt      time.Time       `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time       `bson:"updated_at" json:"updatedAt"`
	Deleted        bool            `bson:"deleted" json:"-"` // Soft delete flag
}
