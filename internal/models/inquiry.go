package models

import (
	"time"
)

// Inquiry statuses. "pending" and "in-progress" are the only labels with
// workflow semantics; agents may set any other label, all of which are
// treated as terminal.
const (
	InquiryStatusPending    = "pending"
	InquiryStatusInProgress = "in-progress"
)

// Inclusions captures the boolean service flags of a package.
type Inclusions struct {
	Breakfast bool `bson:"breakfast" json:"breakfast"`
	Dinner    bool `bson:"dinner" json:"dinner"`
	Visa      bool `bson:"visa" json:"visa"`
	Ticket    bool `bson:"ticket" json:"ticket"`
	Roundtrip bool `bson:"roundtrip" json:"roundtrip"`
	Ziyarat   bool `bson:"ziyarat" json:"ziyarat"`
	Guide     bool `bson:"guide" json:"guide"`
}

// PackageDetails describes the travel package an inquiry is about.
// Nights and Hotels are keyed by city name (e.g. "makkah", "madinah").
type PackageDetails struct {
	PackageName string            `bson:"package_name" json:"packageName"`
	PriceDouble float64           `bson:"price_double,omitempty" json:"priceDouble,omitempty"`
	PriceTriple float64           `bson:"price_triple,omitempty" json:"priceTriple,omitempty"`
	PriceQuad   float64           `bson:"price_quad,omitempty" json:"priceQuad,omitempty"`
	Currency    string            `bson:"currency,omitempty" json:"currency,omitempty"`
	Nights      map[string]int    `bson:"nights,omitempty" json:"nights,omitempty"`
	Hotels      map[string]string `bson:"hotels,omitempty" json:"hotels,omitempty"`
	Transport   string            `bson:"transport,omitempty" json:"transport,omitempty"`
	VisaService string            `bson:"visa_service,omitempty" json:"visaService,omitempty"`
	Inclusions  Inclusions        `bson:"inclusions" json:"inclusions"`
}

// InquiryResponse is a single reply appended to an inquiry thread.
type InquiryResponse struct {
	AuthorID   string    `bson:"author_id" json:"authorId"`
	AuthorName string    `bson:"author_name,omitempty" json:"authorName,omitempty"`
	Message    string    `bson:"message" json:"message"`
	CreatedAt  time.Time `bson:"created_at" json:"createdAt"`
}

// Inquiry is a customer lead. It exists in the store only once it has been
// assigned to an agent or submitted directly through the public endpoint.
//
// The _id is a 24-hex ObjectID string for store-created inquiries. Documents
// migrated from older deployments may carry a raw external identifier as
// their _id instead; the reconciliation dedup accounts for that.
type Inquiry struct {
	ID             string            `bson:"_id,omitempty" json:"id,omitempty"`
	ExternalID     string            `bson:"external_id,omitempty" json:"externalId,omitempty"`
	CustomerName   string            `bson:"customer_name" json:"customerName"`
	CustomerEmail  string            `bson:"customer_email" json:"customerEmail"`
	CustomerPhone  string            `bson:"customer_phone,omitempty" json:"customerPhone,omitempty"`
	Message        string            `bson:"message" json:"message"`
	PackageDetails *PackageDetails   `bson:"package_details,omitempty" json:"packageDetails"`
	Status         string            `bson:"status" json:"status"`
	AssignedAgent  *string           `bson:"assigned_agent,omitempty" json:"assignedAgent"`
	Responses      []InquiryResponse `bson:"responses,omitempty" json:"responses,omitempty"`
	CreatedAt      time.Time         `bson:"created_at" json:"createdAt"`
	UpdatedAt      time.Time         `bson:"updated_at" json:"updatedAt"`
}
