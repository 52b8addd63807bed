package extsource

import (
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/Abdullah7175/mustafabackend/internal/models"
)

// Record is one raw upstream inquiry before normalization.
type Record map[string]interface{}

// envelopeKeys are tried in order when the upstream response is an object
// rather than a bare array.
var envelopeKeys = []string{"data", "inquiries", "result"}

// DecodeEnvelope extracts the record list from an upstream response body.
// Accepted shapes: a bare JSON array, or an object wrapping the array under
// one of envelopeKeys.
func DecodeEnvelope(body []byte) ([]Record, error) {
	var records []Record
	if err := json.Unmarshal(body, &records); err == nil {
		return records, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to parse external inquiry response: %w", err)
	}
	for _, key := range envelopeKeys {
		raw, ok := envelope[key]
		if !ok {
			continue
		}
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, fmt.Errorf("failed to parse external inquiry response field %q: %w", key, err)
		}
		return records, nil
	}
	return []Record{}, nil
}

// fieldAliases maps each canonical field to the upstream names it may arrive
// under. Normalization consults this table only, so a new source shape is a
// one-line change here.
var fieldAliases = map[string][]string{
	"id":            {"id", "_id", "externalId", "external_id", "inquiryId", "inquiry_id"},
	"customerName":  {"customerName", "customer_name", "name", "fullName", "full_name"},
	"customerEmail": {"customerEmail", "customer_email", "email"},
	"customerPhone": {"customerPhone", "customer_phone", "phone", "mobile", "contact"},
	"message":       {"message", "msg", "description", "details"},
	"status":        {"status"},
	"createdAt":     {"createdAt", "created_at", "date"},
	"package":       {"packageDetails", "package_details", "package"},
	"packageName":   {"packageName", "package_name"},
	"priceDouble":   {"priceDouble", "price_double"},
	"priceTriple":   {"priceTriple", "price_triple"},
	"priceQuad":     {"priceQuad", "price_quad"},
	"currency":      {"currency"},
	"nights":        {"nights"},
	"hotels":        {"hotels"},
	"transport":     {"transport", "transportation"},
	"visaService":   {"visaService", "visa_service"},
	"breakfast":     {"breakfast"},
	"dinner":        {"dinner"},
	"visa":          {"visa"},
	"ticket":        {"ticket"},
	"roundtrip":     {"roundtrip", "roundTrip", "round_trip"},
	"ziyarat":       {"ziyarat"},
	"guide":         {"guide"},
}

// NormalizeRecord maps a raw upstream record into the canonical Inquiry
// shape. Returns ok=false when the record carries no usable identifier;
// such records cannot be deduplicated or assigned later, so they are dropped.
func NormalizeRecord(rec Record) (models.Inquiry, bool) {
	id := stringField(rec, "id")
	if id == "" {
		log.Printf("WARN: Dropping external inquiry record without identifier: %v", rec)
		return models.Inquiry{}, false
	}

	inq := models.Inquiry{
		ID:            id,
		ExternalID:    id,
		CustomerName:  stringField(rec, "customerName"),
		CustomerEmail: stringField(rec, "customerEmail"),
		CustomerPhone: stringField(rec, "customerPhone"),
		Message:       stringField(rec, "message"),
		Status:        stringField(rec, "status"),
	}
	if inq.Status == "" {
		inq.Status = models.InquiryStatusPending
	}
	if createdAt := stringField(rec, "createdAt"); createdAt != "" {
		if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
			inq.CreatedAt = t
		}
	}
	inq.PackageDetails = normalizePackage(rec)
	return inq, true
}

// normalizePackage builds PackageDetails from either a nested package object
// or flat top-level fields. A package is only reported when a package name
// resolves; everything else rides along with it.
func normalizePackage(rec Record) *models.PackageDetails {
	source := rec
	if nested, ok := rec[lookupAlias(rec, "package")].(map[string]interface{}); ok {
		source = Record(nested)
	}

	name := stringField(source, "packageName")
	if name == "" {
		return nil
	}

	pkg := &models.PackageDetails{
		PackageName: name,
		PriceDouble: floatField(source, "priceDouble"),
		PriceTriple: floatField(source, "priceTriple"),
		PriceQuad:   floatField(source, "priceQuad"),
		Currency:    stringField(source, "currency"),
		Nights:      intMapField(source, "nights"),
		Hotels:      stringMapField(source, "hotels"),
		Transport:   stringField(source, "transport"),
		VisaService: stringField(source, "visaService"),
		Inclusions: models.Inclusions{
			Breakfast: boolField(source, "breakfast"),
			Dinner:    boolField(source, "dinner"),
			Visa:      boolField(source, "visa"),
			Ticket:    boolField(source, "ticket"),
			Roundtrip: boolField(source, "roundtrip"),
			Ziyarat:   boolField(source, "ziyarat"),
			Guide:     boolField(source, "guide"),
		},
	}
	return pkg
}

// lookupAlias returns the first alias of the canonical field present in rec,
// or "" when none match.
func lookupAlias(rec Record, field string) string {
	for _, alias := range fieldAliases[field] {
		if _, ok := rec[alias]; ok {
			return alias
		}
	}
	return ""
}

func rawField(rec Record, field string) (interface{}, bool) {
	alias := lookupAlias(rec, field)
	if alias == "" {
		return nil, false
	}
	return rec[alias], true
}

func stringField(rec Record, field string) string {
	raw, ok := rawField(rec, field)
	if !ok {
		return ""
	}
	switch v := raw.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		// Some sources send numeric ids.
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

func floatField(rec Record, field string) float64 {
	raw, ok := rawField(rec, field)
	if !ok {
		return 0
	}
	switch v := raw.(type) {
	case float64:
		return v
	case string:
		var f float64
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%g", &f); err == nil {
			return f
		}
	}
	return 0
}

// boolField coerces the loose truthy encodings flat sources use: true, 1 and
// "1" all count as true.
func boolField(rec Record, field string) bool {
	raw, ok := rawField(rec, field)
	if !ok {
		return false
	}
	switch v := raw.(type) {
	case bool:
		return v
	case float64:
		return v == 1
	case string:
		return v == "1" || strings.EqualFold(v, "true")
	default:
		return false
	}
}

func intMapField(rec Record, field string) map[string]int {
	raw, ok := rawField(rec, field)
	if !ok {
		return nil
	}
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]int, len(obj))
	for k, v := range obj {
		switch n := v.(type) {
		case float64:
			out[k] = int(n)
		case string:
			var i int
			if _, err := fmt.Sscanf(n, "%d", &i); err == nil {
				out[k] = i
			}
		}
	}
	return out
}

func stringMapField(rec Record, field string) map[string]string {
	raw, ok := rawField(rec, field)
	if !ok {
		return nil
	}
	obj, ok := raw.(map[string]interface{})
	if !ok {
		return nil
	}
	out := make(map[string]string, len(obj))
	for k, v := range obj {
		if s, ok := v.(string); ok {
			out[k] = s
		}
	}
	return out
}
