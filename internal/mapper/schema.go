// Package mapper maps arbitrary remote record fields onto the fixed
// canonical Community/Property schemas: suggesting a mapping from a
// sample record, validating required coverage, and applying a confirmed
// mapping with per-type coercion.
package mapper

// FieldType drives coercion when a mapping is applied.
type FieldType string

const (
	TypeText   FieldType = "text"
	TypeNumber FieldType = "number"
	// TypePrice is a number persisted as integer minor currency units.
	TypePrice FieldType = "price"
	// TypeArray is an ordered sequence of strings.
	TypeArray FieldType = "array"
)

// TargetField is one field of a canonical schema.
type TargetField struct {
	Key      string    `json:"key"`
	Label    string    `json:"label"`
	Type     FieldType `json:"type"`
	Required bool      `json:"required"`
}

// CommunityFields is the canonical Community schema. The schema is fixed
// and versioned independently of any remote site.
var CommunityFields = []TargetField{
	{Key: "name", Label: "Name", Type: TypeText, Required: true},
	{Key: "address", Label: "Address", Type: TypeText},
	{Key: "city", Label: "City", Type: TypeText},
	{Key: "state", Label: "State", Type: TypeText},
	{Key: "zip", Label: "ZIP", Type: TypeText},
	{Key: "phone", Label: "Phone", Type: TypeText},
	{Key: "email", Label: "Email", Type: TypeText},
	{Key: "description", Label: "Description", Type: TypeText},
	{Key: "amenities", Label: "Amenities", Type: TypeArray},
	{Key: "pet_policy", Label: "Pet Policy", Type: TypeText},
	{Key: "age_category", Label: "Age Category", Type: TypeText},
	{Key: "utilities_included", Label: "Utilities Included", Type: TypeText},
}

// PropertyFields is the canonical Property/Home schema.
var PropertyFields = []TargetField{
	{Key: "name", Label: "Name", Type: TypeText},
	{Key: "address", Label: "Address", Type: TypeText},
	{Key: "lot_number", Label: "Lot Number", Type: TypeText},
	{Key: "city", Label: "City", Type: TypeText},
	{Key: "state", Label: "State", Type: TypeText},
	{Key: "zip", Label: "ZIP", Type: TypeText},
	{Key: "price", Label: "Price", Type: TypePrice},
	{Key: "price_type", Label: "Price Type", Type: TypeText},
	{Key: "beds", Label: "Beds", Type: TypeNumber},
	{Key: "baths", Label: "Baths", Type: TypeNumber},
	{Key: "sqft", Label: "Square Feet", Type: TypeNumber},
	{Key: "year_built", Label: "Year Built", Type: TypeNumber},
	{Key: "manufacturer", Label: "Manufacturer", Type: TypeText},
	{Key: "model", Label: "Model", Type: TypeText},
	{Key: "lot_rent", Label: "Lot Rent", Type: TypePrice},
	{Key: "status", Label: "Status", Type: TypeText},
	{Key: "virtual_tour_url", Label: "Virtual Tour URL", Type: TypeText},
	{Key: "community_type", Label: "Community Type", Type: TypeText},
	{Key: "description", Label: "Description", Type: TypeText},
	{Key: "features", Label: "Features", Type: TypeArray},
}

// TargetFields returns the canonical schema for a kind ("community" or
// "home"). Unknown kinds get the community schema.
func TargetFields(kind string) []TargetField {
	if kind == "home" {
		return PropertyFields
	}
	return CommunityFields
}
