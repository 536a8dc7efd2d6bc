package models

// PhoneOperator is an Egyptian mobile carrier keyed by its 3-digit prefix.
type PhoneOperator struct {
	Code string `json:"code" db:"code"`
	Name string `json:"name" db:"name"`
}

// PropertyType is a catalog row; TypeCode is what the extractor produces.
type PropertyType struct {
	ID          int64  `json:"id" db:"id"`
	TypeCode    string `json:"type_code" db:"type_code"`
	NameArabic  string `json:"name_arabic" db:"name_arabic"`
	NameEnglish string `json:"name_english" db:"name_english"`
	IsActive    bool   `json:"is_active" db:"is_active"`
}

// Area is a catalog row. The import pipeline matches areas but never creates them.
type Area struct {
	ID          int64  `json:"id" db:"id"`
	NameArabic  string `json:"name_arabic" db:"name_arabic"`
	NameEnglish string `json:"name_english" db:"name_english"`
	City        string `json:"city" db:"city"`
	District    string `json:"district" db:"district"`
}

// Property type codes, in extractor priority order.
const (
	TypeApartment = "apartment"
	TypeVilla     = "villa"
	TypeLand      = "land"
	TypeOffice    = "office"
	TypeWarehouse = "warehouse"
	TypeShop      = "shop"
	TypeBuilding  = "building"
)

// Catalog holds the read-only reference tables, in catalog (id) order.
type Catalog struct {
	PhoneOperators []PhoneOperator `json:"phone_operators"`
	PropertyTypes  []PropertyType  `json:"property_types"`
	Areas          []Area          `json:"areas"`
}

func (c *Catalog) PropertyTypeByCode(code string) *PropertyType {
	for i := range c.PropertyTypes {
		if c.PropertyTypes[i].TypeCode == code {
			return &c.PropertyTypes[i]
		}
	}
	return nil
}

func (c *Catalog) PropertyTypeByID(id int64) *PropertyType {
	for i := range c.PropertyTypes {
		if c.PropertyTypes[i].ID == id {
			return &c.PropertyTypes[i]
		}
	}
	return nil
}

func (c *Catalog) AreaByID(id int64) *Area {
	for i := range c.Areas {
		if c.Areas[i].ID == id {
			return &c.Areas[i]
		}
	}
	return nil
}

// SeedCatalog returns the fixed reference data loaded at initialization.
// The Arabic/English pairs are UI labels and must not change.
func SeedCatalog() *Catalog {
	return &Catalog{
		PhoneOperators: []PhoneOperator{
			{Code: "010", Name: "Vodafone"},
			{Code: "011", Name: "Etisalat"},
			{Code: "012", Name: "Orange"},
			{Code: "015", Name: "WE"},
		},
		PropertyTypes: []PropertyType{
			{ID: 1, TypeCode: TypeApartment, NameArabic: "شقة", NameEnglish: "Apartment", IsActive: true},
			{ID: 2, TypeCode: TypeVilla, NameArabic: "فيلا", NameEnglish: "Villa", IsActive: true},
			{ID: 3, TypeCode: TypeLand, NameArabic: "أرض", NameEnglish: "Land", IsActive: true},
			{ID: 4, TypeCode: TypeOffice, NameArabic: "مكتب", NameEnglish: "Office", IsActive: true},
			{ID: 5, TypeCode: TypeWarehouse, NameArabic: "مخزن", NameEnglish: "Warehouse", IsActive: true},
			{ID: 6, TypeCode: TypeShop, NameArabic: "محل", NameEnglish: "Shop", IsActive: true},
			{ID: 7, TypeCode: TypeBuilding, NameArabic: "عمارة", NameEnglish: "Building", IsActive: true},
		},
		Areas: []Area{
			{ID: 1, NameArabic: "المعادي", NameEnglish: "Maadi", City: "القاهرة", District: "جنوب القاهرة"},
			{ID: 2, NameArabic: "مدينة نصر", NameEnglish: "Nasr City", City: "القاهرة", District: "شرق القاهرة"},
			{ID: 3, NameArabic: "مصر الجديدة", NameEnglish: "Heliopolis", City: "القاهرة", District: "شرق القاهرة"},
			{ID: 4, NameArabic: "الزمالك", NameEnglish: "Zamalek", City: "القاهرة", District: "غرب القاهرة"},
			{ID: 5, NameArabic: "التجمع الخامس", NameEnglish: "Fifth Settlement", City: "القاهرة الجديدة", District: "التجمع"},
			{ID: 6, NameArabic: "الشيخ زايد", NameEnglish: "Sheikh Zayed", City: "الجيزة", District: "غرب الجيزة"},
			{ID: 7, NameArabic: "6 أكتوبر", NameEnglish: "6th of October", City: "الجيزة", District: "غرب الجيزة"},
			{ID: 8, NameArabic: "الدقي", NameEnglish: "Dokki", City: "الجيزة", District: "شمال الجيزة"},
			{ID: 9, NameArabic: "المهندسين", NameEnglish: "Mohandessin", City: "الجيزة", District: "شمال الجيزة"},
			{ID: 10, NameArabic: "الرحاب", NameEnglish: "Rehab", City: "القاهرة الجديدة", District: "الرحاب"},
		},
	}
}
