package model

import (
	"github.com/tidwall/gjson"
)

// Product is a record of the products source. The ID is assigned upstream on creation.
type Product struct {
	ID   string             `json:"id,omitempty"`
	Name string             `json:"name"`
	Data *ProductAttributes `json:"data"`
}

// ProductAttributes is the free-form attribute bag of a Product.
// Values are kept as text; nothing is validated locally.
type ProductAttributes struct {
	Year         string `json:"year"`
	Price        string `json:"price"`
	CPUModel     string `json:"CPU_model"`
	HardDiskSize string `json:"Hard_disk_size"`
}

// attributeKeys lists the accepted spellings for each attribute, preferred first.
// The products source stores whatever the creator sent, so seeded records use
// spaced keys while records created here use underscores.
var attributeKeys = struct {
	year, price, cpu, disk []string
}{
	year:  []string{"year"},
	price: []string{"price"},
	cpu:   []string{"CPU_model", "CPU model"},
	disk:  []string{"Hard_disk_size", "Hard disk size"},
}

// UnmarshalJSON decodes attributes leniently: numbers and booleans become their
// literal text and unknown keys are ignored. A data block that is not an
// object decodes to empty attributes so one odd record never hides the rest.
func (a *ProductAttributes) UnmarshalJSON(data []byte) error {
	res := gjson.ParseBytes(data)
	if !res.IsObject() {
		*a = ProductAttributes{}
		return nil
	}

	fields := res.Map()
	*a = ProductAttributes{
		Year:         firstText(fields, attributeKeys.year),
		Price:        firstText(fields, attributeKeys.price),
		CPUModel:     firstText(fields, attributeKeys.cpu),
		HardDiskSize: firstText(fields, attributeKeys.disk),
	}
	return nil
}

func firstText(fields map[string]gjson.Result, keys []string) string {
	for _, key := range keys {
		v, ok := fields[key]
		if !ok || v.Type == gjson.Null {
			continue
		}
		return v.String()
	}
	return ""
}

// Attributes returns the attribute bag, never nil.
func (p Product) Attributes() ProductAttributes {
	if p.Data == nil {
		return ProductAttributes{}
	}
	return *p.Data
}

// ProductDraft is the uncommitted add-product form state.
type ProductDraft struct {
	Name         string
	Year         string
	Price        string
	CPUModel     string
	HardDiskSize string
}

// Product converts the draft into the create payload.
func (d ProductDraft) Product() Product {
	return Product{
		Name: d.Name,
		Data: &ProductAttributes{
			Year:         d.Year,
			Price:        d.Price,
			CPUModel:     d.CPUModel,
			HardDiskSize: d.HardDiskSize,
		},
	}
}

// IsZero reports whether every draft field is empty.
func (d ProductDraft) IsZero() bool {
	return d == ProductDraft{}
}
