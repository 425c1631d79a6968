package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gosimple/slug"

	"github.com/sousadrivikis20-lab/Alugabv/internal/common"
)

type TransactionType string

const (
	TransactionSell TransactionType = "Sell"
	TransactionRent TransactionType = "Rent"
	TransactionBoth TransactionType = "Both"
)

var transactionAliases = map[string]TransactionType{
	"sell":    TransactionSell,
	"vender":  TransactionSell,
	"venda":   TransactionSell,
	"rent":    TransactionRent,
	"alugar":  TransactionRent,
	"aluguel": TransactionRent,
	"both":    TransactionBoth,
	"ambos":   TransactionBoth,
}

// ParseTransactionType accepts the canonical names and the Portuguese labels
// used by the client, case-insensitively.
func ParseTransactionType(s string) (TransactionType, error) {
	if tt, ok := transactionAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return tt, nil
	}
	return "", common.Validation(fmt.Sprintf("transactionType must be one of Sell, Rent, Both (got %q)", s))
}

func (t TransactionType) Valid() bool {
	return t == TransactionSell || t == TransactionRent || t == TransactionBoth
}

func (t TransactionType) forSale() bool { return t == TransactionSell || t == TransactionBoth }

func (t TransactionType) forRent() bool { return t == TransactionRent || t == TransactionBoth }

const (
	ContactWhatsApp = "whatsapp"
	ContactPhone    = "phone"
	ContactEmail    = "email"

	DefaultPropertyType = "House"
)

func ValidContactMethod(m string) bool {
	return m == ContactWhatsApp || m == ContactPhone || m == ContactEmail
}

// Icon keys understood by the client map.
const (
	IconHouse      = "house"
	IconApartment  = "apartment"
	IconPoolHouse  = "pool-house"
	IconFarm       = "farm"
	IconCommercial = "commercial"
	IconGeneric    = "generic"
)

var propertyIcons = map[string]string{
	"house":           IconHouse,
	"casa":            IconHouse,
	"apartment":       IconApartment,
	"apartamento":     IconApartment,
	"pool-house":      IconPoolHouse,
	"casa-de-piscina": IconPoolHouse,
	"farm":            IconFarm,
	"fazenda":         IconFarm,
	"commercial":      IconCommercial,
	"ponto-comercial": IconCommercial,
}

// PropertyIcon resolves the map icon for a free-text property type.
func PropertyIcon(propertyType string) string {
	if icon, ok := propertyIcons[slug.Make(propertyType)]; ok {
		return icon
	}
	return IconGeneric
}

type Coords struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// UnmarshalJSON accepts {"lat":..,"lng":..} and [lat, lng].
func (c *Coords) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var pair []float64
		if err := json.Unmarshal(data, &pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return errors.New("coords array must hold exactly [lat, lng]")
		}
		c.Lat, c.Lng = pair[0], pair[1]
		return nil
	}
	var obj struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	if obj.Lat == nil || obj.Lng == nil {
		return errors.New("coords must carry lat and lng")
	}
	c.Lat, c.Lng = *obj.Lat, *obj.Lng
	return nil
}

func ParseCoords(raw string) (Coords, error) {
	var c Coords
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return Coords{}, common.Validation("coords must be {\"lat\":..,\"lng\":..} or [lat,lng]")
	}
	return c, nil
}

func (c Coords) Validate() error {
	if c.Lat < -90 || c.Lat > 90 {
		return common.Validation("coords.lat must be between -90 and 90")
	}
	if c.Lng < -180 || c.Lng > 180 {
		return common.Validation("coords.lng must be between -180 and 180")
	}
	return nil
}

type Property struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Description     string          `json:"description"`
	ContactMethod   string          `json:"contactMethod"`
	Contact         string          `json:"contact"`
	TransactionType TransactionType `json:"transactionType"`
	PropertyType    string          `json:"propertyType"`
	Icon            string          `json:"icon"`
	SalePrice       *float64        `json:"salePrice"`
	RentalPrice     *float64        `json:"rentalPrice"`
	RentalPeriod    *string         `json:"rentalPeriod"`
	Coords          Coords          `json:"coords"`
	Neighborhood    *string         `json:"neighborhood"`
	OwnerID         string          `json:"ownerId"`
	OwnerUsername   string          `json:"ownerUsername"`
	OwnerEmail      *string         `json:"ownerEmail"`
	OwnerPhone      *string         `json:"ownerPhone"`
	Images          []string        `json:"images"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// ApplyDefaults fills the fields a new listing may omit.
func (p *Property) ApplyDefaults() {
	if p.ContactMethod == "" {
		p.ContactMethod = ContactWhatsApp
	}
	if p.TransactionType == "" {
		p.TransactionType = TransactionSell
	}
	if strings.TrimSpace(p.PropertyType) == "" {
		p.PropertyType = DefaultPropertyType
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	p.Icon = PropertyIcon(p.PropertyType)
}

// Validate checks the rules every stored listing satisfies.
func (p *Property) Validate() error {
	if err := requiredText("name", p.Name, 255); err != nil {
		return err
	}
	if strings.TrimSpace(p.Description) == "" {
		return common.Validation("description is required")
	}
	if !ValidContactMethod(p.ContactMethod) {
		return common.Validation("contactMethod must be one of whatsapp, phone, email")
	}
	if err := requiredText("contact", p.Contact, 100); err != nil {
		return err
	}
	if !p.TransactionType.Valid() {
		return common.Validation("transactionType must be one of Sell, Rent, Both")
	}
	if err := requiredText("propertyType", p.PropertyType, 50); err != nil {
		return err
	}
	if err := validPrice("salePrice", p.SalePrice); err != nil {
		return err
	}
	if err := validPrice("rentalPrice", p.RentalPrice); err != nil {
		return err
	}
	if p.TransactionType.forSale() && (p.SalePrice == nil || *p.SalePrice <= 0) {
		return common.Validation("salePrice must be greater than zero for Sell and Both listings")
	}
	if p.TransactionType.forRent() && (p.RentalPrice == nil || *p.RentalPrice <= 0) {
		return common.Validation("rentalPrice must be greater than zero for Rent and Both listings")
	}
	if p.RentalPrice != nil && (p.RentalPeriod == nil || strings.TrimSpace(*p.RentalPeriod) == "") {
		return common.Validation("rentalPeriod is required when a rental price is set")
	}
	if p.Neighborhood != nil && utf8.RuneCountInString(*p.Neighborhood) > 100 {
		return common.Validation("neighborhood must be at most 100 characters")
	}
	return p.Coords.Validate()
}

// MaxPrice is the first amount a NUMERIC(12,2) column cannot hold.
const MaxPrice = 1e10

func validPrice(field string, v *float64) error {
	if v == nil {
		return nil
	}
	switch {
	case math.IsNaN(*v) || math.IsInf(*v, 0):
		return common.Validation(field + " must be a finite number")
	case *v < 0:
		return common.Validation(field + " must not be negative")
	case *v >= MaxPrice:
		return common.Validation(field + " must be less than 10000000000")
	}
	return nil
}

func requiredText(field, value string, max int) error {
	if strings.TrimSpace(value) == "" {
		return common.Validation(field + " is required")
	}
	if utf8.RuneCountInString(value) > max {
		return common.Validation(fmt.Sprintf("%s must be at most %d characters", field, max))
	}
	return nil
}

// PropertyImages is the slice of a listing the account cascade needs.
type PropertyImages struct {
	ID     string
	Images []string
}
