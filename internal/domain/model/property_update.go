package model

// Optional distinguishes "not supplied" from a supplied zero value.
type Optional[T any] struct {
	Value T
	Set   bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Value: v, Set: true}
}

// PropertyUpdate is a partial listing update. Only set fields are written.
// Images, when set, replaces the stored list.
type PropertyUpdate struct {
	Name            Optional[string]
	Description     Optional[string]
	ContactMethod   Optional[string]
	Contact         Optional[string]
	TransactionType Optional[TransactionType]
	PropertyType    Optional[string]
	SalePrice       Optional[*float64]
	RentalPrice     Optional[*float64]
	RentalPeriod    Optional[*string]
	Neighborhood    Optional[*string]
	Coords          Optional[Coords]
	Images          Optional[[]string]
}

func (u PropertyUpdate) IsEmpty() bool {
	return !u.Name.Set && !u.Description.Set && !u.ContactMethod.Set && !u.Contact.Set &&
		!u.TransactionType.Set && !u.PropertyType.Set && !u.SalePrice.Set && !u.RentalPrice.Set &&
		!u.RentalPeriod.Set && !u.Neighborhood.Set && !u.Coords.Set && !u.Images.Set
}

// ApplyTo merges the set fields into p.
func (u PropertyUpdate) ApplyTo(p *Property) {
	if u.Name.Set {
		p.Name = u.Name.Value
	}
	if u.Description.Set {
		p.Description = u.Description.Value
	}
	if u.ContactMethod.Set {
		p.ContactMethod = u.ContactMethod.Value
	}
	if u.Contact.Set {
		p.Contact = u.Contact.Value
	}
	if u.TransactionType.Set {
		p.TransactionType = u.TransactionType.Value
	}
	if u.PropertyType.Set {
		p.PropertyType = u.PropertyType.Value
		p.Icon = PropertyIcon(p.PropertyType)
	}
	if u.SalePrice.Set {
		p.SalePrice = u.SalePrice.Value
	}
	if u.RentalPrice.Set {
		p.RentalPrice = u.RentalPrice.Value
	}
	if u.RentalPeriod.Set {
		p.RentalPeriod = u.RentalPeriod.Value
	}
	if u.Neighborhood.Set {
		p.Neighborhood = u.Neighborhood.Value
	}
	if u.Coords.Set {
		p.Coords = u.Coords.Value
	}
	if u.Images.Set {
		p.Images = u.Images.Value
	}
}
