package reconcile

import "sort"

// Placeholder values returned for unknown cars.
const (
	UnknownCarName         = "Unknown Car"
	UnknownCarColor        = "#666666"
	UnknownCarManufacturer = "Unknown"
	UnknownCarClass        = "Unknown"
)

// PlaceholderCar is the record returned for an id the catalog does not know.
func PlaceholderCar(carID string) CarRecord {
	return CarRecord{
		ID:           carID,
		Name:         UnknownCarName,
		Color:        UnknownCarColor,
		Manufacturer: UnknownCarManufacturer,
		Class:        UnknownCarClass,
	}
}

// CarCatalog maps car ids to metadata. It is reference data: replaced in bulk
// or merged key by key, never partially invalidated.
type CarCatalog struct {
	cars map[string]CarRecord
}

// NewCarCatalog creates an empty catalog.
func NewCarCatalog() *CarCatalog {
	return &CarCatalog{cars: make(map[string]CarRecord)}
}

// ReplaceAll swaps in records as the whole catalog. Records without an id are
// skipped and counted in the return value.
func (c *CarCatalog) ReplaceAll(records []CarRecord) (skipped int) {
	next := make(map[string]CarRecord, len(records))
	for _, r := range records {
		if r.ID == "" {
			skipped++
			continue
		}
		next[r.ID] = r.clone()
	}
	c.cars = next
	return skipped
}

// MergePatch upserts each patch. Fields a patch leaves nil are untouched on
// existing cars; new cars start from an empty record.
func (c *CarCatalog) MergePatch(patches []CarPatch) (skipped int) {
	for _, p := range patches {
		if p.ID == "" {
			skipped++
			continue
		}

		car, ok := c.cars[p.ID]
		if !ok {
			car = CarRecord{ID: p.ID}
		} else {
			car = car.clone()
		}

		if p.Name != nil {
			car.Name = *p.Name
		}
		if p.Color != nil {
			car.Color = *p.Color
		}
		if p.Manufacturer != nil {
			car.Manufacturer = *p.Manufacturer
		}
		if p.Scale != nil {
			car.Scale = *p.Scale
		}
		if p.Class != nil {
			car.Class = *p.Class
		}
		if len(p.Features) > 0 {
			if car.Features == nil {
				car.Features = make(map[string]bool, len(p.Features))
			}
			for k, v := range p.Features {
				car.Features[k] = v
			}
		}

		c.cars[p.ID] = car
	}
	return skipped
}

// Lookup never fails: unknown ids get PlaceholderCar.
func (c *CarCatalog) Lookup(carID string) CarRecord {
	if car, ok := c.cars[carID]; ok {
		return car.clone()
	}
	return PlaceholderCar(carID)
}

// All returns every known car sorted by id.
func (c *CarCatalog) All() []CarRecord {
	out := make([]CarRecord, 0, len(c.cars))
	for _, car := range c.cars {
		out = append(out, car.clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of known cars.
func (c *CarCatalog) Len() int {
	return len(c.cars)
}
