package models

// Defaults applied when a client omits a variant attribute. The storefront
// sells apparel, so every line has a size and a color even when the product
// page never asked for one.
const (
	DefaultSize  = "M"
	DefaultColor = "Blue"
)

// ItemKey identifies one cart line. Two lines with the same product but a
// different size or color are distinct entries.
type ItemKey struct {
	ProductID string `json:"product_id"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// Normalize fills variant defaults so that lookups done with a partial key
// still match lines stored with defaulted attributes.
func (k ItemKey) Normalize() ItemKey {
	if k.Size == "" {
		k.Size = DefaultSize
	}
	if k.Color == "" {
		k.Color = DefaultColor
	}
	return k
}

type CartItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"unit_price"`
	Quantity  int     `json:"quantity"`
	Size      string  `json:"size"`
	Color     string  `json:"color"`
	ImageRef  string  `json:"image_ref"`
}

// Normalize applies variant defaults once, at the store boundary, so call
// sites do not each have to default size/color consistently.
func (i CartItem) Normalize() CartItem {
	if i.Size == "" {
		i.Size = DefaultSize
	}
	if i.Color == "" {
		i.Color = DefaultColor
	}
	return i
}

func (i CartItem) Key() ItemKey {
	return ItemKey{ProductID: i.ProductID, Size: i.Size, Color: i.Color}.Normalize()
}

type Cart struct {
	UserID string     `json:"user_id"`
	Items  []CartItem `json:"items"`
}

// FindItem returns the index of the line matching key, or -1.
func (c *Cart) FindItem(key ItemKey) int {
	key = key.Normalize()
	for i, item := range c.Items {
		if item.Key() == key {
			return i
		}
	}
	return -1
}

// Totals is the derived price breakdown for a set of cart lines.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Shipping float64 `json:"shipping"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}
