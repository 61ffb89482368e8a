package cart

// Normalizer converts heterogeneous gateway payloads into canonical line
// items. Field resolution order is: flattened synonym on the entry itself,
// then the nested product sub-object, then a hard-coded default. The staging
// backend and its predecessor disagree on both nesting and field names, so
// the resolution table here is the single place that reconciles them.
type Normalizer struct {
	placeholderImage string
	defaultCategory  string
}

const (
	defaultPlaceholderImage = "/images/placeholder-product.png"
	defaultCategory         = "Uncategorized"
)

// NewNormalizer builds a normalizer with the given display defaults. Empty
// arguments fall back to the built-in defaults.
func NewNormalizer(placeholderImage, category string) *Normalizer {
	if placeholderImage == "" {
		placeholderImage = defaultPlaceholderImage
	}
	if category == "" {
		category = defaultCategory
	}
	return &Normalizer{
		placeholderImage: placeholderImage,
		defaultCategory:  category,
	}
}

// Normalize maps raw entries one-to-one, in order, into LineItems. It is pure
// and idempotent: an already-canonical list survives unchanged.
func (n *Normalizer) Normalize(raw []RawItem) []LineItem {
	if raw == nil {
		return nil
	}
	items := make([]LineItem, 0, len(raw))
	for _, entry := range raw {
		items = append(items, n.normalizeOne(entry))
	}
	return items
}

func (n *Normalizer) normalizeOne(entry RawItem) LineItem {
	product := entry.Product
	if product == nil {
		product = &RawProduct{}
	}

	item := LineItem{
		ItemID:    firstNonEmpty(entry.ItemID, entry.ID, product.ID),
		ProductID: firstNonEmpty(entry.ProductID, product.ID, entry.ItemID, entry.ID),
		Name:      firstNonEmpty(entry.ProductName, entry.Name, product.ProductName, product.Name),
		UnitPrice: ParsePrice(firstNonEmpty(entry.Price.String(), product.Price.String())),
		ImageRef:  firstNonEmpty(entry.ImageURL, entry.Image, product.ImageURL, product.Image, n.placeholderImage),
		Category:  firstNonEmpty(entry.Category, product.Category, n.defaultCategory),
		Quantity:  1,
		Required:  false,
		InStock:   true,
	}

	if entry.Quantity != nil && *entry.Quantity >= 1 {
		item.Quantity = *entry.Quantity
	}
	if flag := firstBool(entry.Required, product.Required); flag != nil {
		item.Required = *flag
	}
	if flag := firstBool(entry.InStock, product.InStock); flag != nil {
		item.InStock = *flag
	}

	return item
}

// Canonical renders a LineItem back into the flat raw shape. Feeding the
// result through Normalize reproduces the item exactly.
func Canonical(item LineItem) RawItem {
	qty := item.Quantity
	required := item.Required
	inStock := item.InStock
	return RawItem{
		ItemID:      item.ItemID,
		ProductID:   item.ProductID,
		ProductName: item.Name,
		Price:       FlexNumber(item.UnitPrice.String()),
		ImageURL:    item.ImageRef,
		Category:    item.Category,
		Quantity:    &qty,
		Required:    &required,
		InStock:     &inStock,
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstBool(values ...*bool) *bool {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}
