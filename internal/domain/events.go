package domain

// Event is a change notification published after a successful catalog mutation.
// Delivery is at-most-once and best-effort; subscribers must tolerate stale
// cache state and re-query on their own schedule.
type Event interface {
	Kind() string
}

// CategoryCreated is published after a new category is persisted
type CategoryCreated struct {
	Name string
}

// ProductUpserted is published after a product is inserted or its price updated
type ProductUpserted struct {
	Category string
	Product  string
	Price    float64
}

// CategoryRenamed is published after a category name change
type CategoryRenamed struct {
	Old string
	New string
}

// ProductRenamed is published after a product rename that affected at least one row
type ProductRenamed struct {
	Old string
	New string
}

func (CategoryCreated) Kind() string { return "category_created" }
func (ProductUpserted) Kind() string { return "product_upserted" }
func (CategoryRenamed) Kind() string { return "category_renamed" }
func (ProductRenamed) Kind() string  { return "product_renamed" }
