package domain

// Category is a named grouping of products, unique by name
type Category struct {
	ID   int64  `json:"id" db:"id"`
	Name string `json:"name" db:"name"`
}

// Product is a priced item belonging to a category, unique by name within it
type Product struct {
	ID         int64   `json:"id" db:"id"`
	CategoryID int64   `json:"category_id" db:"category_id"`
	Name       string  `json:"name" db:"name"`
	Price      float64 `json:"price" db:"price"`
}

// SyncEntry maps a category name to its Discord forum thread and starter message
type SyncEntry struct {
	CategoryName string `json:"category_name" db:"category_name"`
	ThreadID     string `json:"thread_id" db:"thread_id"`
	MessageID    string `json:"message_id" db:"message_id"`
}

// Snapshot is a full in-memory copy of the catalog, replaced wholesale on reload
type Snapshot struct {
	Categories []Category
	Products   map[int64][]Product
}
