package domain

// Department is a reference entity used to classify incidents.
type Department struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Location is a reference entity for where an incident occurred.
type Location struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Category is a reference entity for the kind of incident.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
