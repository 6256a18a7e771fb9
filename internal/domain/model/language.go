package model

// Language mirrors an entry of the execution service's language registry.
type Language struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}
