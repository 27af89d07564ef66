package models

// DetailSelection is the shopper's state on one product page that survives
// between requests: the view state, the chosen size and the stepper value.
type DetailSelection struct {
	State        string `json:"state"`
	SelectedSize string `json:"selectedSize,omitempty"`
	Quantity     int    `json:"quantity"`
}
