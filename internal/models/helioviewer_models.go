package models

// ClosestImageResponse represents the Helioviewer getClosestImage JSON response.
// The id is decoded separately because the API returns it as a string, a number
// or null depending on the data source.
type ClosestImageResponse struct {
	Date        string `json:"date"`
	Observatory string `json:"observatory"`
	Instrument  string `json:"instrument"`
	Detector    string `json:"detector"`
	Measurement string `json:"measurement"`
	Name        string `json:"name"`
}
