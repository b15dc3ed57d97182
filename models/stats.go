package models

// UsageItem is the bead count for one colour code.
type UsageItem struct {
	Code  string `json:"code"`
	Hex   string `json:"hex"`
	Count int    `json:"count"`
}

// UsageStats summarises how many beads of each colour a pattern needs.
type UsageStats struct {
	Total   int         `json:"total"`
	Painted int         `json:"painted"`
	Empty   int         `json:"empty"`
	Unknown int         `json:"unknown"`
	Items   []UsageItem `json:"items"`
}
