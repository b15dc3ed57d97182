package models

import "time"

// Tag labels patterns. Count is the number of patterns carrying it and is
// only filled by listings.
type Tag struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Count     int       `json:"count"`
	CreatedAt time.Time `json:"createdAt"`
}

// TagCreateRequest is the body of POST /api/tags.
type TagCreateRequest struct {
	Name string `json:"name"`
}

func (r *TagCreateRequest) Validate() error {
	if err := ValidateTagName(r.Name); err != nil {
		return invalid("name", "must be between 1 and %d characters", MaxTagName)
	}
	return nil
}
