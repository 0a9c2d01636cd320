package entities

type CreateAreaRequest struct {
	Name        string `json:"name"`
	AreaType    string `json:"area_type"`
	Description string `json:"description"`
}

type CreateSpaceRequest struct {
	AreaID   int    `json:"area_id"`
	Label    string `json:"label"`
	Bookable bool   `json:"bookable"`
}

type SetBookableRequest struct {
	Bookable bool `json:"bookable"`
}

type SpaceResponse struct {
	ID       int    `json:"id"`
	AreaID   int    `json:"area_id"`
	Label    string `json:"label"`
	Bookable bool   `json:"bookable"`
}

type AvailableSpacesResponse struct {
	Date   string          `json:"date"`
	AreaID int             `json:"area_id,omitempty"`
	Spaces []SpaceResponse `json:"spaces"`
}
