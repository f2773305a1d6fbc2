package items

// ItemInput is the payload for creating and editing an item.
type ItemInput struct {
	Title string `json:"title" validate:"required,max=255" example:"Buy milk"`
}
