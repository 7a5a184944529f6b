package domain

type Category struct {
	CategoryID string `dynamodbav:"category_id" json:"category_id"`
	Name       string `dynamodbav:"name"        json:"name"`
}

type CreateCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// HeroData is the homepage hero section, stored as a single settings
// document and edited from the dashboard.
type HeroData struct {
	Title       string `dynamodbav:"title"       json:"title"`
	Description string `dynamodbav:"description" json:"description"`
	ButtonText  string `dynamodbav:"button_text" json:"button_text"`
	ImageURL    string `dynamodbav:"image_url"   json:"image_url"`
}
