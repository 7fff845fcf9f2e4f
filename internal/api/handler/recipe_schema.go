package handler

// recipeRequest is the non-file part of the multipart create and update
// forms. Ingredients is a comma separated list.
type recipeRequest struct {
	Title        string `form:"title"        json:"title"        validate:"required"`
	Ingredients  string `form:"ingredients"  json:"ingredients"`
	Instructions string `form:"instructions" json:"instructions"`
	YoutubeLink  string `form:"youtubeLink"  json:"youtubeLink"  validate:"omitempty,weblink"`
}

type messageResponse struct {
	Message string `json:"message"`
}
