package youtube

// oembedDTO es la respuesta de /oembed?format=json.
type oembedDTO struct {
	Title        string `json:"title"`
	AuthorName   string `json:"author_name"`
	ProviderName string `json:"provider_name"`
	ThumbnailURL string `json:"thumbnail_url"`
}
