package models

// NewsArticle is one recent headline for a symbol as returned upstream.
type NewsArticle struct {
	Title         string `json:"title"`
	Text          string `json:"text"`
	Site          string `json:"site"`
	URL           string `json:"url"`
	PublishedDate string `json:"publishedDate"`
}
