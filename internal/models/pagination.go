package models

// Pagination is the window the backend reports for a list response
type Pagination struct {
	Page   int    `json:"page"`
	Limit  int    `json:"limit"`
	Pages  int    `json:"pages"`
	Total  int    `json:"total"`
	Search string `json:"search"`
}

// Page is the backend list envelope
type Page[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

// Summary is the dashboard counter set
type Summary struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}
