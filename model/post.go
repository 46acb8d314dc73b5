package model

import (
	"fmt"
	"strings"
)

type PostCategory string

const (
	CategoryGeneral PostCategory = "GENERAL"
	CategoryRecruit PostCategory = "RECRUIT"
	CategoryReview  PostCategory = "REVIEW"
)

// PostCategories lists categories in tab order.
var PostCategories = []PostCategory{CategoryGeneral, CategoryRecruit, CategoryReview}

func (c PostCategory) Label() string {
	switch c {
	case CategoryRecruit:
		return "Recruit"
	case CategoryReview:
		return "Review"
	default:
		return "General"
	}
}

// ParsePostCategory accepts a category name in any case.
func ParsePostCategory(raw string) (PostCategory, error) {
	value := PostCategory(strings.ToUpper(strings.TrimSpace(raw)))
	for _, c := range PostCategories {
		if c == value {
			return c, nil
		}
	}
	return "", fmt.Errorf("unknown post category %q", raw)
}

type Post struct {
	PostId     int          `json:"postId"`
	UserId     *int         `json:"userId,omitempty"`
	AuthorName string       `json:"authorName,omitempty"`
	Title      string       `json:"title"`
	Content    string       `json:"content"`
	Category   PostCategory `json:"category"`
	CreatedAt  string       `json:"createdAt,omitempty"`
	UpdatedAt  string       `json:"updatedAt,omitempty"`
}

// Author returns the author name, or "User <id>" when the API omitted it.
func (p Post) Author() string {
	if strings.TrimSpace(p.AuthorName) != "" {
		return p.AuthorName
	}
	if p.UserId != nil {
		return fmt.Sprintf("User %d", *p.UserId)
	}
	return "Unknown"
}

// FilterPosts matches title, content and author name case-insensitively.
func FilterPosts(posts []Post, query string) []Post {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return posts
	}
	var out []Post
	for _, p := range posts {
		if strings.Contains(strings.ToLower(p.Title), q) ||
			strings.Contains(strings.ToLower(p.Content), q) ||
			strings.Contains(strings.ToLower(p.AuthorName), q) {
			out = append(out, p)
		}
	}
	return out
}

type NewPost struct {
	Title    string       `json:"title"`
	Content  string       `json:"content"`
	Category PostCategory `json:"category"`
}
