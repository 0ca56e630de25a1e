package dto

import "encoding/json"

type CreateBlogRequest struct {
	Name   string  `json:"name" validate:"required,min=1,max=255"`
	Artiom *string `json:"artiom" validate:"omitempty,max=255"`
}

type UpdateBlogRequest struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=255"`
	Artiom *string `json:"artiom" validate:"omitempty,max=255"`
}

type CreatePostRequest struct {
	Title     string  `json:"title" validate:"required,min=1,max=255"`
	Content   string  `json:"content" validate:"required"`
	BlogID    *string `json:"blogId" validate:"omitempty,uuid"`
	Published *bool   `json:"published"`
}

type UpdatePostRequest struct {
	Title     *string `json:"title" validate:"omitempty,min=1,max=255"`
	Content   *string `json:"content"`
	BlogID    *string `json:"blogId" validate:"omitempty,uuid"`
	Published *bool   `json:"published"`
}

type CreateProductRequest struct {
	Name        string          `json:"name" validate:"required,min=1,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	Price       string          `json:"price" validate:"required,numeric"`
	SKU         string          `json:"sku" validate:"required,min=1,max=100"`
	InStock     *bool           `json:"inStock"`
	Category    string          `json:"category" validate:"max=100"`
	Attributes  json.RawMessage `json:"attributes"`
}

type UpdateProductRequest struct {
	Name        *string         `json:"name" validate:"omitempty,min=1,max=200"`
	Description *string         `json:"description" validate:"omitempty,max=5000"`
	Price       *string         `json:"price" validate:"omitempty,numeric"`
	SKU         *string         `json:"sku" validate:"omitempty,min=1,max=100"`
	InStock     *bool           `json:"inStock"`
	Category    *string         `json:"category" validate:"omitempty,max=100"`
	Attributes  json.RawMessage `json:"attributes"`
}

// CronStatus describes one scheduled job
type CronStatus struct {
	Name        string  `json:"name"`
	Schedule    string  `json:"schedule"`
	IsRunning   bool    `json:"isRunning"`
	IsBusy      bool    `json:"isBusy"`
	NextRun     *string `json:"nextRun"`
	PreviousRun *string `json:"previousRun"`
	LastResult  any     `json:"lastResult,omitempty"`
	LastError   string  `json:"lastError,omitempty"`
}
