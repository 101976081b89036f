package transport

import (
	"time"

	"github.com/google/uuid"
)

// ── Requests ──────────────────────────────────────────────────────────────────

// CreateClientRequest is the request body for creating a client
type CreateClientRequest struct {
	DocumentID string `json:"documentId" validate:"omitempty,max=100"`
	Name       string `json:"name" validate:"required,min=1,max=200"`
	Email      string `json:"email" validate:"omitempty,email,max=320"`
	Phone      string `json:"phone" validate:"omitempty,max=50"`
	Company    string `json:"company" validate:"omitempty,max=200"`
}

// UpdateClientRequest is the request body for updating a client. Omitted fields are kept.
type UpdateClientRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=200"`
	Email   *string `json:"email" validate:"omitempty,email,max=320"`
	Phone   *string `json:"phone" validate:"omitempty,max=50"`
	Company *string `json:"company" validate:"omitempty,max=200"`
}

// ListClientsRequest holds the query parameters of GET /clients
type ListClientsRequest struct {
	PipelineStatus string `form:"pipelineStatus" validate:"omitempty,pipeline_status"`
	Search         string `form:"search" validate:"max=200"`
	Page           int    `form:"page" validate:"omitempty,min=1"`
	PageSize       int    `form:"pageSize" validate:"omitempty,min=1,max=100"`
}

// ── Responses ─────────────────────────────────────────────────────────────────

// ClientResponse is the wire form of a client
type ClientResponse struct {
	ID                  uuid.UUID `json:"id"`
	DocumentID          string    `json:"documentId"`
	Name                string    `json:"name"`
	Email               *string   `json:"email,omitempty"`
	Phone               *string   `json:"phone,omitempty"`
	Company             *string   `json:"company,omitempty"`
	PipelineStatus      string    `json:"pipelineStatus"`
	PipelineStatusLabel string    `json:"pipelineStatusLabel"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// ClientListResponse is a page of clients
type ClientListResponse struct {
	Items      []ClientResponse `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalPages int              `json:"totalPages"`
}
