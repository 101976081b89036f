package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"eclipse_backend/internal/clients/repository"
	"eclipse_backend/internal/clients/service"
	"eclipse_backend/internal/clients/transport"
	pipelinetransport "eclipse_backend/internal/pipeline/transport"
	"eclipse_backend/platform/apperr"
	"eclipse_backend/platform/httpkit"
	"eclipse_backend/platform/validator"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type memoryRepo struct {
	clients map[string]repository.Client
}

func (r *memoryRepo) Create(_ context.Context, c repository.Client) error {
	r.clients[c.DocumentID] = c
	return nil
}

func (r *memoryRepo) GetByDocumentID(_ context.Context, _ uuid.UUID, id string) (repository.Client, error) {
	c, ok := r.clients[id]
	if !ok {
		return repository.Client{}, apperr.NotFound("client not found")
	}
	return c, nil
}

func (r *memoryRepo) List(context.Context, repository.ListParams) ([]repository.Client, int, error) {
	out := make([]repository.Client, 0, len(r.clients))
	for _, c := range r.clients {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (r *memoryRepo) Update(_ context.Context, c repository.Client) error {
	r.clients[c.DocumentID] = c
	return nil
}

func newTestEngine(t *testing.T) (*gin.Engine, *memoryRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	val := validator.New()
	if err := pipelinetransport.RegisterValidations(val); err != nil {
		t.Fatalf("register validations: %v", err)
	}
	repo := &memoryRepo{clients: make(map[string]repository.Client)}
	h := New(service.New(repo, "FR"), val)

	tenantID := uuid.New()
	engine := gin.New()
	group := engine.Group("/clients", func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, uuid.New())
		c.Set(httpkit.ContextTenantIDKey, tenantID)
		c.Next()
	})
	h.RegisterRoutes(group)
	return engine, repo
}

func serve(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	return rec
}

func TestCreateAndGetClient(t *testing.T) {
	engine, _ := newTestEngine(t)

	rec := serve(engine, http.MethodPost, "/clients", `{"documentId":"c1","name":"Studio Lumière","email":"hello@lumiere.fr"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = serve(engine, http.MethodGet, "/clients/c1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp transport.ClientResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Name != "Studio Lumière" || resp.PipelineStatus != "new" {
		t.Fatalf("unexpected client: %+v", resp)
	}
}

func TestCreateClientValidation(t *testing.T) {
	engine, _ := newTestEngine(t)

	rec := serve(engine, http.MethodPost, "/clients", `{"name":"","email":"not-an-email"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestGetUnknownClient(t *testing.T) {
	engine, _ := newTestEngine(t)

	rec := serve(engine, http.MethodGet, "/clients/missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestListClientsRejectsUnknownStatusFilter(t *testing.T) {
	engine, _ := newTestEngine(t)

	rec := serve(engine, http.MethodGet, "/clients?pipelineStatus=archived", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = serve(engine, http.MethodGet, "/clients?pipelineStatus=won&page=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestUpdateClient(t *testing.T) {
	engine, repo := newTestEngine(t)
	repo.clients["c1"] = repository.Client{DocumentID: "c1", Name: "Old"}

	rec := serve(engine, http.MethodPut, "/clients/c1", `{"name":"Renamed"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if repo.clients["c1"].Name != "Renamed" {
		t.Fatalf("expected rename to be stored, got %q", repo.clients["c1"].Name)
	}
}
