package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"querybox-relay/internal/model"
)

func TestEndpointRepo_Create(t *testing.T) {
	t.Run("should create with defaults", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		got := testEndpoint(t, repo, "countries")

		if got.ID == "" {
			t.Fatal("wanted: generated id\ngot: empty")
		}
		if got.Status != model.EndpointStatusActive {
			t.Fatalf("wanted: %q\ngot: %q", model.EndpointStatusActive, got.Status)
		}
		if got.EndpointType != model.EndpointTypeGraphQL {
			t.Fatalf("wanted: %q\ngot: %q", model.EndpointTypeGraphQL, got.EndpointType)
		}
		if got.Favorite {
			t.Fatal("wanted: favorite false\ngot: true")
		}
		if got.CreatedAt == "" || got.UpdatedAt == "" {
			t.Fatalf("wanted: timestamps\ngot: %q, %q", got.CreatedAt, got.UpdatedAt)
		}
	})

	t.Run("should leave config unset when none is given", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		created := testEndpoint(t, repo, "bare")

		var stored *string
		if err := repo.dbConn.Get(&stored, "SELECT config FROM endpoint WHERE id = ?", created.ID); err != nil {
			t.Fatalf("wanted: nil\ngot: %v", err)
		}
		if stored != nil {
			t.Fatalf("wanted: NULL config column\ngot: %q", *stored)
		}
		got, err := repo.GetEndpoint(created.ID)
		if err != nil {
			t.Fatalf("wanted: nil\ngot: %v", err)
		}
		if got.Config != nil {
			t.Fatalf("wanted: nil config\ngot: %+v", got.Config)
		}
		b, err := json.Marshal(got)
		if err != nil {
			t.Fatalf("wanted: nil\ngot: %v", err)
		}
		if strings.Contains(string(b), `"config"`) {
			t.Fatalf("wanted: no config key\ngot: %s", b)
		}
	})

	t.Run("should round-trip nested json", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		fav := true
		desc := "public API"
		dto := model.CreateEndpoint{
			Name:        "secured",
			Description: &desc,
			URL:         "https://api.example.test/graphql",
			Auth:        &model.AuthConfig{AuthType: model.AuthTypeBearer, Token: "t0k"},
			Config: &model.EndpointConfig{GraphQL: &model.GraphQLConfig{
				IntrospectionEnabled: true,
				SubscriptionURL:      "wss://api.example.test/graphql",
			}},
			Headers:  json.RawMessage(`{"X-Team":"core"}`),
			Tags:     []string{"prod", "public"},
			Favorite: &fav,
		}

		created, err := repo.CreateEndpoint(dto)
		if err != nil {
			t.Fatalf("wanted: nil\ngot: %v", err)
		}
		got, err := repo.GetEndpoint(created.ID)
		if err != nil {
			t.Fatalf("wanted: nil\ngot: %v", err)
		}

		if !reflect.DeepEqual(got.Auth, dto.Auth) {
			t.Fatalf("auth\nwanted: %+v\ngot: %+v", dto.Auth, got.Auth)
		}
		if got.Config == nil || !reflect.DeepEqual(*got.Config, *dto.Config) {
			t.Fatalf("config\nwanted: %+v\ngot: %+v", dto.Config, got.Config)
		}
		if string(got.Headers) != `{"X-Team":"core"}` {
			t.Fatalf("headers\nwanted: %s\ngot: %s", dto.Headers, got.Headers)
		}
		if !reflect.DeepEqual(got.Tags, dto.Tags) {
			t.Fatalf("tags\nwanted: %v\ngot: %v", dto.Tags, got.Tags)
		}
		if !got.Favorite || got.Description == nil || *got.Description != desc {
			t.Fatalf("wanted: favorite with description\ngot: %+v", got)
		}
	})

	t.Run("should reject invalid input", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		tests := []struct {
			name string
			dto  model.CreateEndpoint
		}{
			{"missing name", model.CreateEndpoint{URL: "https://x.test"}},
			{"missing url", model.CreateEndpoint{Name: "x"}},
			{"unknown type", model.CreateEndpoint{Name: "x", URL: "https://x.test", EndpointType: "soap"}},
			{"unknown auth", model.CreateEndpoint{Name: "x", URL: "https://x.test", Auth: &model.AuthConfig{AuthType: "magic"}}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := repo.CreateEndpoint(tt.dto)
				if !errors.Is(err, ErrInvalidArgument) {
					t.Fatalf("wanted: ErrInvalidArgument\ngot: %v", err)
				}
			})
		}
	})
}

func TestEndpointRepo_Get(t *testing.T) {
	t.Run("should return ErrNotFound", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		_, err := repo.GetEndpoint("missing")
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("wanted: ErrNotFound\ngot: %v", err)
		}
	})
}

func TestEndpointRepo_List(t *testing.T) {
	repo, teardown := setupTestDB(t)
	defer teardown()

	for i := range 25 {
		testEndpoint(t, repo, fmt.Sprintf("svc-%02d", i))
	}
	testEndpoint(t, repo, "alpha")

	t.Run("should paginate ordered by name", func(t *testing.T) {
		got, err := repo.ListEndpoints(model.EndpointFilter{})
		if err != nil {
			t.Fatalf("wanted: nil\ngot: %v", err)
		}
		if got.Total != 26 || got.Page != 1 || got.PerPage != 20 || got.TotalPages != 2 {
			t.Fatalf("wanted: total 26, page 1, perPage 20, totalPages 2\ngot: %+v", got)
		}
		if len(got.Items) != 20 || got.Items[0].Name != "alpha" {
			t.Fatalf("wanted: 20 items starting with alpha\ngot: %d items, first %q", len(got.Items), got.Items[0].Name)
		}
	})

	t.Run("should return the last page", func(t *testing.T) {
		got, err := repo.ListEndpoints(model.EndpointFilter{Pagination: model.PaginationParams{Page: 2}})
		if err != nil {
			t.Fatalf("wanted: nil\ngot: %v", err)
		}
		if len(got.Items) != 6 || got.Items[5].Name != "svc-24" {
			t.Fatalf("wanted: 6 items ending with svc-24\ngot: %d items", len(got.Items))
		}
	})

	t.Run("should clamp per page", func(t *testing.T) {
		got, err := repo.ListEndpoints(model.EndpointFilter{Pagination: model.PaginationParams{PerPage: 1000}})
		if err != nil {
			t.Fatalf("wanted: nil\ngot: %v", err)
		}
		if got.PerPage != 100 || len(got.Items) != 26 || got.TotalPages != 1 {
			t.Fatalf("wanted: perPage 100 with all 26 items\ngot: %+v", got)
		}
	})

	t.Run("should filter by name and url", func(t *testing.T) {
		got, err := repo.ListEndpoints(model.EndpointFilter{Name: "svc-1", URL: "example.test"})
		if err != nil {
			t.Fatalf("wanted: nil\ngot: %v", err)
		}
		if got.Total != 10 {
			t.Fatalf("wanted: 10 matches for svc-1\ngot: %d", got.Total)
		}
	})

	t.Run("should return empty items past the end", func(t *testing.T) {
		got, err := repo.ListEndpoints(model.EndpointFilter{Pagination: model.PaginationParams{Page: 9}})
		if err != nil {
			t.Fatalf("wanted: nil\ngot: %v", err)
		}
		if got.Items == nil || len(got.Items) != 0 {
			t.Fatalf("wanted: empty non-nil items\ngot: %v", got.Items)
		}
	})
}

func TestEndpointRepo_Update(t *testing.T) {
	t.Run("should update given fields only", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		e := testEndpoint(t, repo, "before")
		name := "after"
		status := model.EndpointStatusError
		fav := true

		got, err := repo.UpdateEndpoint(model.UpdateEndpoint{
			ID:       e.ID,
			Name:     &name,
			Status:   &status,
			Favorite: &fav,
			Tags:     []string{"x"},
		})
		if err != nil {
			t.Fatalf("wanted: nil\ngot: %v", err)
		}
		if got.Name != "after" || got.Status != model.EndpointStatusError || !got.Favorite {
			t.Fatalf("wanted: updated fields\ngot: %+v", got)
		}
		if got.URL != e.URL {
			t.Fatalf("wanted: url unchanged %q\ngot: %q", e.URL, got.URL)
		}
		if !reflect.DeepEqual(got.Tags, []string{"x"}) {
			t.Fatalf("wanted: [x]\ngot: %v", got.Tags)
		}
	})

	t.Run("should fail without fields", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		e := testEndpoint(t, repo, "same")
		_, err := repo.UpdateEndpoint(model.UpdateEndpoint{ID: e.ID})
		if !errors.Is(err, ErrNoFieldsToUpdate) {
			t.Fatalf("wanted: ErrNoFieldsToUpdate\ngot: %v", err)
		}
	})

	t.Run("should fail for missing endpoint", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		name := "x"
		_, err := repo.UpdateEndpoint(model.UpdateEndpoint{ID: "missing", Name: &name})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("wanted: ErrNotFound\ngot: %v", err)
		}
	})

	t.Run("should reject unknown status", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		e := testEndpoint(t, repo, "status")
		status := model.EndpointStatus("sleeping")
		_, err := repo.UpdateEndpoint(model.UpdateEndpoint{ID: e.ID, Status: &status})
		if !errors.Is(err, ErrInvalidArgument) {
			t.Fatalf("wanted: ErrInvalidArgument\ngot: %v", err)
		}
	})
}

func TestEndpointRepo_Delete(t *testing.T) {
	t.Run("should cascade to history", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		e := testEndpoint(t, repo, "doomed")
		if _, err := repo.CreateRequestHistory(model.CreateRequestHistory{EndpointID: e.ID, Method: model.MethodPost}); err != nil {
			t.Fatalf("creating history: %v", err)
		}

		if err := repo.DeleteEndpoint(e.ID); err != nil {
			t.Fatalf("wanted: nil\ngot: %v", err)
		}

		var n int
		if err := repo.dbConn.Get(&n, "SELECT COUNT(*) FROM request_history WHERE endpoint_id = ?", e.ID); err != nil {
			t.Fatalf("counting history: %v", err)
		}
		if n != 0 {
			t.Fatalf("wanted: 0 history rows\ngot: %d", n)
		}
	})

	t.Run("should return ErrNotFound", func(t *testing.T) {
		repo, teardown := setupTestDB(t)
		defer teardown()

		if err := repo.DeleteEndpoint("missing"); !errors.Is(err, ErrNotFound) {
			t.Fatalf("wanted: ErrNotFound\ngot: %v", err)
		}
	})
}
