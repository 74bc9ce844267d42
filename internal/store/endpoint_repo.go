package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"querybox-relay/internal/model"
)

type endpointRow struct {
	ID           string  `db:"id"`
	Name         string  `db:"name"`
	Description  *string `db:"description"`
	EndpointType string  `db:"endpoint_type"`
	URL          string  `db:"url"`
	Status       string  `db:"status"`
	Auth         *string `db:"auth"`
	Config       *string `db:"config"`
	Headers      *string `db:"headers"`
	Favorite     bool    `db:"favorite"`
	Tags         *string `db:"tags"`
	CreatedAt    string  `db:"created_at"`
	UpdatedAt    string  `db:"updated_at"`
}

func (row *endpointRow) toModel() (*model.Endpoint, error) {
	e := &model.Endpoint{
		ID:           row.ID,
		Name:         row.Name,
		Description:  row.Description,
		EndpointType: model.EndpointType(row.EndpointType),
		URL:          row.URL,
		Status:       model.EndpointStatus(row.Status),
		Favorite:     row.Favorite,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
	if row.Auth != nil {
		e.Auth = &model.AuthConfig{}
		if err := json.Unmarshal([]byte(*row.Auth), e.Auth); err != nil {
			return nil, fmt.Errorf("decoding auth of endpoint %s: %w", row.ID, err)
		}
	}
	if row.Config != nil {
		e.Config = &model.EndpointConfig{}
		if err := json.Unmarshal([]byte(*row.Config), e.Config); err != nil {
			return nil, fmt.Errorf("decoding config of endpoint %s: %w", row.ID, err)
		}
	}
	if row.Headers != nil {
		e.Headers = json.RawMessage(*row.Headers)
	}
	if row.Tags != nil {
		if err := json.Unmarshal([]byte(*row.Tags), &e.Tags); err != nil {
			return nil, fmt.Errorf("decoding tags of endpoint %s: %w", row.ID, err)
		}
	}
	return e, nil
}

func marshalColumn(v any) (*string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	s := string(b)
	return &s, nil
}

// ListEndpoints returns one page of endpoints ordered by name.
// Name and URL filters match as substrings.
func (repo *Repository) ListEndpoints(filter model.EndpointFilter) (*model.Paginated[model.Endpoint], error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Name != "" {
		conditions = append(conditions, "name LIKE ?")
		args = append(args, "%"+filter.Name+"%")
	}
	if filter.URL != "" {
		conditions = append(conditions, "url LIKE ?")
		args = append(args, "%"+filter.URL+"%")
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := repo.dbConn.Get(&total, "SELECT COUNT(*) FROM endpoint"+where, args...); err != nil {
		return nil, fmt.Errorf("counting endpoints: %w", err)
	}

	p := filter.Pagination
	var rows []endpointRow
	query := "SELECT * FROM endpoint" + where + " ORDER BY name LIMIT ? OFFSET ?"
	if err := repo.dbConn.Select(&rows, query, append(args, p.Limit(), p.Offset())...); err != nil {
		return nil, fmt.Errorf("listing endpoints: %w", err)
	}

	items := make([]model.Endpoint, 0, len(rows))
	for i := range rows {
		e, err := rows[i].toModel()
		if err != nil {
			return nil, err
		}
		items = append(items, *e)
	}
	return model.NewPaginated(items, total, p), nil
}

// GetEndpoint returns the endpoint with id, or ErrNotFound.
func (repo *Repository) GetEndpoint(id string) (*model.Endpoint, error) {
	var row endpointRow
	err := repo.dbConn.Get(&row, "SELECT * FROM endpoint WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("endpoint %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting endpoint %s: %w", id, err)
	}
	return row.toModel()
}

// CreateEndpoint inserts a new active endpoint and returns it.
func (repo *Repository) CreateEndpoint(dto model.CreateEndpoint) (*model.Endpoint, error) {
	if strings.TrimSpace(dto.Name) == "" || strings.TrimSpace(dto.URL) == "" {
		return nil, fmt.Errorf("name and url are required: %w", ErrInvalidArgument)
	}
	endpointType := model.EndpointTypeGraphQL
	if dto.EndpointType != "" {
		t, err := model.ParseEndpointType(string(dto.EndpointType))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
		endpointType = t
	}
	if dto.Auth != nil && !dto.Auth.AuthType.Valid() {
		return nil, fmt.Errorf("unknown auth type %q: %w", dto.Auth.AuthType, ErrInvalidArgument)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("creating uuid: %w", err)
	}

	var auth, config, tags *string
	if dto.Auth != nil {
		if auth, err = marshalColumn(dto.Auth); err != nil {
			return nil, fmt.Errorf("encoding auth: %w", err)
		}
	}
	if dto.Config != nil {
		if config, err = marshalColumn(dto.Config); err != nil {
			return nil, fmt.Errorf("encoding config: %w", err)
		}
	}
	if dto.Tags != nil {
		if tags, err = marshalColumn(dto.Tags); err != nil {
			return nil, fmt.Errorf("encoding tags: %w", err)
		}
	}
	favorite := dto.Favorite != nil && *dto.Favorite

	query := `INSERT INTO endpoint (id, name, description, endpoint_type, url, status, auth, config, headers, favorite, tags)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = repo.dbConn.Exec(query,
		id.String(), dto.Name, dto.Description, string(endpointType), dto.URL,
		string(model.EndpointStatusActive), auth, config, nullableJSON(dto.Headers), favorite, tags,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting endpoint: %w", err)
	}

	return repo.GetEndpoint(id.String())
}

// UpdateEndpoint applies the non-nil fields of dto and returns the result.
func (repo *Repository) UpdateEndpoint(dto model.UpdateEndpoint) (*model.Endpoint, error) {
	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if dto.Name != nil {
		set("name", *dto.Name)
	}
	if dto.Description != nil {
		set("description", *dto.Description)
	}
	if dto.URL != nil {
		set("url", *dto.URL)
	}
	if dto.Status != nil {
		st, err := model.ParseEndpointStatus(string(*dto.Status))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
		set("status", string(st))
	}
	if dto.Auth != nil {
		if !dto.Auth.AuthType.Valid() {
			return nil, fmt.Errorf("unknown auth type %q: %w", dto.Auth.AuthType, ErrInvalidArgument)
		}
		auth, err := marshalColumn(dto.Auth)
		if err != nil {
			return nil, fmt.Errorf("encoding auth: %w", err)
		}
		set("auth", auth)
	}
	if dto.Config != nil {
		config, err := marshalColumn(dto.Config)
		if err != nil {
			return nil, fmt.Errorf("encoding config: %w", err)
		}
		set("config", config)
	}
	if len(dto.Headers) > 0 {
		set("headers", string(dto.Headers))
	}
	if dto.Tags != nil {
		tags, err := marshalColumn(dto.Tags)
		if err != nil {
			return nil, fmt.Errorf("encoding tags: %w", err)
		}
		set("tags", tags)
	}
	if dto.Favorite != nil {
		set("favorite", *dto.Favorite)
	}

	if len(sets) == 0 {
		return nil, fmt.Errorf("endpoint %s: %w", dto.ID, ErrNoFieldsToUpdate)
	}

	query := "UPDATE endpoint SET " + strings.Join(sets, ", ") + ", updated_at = " + timestampExpr + " WHERE id = ?"
	res, err := repo.dbConn.Exec(query, append(args, dto.ID)...)
	if err != nil {
		return nil, fmt.Errorf("updating endpoint %s: %w", dto.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("endpoint %s: %w", dto.ID, ErrNotFound)
	}

	return repo.GetEndpoint(dto.ID)
}

// DeleteEndpoint removes the endpoint and, through the foreign key, its history.
func (repo *Repository) DeleteEndpoint(id string) error {
	res, err := repo.dbConn.Exec("DELETE FROM endpoint WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting endpoint %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("endpoint %s: %w", id, ErrNotFound)
	}
	return nil
}
