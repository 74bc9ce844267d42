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

type historyRow struct {
	ID         string  `db:"id"`
	EndpointID string  `db:"endpoint_id"`
	Name       *string `db:"name"`
	Method     string  `db:"method"`
	Headers    *string `db:"headers"`
	Body       *string `db:"body"`
	Query      *string `db:"query"`
	CreatedAt  string  `db:"created_at"`
	UpdatedAt  string  `db:"updated_at"`
}

func (row *historyRow) toModel() model.RequestHistory {
	h := model.RequestHistory{
		ID:         row.ID,
		EndpointID: row.EndpointID,
		Name:       row.Name,
		Method:     model.HTTPMethod(row.Method),
		Query:      row.Query,
		CreatedAt:  row.CreatedAt,
		UpdatedAt:  row.UpdatedAt,
	}
	if row.Headers != nil {
		h.Headers = json.RawMessage(*row.Headers)
	}
	if row.Body != nil {
		h.Body = json.RawMessage(*row.Body)
	}
	return h
}

// ListRequestHistories returns the history of one endpoint, newest first.
func (repo *Repository) ListRequestHistories(endpointID string) ([]model.RequestHistory, error) {
	var rows []historyRow
	query := `SELECT * FROM request_history WHERE endpoint_id = ? ORDER BY created_at DESC, rowid DESC`
	if err := repo.dbConn.Select(&rows, query, endpointID); err != nil {
		return nil, fmt.Errorf("listing request history of %s: %w", endpointID, err)
	}

	out := make([]model.RequestHistory, 0, len(rows))
	for i := range rows {
		out = append(out, rows[i].toModel())
	}
	return out, nil
}

func (repo *Repository) getRequestHistory(id string) (*model.RequestHistory, error) {
	var row historyRow
	err := repo.dbConn.Get(&row, "SELECT * FROM request_history WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("request history %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("getting request history %s: %w", id, err)
	}
	h := row.toModel()
	return &h, nil
}

// CreateRequestHistory records a request against an existing endpoint.
func (repo *Repository) CreateRequestHistory(dto model.CreateRequestHistory) (*model.RequestHistory, error) {
	method, err := model.ParseHTTPMethod(string(dto.Method))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	var exists int
	if err := repo.dbConn.Get(&exists, "SELECT COUNT(*) FROM endpoint WHERE id = ?", dto.EndpointID); err != nil {
		return nil, fmt.Errorf("checking endpoint %s: %w", dto.EndpointID, err)
	}
	if exists == 0 {
		return nil, fmt.Errorf("endpoint %s: %w", dto.EndpointID, ErrNotFound)
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("creating uuid: %w", err)
	}

	query := `INSERT INTO request_history (id, endpoint_id, name, method, headers, body, query)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err = repo.dbConn.Exec(query,
		id.String(), dto.EndpointID, dto.Name, string(method),
		nullableJSON(dto.Headers), nullableJSON(dto.Body), dto.Query,
	)
	if err != nil {
		return nil, fmt.Errorf("inserting request history: %w", err)
	}

	return repo.getRequestHistory(id.String())
}

// UpdateRequestHistory applies the non-nil fields of dto and returns the result.
func (repo *Repository) UpdateRequestHistory(dto model.UpdateRequestHistory) (*model.RequestHistory, error) {
	var (
		sets []string
		args []any
	)
	if dto.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *dto.Name)
	}
	if dto.Method != nil {
		method, err := model.ParseHTTPMethod(string(*dto.Method))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
		}
		sets = append(sets, "method = ?")
		args = append(args, string(method))
	}
	if len(dto.Headers) > 0 {
		sets = append(sets, "headers = ?")
		args = append(args, string(dto.Headers))
	}
	if len(dto.Body) > 0 {
		sets = append(sets, "body = ?")
		args = append(args, string(dto.Body))
	}
	if dto.Query != nil {
		sets = append(sets, "query = ?")
		args = append(args, *dto.Query)
	}

	if len(sets) == 0 {
		return nil, fmt.Errorf("request history %s: %w", dto.ID, ErrNoFieldsToUpdate)
	}

	query := "UPDATE request_history SET " + strings.Join(sets, ", ") + ", updated_at = " + timestampExpr + " WHERE id = ?"
	res, err := repo.dbConn.Exec(query, append(args, dto.ID)...)
	if err != nil {
		return nil, fmt.Errorf("updating request history %s: %w", dto.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, fmt.Errorf("request history %s: %w", dto.ID, ErrNotFound)
	}

	return repo.getRequestHistory(dto.ID)
}

// DeleteRequestHistory deletes rows matching every criterion given.
// At least one criterion is required and at least one row must match.
func (repo *Repository) DeleteRequestHistory(dto model.DeleteRequestHistory) (int64, error) {
	var (
		conditions []string
		args       []any
	)
	if dto.ID != "" {
		conditions = append(conditions, "id = ?")
		args = append(args, dto.ID)
	}
	if dto.EndpointID != "" {
		conditions = append(conditions, "endpoint_id = ?")
		args = append(args, dto.EndpointID)
	}
	if len(conditions) == 0 {
		return 0, ErrMissingCriteria
	}

	res, err := repo.dbConn.Exec("DELETE FROM request_history WHERE "+strings.Join(conditions, " AND "), args...)
	if err != nil {
		return 0, fmt.Errorf("deleting request history: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting request history: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("request history: %w", ErrNotFound)
	}
	return n, nil
}
