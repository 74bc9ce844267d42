package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"querybox-relay/internal/model"
	"querybox-relay/internal/store"
)

// EndpointStore persists endpoints.
type EndpointStore interface {
	ListEndpoints(filter model.EndpointFilter) (*model.Paginated[model.Endpoint], error)
	GetEndpoint(id string) (*model.Endpoint, error)
	CreateEndpoint(dto model.CreateEndpoint) (*model.Endpoint, error)
	UpdateEndpoint(dto model.UpdateEndpoint) (*model.Endpoint, error)
	DeleteEndpoint(id string) error
}

// HistoryStore persists request history.
type HistoryStore interface {
	ListRequestHistories(endpointID string) ([]model.RequestHistory, error)
	CreateRequestHistory(dto model.CreateRequestHistory) (*model.RequestHistory, error)
	UpdateRequestHistory(dto model.UpdateRequestHistory) (*model.RequestHistory, error)
	DeleteRequestHistory(dto model.DeleteRequestHistory) (int64, error)
}

// SettingsStore persists application settings.
type SettingsStore interface {
	ListSettings() ([]model.Setting, error)
	SettingsByCategory(category string) ([]model.Setting, error)
	SettingsMap(category string) (map[string]string, error)
	GetSetting(key string) (*model.Setting, error)
	CreateSetting(s model.NewSetting) error
	UpdateSetting(key string, u model.UpdateSetting) (bool, error)
	DeleteSetting(key string) (bool, error)
	UpsertSetting(key, value string, opts *model.UpsertOptions) error
}

// StoreHandler serves the endpoint, history and settings commands.
type StoreHandler struct {
	endpoints EndpointStore
	history   HistoryStore
	settings  SettingsStore
	logger    *slog.Logger
}

// NewStoreHandler creates a StoreHandler.
func NewStoreHandler(e EndpointStore, h HistoryStore, s SettingsStore, logger *slog.Logger) *StoreHandler {
	return &StoreHandler{
		endpoints: e,
		history:   h,
		settings:  s,
		logger:    logger.With("component", "store_handler"),
	}
}

// invoke binds the command arguments into A, runs fn and writes its result.
func invoke[A, R any](h *StoreHandler, c echo.Context, fn func(A) (R, error)) error {
	var args A
	if err := c.Bind(&args); err != nil {
		return badArguments(c, err)
	}
	res, err := fn(args)
	if err != nil {
		return h.mapError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *StoreHandler) mapError(c echo.Context, err error) error {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, store.ErrNoFieldsToUpdate),
		errors.Is(err, store.ErrMissingCriteria),
		errors.Is(err, store.ErrMissingUpsertOptions),
		errors.Is(err, store.ErrInvalidArgument):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("store error", "err", err, "command", c.Path())
	} else {
		h.logger.Debug("store rejected command", "err", err, "command", c.Path())
	}
	return c.JSON(status, model.RelayError{Message: err.Error()})
}

type (
	idArgs       struct{ ID string `json:"id"` }
	keyArgs      struct{ Key string `json:"key"` }
	categoryArgs struct{ Category string `json:"category"` }
	noArgs       struct{}
)

// GetAllEndpoints handles get_all_endpoints.
func (h *StoreHandler) GetAllEndpoints(c echo.Context) error {
	return invoke(h, c, func(a struct {
		Filter model.EndpointFilter `json:"filter"`
	}) (*model.Paginated[model.Endpoint], error) {
		return h.endpoints.ListEndpoints(a.Filter)
	})
}

// GetEndpointByID handles get_endpoint_by_id.
func (h *StoreHandler) GetEndpointByID(c echo.Context) error {
	return invoke(h, c, func(a idArgs) (*model.Endpoint, error) {
		return h.endpoints.GetEndpoint(a.ID)
	})
}

// CreateEndpoint handles create_endpoint.
func (h *StoreHandler) CreateEndpoint(c echo.Context) error {
	return invoke(h, c, func(a struct {
		DTO model.CreateEndpoint `json:"dto"`
	}) (*model.Endpoint, error) {
		return h.endpoints.CreateEndpoint(a.DTO)
	})
}

// UpdateEndpoint handles update_endpoint.
func (h *StoreHandler) UpdateEndpoint(c echo.Context) error {
	return invoke(h, c, func(a struct {
		DTO model.UpdateEndpoint `json:"dto"`
	}) (*model.Endpoint, error) {
		return h.endpoints.UpdateEndpoint(a.DTO)
	})
}

// DeleteEndpoint handles delete_endpoint.
func (h *StoreHandler) DeleteEndpoint(c echo.Context) error {
	return invoke(h, c, func(a struct {
		DTO model.DeleteEndpoint `json:"dto"`
	}) (any, error) {
		return nil, h.endpoints.DeleteEndpoint(a.DTO.ID)
	})
}

// GetAllRequestHistories handles get_all_request_histories.
func (h *StoreHandler) GetAllRequestHistories(c echo.Context) error {
	return invoke(h, c, func(a struct {
		EndpointID string `json:"endpointId"`
	}) ([]model.RequestHistory, error) {
		return h.history.ListRequestHistories(a.EndpointID)
	})
}

// CreateRequestHistory handles create_request_history.
func (h *StoreHandler) CreateRequestHistory(c echo.Context) error {
	return invoke(h, c, func(a struct {
		DTO model.CreateRequestHistory `json:"dto"`
	}) (*model.RequestHistory, error) {
		return h.history.CreateRequestHistory(a.DTO)
	})
}

// UpdateRequestHistory handles update_request_history.
func (h *StoreHandler) UpdateRequestHistory(c echo.Context) error {
	return invoke(h, c, func(a struct {
		DTO model.UpdateRequestHistory `json:"dto"`
	}) (*model.RequestHistory, error) {
		return h.history.UpdateRequestHistory(a.DTO)
	})
}

// DeleteRequestHistory handles delete_request_history.
func (h *StoreHandler) DeleteRequestHistory(c echo.Context) error {
	return invoke(h, c, func(a struct {
		DTO model.DeleteRequestHistory `json:"dto"`
	}) (map[string]int64, error) {
		n, err := h.history.DeleteRequestHistory(a.DTO)
		if err != nil {
			return nil, err
		}
		return map[string]int64{"deleted": n}, nil
	})
}

// GetAllSettings handles get_all_settings.
func (h *StoreHandler) GetAllSettings(c echo.Context) error {
	return invoke(h, c, func(noArgs) ([]model.Setting, error) {
		return h.settings.ListSettings()
	})
}

// GetSettingsByCategory handles get_settings_by_category.
func (h *StoreHandler) GetSettingsByCategory(c echo.Context) error {
	return invoke(h, c, func(a categoryArgs) ([]model.Setting, error) {
		return h.settings.SettingsByCategory(a.Category)
	})
}

// GetSettingsMap handles get_settings_map.
func (h *StoreHandler) GetSettingsMap(c echo.Context) error {
	return invoke(h, c, func(a categoryArgs) (map[string]string, error) {
		return h.settings.SettingsMap(a.Category)
	})
}

// GetSetting handles get_setting.
func (h *StoreHandler) GetSetting(c echo.Context) error {
	return invoke(h, c, func(a keyArgs) (*model.Setting, error) {
		return h.settings.GetSetting(a.Key)
	})
}

// CreateSetting handles create_setting.
func (h *StoreHandler) CreateSetting(c echo.Context) error {
	return invoke(h, c, func(a struct {
		Setting model.NewSetting `json:"setting"`
	}) (any, error) {
		return nil, h.settings.CreateSetting(a.Setting)
	})
}

// UpdateSetting handles update_setting.
func (h *StoreHandler) UpdateSetting(c echo.Context) error {
	return invoke(h, c, func(a struct {
		Key     string              `json:"key"`
		Setting model.UpdateSetting `json:"setting"`
	}) (bool, error) {
		return h.settings.UpdateSetting(a.Key, a.Setting)
	})
}

// DeleteSetting handles delete_setting.
func (h *StoreHandler) DeleteSetting(c echo.Context) error {
	return invoke(h, c, func(a keyArgs) (bool, error) {
		return h.settings.DeleteSetting(a.Key)
	})
}

// UpsertSetting handles upsert_setting.
func (h *StoreHandler) UpsertSetting(c echo.Context) error {
	return invoke(h, c, func(a struct {
		Key     string               `json:"key"`
		Value   string               `json:"value"`
		Options *model.UpsertOptions `json:"options"`
	}) (any, error) {
		return nil, h.settings.UpsertSetting(a.Key, a.Value, a.Options)
	})
}
