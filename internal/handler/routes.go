package handler

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
// Commands are POST /api/commands/<name> with a JSON object of named arguments.
func RegisterRoutes(e *echo.Echo, relay *RelayHandler, st *StoreHandler, health *HealthHandler) {
	e.GET("/healthz", health.Healthz)
	e.GET("/relay/status", health.Status)

	cmd := e.Group("/api/commands")

	cmd.POST("/proxy_http_request", relay.ProxyHTTPRequest)
	cmd.POST("/send_graphql_request", relay.SendGraphQLRequest)

	cmd.POST("/get_all_endpoints", st.GetAllEndpoints)
	cmd.POST("/get_endpoint_by_id", st.GetEndpointByID)
	cmd.POST("/create_endpoint", st.CreateEndpoint)
	cmd.POST("/update_endpoint", st.UpdateEndpoint)
	cmd.POST("/delete_endpoint", st.DeleteEndpoint)

	cmd.POST("/get_all_request_histories", st.GetAllRequestHistories)
	cmd.POST("/create_request_history", st.CreateRequestHistory)
	cmd.POST("/update_request_history", st.UpdateRequestHistory)
	cmd.POST("/delete_request_history", st.DeleteRequestHistory)

	cmd.POST("/get_all_settings", st.GetAllSettings)
	cmd.POST("/get_settings_by_category", st.GetSettingsByCategory)
	cmd.POST("/get_settings_map", st.GetSettingsMap)
	cmd.POST("/get_setting", st.GetSetting)
	cmd.POST("/create_setting", st.CreateSetting)
	cmd.POST("/update_setting", st.UpdateSetting)
	cmd.POST("/delete_setting", st.DeleteSetting)
	cmd.POST("/upsert_setting", st.UpsertSetting)
}
