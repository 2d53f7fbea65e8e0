// Package docs holds the general Swagger annotations of the netdiag API.
//
// Endpoint annotations live on the handlers in internal/api/handlers. Run
// `go generate ./docs` to regenerate the OpenAPI specification in
// docs/swagger.
//
//go:generate swag init -g swagger_docs.go -d ./,../internal/api/handlers -o ./swagger --parseDependency --parseInternal
package docs

// @title netdiag API
// @version 1.0.0
// @description Network diagnostics service: ping, TCP ping, traceroute, port scans, DNS and RDAP lookups and Wake-on-LAN, with streaming sweeps over WebSocket.
// @description
// @description ## Destinations
// @description Ping and TCP ping accept a host name, an address or a CIDR block. A block is expanded to its usable host
// @description addresses and rejected with DESTINATION_TOO_LARGE when it exceeds the configured cap.
// @description
// @description ## Authentication
// @description When enabled, every endpoint except health and version requires an API key in the `X-API-Key` header
// @description or as `Authorization: Bearer <key>`.
//
// @security ApiKeyAuth
//
// @contact.name netdiag maintainers
// @contact.url https://github.com/anstrom/netdiag
//
// @license.name MIT
// @license.url https://github.com/anstrom/netdiag/blob/main/LICENSE
//
// @host localhost:8080
// @BasePath /api/v1
//
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
// @description API key for authentication
