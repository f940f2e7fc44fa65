package api

import (
	"github.com/stacksapp/stacks-server/internal/reports"
	"github.com/stacksapp/stacks-server/internal/service"
)

// Services groups the application services the HTTP handlers depend on.
type Services struct {
	Catalog *service.CatalogService
	Lending *service.LendingService
	Search  *service.SearchService
	Reports *reports.Service
}
