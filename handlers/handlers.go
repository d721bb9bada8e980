package handlers

import (
	"askdb/db"
	"askdb/service"
)

// @title           AskDB API
// @version         1.0
// @description     Ask questions about a SQL Server database in natural language - the AI classifies the intent, retrieves the relevant schema context, generates and runs SQL, and renders the result
// @termsOfService  http://swagger.io/terms/

// @contact.name   API Support
// @contact.url    http://www.swagger.io/support
// @contact.email  support@swagger.io

// @license.name  Apache 2.0
// @license.url   http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:9090
// @BasePath  /

// @schemes   http https

type Handlers struct {
	db        *db.DB
	report    *service.ReportService
	settings  *service.SettingsService
	connector *service.MssqlConnector
}

func New(db *db.DB, report *service.ReportService, settings *service.SettingsService, connector *service.MssqlConnector) *Handlers {
	return &Handlers{
		db:        db,
		report:    report,
		settings:  settings,
		connector: connector,
	}
}
