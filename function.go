package threadwise

import (
	"log"
	"net/http"

	"github.com/GoogleCloudPlatform/functions-framework-go/functions"

	"github.com/threadwise/threadwise/internal/config"
	"github.com/threadwise/threadwise/internal/handlers"
)

func init() {
	functions.HTTP("Threadwise", HandleRequest)
}

// HandleRequest serves a single HTTP request in the serverless
// deployment mode. Dependencies are built per invocation; analytics
// rows are flushed before the function returns since there is no
// background scheduler.
func HandleRequest(w http.ResponseWriter, r *http.Request) {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load configuration: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	server, err := handlers.NewServer(cfg)
	if err != nil {
		log.Printf("Failed to create server: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	server.SetupRoutes().ServeHTTP(w, r)

	if err := server.FlushAnalytics(r.Context()); err != nil {
		log.Printf("Analytics flush failed: %v", err)
	}
}
