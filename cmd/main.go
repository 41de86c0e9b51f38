package main

import (
	"context"
	"flag"
	"log"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"diabetes-diary/internal/config"
	"diabetes-diary/internal/handlers"
	"diabetes-diary/internal/notify"
	"diabetes-diary/internal/scheduler"
	"diabetes-diary/internal/storage"

	"github.com/gorilla/mux"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	listen := flag.String("listen", "", "HTTP listen address")
	staticDir := flag.String("static", "", "directory to serve static files from")

	// Storage flags
	storageType := flag.String("storage", "", "durable backend to use: sqlite, mongo, or memory")
	sqlitePath := flag.String("sqlite-path", "", "SQLite database file (used when storage=sqlite)")
	mongoConnString := flag.String("mongo-conn", "", "MongoDB connection string (used when storage=mongo)")
	mongoDatabase := flag.String("mongo-db", "", "MongoDB database name (used when storage=mongo)")

	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	applyFlag(&cfg.Listen, *listen)
	applyFlag(&cfg.StaticDir, *staticDir)
	applyFlag(&cfg.Storage, *storageType)
	applyFlag(&cfg.SQLitePath, *sqlitePath)
	applyFlag(&cfg.MongoURI, *mongoConnString)
	applyFlag(&cfg.MongoDatabase, *mongoDatabase)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	cfg.Normalize()

	// The synchronous cache is always memory; the durable mirror depends on
	// the configured backend. A durable backend that fails to open degrades
	// to a cache-only session instead of aborting.
	var durable storage.Storage
	switch cfg.Storage {
	case "memory":
		log.Println("Using memory storage (cache only, nothing survives a restart)")
	case "sqlite":
		log.Printf("Using SQLite storage (%s)", cfg.SQLitePath)
		s, err := storage.NewSQLiteStorage(cfg.SQLitePath)
		if err != nil {
			log.Printf("SQLite unavailable, continuing cache-only: %v", err)
		} else {
			durable = s
			defer s.Close()
		}
	case "mongo":
		log.Printf("Using MongoDB storage (connection: %s, database: %s)", cfg.MongoURI, cfg.MongoDatabase)
		s, err := storage.NewMongoStorage(cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Printf("MongoDB unavailable, continuing cache-only: %v", err)
		} else {
			durable = s
			defer s.Close(context.Background())
		}
	}

	store := storage.NewFacade(storage.NewMemoryStorage(), durable)
	if err := store.Hydrate(); err != nil {
		log.Printf("Hydrating cache from durable store failed: %v", err)
	}

	sched := scheduler.New(store, notify.LogNotifier{}, notify.LogSoundPlayer{})
	sched.SetInterval(time.Duration(cfg.TickSeconds) * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go sched.Run(ctx)

	handlers.Store = store
	handlers.Sched = sched

	r := mux.NewRouter()

	// Alert routes
	r.HandleFunc("/alerts", handlers.CreateAlertHandler).Methods("POST")
	r.HandleFunc("/alerts", handlers.ListAlertsHandler).Methods("GET")
	r.HandleFunc("/alerts/export.ics", handlers.ExportAlertsHandler).Methods("GET")
	r.HandleFunc("/alerts/{id}", handlers.GetAlertHandler).Methods("GET")
	r.HandleFunc("/alerts/{id}", handlers.UpdateAlertHandler).Methods("PUT")
	r.HandleFunc("/alerts/{id}", handlers.DeleteAlertHandler).Methods("DELETE")
	r.HandleFunc("/alerts/{id}/export.ics", handlers.ExportAlertHandler).Methods("GET")
	r.HandleFunc("/scheduler/wake", handlers.WakeSchedulerHandler).Methods("POST")

	// Patient routes
	r.HandleFunc("/patient", handlers.GetPatientHandler).Methods("GET")
	r.HandleFunc("/patient", handlers.SavePatientHandler).Methods("PUT")

	// Day record routes
	r.HandleFunc("/days", handlers.ListDaysHandler).Methods("GET")
	r.HandleFunc("/days/{date}", handlers.GetDayHandler).Methods("GET")
	r.HandleFunc("/days/{date}", handlers.SaveDayHandler).Methods("PUT")

	// Backup routes
	r.HandleFunc("/backup", handlers.BackupHandler).Methods("GET")
	r.HandleFunc("/restore", handlers.RestoreHandler).Methods("POST")

	// Static file server for frontend at "/"
	staticFs := http.FileServer(http.Dir(cfg.StaticDir))
	r.PathPrefix("/").Handler(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		path := req.URL.Path
		ext := filepath.Ext(path)
		if ext != "" {
			if ctype := mime.TypeByExtension(ext); ctype != "" {
				w.Header().Set("Content-Type", ctype)
			}
		}
		staticFs.ServeHTTP(w, req)
	}))

	log.Println("Starting diabetes diary on", cfg.Listen, "serving static files from", cfg.StaticDir)
	srv := &http.Server{Addr: cfg.Listen, Handler: r}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		store.Wait()
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Could not start HTTP server: %s\n", err)
	}
}

func applyFlag(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
