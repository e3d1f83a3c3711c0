package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/clearform/internal/analyze"
	"github.com/ayusman/clearform/internal/evaluation"
	"github.com/ayusman/clearform/internal/feedback"
	"github.com/ayusman/clearform/internal/metrics"
	"github.com/ayusman/clearform/internal/refine"
	"github.com/ayusman/clearform/internal/rules"
	"github.com/ayusman/clearform/internal/scoring"
	"github.com/ayusman/clearform/internal/server"
	"github.com/ayusman/clearform/internal/store"
)

func main() {
	fmt.Println("clearform - badminton technique evaluation")

	addr := flag.String("addr", ":8080", "HTTP listen address")
	dbPath := flag.String("db", "", "SQLite database path (default ~/.clearform/clearform.db)")
	refineTimeout := flag.Duration("refine-timeout", 5*time.Second, "refinement call timeout")
	flag.Parse()

	path := *dbPath
	if path == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			log.Fatalf("Failed to get home directory: %v", err)
		}
		dataDir := filepath.Join(homeDir, ".clearform")
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			log.Fatalf("Failed to create data directory: %v", err)
		}
		path = filepath.Join(dataDir, "clearform.db")
	}

	st, err := store.New(path)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}
	defer st.Close()

	if err := seedDefaultConfig(st); err != nil {
		log.Fatalf("Failed to seed default config: %v", err)
	}

	fg, err := feedback.NewGenerator()
	if err != nil {
		log.Fatalf("Failed to load feedback locales: %v", err)
	}

	analyzer := analyze.New(
		metrics.NewEngine(),
		evaluation.New(scoring.NewRegistry(), fg),
		refine.NewSafe(buildRefiner(st), *refineTimeout),
	)

	srv := server.New(server.Config{
		Store:    st,
		Analyzer: analyzer,
	})

	fmt.Printf("Starting server on %s\n", *addr)
	if err := srv.ListenAndServe(*addr); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

// buildRefiner selects the refinement mode from the environment:
// CLEARFORM_REFINE is "off" (default), "local", or "http" with
// CLEARFORM_REFINE_URL naming the service. The http mode is wrapped in the
// persistent cache.
func buildRefiner(st *store.Store) refine.Refiner {
	switch os.Getenv("CLEARFORM_REFINE") {
	case "local":
		log.Println("Using local feedback refinement")
		return refine.Local{}
	case "http":
		endpoint := os.Getenv("CLEARFORM_REFINE_URL")
		r := refine.NewHTTP(endpoint, 10*time.Second)
		if !r.Available() {
			log.Printf("Refinement disabled: %s", r.ReasonUnavailable())
			return refine.Noop{}
		}
		log.Printf("Using refinement service at %s", endpoint)
		return refine.NewCached(r, st.RefinementCache())
	default:
		return refine.Noop{}
	}
}

// seedDefaultConfig installs the built-in forehand clear config on first run
// and reports its validator warnings.
func seedDefaultConfig(st *store.Store) error {
	cfg := rules.ForehandClear()

	_, err := st.Configs().GetByAction(cfg.ActionName)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}

	for _, warning := range rules.Validate(cfg) {
		log.Printf("default config warning: %s", warning)
	}

	if err := st.Configs().Create(&store.StoredConfig{
		ID:     uuid.New().String(),
		Config: cfg,
	}); err != nil {
		return err
	}
	log.Printf("Seeded default config for %s", cfg.ActionName)
	return nil
}
