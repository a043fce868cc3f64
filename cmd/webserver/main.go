package main

import (
	"flag"
	"log"
	"net/http"

	tipotest "github.com/xusob2/TipoTest"
)

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config file (optional)")
		verbose    = flag.Bool("verbose", false, "Enable verbose debugging output")
	)
	flag.Parse()

	tipotest.SetVerbose(*verbose)

	config, err := tipotest.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	store, err := tipotest.OpenStore(config.Database.Path)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer store.Close()

	if err := store.CreateTables(); err != nil {
		log.Fatalf("Failed to create tables: %v", err)
	}

	server, err := tipotest.NewServer(store, config.Session.Secret, config.Static.Dir)
	if err != nil {
		log.Fatalf("Failed to build server: %v", err)
	}
	server.SecureCookies(config.Session.Secure)

	log.Printf("Starting server on %s", config.Addr())
	log.Fatal(http.ListenAndServe(config.Addr(), server.Handler()))
}
