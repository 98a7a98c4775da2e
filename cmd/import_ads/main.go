package main

import (
	"flag"
	"log"

	"github.com/ad-match/site/ad"
	"github.com/ad-match/site/config"
	"github.com/ad-match/site/db"
)

// import_ads copies a JSON catalog into the Ad table so the server can run
// with CATALOG_SOURCE=db. Existing rows are replaced.
func main() {
	var (
		catalogPath = flag.String("catalog", config.CatalogPath, "Path to the JSON ad catalog")
		databaseURL = flag.String("db", config.DatabaseURL, "SQLite database file")
	)
	flag.Parse()

	ads, err := ad.NewFileCatalog(*catalogPath).Load()
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	if err := db.Init(*databaseURL); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	if err := ad.SaveAll(ads); err != nil {
		log.Fatalf("Failed to import ads: %v", err)
	}
	log.Printf("Imported %d ads from %s into %s", len(ads), *catalogPath, *databaseURL)
}
