package main

import (
	"fmt"
	"log"

	"github.com/localnerve/shelter-intake/internal/database"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Prints the tables and indexes AutoMigrate creates for the intake models.
func main() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		log.Fatal(err)
	}

	if err := database.AutoMigrate(db); err != nil {
		log.Fatal(err)
	}

	var tables []string
	db.Raw("SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name").Scan(&tables)

	for _, table := range tables {
		fmt.Printf("\n=== Table: %s ===\n", table)
		var schema string
		db.Raw("SELECT sql FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&schema)
		fmt.Println(schema)

		indexes, err := db.Migrator().GetIndexes(table)
		if err != nil {
			log.Fatal(err)
		}
		for _, idx := range indexes {
			unique, _ := idx.Unique()
			fmt.Printf("  index %s %v unique=%t\n", idx.Name(), idx.Columns(), unique)
		}
	}
}
