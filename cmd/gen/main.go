// Command gen generates type-safe GORM query helpers for the persistence models.
package main

import (
	"authservice/internal/infra/persistence/model"

	"gorm.io/gen"
)

func main() {
	models := []any{
		model.UserModel{},
	}

	g := gen.NewGenerator(gen.Config{
		OutPath: "./internal/infra/persistence/postgres/query",
		Mode:    gen.WithDefaultQuery,
	})

	g.ApplyBasic(models...)

	g.Execute()
}
