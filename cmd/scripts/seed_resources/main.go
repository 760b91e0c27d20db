package main

import (
	"context"
	"log"

	"github.com/joho/godotenv"

	"github.com/hmawbi/uniguide/internal/config"
	"github.com/hmawbi/uniguide/internal/models"
	"github.com/hmawbi/uniguide/internal/resources"
)

type seedResource struct {
	resource models.Resource
	priority bool
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("config: no .env file loaded: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx := context.Background()

	store, err := resources.NewStore(ctx, cfg.Postgres)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer store.Close()

	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("ensure schema: %v", err)
	}

	seeds := []seedResource{
		{
			resource: models.Resource{
				Title:       "Common Application Tips",
				Description: "Essential tips for completing your college application.",
				URL:         "https://example.edu/admissions/application-tips",
			},
			priority: true,
		},
		{
			resource: models.Resource{
				Title:       "Merit Scholarship Program",
				Description: "Academic excellence scholarship for high-achieving students.",
				URL:         "https://example.edu/admissions/scholarships",
			},
			priority: true,
		},
		{
			resource: models.Resource{
				Title:       "Admissions Helpline",
				Description: "Talk to an admissions counselor about deadlines and requirements.",
				URL:         "https://example.edu/admissions/contact",
			},
			priority: true,
		},
		{
			resource: models.Resource{
				Title:       "Study Abroad Program",
				Description: "Semester abroad opportunities in Europe and Asia.",
				URL:         "https://example.edu/programs/study-abroad",
			},
		},
		{
			resource: models.Resource{
				Title:       "Research Assistant Positions",
				Description: "Undergraduate research opportunities with faculty.",
			},
		},
	}

	inserted := 0
	for _, seed := range seeds {
		if err := store.Insert(ctx, seed.resource, seed.priority); err != nil {
			log.Printf("insert %q: %v", seed.resource.Title, err)
			continue
		}
		inserted++
		log.Printf("created resource: %s", seed.resource.Title)
	}

	log.Printf("seeded %d of %d resources", inserted, len(seeds))
}
