package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"convo-cafe/internal/config"
	"convo-cafe/internal/db"
	"convo-cafe/internal/domain"
	"convo-cafe/internal/repository"
)

type seedUser struct {
	Email     string
	Nickname  string
	Bio       string
	Resonance []seedResonance
}

type seedResonance struct {
	Text    string
	Weather string
	Energy  float64
	DaysAgo int
}

func main() {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Fatalf("db pool: %v", err)
	}
	defer pool.Close()

	if err := db.Ping(ctx, pool); err != nil {
		log.Fatalf("db ping: %v", err)
	}

	userRepo := repository.NewPgUserRepository(pool)
	profileRepo := repository.NewPgProfileRepository(pool)

	const communityID = "cafe-demo"
	now := time.Now().UTC()

	seeds := []seedUser{
		{
			Email:    "maya@example.com",
			Nickname: "maya",
			Bio:      "community gardener curious about permaculture and shared meals",
			Resonance: []seedResonance{
				{Text: "planted tomatoes with the neighbors today, felt grounded", Weather: "sunny", Energy: 72, DaysAgo: 1},
				{Text: "slow morning, reading about soil regeneration", Weather: "cloudy", Energy: 55, DaysAgo: 3},
				{Text: "potluck dinner went late, so many good conversations", Weather: "sunny", Energy: 80, DaysAgo: 6},
				{Text: "rain all day, stayed in planning the spring garden", Weather: "rainy", Energy: 48, DaysAgo: 9},
			},
		},
		{
			Email:    "tom@example.com",
			Nickname: "tom",
			Bio:      "urban gardener and sourdough baker, loves shared meals",
			Resonance: []seedResonance{
				{Text: "baked bread for the community fridge", Weather: "sunny", Energy: 68, DaysAgo: 2},
				{Text: "repotted the balcony herbs, thinking about tomatoes", Weather: "sunny", Energy: 61, DaysAgo: 4},
				{Text: "quiet evening, jotting down garden plans", Weather: "cloudy", Energy: 50, DaysAgo: 7},
				{Text: "long walk in the rain, needed the reset", Weather: "rainy", Energy: 40, DaysAgo: 11},
			},
		},
		{
			Email:    "ines@example.com",
			Nickname: "ines",
			Bio:      "sound artist exploring field recordings and deep listening",
			Resonance: []seedResonance{
				{Text: "recorded the dawn chorus by the river", Weather: "sunny", Energy: 85, DaysAgo: 1},
				{Text: "mixing the storm tapes, electric feeling", Weather: "stormy", Energy: 90, DaysAgo: 5},
			},
		},
		{
			Email:    "leo@example.com",
			Nickname: "leo",
			Bio:      "ethereum developer into governance and public goods funding",
			Resonance: []seedResonance{
				{Text: "shipped the voting contract, brain fried but happy", Weather: "cloudy", Energy: 65, DaysAgo: 2},
				{Text: "reading about quadratic funding again", Weather: "cloudy", Energy: 58, DaysAgo: 8},
			},
		},
		{
			// Solo bio: igual califica como candidato de similitud.
			Email:    "sam@example.com",
			Nickname: "sam",
			Bio:      "new in town, into ethereum, defi and community meetups",
		},
	}

	for _, seed := range seeds {
		user := domain.User{
			ID:        uuid.NewString(),
			Email:     seed.Email,
			Nickname:  seed.Nickname,
			CreatedAt: now,
		}
		if err := userRepo.Create(ctx, user); err != nil {
			log.Fatalf("create user %s: %v", seed.Email, err)
		}

		resonance := make([]domain.ResonanceEntry, 0, len(seed.Resonance))
		for _, r := range seed.Resonance {
			energy := r.Energy
			resonance = append(resonance, domain.ResonanceEntry{
				Text:      r.Text,
				Weather:   r.Weather,
				Energy:    &energy,
				Timestamp: now.AddDate(0, 0, -r.DaysAgo),
			})
		}

		profile := domain.Profile{
			ID:          uuid.NewString(),
			UserID:      user.ID,
			CommunityID: communityID,
			Bio:         seed.Bio,
			Resonance:   resonance,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := profileRepo.Upsert(ctx, profile); err != nil {
			log.Fatalf("upsert profile %s: %v", seed.Email, err)
		}

		fmt.Printf("seeded %s (%d resonance entries)\n", seed.Nickname, len(resonance))
	}

	fmt.Printf("done: %d profiles in community %s\n", len(seeds), communityID)
}
