package main

import (
	"context"

	"open-factcheck/internal/database"
	"open-factcheck/internal/events"
	"open-factcheck/internal/logger"
	"open-factcheck/internal/models"
	"open-factcheck/internal/services"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var seedUsersOnly bool

// seedCmd fills a development database with one user per role and a few
// sample claims in different verification states
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample users and claims",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := bootstrap()
		if err != nil {
			return err
		}
		defer a.close()

		if err := database.Migrate(a.db, a.log); err != nil {
			return err
		}
		return seed(context.Background(), a.db, a.log, seedUsersOnly)
	},
}

func init() {
	seedCmd.Flags().BoolVar(&seedUsersOnly, "users-only", false, "only seed users, skip claims")
}

type sampleClaim struct {
	text     string
	category models.Category
	tags     []string
	verdict  *services.Verdict
}

var sampleClaims = []sampleClaim{
	{
		text:     "Drinking eight glasses of water a day is a medical requirement",
		category: models.CategoryHealth,
		tags:     []string{"nutrition", "hydration"},
		verdict: &services.Verdict{
			Status:     models.StatusMisleading,
			Score:      35,
			Confidence: 0.7,
			Notes:      "No study sets a **fixed** daily amount; needs vary by person.",
			Sources:    []models.Source{{Name: "National Academies", URL: "https://www.nationalacademies.org", Type: models.SourceAcademic}},
		},
	},
	{
		text:     "The Great Wall of China is visible from the Moon with the naked eye",
		category: models.CategoryScience,
		tags:     []string{"space", "myths"},
		verdict: &services.Verdict{
			Status:     models.StatusFalse,
			Score:      5,
			Confidence: 0.95,
			Notes:      "Astronaut accounts contradict this.",
			Sources:    []models.Source{{Name: "NASA", URL: "https://www.nasa.gov", Type: models.SourceOfficial}},
		},
	},
	{
		text:     "Unemployment fell for the third consecutive quarter",
		category: models.CategoryEconomy,
		tags:     []string{"labour"},
	},
}

func seed(ctx context.Context, db *gorm.DB, log *logger.Logger, usersOnly bool) error {
	users := services.NewUserService(db, log)
	roles := map[string]models.Role{
		"alice":   models.RoleUser,
		"checker": models.RoleFactChecker,
		"expert":  models.RoleExpert,
		"admin":   models.RoleAdmin,
	}
	seeded := make(map[string]*models.User, len(roles))
	for name, role := range roles {
		u, err := users.Ensure(ctx, name, role)
		if err != nil {
			return err
		}
		seeded[name] = u
	}
	if usersOnly {
		log.Info("Seeded users", "count", len(seeded))
		return nil
	}

	var existing int64
	if err := db.WithContext(ctx).Model(&models.Claim{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		log.Info("Claims already present, skipping sample claims", "count", existing)
		return nil
	}

	engagement := services.NewEngagementService(db, log, events.Nop{})
	claims := services.NewClaimService(db, log, events.Nop{}, engagement)
	verification := services.NewVerificationService(db, log, events.Nop{}, nil)

	for _, sc := range sampleClaims {
		claim, err := claims.Submit(ctx, services.SubmitInput{
			Text:     sc.text,
			Category: sc.category,
			Tags:     sc.tags,
		}, seeded["alice"].ID)
		if err != nil {
			return err
		}
		if sc.verdict != nil {
			if _, err := verification.Verify(ctx, claim.ID, seeded["checker"].ID, *sc.verdict); err != nil {
				return err
			}
		}
	}

	log.Info("Seeded database", "users", len(seeded), "claims", len(sampleClaims))
	return nil
}
