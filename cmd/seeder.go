package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/quanlynhankhau/registry-api/internal"
	"github.com/quanlynhankhau/registry-api/internal/auth"
	feeDatamodel "github.com/quanlynhankhau/registry-api/internal/core/datamodel/fee"
	householdDatamodel "github.com/quanlynhankhau/registry-api/internal/core/datamodel/household"
	userDatamodel "github.com/quanlynhankhau/registry-api/internal/core/datamodel/user"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo registry data",
	Long:  `Create demo households, fee obligations and user accounts for local development`,
	Run: func(cmd *cobra.Command, args []string) {
		runSeeder()
	},
}

func runSeeder() {
	cfg, err := loadConfig(".")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := initDB(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		log.Fatalf("failed to initialize orm: %v", err)
	}

	if clearData {
		fmt.Println("Clearing existing data...")
		for _, table := range []string{"payment_notifications", "payments", "fee_collections", "users", "fee_obligations", "households"} {
			if err := gormDB.Exec("DELETE FROM " + table).Error; err != nil {
				log.Fatalf("failed to clear %s: %v", table, err)
			}
		}
	}

	households := seedHouseholds(gormDB)
	seedFeeObligations(gormDB)
	seedUsers(gormDB, cfg, households)

	fmt.Println("Seeding complete.")
}

func seedHouseholds(db *gorm.DB) []householdDatamodel.Household {
	households := []householdDatamodel.Household{
		{Code: "HK-001", Address: "12 Tran Hung Dao, To 1", HeadName: "Nguyen Van An"},
		{Code: "HK-002", Address: "45 Le Loi, To 2", HeadName: "Tran Thi Binh"},
		{Code: "HK-003", Address: "78 Nguyen Trai, To 3", HeadName: "Le Van Cuong"},
	}

	for i := range households {
		if err := db.Where("code = ?", households[i].Code).FirstOrCreate(&households[i]).Error; err != nil {
			log.Fatalf("failed to seed household %s: %v", households[i].Code, err)
		}
	}

	fmt.Printf("Seeded %d households\n", len(households))
	return households
}

func seedFeeObligations(db *gorm.DB) {
	due := time.Now().AddDate(0, 1, 0)
	fees := []feeDatamodel.FeeObligation{
		{Name: "Phi ve sinh 2026", Description: "Phi ve sinh moi truong ca nam", Amount: 120000, Mandatory: true, DueDate: &due},
		{Name: "Phi an ninh quy 3", Description: "Phi an ninh trat tu quy 3", Amount: 90000, Mandatory: true, DueDate: &due},
		{Name: "Ung ho quy khuyen hoc", Description: "Dong gop tu nguyen", Amount: 0, Mandatory: false},
	}

	for i := range fees {
		if err := db.Where("name = ?", fees[i].Name).FirstOrCreate(&fees[i]).Error; err != nil {
			log.Fatalf("failed to seed fee obligation %s: %v", fees[i].Name, err)
		}
	}

	fmt.Printf("Seeded %d fee obligations\n", len(fees))
}

func seedUsers(db *gorm.DB, cfg *internal.Config, households []householdDatamodel.Household) {
	passwordHash, err := auth.HashPassword("password123", cfg.Security.BCryptCost)
	if err != nil {
		log.Fatalf("failed to hash seed password: %v", err)
	}

	users := []userDatamodel.User{
		{Username: "admin", FullName: "To Truong", Role: internal.RoleAdmin, PasswordHash: passwordHash, IsActive: true},
		{Username: "ketoan", FullName: "Ke Toan To", Role: internal.RoleAccountant, PasswordHash: passwordHash, IsActive: true},
	}
	if len(households) > 0 {
		users = append(users, userDatamodel.User{
			Username:     "resident1",
			FullName:     households[0].HeadName,
			Role:         internal.RoleResident,
			PasswordHash: passwordHash,
			HouseholdID:  &households[0].ID,
			IsActive:     true,
		})
	}

	for i := range users {
		if err := db.Where("username = ?", users[i].Username).FirstOrCreate(&users[i]).Error; err != nil {
			log.Fatalf("failed to seed user %s: %v", users[i].Username, err)
		}
	}

	fmt.Printf("Seeded %d users (password: password123)\n", len(users))
}
