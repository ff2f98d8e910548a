package seeders

import (
	"encoding/json"
	"log"

	"fieldops_go/database"
	"fieldops_go/models"
	"fieldops_go/utils"
)

// SeedAll runs all seeders
func SeedAll() {
	log.Println("Starting database seeding...")

	SeedMarkets()
	SeedUsers()

	log.Println("Database seeding completed successfully!")
}

// SeedMarkets seeds the markets table with their weekly recurrence
func SeedMarkets() {
	var count int64
	database.DB.Model(&models.Market{}).Count(&count)
	if count > 0 {
		log.Println("Markets already seeded, skipping...")
		return
	}

	tuesday, wednesday, friday, sunday := 2, 3, 5, 0
	schedule := func(open, close string) models.JSON {
		b, _ := json.Marshal(map[string]string{"open": open, "close": close})
		return b
	}

	markets := []models.Market{
		{
			Name:         "Azadpur Mandi",
			Code:         "AZP",
			City:         "Delhi",
			Address:      "Azadpur, Delhi",
			DayOfWeek:    &tuesday,
			IsActive:     true,
			ScheduleJSON: schedule("06:00", "20:00"),
		},
		{
			Name:         "Ghazipur Market",
			Code:         "GZP",
			City:         "Delhi",
			Address:      "Ghazipur, Delhi",
			DayOfWeek:    &wednesday,
			IsActive:     true,
			ScheduleJSON: schedule("07:00", "19:00"),
		},
		{
			Name:         "Okhla Sabzi Mandi",
			Code:         "OKH",
			City:         "Delhi",
			Address:      "Okhla, Delhi",
			DayOfWeek:    &friday,
			IsActive:     true,
			ScheduleJSON: schedule("06:30", "20:00"),
		},
		{
			Name:         "Vashi APMC",
			Code:         "VSH",
			City:         "Mumbai",
			Address:      "Vashi, Navi Mumbai",
			DayOfWeek:    &sunday,
			IsActive:     true,
			ScheduleJSON: schedule("05:30", "21:00"),
		},
	}

	for i := range markets {
		if err := database.DB.Create(&markets[i]).Error; err != nil {
			log.Printf("Failed to seed market %s: %v", markets[i].Code, err)
		}
	}
	log.Printf("Seeded %d markets", len(markets))
}

// SeedUsers seeds an admin, a market manager and a few field users
func SeedUsers() {
	var count int64
	database.DB.Model(&models.User{}).Count(&count)
	if count > 0 {
		log.Println("Users already seeded, skipping...")
		return
	}

	hashed, err := utils.HashPassword("changeme123")
	if err != nil {
		log.Printf("Failed to hash seed password: %v", err)
		return
	}

	var firstMarket models.Market
	var marketID *uint
	if err := database.DB.Order("id ASC").First(&firstMarket).Error; err == nil {
		marketID = &firstMarket.ID
	}

	users := []models.User{
		{
			Username: "admin",
			Password: hashed,
			Email:    "admin@fieldops.local",
			FullName: "System Administrator",
			Role:     "admin",
			Status:   "active",
		},
		{
			Username: "manager1",
			Password: hashed,
			Email:    "manager1@fieldops.local",
			FullName: "Market Manager One",
			Role:     "market_manager",
			City:     "Delhi",
			Status:   "active",
		},
		{
			Username: "bdo1",
			Password: hashed,
			Email:    "bdo1@fieldops.local",
			FullName: "BDO One",
			Role:     "bdo",
			City:     "Delhi",
			MarketID: marketID,
			Status:   "active",
		},
		{
			Username: "employee1",
			Password: hashed,
			Email:    "employee1@fieldops.local",
			FullName: "Field Employee One",
			Role:     "employee",
			City:     "Delhi",
			MarketID: marketID,
			Status:   "active",
		},
	}

	for i := range users {
		if err := database.DB.Create(&users[i]).Error; err != nil {
			log.Printf("Failed to seed user %s: %v", users[i].Username, err)
		}
	}
	log.Printf("Seeded %d users", len(users))
}
