package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"

	"carrental/internal/database"
	"carrental/internal/domain"
	"carrental/internal/modules/availability"
	"carrental/internal/modules/booking"
	"carrental/internal/modules/catalog"
	"carrental/internal/pkg/clock"
	"carrental/internal/repository"
)

// Seeds a demo fleet with one user per role and a pending booking.
// Safe to run repeatedly: existing demo users are kept as is.
func main() {
	_ = godotenv.Load()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "carrental.db"
	}

	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}

	log.Println("Running AutoMigrate...")
	if err := repository.Migrate(db); err != nil {
		log.Fatal("AutoMigrate failed:", err)
	}

	ctx := context.Background()
	userRepo := repository.NewUserRepository(db)
	carRepo := repository.NewCarRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	clk := clock.System()

	admin := seedUser(ctx, userRepo, "admin@carrental.local", "admin123", "Demo Admin", domain.RoleAdmin)
	hoster := seedUser(ctx, userRepo, "hoster@carrental.local", "hoster123", "Demo Hoster", domain.RoleHoster)
	customer := seedUser(ctx, userRepo, "customer@carrental.local", "customer123", "Demo Customer", domain.RoleCustomer)
	_ = admin

	catalogService := catalog.NewService(carRepo, bookingRepo, availability.NewIndex(), clk)

	cars := []catalog.CreateCarRequest{
		{OwnerID: hoster.ID, Name: "City Hatch", Brand: "Toyota", PricePerDay: 45, LocationTag: "downtown"},
		{OwnerID: hoster.ID, Name: "Family SUV", Brand: "Kia", PricePerDay: 85, LocationTag: "airport"},
		{OwnerID: hoster.ID, Name: "Weekend Cabrio", Brand: "Mazda", PricePerDay: 120, LocationTag: "marina"},
	}
	var firstCar *domain.Car
	for _, req := range cars {
		car, err := catalogService.Create(ctx, req)
		if err != nil {
			log.Fatal("car seed failed:", err)
		}
		if firstCar == nil {
			firstCar = car
		}
		log.Printf("seeded car id=%d name=%q price=%.2f", car.ID, car.Name, car.PricePerDay)
	}

	start := clk.Now().AddDate(0, 0, 7)
	bookingService := booking.NewService(
		bookingRepo, carRepo, availability.NewIndex(),
		nil, nil, nil, clk, booking.DefaultConfig(),
	)
	b, err := bookingService.Create(ctx, booking.CreateBookingRequest{
		CarID:      firstCar.ID,
		CustomerID: customer.ID,
		StartDate:  start,
		EndDate:    start.AddDate(0, 0, 3),
		StartTime:  "10:00",
		EndTime:    "10:00",
	})
	if err != nil {
		log.Fatal("booking seed failed:", err)
	}
	log.Printf("seeded booking number=%s total=%.2f", b.BookingNumber, b.TotalAmount)
}

func seedUser(ctx context.Context, users *repository.UserRepository, email, password, name string, role domain.Role) *domain.User {
	exists, err := users.ExistsByEmail(ctx, email)
	if err != nil {
		log.Fatal("user lookup failed:", err)
	}
	if exists {
		u, err := users.GetByEmailAndRole(ctx, email, role)
		if err != nil {
			log.Fatal("user lookup failed:", err)
		}
		return u
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatal("password hash failed:", err)
	}
	now := time.Now()
	u := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		Name:         name,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := users.Create(ctx, u); err != nil {
		log.Fatal("user seed failed:", err)
	}
	log.Printf("seeded user email=%s role=%s", email, role)
	return u
}
