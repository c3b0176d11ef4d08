package main

import (
	"context"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/playpool/plinko/internal/admin"
	"github.com/playpool/plinko/internal/config"
	"github.com/playpool/plinko/internal/database"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	db, err := database.Connect(cfg.DatabaseURL, 2, 1)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	phone := os.Getenv("ADMIN_PHONE")
	if phone == "" {
		phone = "256700000000"
		log.Printf("Using default admin phone: %s", phone)
	}

	adminToken := os.Getenv("ADMIN_TOKEN")
	if adminToken == "" {
		adminToken = "change-me-in-production"
		log.Printf("WARNING: Using default admin token. Set ADMIN_TOKEN env var in production!")
	}

	displayName := "Admin"
	roles := []string{"super_admin"}
	allowedIPs := []string{} // empty = any IP
	if ips := os.Getenv("ADMIN_ALLOWED_IPS"); ips != "" {
		for _, ip := range strings.Split(ips, ",") {
			if ip = strings.TrimSpace(ip); ip != "" {
				allowedIPs = append(allowedIPs, ip)
			}
		}
	}

	if err := admin.CreateAdminAccount(context.Background(), db, phone, displayName, adminToken, roles, allowedIPs); err != nil {
		log.Fatalf("Failed to create admin account: %v", err)
	}

	log.Printf("Admin account created/updated")
	log.Printf("  Phone: %s", phone)
	log.Printf("  Roles: %v", roles)
	log.Printf("  Allowed IPs: %v", allowedIPs)
	log.Println("Use the X-Admin-Phone and X-Admin-Token headers on /api/v1/admin routes.")
}
