package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/frahmantamala/goal-tracker/internal/core/role"
)

type seedUser struct {
	Email      string
	Name       string
	Role       role.Role
	Department string
	Manager    string
}

// seedUsers covers one chain of the role hierarchy plus HR, which reports to
// the VP.
var seedUsers = []seedUser{
	{Email: "cmd@mail.com", Name: "Chitra Menon", Role: role.CMD, Department: "Leadership"},
	{Email: "vp@mail.com", Name: "Vikram Patel", Role: role.VP, Department: "Sales", Manager: "cmd@mail.com"},
	{Email: "hr@mail.com", Name: "Harini Rao", Role: role.HR, Department: "People", Manager: "vp@mail.com"},
	{Email: "manager@mail.com", Name: "Manoj Kumar", Role: role.Manager, Department: "Sales", Manager: "vp@mail.com"},
	{Email: "fadhil@mail.com", Name: "Fadhil", Role: role.Employee, Department: "Sales", Manager: "manager@mail.com"},
	{Email: "padil@mail.com", Name: "Padil", Role: role.Employee, Department: "Sales", Manager: "manager@mail.com"},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample users across the role hierarchy and a goal for the current month.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := mustLoadConfig()

		a, err := newApp(cfg)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer a.Close()
		db := a.gorm

		if clearData {
			for _, table := range []string{"notifications", "feedback_replies", "feedback", "goals", "users"} {
				if err := db.Exec(fmt.Sprintf("DELETE FROM %s", table)).Error; err != nil {
					log.Fatalf("failed to clear %s: %v", table, err)
				}
			}
			fmt.Println("Cleared existing data")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte("password"), cfg.Security.BCryptCost)
		if err != nil {
			log.Fatalf("failed to hash password: %v", err)
		}

		ids := make(map[string]int64, len(seedUsers))
		for _, u := range seedUsers {
			var managerID *int64
			if u.Manager != "" {
				id := ids[u.Manager]
				managerID = &id
			}

			id, err := ensureUser(db, u, string(hash), managerID)
			if err != nil {
				log.Fatalf("failed to seed user %s: %v", u.Email, err)
			}
			ids[u.Email] = id
		}

		now := a.clock.Now()
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, -1)
		month := int(now.Month())
		quarter := (month-1)/3 + 1

		owner := ids["fadhil@mail.com"]
		var exists int
		if err := db.Raw("SELECT 1 FROM goals WHERE user_id = ? AND goal_title = ?", owner, "Close 20 renewals").Row().Scan(&exists); err == nil {
			fmt.Println("sample goal already exists")
			return
		}
		if err := db.Exec(`INSERT INTO goals (user_id, goal_title, department, kpi, year, quarter, month, start_date, end_date,
			status, approval_status, monthly_target, created_by, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'Active', 'pending', ?, ?, now(), now())`,
			owner, "Close 20 renewals", "Sales", "Renewals closed", now.Year(), quarter, month, start, end, 20, owner).Error; err != nil {
			log.Fatalf("failed to insert sample goal: %v", err)
		}
		fmt.Println("Seeded sample goal for", now.Format("January 2006"))
	},
}

func ensureUser(db *gorm.DB, u seedUser, hash string, managerID *int64) (int64, error) {
	var id int64
	if err := db.Raw("SELECT id FROM users WHERE email = ?", u.Email).Row().Scan(&id); err == nil {
		fmt.Println("user already exists:", u.Email)
		return id, nil
	}

	err := db.Raw(`INSERT INTO users (email, name, password_hash, role, manager_id, department, is_active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, true, now(), now()) RETURNING id`,
		u.Email, u.Name, hash, string(u.Role), managerID, u.Department).Row().Scan(&id)
	if err != nil {
		return 0, err
	}
	fmt.Printf("Seeded %s user: %s\n", u.Role, u.Email)
	return id, nil
}
