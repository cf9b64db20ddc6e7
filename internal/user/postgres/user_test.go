package postgres_test

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	userDatamodel "github.com/frahmantamala/goal-tracker/internal/core/datamodel/user"
	"github.com/frahmantamala/goal-tracker/internal/user"
	userPostgres "github.com/frahmantamala/goal-tracker/internal/user/postgres"
)

func TestUserPostgres(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "User Postgres Suite")
}

// SQLiteUser is a SQLite-compatible model for testing
type SQLiteUser struct {
	ID           int64     `gorm:"primaryKey"`
	Email        string    `gorm:"column:email;uniqueIndex;not null"`
	Name         string    `gorm:"column:name;not null"`
	PasswordHash string    `gorm:"column:password_hash;not null"`
	Role         string    `gorm:"column:role;not null"`
	ManagerID    *int64    `gorm:"column:manager_id"`
	Department   string    `gorm:"column:department"`
	IsActive     bool      `gorm:"column:is_active"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

func (SQLiteUser) TableName() string {
	return "users"
}

var _ = Describe("User PostgreSQL Repository", func() {
	var (
		db   *gorm.DB
		repo *userPostgres.UserRepository
		ctx  context.Context
	)

	newUser := func(email, r string) *userDatamodel.User {
		return &userDatamodel.User{Email: email, Name: email, PasswordHash: "x", Role: r, IsActive: true}
	}

	BeforeEach(func() {
		var err error
		ctx = context.Background()
		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(db.AutoMigrate(&SQLiteUser{})).To(Succeed())
		repo = userPostgres.NewUserRepository(db)
	})

	It("should create and fetch a user by id and email", func() {
		u := newUser("vp@corp.test", "VP")
		Expect(repo.Create(ctx, u)).To(Succeed())
		Expect(u.ID).To(BeNumerically(">", 0))

		byID, err := repo.GetByID(ctx, u.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(byID.Role).To(Equal("VP"))

		byEmail, err := repo.GetByEmail(ctx, "vp@corp.test")
		Expect(err).NotTo(HaveOccurred())
		Expect(byEmail.ID).To(Equal(u.ID))
	})

	It("should map missing rows to ErrNotFound", func() {
		_, err := repo.GetByID(ctx, 42)
		Expect(err).To(MatchError(user.ErrNotFound))
		Expect(repo.Delete(ctx, 42)).To(MatchError(user.ErrNotFound))
	})

	It("should filter by role and skip inactive users", func() {
		Expect(repo.Create(ctx, newUser("hr1@corp.test", "HR"))).To(Succeed())
		Expect(repo.Create(ctx, newUser("hr2@corp.test", "HR"))).To(Succeed())
		Expect(repo.Create(ctx, newUser("emp@corp.test", "Employee"))).To(Succeed())
		inactive := newUser("hr3@corp.test", "HR")
		Expect(repo.Create(ctx, inactive)).To(Succeed())
		Expect(db.Model(&SQLiteUser{}).Where("id = ?", inactive.ID).Update("is_active", false).Error).To(Succeed())

		hrs, err := repo.ListByRoles(ctx, []string{"HR"})
		Expect(err).NotTo(HaveOccurred())
		Expect(hrs).To(HaveLen(2))

		all, err := repo.List(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(all).To(HaveLen(3))
	})
})
