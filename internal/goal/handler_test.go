package goal_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/frahmantamala/goal-tracker/internal"
	"github.com/frahmantamala/goal-tracker/internal/auth"
	"github.com/frahmantamala/goal-tracker/internal/core/clock"
	goalDatamodel "github.com/frahmantamala/goal-tracker/internal/core/datamodel/goal"
	notificationDatamodel "github.com/frahmantamala/goal-tracker/internal/core/datamodel/notification"
	userDatamodel "github.com/frahmantamala/goal-tracker/internal/core/datamodel/user"
	"github.com/frahmantamala/goal-tracker/internal/core/events"
	"github.com/frahmantamala/goal-tracker/internal/core/role"
	"github.com/frahmantamala/goal-tracker/internal/goal"
	goalPostgres "github.com/frahmantamala/goal-tracker/internal/goal/postgres"
	"github.com/frahmantamala/goal-tracker/internal/mail"
	"github.com/frahmantamala/goal-tracker/internal/notification"
	notificationPostgres "github.com/frahmantamala/goal-tracker/internal/notification/postgres"
	"github.com/frahmantamala/goal-tracker/internal/user"
	userPostgres "github.com/frahmantamala/goal-tracker/internal/user/postgres"
)

var _ = ginkgo.Describe("Goal Handler Integration", func() {
	var (
		db      *gorm.DB
		router  *chi.Mux
		manager *auth.User
		hr      *auth.User
		worker  *auth.User
	)

	seedUser := func(email, name string, r role.Role, managerID *int64) *auth.User {
		row := &userDatamodel.User{Email: email, Name: name, PasswordHash: "x", Role: string(r), ManagerID: managerID, Department: "Sales", IsActive: true}
		gomega.Expect(db.Create(row).Error).To(gomega.Succeed())
		return &auth.User{ID: row.ID, Email: email, Name: name, Role: r, ManagerID: managerID, Department: "Sales"}
	}

	serve := func(actor *auth.User, method, path string, body interface{}) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			gomega.Expect(json.NewEncoder(&buf).Encode(body)).To(gomega.Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req = req.WithContext(internal.ContextWithUserID(auth.WithUser(req.Context(), actor), actor.ID))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	inbox := func(userID int64) []*notificationDatamodel.Notification {
		var rows []*notificationDatamodel.Notification
		gomega.Expect(db.Where("user_id = ?", userID).Order("id").Find(&rows).Error).To(gomega.Succeed())
		return rows
	}

	ginkgo.BeforeEach(func() {
		var err error
		lg := slog.New(slog.NewTextHandler(io.Discard, nil))

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		gomega.Expect(db.AutoMigrate(&userDatamodel.User{}, &goalDatamodel.Goal{}, &notificationDatamodel.Notification{})).To(gomega.Succeed())

		vp := seedUser("vp@mail.com", "Vera", role.VP, nil)
		manager = seedUser("manager@mail.com", "Mona", role.Manager, &vp.ID)
		hr = seedUser("hr@mail.com", "Hana", role.HR, &vp.ID)
		worker = seedUser("emp@mail.com", "Eko", role.Employee, &manager.ID)

		clk := clock.Fixed(time.Date(2026, time.March, 10, 9, 0, 0, 0, clock.IST()), clock.IST())
		users := user.NewService(userPostgres.NewUserRepository(db), lg, 10)
		bus := events.NewEventBus(lg)
		engine := notification.NewService(
			notificationPostgres.NewNotificationRepository(db),
			users,
			mail.NewNoopSender(lg),
			clk,
			internal.NotificationConfig{ResendOwnerFeedback: true},
			nil,
			lg,
		)
		notification.NewEventHandler(engine, lg).RegisterEventHandlers(bus)

		h := goal.NewHandler(goal.NewService(goalPostgres.NewGoalRepository(db), users, bus, clk, lg))
		router = chi.NewRouter()
		router.Post("/goals", h.CreateGoal)
		router.Get("/goals/{id}", h.GetGoal)
		router.Patch("/goals/{id}/approve", h.ApproveGoal)
		router.Patch("/goals/{id}/achievement", h.UpdateAchievement)
	})

	createGoal := func() *goal.Goal {
		month := 3
		rec := serve(worker, http.MethodPost, "/goals", goal.CreateGoalDTO{
			Title: "Close 20 renewals", Year: 2026, Month: &month, MonthlyTarget: 20,
		})
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusCreated))

		var g goal.Goal
		gomega.Expect(json.Unmarshal(rec.Body.Bytes(), &g)).To(gomega.Succeed())
		return &g
	}

	ginkgo.It("creates a pending goal and tells the employee's manager", func() {
		g := createGoal()
		gomega.Expect(g.ApprovalStatus).To(gomega.Equal(goal.ApprovalPending))
		gomega.Expect(g.EndDate).NotTo(gomega.BeNil())

		notes := inbox(manager.ID)
		gomega.Expect(notes).To(gomega.HaveLen(1))
		gomega.Expect(notes[0].ActionType).To(gomega.Equal(string(notification.ActionGoalCreated)))
		gomega.Expect(notes[0].Details).To(gomega.ContainSubstring("Close 20 renewals"))
		gomega.Expect(notes[0].ActionBy).To(gomega.Equal(worker.ID))
		gomega.Expect(inbox(worker.ID)).To(gomega.BeEmpty())
	})

	ginkgo.It("lets the manager approve and notifies the owner and HR", func() {
		g := createGoal()

		rec := serve(manager, http.MethodPatch, "/goals/"+itoa(g.ID)+"/approve", nil)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusOK))

		owner := inbox(worker.ID)
		gomega.Expect(owner).To(gomega.HaveLen(1))
		gomega.Expect(owner[0].ActionType).To(gomega.Equal(string(notification.ActionGoalApproved)))
		gomega.Expect(inbox(hr.ID)).To(gomega.HaveLen(1))
	})

	ginkgo.It("refuses approval from the goal owner", func() {
		g := createGoal()

		rec := serve(worker, http.MethodPatch, "/goals/"+itoa(g.ID)+"/approve", nil)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusForbidden))
		gomega.Expect(inbox(hr.ID)).To(gomega.BeEmpty())
	})

	ginkgo.It("rejects an out of range week", func() {
		g := createGoal()
		week, value := 5, 3.0

		rec := serve(worker, http.MethodPatch, "/goals/"+itoa(g.ID)+"/achievement", goal.AchievementDTO{Week: &week, Achievement: &value})
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
	})

	ginkgo.It("returns 400 for a malformed id", func() {
		rec := serve(worker, http.MethodGet, "/goals/abc", nil)
		gomega.Expect(rec.Code).To(gomega.Equal(http.StatusBadRequest))
	})
})

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
