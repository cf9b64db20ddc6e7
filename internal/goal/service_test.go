package goal_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"time"

	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"

	"github.com/frahmantamala/goal-tracker/internal"
	"github.com/frahmantamala/goal-tracker/internal/core/clock"
	goalDatamodel "github.com/frahmantamala/goal-tracker/internal/core/datamodel/goal"
	"github.com/frahmantamala/goal-tracker/internal/core/events"
	"github.com/frahmantamala/goal-tracker/internal/core/role"
	"github.com/frahmantamala/goal-tracker/internal/goal"
	"github.com/frahmantamala/goal-tracker/internal/user"
)

type mockGoalRepository struct {
	goals      map[int64]*goalDatamodel.Goal
	nextID     int64
	shouldFail bool
	failError  error
}

func newMockGoalRepository() *mockGoalRepository {
	return &mockGoalRepository{goals: map[int64]*goalDatamodel.Goal{}, nextID: 1}
}

func (m *mockGoalRepository) GetByID(ctx context.Context, id int64) (*goalDatamodel.Goal, error) {
	if g, ok := m.goals[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, goal.ErrNotFound
}

func (m *mockGoalRepository) ListByUser(ctx context.Context, userID int64) ([]*goalDatamodel.Goal, error) {
	if m.shouldFail {
		return nil, m.failError
	}
	var out []*goalDatamodel.Goal
	for i := int64(1); i < m.nextID; i++ {
		if g, ok := m.goals[i]; ok && g.UserID == userID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (m *mockGoalRepository) Create(ctx context.Context, g *goalDatamodel.Goal) error {
	if m.shouldFail {
		return m.failError
	}
	g.ID = m.nextID
	m.nextID++
	m.goals[g.ID] = g
	return nil
}

func (m *mockGoalRepository) Update(ctx context.Context, g *goalDatamodel.Goal) error {
	if m.shouldFail {
		return m.failError
	}
	m.goals[g.ID] = g
	return nil
}

func (m *mockGoalRepository) Delete(ctx context.Context, id int64) error {
	if _, ok := m.goals[id]; !ok {
		return goal.ErrNotFound
	}
	delete(m.goals, id)
	return nil
}

type mockDirectory map[int64]*user.User

func (d mockDirectory) GetByID(ctx context.Context, id int64) (*user.User, error) {
	if u, ok := d[id]; ok {
		return u, nil
	}
	return nil, internal.ErrUserNotFound
}

type recordingPublisher struct {
	events []events.Event
	err    error
}

func (p *recordingPublisher) PublishSync(ctx context.Context, ev events.Event) error {
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) types() []string {
	var out []string
	for _, ev := range p.events {
		out = append(out, ev.EventType())
	}
	return out
}

var _ = ginkgo.Describe("Goal Service", func() {
	var (
		repo      *mockGoalRepository
		publisher *recordingPublisher
		service   *goal.Service
		ctx       context.Context
		cmd       *user.User
		manager   *user.User
		emp       *user.User
		peer      *user.User
	)

	now := time.Date(2026, time.March, 10, 9, 0, 0, 0, clock.IST())

	ginkgo.BeforeEach(func() {
		ctx = context.Background()
		repo = newMockGoalRepository()
		publisher = &recordingPublisher{}

		cmd = &user.User{ID: 1, Name: "Chief", Role: role.CMD, IsActive: true}
		manager = &user.User{ID: 2, Name: "Mona", Role: role.Manager, Department: "Sales", IsActive: true}
		emp = &user.User{ID: 3, Name: "Eli", Role: role.Employee, ManagerID: &manager.ID, Department: "Sales", IsActive: true}
		peer = &user.User{ID: 4, Name: "Pat", Role: role.Employee, IsActive: true}
		directory := mockDirectory{cmd.ID: cmd, manager.ID: manager, emp.ID: emp, peer.ID: peer}

		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = goal.NewService(repo, directory, publisher, clock.Fixed(now, clock.IST()), logger)
	})

	createOwn := func(actor *user.User, target float64) *goal.Goal {
		g, err := service.Create(ctx, actor, goal.CreateGoalDTO{
			Title: "Close deals", Year: 2026, Month: intp(3), MonthlyTarget: target,
		})
		gomega.Expect(err).NotTo(gomega.HaveOccurred())
		return g
	}

	ginkgo.Describe("Create", func() {
		ginkgo.It("should leave an employee's own goal pending and derive period fields", func() {
			g := createOwn(emp, 10)
			gomega.Expect(g.ApprovalStatus).To(gomega.Equal(goal.ApprovalPending))
			gomega.Expect(g.Quarter).To(gomega.Equal(4))
			gomega.Expect(g.Department).To(gomega.Equal("Sales"))
			gomega.Expect(g.StartDate.Day()).To(gomega.Equal(1))
			gomega.Expect(g.EndDate.Day()).To(gomega.Equal(31))
			gomega.Expect(publisher.types()).To(gomega.Equal([]string{events.EventTypeGoalCreated}))
		})

		ginkgo.It("should auto-approve goals owned by CMD", func() {
			g := createOwn(cmd, 10)
			gomega.Expect(g.ApprovalStatus).To(gomega.Equal(goal.ApprovalApproved))
		})

		ginkgo.It("should auto-approve goals created on behalf of a subordinate", func() {
			g, err := service.Create(ctx, manager, goal.CreateGoalDTO{
				UserID: &emp.ID, Title: "Onboard", Year: 2026, Month: intp(3), MonthlyTarget: 4,
			})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(g.UserID).To(gomega.Equal(emp.ID))
			gomega.Expect(g.CreatedBy).To(gomega.Equal(manager.ID))
			gomega.Expect(g.ApprovalStatus).To(gomega.Equal(goal.ApprovalApproved))
		})

		ginkgo.It("should refuse proxy creation for a peer", func() {
			_, err := service.Create(ctx, emp, goal.CreateGoalDTO{
				UserID: &peer.ID, Title: "Nope", Year: 2026, Month: intp(3),
			})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInsufficientRole))
		})

		ginkgo.It("should reject an invalid week", func() {
			_, err := service.Create(ctx, emp, goal.CreateGoalDTO{Title: "x", Year: 2026, Week: intp(5)})
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeValidation))
		})

		ginkgo.It("should still succeed when publishing fails", func() {
			publisher.err = errors.New("handler failed")
			createOwn(emp, 10)
			gomega.Expect(repo.goals).To(gomega.HaveLen(1))
		})
	})

	ginkgo.Describe("Approve", func() {
		ginkgo.It("should let a higher role approve a pending goal", func() {
			g := createOwn(emp, 10)
			approved, err := service.Approve(ctx, manager, g.ID)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(approved.ApprovalStatus).To(gomega.Equal(goal.ApprovalApproved))
			gomega.Expect(*approved.ApprovedBy).To(gomega.Equal(manager.ID))
			gomega.Expect(publisher.types()).To(gomega.ContainElement(events.EventTypeGoalApproved))
		})

		ginkgo.It("should refuse approval by a peer", func() {
			g := createOwn(emp, 10)
			_, err := service.Approve(ctx, peer, g.ID)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInsufficientRole))
		})

		ginkgo.It("should refuse to review an already approved goal", func() {
			g := createOwn(emp, 10)
			_, err := service.Approve(ctx, manager, g.ID)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			_, err = service.Reject(ctx, manager, g.ID)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInvalidGoalStatus))
		})

		ginkgo.It("should not publish on rejection", func() {
			g := createOwn(emp, 10)
			publisher.events = nil
			_, err := service.Reject(ctx, manager, g.ID)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(publisher.events).To(gomega.BeEmpty())
		})
	})

	ginkgo.Describe("UpdateAchievement", func() {
		ginkgo.It("should publish a weekly update", func() {
			g := createOwn(emp, 10)
			publisher.events = nil
			updated, err := service.UpdateAchievement(ctx, emp, g.ID, goal.AchievementDTO{Week: intp(2), Achievement: f64(3)})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(*updated.Week2Achievement).To(gomega.Equal(3.0))
			gomega.Expect(publisher.types()).To(gomega.Equal([]string{events.EventTypeAchievementUpdated}))
			gomega.Expect(publisher.events[0].(*events.GoalEvent).Week).To(gomega.Equal(2))
		})

		ginkgo.It("should complete the goal once the target is reached", func() {
			g := createOwn(emp, 10)
			publisher.events = nil
			updated, err := service.UpdateAchievement(ctx, emp, g.ID, goal.AchievementDTO{MonthlyAchievement: f64(10)})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(updated.Status).To(gomega.Equal(goal.StatusCompleted))
			gomega.Expect(updated.CompletedAt).NotTo(gomega.BeNil())
			gomega.Expect(publisher.types()).To(gomega.Equal([]string{events.EventTypeGoalCompleted}))
		})

		ginkgo.It("should refuse updates from a peer", func() {
			g := createOwn(emp, 10)
			_, err := service.UpdateAchievement(ctx, peer, g.ID, goal.AchievementDTO{MonthlyAchievement: f64(1)})
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInsufficientRole))
		})
	})

	ginkgo.Describe("Update and Delete", func() {
		ginkgo.It("should publish an edit by a higher role", func() {
			g := createOwn(emp, 10)
			title := "Close more deals"
			updated, err := service.Update(ctx, manager, g.ID, goal.UpdateGoalDTO{Title: &title})
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(updated.Title).To(gomega.Equal(title))

			last := publisher.events[len(publisher.events)-1].(*events.GoalEvent)
			gomega.Expect(last.EventType()).To(gomega.Equal(events.EventTypeGoalEdited))
			gomega.Expect(last.ActorID).To(gomega.Equal(manager.ID))
			gomega.Expect(last.OwnerID).To(gomega.Equal(emp.ID))
		})

		ginkgo.It("should refuse to complete a goal through an edit", func() {
			g := createOwn(emp, 10)
			publisher.events = nil
			status := string(goal.StatusCompleted)

			_, err := service.Update(ctx, manager, g.ID, goal.UpdateGoalDTO{Status: &status})
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Code).To(gomega.Equal(internal.ErrCodeInvalidGoalStatus))
			gomega.Expect(publisher.events).To(gomega.BeEmpty())

			stored, err := service.Get(ctx, manager, g.ID)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(stored.Status).NotTo(gomega.Equal(goal.StatusCompleted))
			gomega.Expect(stored.CompletedAt).To(gomega.BeNil())
		})

		ginkgo.It("should delete and publish with the goal snapshot", func() {
			g := createOwn(emp, 10)
			gomega.Expect(service.Delete(ctx, emp, g.ID)).To(gomega.Succeed())
			gomega.Expect(repo.goals).To(gomega.BeEmpty())

			last := publisher.events[len(publisher.events)-1].(*events.GoalEvent)
			gomega.Expect(last.EventType()).To(gomega.Equal(events.EventTypeGoalDeleted))
			gomega.Expect(last.GoalTitle).To(gomega.Equal("Close deals"))
		})

		ginkgo.It("should map a missing goal to ErrGoalNotFound", func() {
			gomega.Expect(service.Delete(ctx, emp, 99)).To(gomega.MatchError(internal.ErrGoalNotFound))
		})
	})

	ginkgo.Describe("reads", func() {
		ginkgo.It("should hide a manager's goals from an employee", func() {
			g := createOwn(manager, 10)
			_, err := service.Get(ctx, emp, g.ID)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInsufficientRole))

			_, err = service.ListForUser(ctx, emp, manager.ID)
			gomega.Expect(err).To(gomega.MatchError(internal.ErrInsufficientRole))
		})

		ginkgo.It("should return nil metrics when nothing is approved", func() {
			createOwn(emp, 10)
			m, err := service.Metrics(ctx, emp, emp.ID)
			gomega.Expect(err).NotTo(gomega.HaveOccurred())
			gomega.Expect(m).To(gomega.BeNil())
		})

		ginkgo.It("should wrap repository failures as internal errors", func() {
			repo.shouldFail = true
			repo.failError = errors.New("db down")
			_, err := service.ListOwnedBy(ctx, emp.ID)
			appErr, ok := internal.IsAppError(err)
			gomega.Expect(ok).To(gomega.BeTrue())
			gomega.Expect(appErr.Type).To(gomega.Equal(internal.ErrorTypeInternal))
		})
	})
})
