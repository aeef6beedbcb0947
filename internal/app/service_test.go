package service_test

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/crypto/bcrypt"

	"github.com/okian/skillup/internal/adapters/identity"
	"github.com/okian/skillup/internal/adapters/repository"
	service "github.com/okian/skillup/internal/app"
	"github.com/okian/skillup/internal/domain/biometric"
	"github.com/okian/skillup/internal/domain/catalog"
	"github.com/okian/skillup/internal/domain/matcher"
	"github.com/okian/skillup/internal/domain/model"
)

const testCatalog = `
skillCategories:
  - name: "Core"
    skills: [A, B, C]
courses:
  - title: K0
    provider: Udemy
    price: "$10"
    skills: [Z]
  - title: K1
    provider: Coursera
    price: "$10"
    skills: [B]
  - title: K2
    provider: Udemy
    price: Free
    skills: [C, A]
careers:
  - id: c
    name: Career C
    requiredSkills: [A, B, C]
  - id: d
    name: Career D
    requiredSkills: [Z]
`

func testCat() *catalog.Catalog {
	c, err := catalog.Decode(strings.NewReader(testCatalog))
	if err != nil {
		panic(err)
	}
	return c
}

func newService(opts ...service.Option) *service.Service {
	base := []service.Option{
		service.WithCatalog(testCat()),
		service.WithIdentityOptions(identity.WithBcryptCost(bcrypt.MinCost)),
		service.WithINRRate(83),
	}
	return service.New(append(base, opts...)...)
}

func ptr(s string) *string { return &s }

func started(opts ...service.Option) (*service.Service, context.Context) {
	ctx := context.Background()
	svc := newService(opts...)
	So(svc.Start(ctx), ShouldBeNil)
	return svc, ctx
}

func titles(courses []model.Course) []string {
	out := make([]string, len(courses))
	for i, c := range courses {
		out[i] = c.Title
	}
	return out
}

func TestService_Lifecycle(t *testing.T) {
	Convey("Given a new service", t, func() {
		svc := newService(service.WithWriterCount(2), service.WithQueueSize(8))

		Convey("stats before start report it stopped", func() {
			So(svc.GetStats()["started"], ShouldEqual, false)
		})

		Convey("operations before start fail", func() {
			_, err := svc.Skills(context.Background(), "u")
			So(err, ShouldEqual, service.ErrNotStarted)
		})

		Convey("catalog reads before start fail without a catalog", func() {
			bare := service.New()
			_, err := bare.Careers("")
			So(err, ShouldEqual, service.ErrNotStarted)
			_, err = bare.Career("c")
			So(err, ShouldEqual, service.ErrNotStarted)
			_, err = bare.Categories()
			So(err, ShouldEqual, service.ErrNotStarted)
			_, err = bare.SuggestSkills("", "a")
			So(err, ShouldEqual, service.ErrNotStarted)
			_, err = bare.Courses()
			So(err, ShouldEqual, service.ErrNotStarted)
		})

		Convey("when started", func() {
			ctx := context.Background()
			So(svc.Start(ctx), ShouldBeNil)
			So(svc.Start(ctx), ShouldBeNil)

			stats := svc.GetStats()
			So(stats["started"], ShouldEqual, true)
			So(stats["writerCount"], ShouldEqual, 2)
			So(stats["careers"], ShouldEqual, 2)
			So(stats["queueLength"], ShouldEqual, 0)

			Convey("and stopped", func() {
				So(svc.Stop(ctx), ShouldBeNil)
				So(svc.Stop(ctx), ShouldBeNil)
				So(svc.GetStats()["started"], ShouldEqual, false)
			})
		})
	})
}

func TestService_Auth(t *testing.T) {
	Convey("Given a started service", t, func() {
		profiles := repository.NewMemoryProfiles()
		svc, ctx := started(service.WithProfileStore(profiles))
		defer svc.Stop(ctx)

		form := identity.Signup{FirstName: "Asha", LastName: "Rao", Email: "asha@example.com", Password: "secret1", ConfirmPassword: "secret1"}

		Convey("signup creates the profile document and a usable token", func() {
			sess, err := svc.Signup(ctx, form)
			So(err, ShouldBeNil)
			So(sess.Token, ShouldNotBeEmpty)

			uid, err := svc.Authenticate(sess.Token)
			So(err, ShouldBeNil)
			So(uid, ShouldEqual, sess.UserID)

			doc, err := profiles.Get(ctx, sess.UserID)
			So(err, ShouldBeNil)
			So(doc.PersonalDetails.FirstName, ShouldEqual, "Asha")
			So(doc.PersonalDetails.Email, ShouldEqual, "asha@example.com")
			So(doc.CreatedAt.IsZero(), ShouldBeFalse)

			Convey("login returns the same user", func() {
				again, err := svc.Login(ctx, "asha@example.com", "secret1")
				So(err, ShouldBeNil)
				So(again.UserID, ShouldEqual, sess.UserID)
			})

			Convey("a second signup is rejected with the user-facing message", func() {
				_, err := svc.Signup(ctx, form)
				So(errors.Is(err, identity.ErrEmailInUse), ShouldBeTrue)
				So(svc.AuthMessage(err), ShouldEqual, "An account with this email already exists.")
			})
		})

		Convey("login with a wrong password fails", func() {
			_, err := svc.Signup(ctx, form)
			So(err, ShouldBeNil)
			_, err = svc.Login(ctx, "asha@example.com", "nope123")
			So(err, ShouldEqual, identity.ErrWrongPassword)
		})

		Convey("a bogus token is rejected", func() {
			_, err := svc.Authenticate("bogus")
			So(err, ShouldEqual, identity.ErrInvalidToken)
		})
	})
}

func TestService_Profile(t *testing.T) {
	Convey("Given a started service with a registered user", t, func() {
		profiles := repository.NewMemoryProfiles()
		svc, ctx := started(service.WithProfileStore(profiles))
		sess, err := svc.Signup(ctx, identity.Signup{FirstName: "Ravi", LastName: "K", Email: "ravi@example.com", Password: "secret1", ConfirmPassword: "secret1"})
		So(err, ShouldBeNil)
		uid := sess.UserID

		Convey("an unknown user has no profile", func() {
			_, err := svc.Profile(ctx, "nobody")
			So(errors.Is(err, repository.ErrNotFound), ShouldBeTrue)
		})

		Convey("UpdateProfile writes present fields and keeps the rest", func() {
			before, err := profiles.Get(ctx, uid)
			So(err, ShouldBeNil)

			doc, err := svc.UpdateProfile(ctx, uid, model.DetailsPatch{Company: ptr("Acme")})
			So(err, ShouldBeNil)
			So(doc.PersonalDetails.FirstName, ShouldEqual, "Ravi")
			So(doc.PersonalDetails.Company, ShouldEqual, "Acme")
			So(doc.CreatedAt.Equal(before.CreatedAt), ShouldBeTrue)
		})

		Convey("UpdateProfile can clear a field", func() {
			_, err := svc.UpdateProfile(ctx, uid, model.DetailsPatch{Bio: ptr("old bio")})
			So(err, ShouldBeNil)
			doc, err := svc.UpdateProfile(ctx, uid, model.DetailsPatch{Bio: ptr("")})
			So(err, ShouldBeNil)
			So(doc.PersonalDetails.Bio, ShouldEqual, "")

			stored, err := profiles.Get(ctx, uid)
			So(err, ShouldBeNil)
			So(stored.PersonalDetails.Bio, ShouldEqual, "")
		})

		Convey("a profile edit wins over an earlier queued onboarding write", func() {
			err := svc.SubmitPersonalDetails(ctx, uid, model.PersonalDetails{FirstName: "Ravi", LastName: "Kumar", Role: "Queued"})
			So(err, ShouldBeNil)
			_, err = svc.UpdateProfile(ctx, uid, model.DetailsPatch{Role: ptr("Edited")})
			So(err, ShouldBeNil)

			So(svc.Stop(ctx), ShouldBeNil)
			doc, err := profiles.Get(ctx, uid)
			So(err, ShouldBeNil)
			So(doc.PersonalDetails.Role, ShouldEqual, "Edited")
		})

		Convey("SubmitPersonalDetails is persisted by the writers", func() {
			err := svc.SubmitPersonalDetails(ctx, uid, model.PersonalDetails{FirstName: "Ravi", LastName: "Kumar", Role: "Engineer"})
			So(err, ShouldBeNil)

			// Stop drains the write queue.
			So(svc.Stop(ctx), ShouldBeNil)
			doc, err := profiles.Get(ctx, uid)
			So(err, ShouldBeNil)
			So(doc.PersonalDetails.LastName, ShouldEqual, "Kumar")
			So(doc.PersonalDetails.Role, ShouldEqual, "Engineer")
			So(doc.PersonalDetails.Email, ShouldEqual, "ravi@example.com")
		})

		Convey("SubmitPersonalDetails requires a name", func() {
			err := svc.SubmitPersonalDetails(ctx, uid, model.PersonalDetails{Role: "Engineer"})
			So(err, ShouldEqual, service.ErrMissingDetails)
		})

		Reset(func() { _ = svc.Stop(ctx) })
	})
}

// blockingProfiles holds every Set until release is closed.
type blockingProfiles struct {
	repository.ProfileStore
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingProfiles) Set(ctx context.Context, uid string, p model.Profile, merge bool) error {
	b.once.Do(func() { close(b.entered) })
	<-b.release
	return b.ProfileStore.Set(ctx, uid, p, merge)
}

func TestService_Backpressure(t *testing.T) {
	Convey("Given one writer stuck on a slow store and a queue of one", t, func() {
		store := &blockingProfiles{
			ProfileStore: repository.NewMemoryProfiles(),
			entered:      make(chan struct{}),
			release:      make(chan struct{}),
		}
		svc, ctx := started(
			service.WithProfileStore(store),
			service.WithWriterCount(1),
			service.WithQueueSize(1),
		)
		details := model.PersonalDetails{FirstName: "A", LastName: "B"}

		So(svc.SubmitPersonalDetails(ctx, "u1", details), ShouldBeNil)
		<-store.entered

		// One write is parked with the dispatcher; the next fills the queue.
		var err error
		for i := 2; i < 10 && err == nil; i++ {
			err = svc.SubmitPersonalDetails(ctx, "u"+strconv.Itoa(i), details)
			if err == nil {
				time.Sleep(10 * time.Millisecond)
			}
		}
		So(errors.Is(err, service.ErrBackpressure), ShouldBeTrue)

		close(store.release)
		So(svc.Stop(ctx), ShouldBeNil)
	})
}

func TestService_Skills(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, ctx := started()
		defer svc.Stop(ctx)

		added, skills, err := svc.AddSkill(ctx, "u", model.Skill{Name: " Go ", Level: 70})
		So(err, ShouldBeNil)
		So(added, ShouldBeTrue)
		So(skills, ShouldResemble, []model.Skill{{Name: "Go", Level: 70}})

		Convey("adding a duplicate is a no-op", func() {
			added, skills, err := svc.AddSkill(ctx, "u", model.Skill{Name: "Go", Level: 10})
			So(err, ShouldBeNil)
			So(added, ShouldBeFalse)
			So(skills[0].Level, ShouldEqual, 70)
		})

		Convey("empty names are rejected", func() {
			_, _, err := svc.AddSkill(ctx, "u", model.Skill{Name: "  "})
			So(err, ShouldEqual, service.ErrInvalidSkill)
		})

		Convey("a comma separated list adds only new names", func() {
			names, skills, err := svc.ParseSkills(ctx, "u", "SQL, Go,, Docker ", 40)
			So(err, ShouldBeNil)
			So(names, ShouldResemble, []string{"SQL", "Docker"})
			So(len(skills), ShouldEqual, 3)
		})

		Convey("levels change only for existing skills", func() {
			skills, err := svc.SetSkillLevel(ctx, "u", "Go", 95)
			So(err, ShouldBeNil)
			So(skills[0].Level, ShouldEqual, 95)

			_, err = svc.SetSkillLevel(ctx, "u", "Rust", 10)
			So(errors.Is(err, service.ErrSkillNotFound), ShouldBeTrue)
		})

		Convey("removing works and is idempotent", func() {
			skills, err := svc.RemoveSkill(ctx, "u", "Go")
			So(err, ShouldBeNil)
			So(skills, ShouldBeEmpty)
			skills, err = svc.RemoveSkill(ctx, "u", "Go")
			So(err, ShouldBeNil)
			So(skills, ShouldBeEmpty)
		})

		Convey("skills are isolated per user", func() {
			other, err := svc.Skills(ctx, "someone-else")
			So(err, ShouldBeNil)
			So(other, ShouldBeEmpty)
		})
	})
}

func TestService_Goals(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, ctx := started()
		defer svc.Stop(ctx)

		Convey("an unknown career cannot be selected", func() {
			_, err := svc.AddGoal(ctx, "u", "nope")
			So(errors.Is(err, catalog.ErrCareerNotFound), ShouldBeTrue)
		})

		Convey("selecting twice reports already set", func() {
			added, err := svc.AddGoal(ctx, "u", "c")
			So(err, ShouldBeNil)
			So(added, ShouldBeTrue)
			added, err = svc.AddGoal(ctx, "u", "c")
			So(err, ShouldBeNil)
			So(added, ShouldBeFalse)
		})

		Convey("removal keeps the history until cleared", func() {
			_, err := svc.AddGoal(ctx, "u", "c")
			So(err, ShouldBeNil)
			_, err = svc.AddGoal(ctx, "u", "d")
			So(err, ShouldBeNil)
			So(svc.RemoveGoal(ctx, "u", "c"), ShouldBeNil)
			So(svc.RemoveGoal(ctx, "u", "c"), ShouldBeNil)

			g, err := svc.Goals(ctx, "u")
			So(err, ShouldBeNil)
			So(len(g.Goals), ShouldEqual, 1)
			So(g.Goals[0].ID, ShouldEqual, "d")
			So(len(g.History), ShouldEqual, 2)

			So(svc.ClearHistory(ctx, "u"), ShouldBeNil)
			g, err = svc.Goals(ctx, "u")
			So(err, ShouldBeNil)
			So(g.History, ShouldBeEmpty)
		})

		Convey("settings toggle independently", func() {
			on := true
			st, err := svc.UpdateSettings(ctx, "u", service.SettingsUpdate{Notifications: &on})
			So(err, ShouldBeNil)
			So(st.Notifications, ShouldBeTrue)
			So(st.WeeklyReports, ShouldBeFalse)
		})

		Convey("career search covers skills", func() {
			cs, err := svc.Careers("z")
			So(err, ShouldBeNil)
			So(len(cs), ShouldEqual, 1)
			cs, err = svc.Careers("")
			So(err, ShouldBeNil)
			So(len(cs), ShouldEqual, 2)
		})
	})
}

func TestService_Gap(t *testing.T) {
	Convey("Given a user who knows A", t, func() {
		svc, ctx := started()
		defer svc.Stop(ctx)
		_, _, err := svc.AddSkill(ctx, "u", model.Skill{Name: "A", Level: 60})
		So(err, ShouldBeNil)

		Convey("targeting career c reports B and C missing", func() {
			g, err := svc.Gap(ctx, "u", "c", matcher.Filter{})
			So(err, ShouldBeNil)
			So(g.MissingSkills, ShouldResemble, []string{"B", "C"})
			So(titles(g.LearningPath), ShouldResemble, []string{"K1", "K2"})
			So(g.LearningPath[0].Price, ShouldEqual, "₹830")
			So(g.LearningPath[1].Price, ShouldEqual, "Free")

			ranked := make([]string, len(g.Courses))
			for i, r := range g.Courses {
				ranked[i] = r.Course.Title
			}
			So(ranked, ShouldResemble, []string{"K1", "K2"})
		})

		Convey("with every required skill the catalog comes back unscored", func() {
			_, _, err := svc.ParseSkills(ctx, "u", "B, C", 50)
			So(err, ShouldBeNil)
			g, err := svc.Gap(ctx, "u", "c", matcher.Filter{})
			So(err, ShouldBeNil)
			So(g.MissingSkills, ShouldBeEmpty)
			So(g.LearningPath, ShouldBeEmpty)
			So(len(g.Courses), ShouldEqual, 3)
			for _, r := range g.Courses {
				So(r.Score, ShouldEqual, 0)
			}
		})

		Convey("without a career or goal there is no target", func() {
			g, err := svc.Gap(ctx, "u", "", matcher.Filter{Cost: matcher.CostFree})
			So(err, ShouldBeNil)
			So(g.Career, ShouldBeNil)
			So(len(g.Courses), ShouldEqual, 1)
			So(g.Courses[0].Course.Title, ShouldEqual, "K2")
		})

		Convey("without a career the first goal is used", func() {
			_, err := svc.AddGoal(ctx, "u", "d")
			So(err, ShouldBeNil)
			g, err := svc.Gap(ctx, "u", "", matcher.Filter{})
			So(err, ShouldBeNil)
			So(g.Career.ID, ShouldEqual, "d")
			So(g.MissingSkills, ShouldResemble, []string{"Z"})
		})

		Convey("an unknown career is an error", func() {
			_, err := svc.Gap(ctx, "u", "zzz", matcher.Filter{})
			So(errors.Is(err, catalog.ErrCareerNotFound), ShouldBeTrue)
		})

		Convey("course prices are shown in rupees", func() {
			courses, err := svc.Courses()
			So(err, ShouldBeNil)
			So(courses[0].Price, ShouldEqual, "₹830")
		})
	})
}

func TestService_ProgressAndDashboard(t *testing.T) {
	Convey("Given a user without a profile", t, func() {
		svc, ctx := started()
		defer svc.Stop(ctx)

		d, err := svc.Dashboard(ctx, "u")
		So(err, ShouldBeNil)
		So(d.ProfileIncomplete, ShouldBeTrue)
		So(d.Message, ShouldEqual, service.ProfileIncompleteMessage)
		So(d.Gap, ShouldBeNil)

		Convey("with skills and a goal", func() {
			_, _, err := svc.AddSkill(ctx, "u", model.Skill{Name: "A", Level: 60})
			So(err, ShouldBeNil)
			_, _, err = svc.AddSkill(ctx, "u", model.Skill{Name: "B", Level: 80})
			So(err, ShouldBeNil)
			_, err = svc.AddGoal(ctx, "u", "c")
			So(err, ShouldBeNil)

			p, err := svc.Progress(ctx, "u")
			So(err, ShouldBeNil)
			So(p.SkillCount, ShouldEqual, 2)
			So(p.AverageLevel, ShouldEqual, 70)
			So(len(p.Goals), ShouldEqual, 1)
			So(p.Goals[0].Covered, ShouldEqual, 2)
			So(p.Goals[0].Required, ShouldEqual, 3)
			So(p.Goals[0].Percent, ShouldEqual, 67)
			So(p.Goals[0].AverageLevel, ShouldEqual, 70)

			d, err := svc.Dashboard(ctx, "u")
			So(err, ShouldBeNil)
			So(d.SkillCount, ShouldEqual, 2)
			So(d.Gap.MissingSkills, ShouldResemble, []string{"C"})
			So(d.Gap.PathLength, ShouldEqual, 1)
		})
	})
}

func TestService_Biometric(t *testing.T) {
	Convey("Given a started service with a fast ticker", t, func() {
		svc, ctx := started(service.WithBiometricOptions(biometric.WithTick(5 * time.Millisecond)))
		defer svc.Stop(ctx)

		Convey("a session needs a connected device", func() {
			_, err := svc.StartSession("u")
			So(err, ShouldEqual, biometric.ErrDeviceDisconnected)
		})

		Convey("a full session is recorded", func() {
			_, err := svc.ConnectDevice("u")
			So(err, ShouldBeNil)
			readings, cancel, err := svc.SubscribeReadings("u")
			So(err, ShouldBeNil)
			defer cancel()

			st, err := svc.StartSession("u")
			So(err, ShouldBeNil)
			So(st.SessionActive, ShouldBeTrue)

			r := <-readings
			So(r.HeartRate, ShouldBeBetweenOrEqual, 60.0, 120.0)

			sess, err := svc.StopSession("u")
			So(err, ShouldBeNil)
			So(sess.ID, ShouldNotBeEmpty)

			history, err := svc.StudySessions("u")
			So(err, ShouldBeNil)
			So(len(history), ShouldEqual, 1)

			rep, err := svc.Performance("u")
			So(err, ShouldBeNil)
			So(rep.Score, ShouldBeBetweenOrEqual, 0, 100)

			st, err = svc.DisconnectDevice("u")
			So(err, ShouldBeNil)
			So(st.DeviceConnected, ShouldBeFalse)
		})
	})
}
