package model_test

import (
	"testing"
	"time"

	model "github.com/okian/skillup/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestClampLevel(t *testing.T) {
	convey.Convey("Given levels outside and inside the proficiency range", t, func() {
		convey.So(model.ClampLevel(-5), convey.ShouldEqual, 0)
		convey.So(model.ClampLevel(0), convey.ShouldEqual, 0)
		convey.So(model.ClampLevel(55), convey.ShouldEqual, 55)
		convey.So(model.ClampLevel(100), convey.ShouldEqual, 100)
		convey.So(model.ClampLevel(140), convey.ShouldEqual, 100)
	})
}

func TestCourse(t *testing.T) {
	convey.Convey("Given a catalog course", t, func() {
		c := model.Course{Title: "K2", Skills: []string{"C", "A"}, Price: "$10"}

		convey.Convey("Then coverage is an exact, case-sensitive match", func() {
			convey.So(c.Covers("C"), convey.ShouldBeTrue)
			convey.So(c.Covers("c"), convey.ShouldBeFalse)
			convey.So(c.Covers("B"), convey.ShouldBeFalse)
		})

		convey.Convey("Then only the literal Free price counts as free", func() {
			convey.So(c.IsFree(), convey.ShouldBeFalse)
			c.Price = model.PriceFree
			convey.So(c.IsFree(), convey.ShouldBeTrue)
		})
	})
}

func TestProfileMerge(t *testing.T) {
	convey.Convey("Given a stored profile", t, func() {
		created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
		stored := model.Profile{
			PersonalDetails: model.PersonalDetails{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"},
			CreatedAt:       created,
		}

		convey.Convey("When merging partial details", func() {
			merged := stored.Merge(model.Profile{
				PersonalDetails: model.PersonalDetails{Phone: "555-0100", LastName: "King"},
				CreatedAt:       created.Add(time.Hour),
			})

			convey.Convey("Then non-empty fields overwrite and createdAt is kept", func() {
				convey.So(merged.PersonalDetails.FirstName, convey.ShouldEqual, "Ada")
				convey.So(merged.PersonalDetails.LastName, convey.ShouldEqual, "King")
				convey.So(merged.PersonalDetails.Phone, convey.ShouldEqual, "555-0100")
				convey.So(merged.PersonalDetails.Email, convey.ShouldEqual, "ada@example.com")
				convey.So(merged.CreatedAt, convey.ShouldEqual, created)
			})
		})

		convey.Convey("When merging into an empty document", func() {
			merged := model.Profile{}.Merge(stored)

			convey.Convey("Then the incoming createdAt is adopted", func() {
				convey.So(merged, convey.ShouldResemble, stored)
			})
		})
	})
}

func TestDetailsPatch(t *testing.T) {
	convey.Convey("Given stored details with a bio and a company", t, func() {
		stored := model.PersonalDetails{FirstName: "Asha", Bio: "old bio", Company: "Acme"}
		empty, role := "", "Analyst"

		convey.Convey("A present empty field clears the stored value", func() {
			out := model.DetailsPatch{Bio: &empty}.Apply(stored)
			convey.So(out.Bio, convey.ShouldEqual, "")
			convey.So(out.Company, convey.ShouldEqual, "Acme")
			convey.So(out.FirstName, convey.ShouldEqual, "Asha")
		})

		convey.Convey("Absent fields are left alone", func() {
			out := model.DetailsPatch{Role: &role}.Apply(stored)
			convey.So(out.Role, convey.ShouldEqual, "Analyst")
			convey.So(out.Bio, convey.ShouldEqual, "old bio")
		})
	})
}
