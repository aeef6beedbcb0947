package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	. "github.com/smartystreets/goconvey/convey"
	"golang.org/x/crypto/bcrypt"

	"github.com/okian/skillup/internal/adapters/http/api"
	"github.com/okian/skillup/internal/adapters/identity"
	service "github.com/okian/skillup/internal/app"
	"github.com/okian/skillup/internal/domain/biometric"
	"github.com/okian/skillup/internal/domain/catalog"
	"github.com/okian/skillup/internal/domain/model"
)

const testCatalog = `
skillCategories:
  - name: "Core Skills"
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
    description: Needs A, B and C
    requiredSkills: [A, B, C]
`

type harness struct {
	svc     *service.Service
	handler http.Handler
	token   string
}

func newHarness() *harness {
	cat, err := catalog.Decode(strings.NewReader(testCatalog))
	So(err, ShouldBeNil)
	svc := service.New(
		service.WithCatalog(cat),
		service.WithIdentityOptions(identity.WithBcryptCost(bcrypt.MinCost)),
		service.WithBiometricOptions(biometric.WithTick(5*time.Millisecond)),
	)
	So(svc.Start(context.Background()), ShouldBeNil)
	return &harness{svc: svc, handler: api.NewServer(svc, svc).Handler()}
}

func (h *harness) close() { _ = h.svc.Stop(context.Background()) }

func (h *harness) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}
	w := httptest.NewRecorder()
	h.handler.ServeHTTP(w, req)
	return w
}

func (h *harness) signup() {
	w := h.do(http.MethodPost, "/auth/signup", map[string]string{
		"firstName": "Asha", "lastName": "Rao", "email": "asha@example.com",
		"password": "secret1", "confirmPassword": "secret1",
	})
	So(w.Code, ShouldEqual, http.StatusCreated)
	var sess service.Session
	So(json.Unmarshal(w.Body.Bytes(), &sess), ShouldBeNil)
	h.token = sess.Token
}

func decodeBody[T any](w *httptest.ResponseRecorder) T {
	var v T
	So(json.Unmarshal(w.Body.Bytes(), &v), ShouldBeNil)
	return v
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type recommendations struct {
	MissingSkills []string       `json:"missingSkills"`
	LearningPath  []model.Course `json:"learningPath"`
	Courses       []struct {
		Course model.Course `json:"course"`
		Score  int          `json:"score"`
	} `json:"courses"`
}

func TestOperationalRoutes(t *testing.T) {
	Convey("Given the API", t, func() {
		h := newHarness()
		defer h.close()

		Convey("healthz is public", func() {
			w := h.do(http.MethodGet, "/healthz", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"ok"`)
		})

		Convey("stats report the service", func() {
			w := h.do(http.MethodGet, "/stats", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decodeBody[map[string]any](w)["started"], ShouldEqual, true)
		})

		Convey("metrics are served", func() {
			h.do(http.MethodGet, "/healthz", nil)
			w := h.do(http.MethodGet, "/metrics", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
		})

		Convey("CORS preflight is answered", func() {
			req := httptest.NewRequest(http.MethodOptions, "/skills", http.NoBody)
			req.Header.Set("Origin", "http://localhost:3000")
			req.Header.Set("Access-Control-Request-Method", http.MethodPost)
			w := httptest.NewRecorder()
			h.handler.ServeHTTP(w, req)
			So(w.Header().Get("Access-Control-Allow-Origin"), ShouldEqual, "*")
		})
	})
}

func TestAuthRoutes(t *testing.T) {
	Convey("Given the API", t, func() {
		h := newHarness()
		defer h.close()

		Convey("protected routes need a token", func() {
			w := h.do(http.MethodGet, "/skills", nil)
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
			So(decodeBody[errorBody](w).Code, ShouldEqual, "unauthorized")

			h.token = "garbage"
			w = h.do(http.MethodGet, "/skills", nil)
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
		})

		Convey("signup validation errors carry the form messages", func() {
			w := h.do(http.MethodPost, "/auth/signup", map[string]string{
				"email": "a@example.com", "password": "abc", "confirmPassword": "abd",
			})
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeBody[errorBody](w).Message, ShouldEqual, "Passwords do not match.")

			w = h.do(http.MethodPost, "/auth/signup", map[string]string{
				"email": "a@example.com", "password": "abc", "confirmPassword": "abc",
			})
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeBody[errorBody](w).Message, ShouldEqual, "Password must be at least 6 characters long.")

			long := strings.Repeat("p", 73)
			w = h.do(http.MethodPost, "/auth/signup", map[string]string{
				"email": "a@example.com", "password": long, "confirmPassword": long,
			})
			So(w.Code, ShouldEqual, http.StatusBadRequest)
			So(decodeBody[errorBody](w).Code, ShouldEqual, "password_too_long")
		})

		Convey("a duplicate signup conflicts", func() {
			h.signup()
			w := h.do(http.MethodPost, "/auth/signup", map[string]string{
				"firstName": "A", "lastName": "R", "email": "asha@example.com",
				"password": "secret1", "confirmPassword": "secret1",
			})
			So(w.Code, ShouldEqual, http.StatusConflict)
			So(decodeBody[errorBody](w).Message, ShouldEqual, "An account with this email already exists.")
		})

		Convey("login", func() {
			h.signup()
			h.token = ""

			w := h.do(http.MethodPost, "/auth/login", map[string]string{"email": "nobody@example.com", "password": "secret1"})
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
			So(decodeBody[errorBody](w).Message, ShouldEqual, "No user found with this email. Please sign up.")

			w = h.do(http.MethodPost, "/auth/login", map[string]string{"email": "asha@example.com", "password": "wrong12"})
			So(w.Code, ShouldEqual, http.StatusUnauthorized)
			So(decodeBody[errorBody](w).Message, ShouldEqual, "Incorrect password.")

			w = h.do(http.MethodPost, "/auth/login", map[string]string{"email": "asha@example.com", "password": "secret1"})
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decodeBody[service.Session](w).Token, ShouldNotBeEmpty)
		})

		Convey("unknown fields are rejected", func() {
			w := h.do(http.MethodPost, "/auth/login", map[string]string{"email": "a@example.com", "pass": "x"})
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestProfileRoutes(t *testing.T) {
	Convey("Given a signed up user", t, func() {
		h := newHarness()
		defer h.close()
		h.signup()

		Convey("the profile holds the signup details", func() {
			w := h.do(http.MethodGet, "/profile", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decodeBody[model.Profile](w).PersonalDetails.FirstName, ShouldEqual, "Asha")
		})

		Convey("PUT stores the fields it carries", func() {
			w := h.do(http.MethodPut, "/profile", map[string]string{"company": "Acme", "bio": "old bio"})
			So(w.Code, ShouldEqual, http.StatusOK)
			doc := decodeBody[model.Profile](w)
			So(doc.PersonalDetails.Company, ShouldEqual, "Acme")
			So(doc.PersonalDetails.Bio, ShouldEqual, "old bio")
			So(doc.PersonalDetails.Email, ShouldEqual, "asha@example.com")

			w = h.do(http.MethodPut, "/profile", map[string]string{"bio": ""})
			So(w.Code, ShouldEqual, http.StatusOK)
			doc = decodeBody[model.Profile](w)
			So(doc.PersonalDetails.Bio, ShouldEqual, "")
			So(doc.PersonalDetails.Company, ShouldEqual, "Acme")
		})

		Convey("the onboarding form is accepted asynchronously", func() {
			w := h.do(http.MethodPost, "/personal-details", model.PersonalDetails{FirstName: "Asha", LastName: "Rao", Role: "Analyst"})
			So(w.Code, ShouldEqual, http.StatusAccepted)

			w = h.do(http.MethodPost, "/personal-details", model.PersonalDetails{Role: "Analyst"})
			So(w.Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("the dashboard greets the user", func() {
			w := h.do(http.MethodGet, "/dashboard", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			d := decodeBody[service.Dashboard](w)
			So(d.FirstName, ShouldEqual, "Asha")
			So(d.ProfileIncomplete, ShouldBeFalse)
		})
	})
}

func TestSkillRoutes(t *testing.T) {
	Convey("Given a signed up user", t, func() {
		h := newHarness()
		defer h.close()
		h.signup()

		w := h.do(http.MethodPost, "/skills", map[string]any{"skill": "CI/CD", "level": 70})
		So(w.Code, ShouldEqual, http.StatusCreated)

		Convey("a duplicate add is reported, not failed", func() {
			w := h.do(http.MethodPost, "/skills", map[string]any{"skill": "CI/CD"})
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"added":false`)
		})

		Convey("names with slashes are addressed escaped", func() {
			w := h.do(http.MethodPut, "/skills/CI%2FCD", map[string]any{"level": 90})
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"level":90`)

			w = h.do(http.MethodDelete, "/skills/CI%2FCD", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"skills":[]`)
		})

		Convey("names with a percent sign round-trip", func() {
			w := h.do(http.MethodPost, "/skills", map[string]any{"skill": "100%"})
			So(w.Code, ShouldEqual, http.StatusCreated)

			w = h.do(http.MethodPut, "/skills/100%25", map[string]any{"level": 20})
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"level":20`)

			w = h.do(http.MethodDelete, "/skills/100%25", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldNotContainSubstring, `100%`)
		})

		Convey("unknown skills cannot be leveled", func() {
			w := h.do(http.MethodPut, "/skills/Rust", map[string]any{"level": 10})
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("a list is parsed", func() {
			w := h.do(http.MethodPost, "/skills/parse", map[string]any{"text": "Go, SQL, CI/CD"})
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"added":["Go","SQL"]`)
		})

		Convey("categories and suggestions", func() {
			w := h.do(http.MethodGet, "/skills/categories", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"id":"core-skills"`)

			w = h.do(http.MethodGet, "/skills/categories?category=core-skills&q=b", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"skills":["B"]`)

			w = h.do(http.MethodGet, "/skills/categories?category=nope", nil)
			So(w.Code, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestCareerRoutes(t *testing.T) {
	Convey("Given a signed up user", t, func() {
		h := newHarness()
		defer h.close()
		h.signup()

		Convey("careers are searchable", func() {
			w := h.do(http.MethodGet, "/careers?q=needs", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"id":"c"`)

			So(h.do(http.MethodGet, "/careers/c", nil).Code, ShouldEqual, http.StatusOK)
			So(h.do(http.MethodGet, "/careers/zzz", nil).Code, ShouldEqual, http.StatusNotFound)
		})

		Convey("courses are priced in rupees", func() {
			w := h.do(http.MethodGet, "/courses", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "₹830")
		})

		Convey("goals can be added once, removed and cleared", func() {
			w := h.do(http.MethodPost, "/career-goals", map[string]string{"careerId": "c"})
			So(w.Code, ShouldEqual, http.StatusCreated)
			w = h.do(http.MethodPost, "/career-goals", map[string]string{"careerId": "c"})
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"already_set"`)
			So(h.do(http.MethodPost, "/career-goals", map[string]string{"careerId": "x"}).Code, ShouldEqual, http.StatusNotFound)

			So(h.do(http.MethodDelete, "/career-goals/c", nil).Code, ShouldEqual, http.StatusNoContent)
			g := decodeBody[service.Goals](h.do(http.MethodGet, "/career-goals", nil))
			So(g.Goals, ShouldBeEmpty)
			So(len(g.History), ShouldEqual, 1)

			So(h.do(http.MethodDelete, "/career-goals/history", nil).Code, ShouldEqual, http.StatusNoContent)
			g = decodeBody[service.Goals](h.do(http.MethodGet, "/career-goals", nil))
			So(g.History, ShouldBeEmpty)
		})

		Convey("settings are toggled", func() {
			w := h.do(http.MethodPut, "/career-goals/settings", map[string]bool{"weeklyReports": true})
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, `"weeklyReports":true`)
		})
	})
}

func TestRecommendationScenarios(t *testing.T) {
	Convey("Given career c requiring A, B, C and a user who has A", t, func() {
		h := newHarness()
		defer h.close()
		h.signup()
		So(h.do(http.MethodPost, "/skills", map[string]any{"skill": "A"}).Code, ShouldEqual, http.StatusCreated)

		Convey("B and C are missing and the path is K1 then K2", func() {
			rec := decodeBody[recommendations](h.do(http.MethodGet, "/recommendations?career=c", nil))
			So(rec.MissingSkills, ShouldResemble, []string{"B", "C"})
			So(len(rec.LearningPath), ShouldEqual, 2)
			So(rec.LearningPath[0].Title, ShouldEqual, "K1")
			So(rec.LearningPath[1].Title, ShouldEqual, "K2")

			So(len(rec.Courses), ShouldEqual, 2)
			for _, r := range rec.Courses {
				So(r.Course.Title, ShouldNotEqual, "K0")
				So(r.Score, ShouldBeGreaterThan, 0)
			}
		})

		Convey("the gap view follows the first goal when no career is given", func() {
			So(h.do(http.MethodPost, "/career-goals", map[string]string{"careerId": "c"}).Code, ShouldEqual, http.StatusCreated)
			rec := decodeBody[recommendations](h.do(http.MethodGet, "/gap", nil))
			So(rec.MissingSkills, ShouldResemble, []string{"B", "C"})
		})

		Convey("filters narrow the ranking", func() {
			rec := decodeBody[recommendations](h.do(http.MethodGet, "/recommendations?career=c&cost=free", nil))
			So(len(rec.Courses), ShouldEqual, 1)
			So(rec.Courses[0].Course.Title, ShouldEqual, "K2")

			rec = decodeBody[recommendations](h.do(http.MethodGet, "/recommendations?career=c&platform=coursera", nil))
			So(len(rec.Courses), ShouldEqual, 1)
			So(rec.Courses[0].Course.Title, ShouldEqual, "K1")

			So(h.do(http.MethodGet, "/recommendations?cost=cheap", nil).Code, ShouldEqual, http.StatusBadRequest)
		})

		Convey("once every skill is held the catalog comes back unscored", func() {
			So(h.do(http.MethodPost, "/skills/parse", map[string]any{"text": "B, C"}).Code, ShouldEqual, http.StatusOK)
			rec := decodeBody[recommendations](h.do(http.MethodGet, "/recommendations?career=c", nil))
			So(rec.MissingSkills, ShouldBeEmpty)
			So(rec.LearningPath, ShouldBeEmpty)
			So(len(rec.Courses), ShouldEqual, 3)
			for _, r := range rec.Courses {
				So(r.Score, ShouldEqual, 0)
			}
		})

		Convey("progress reflects coverage", func() {
			So(h.do(http.MethodPost, "/career-goals", map[string]string{"careerId": "c"}).Code, ShouldEqual, http.StatusCreated)
			p := decodeBody[service.Progress](h.do(http.MethodGet, "/progress", nil))
			So(len(p.Goals), ShouldEqual, 1)
			So(p.Goals[0].Covered, ShouldEqual, 1)
			So(p.Goals[0].Percent, ShouldEqual, 33)
		})
	})
}

func TestIoTRoutes(t *testing.T) {
	Convey("Given a signed up user", t, func() {
		h := newHarness()
		defer h.close()
		h.signup()

		Convey("a session needs a connected device", func() {
			w := h.do(http.MethodPost, "/iot/sessions/start", nil)
			So(w.Code, ShouldEqual, http.StatusConflict)
			So(decodeBody[errorBody](w).Code, ShouldEqual, "device_disconnected")
		})

		Convey("a session runs and is recorded", func() {
			So(h.do(http.MethodPost, "/iot/device/connect", nil).Code, ShouldEqual, http.StatusOK)
			So(h.do(http.MethodPost, "/iot/sessions/start", nil).Code, ShouldEqual, http.StatusOK)
			time.Sleep(20 * time.Millisecond)

			w := h.do(http.MethodGet, "/iot/reading", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decodeBody[biometric.Status](w).SessionActive, ShouldBeTrue)

			w = h.do(http.MethodPost, "/iot/sessions/stop", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(h.do(http.MethodPost, "/iot/sessions/stop", nil).Code, ShouldEqual, http.StatusConflict)

			w = h.do(http.MethodGet, "/iot/sessions", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(len(decodeBody[struct {
				Sessions []model.Session `json:"sessions"`
			}](w).Sessions), ShouldEqual, 1)

			w = h.do(http.MethodGet, "/iot/performance", nil)
			So(w.Code, ShouldEqual, http.StatusOK)
			So(decodeBody[biometric.Report](w).Rating, ShouldNotBeEmpty)
		})

		Convey("the websocket streams readings", func() {
			srv := httptest.NewServer(h.handler)
			defer srv.Close()

			So(h.do(http.MethodPost, "/iot/device/connect", nil).Code, ShouldEqual, http.StatusOK)

			url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/iot/stream?access_token=" + h.token
			conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
			So(err, ShouldBeNil)
			defer conn.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusSwitchingProtocols)

			So(h.do(http.MethodPost, "/iot/sessions/start", nil).Code, ShouldEqual, http.StatusOK)

			_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
			var r model.Reading
			So(conn.ReadJSON(&r), ShouldBeNil)
			So(r.HeartRate, ShouldBeBetweenOrEqual, 60.0, 120.0)
		})

		Convey("the websocket rejects a missing token", func() {
			srv := httptest.NewServer(h.handler)
			defer srv.Close()
			url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/iot/stream"
			_, resp, err := websocket.DefaultDialer.Dial(url, nil)
			So(err, ShouldNotBeNil)
			So(resp.StatusCode, ShouldEqual, http.StatusUnauthorized)
		})
	})
}
