package biometric

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func newTestHub(opts ...Option) *Hub {
	base := []Option{WithTick(5 * time.Millisecond), WithRandom(func() float64 { return 1 })}
	return NewHub(append(base, opts...)...)
}

func TestHubSessionLifecycle(t *testing.T) {
	Convey("Given a hub", t, func() {
		h := newTestHub()
		defer func() { So(h.Close(context.Background()), ShouldBeNil) }()

		Convey("When starting a session without a device", func() {
			_, err := h.StartSession("u1")

			Convey("Then it is refused", func() {
				So(errors.Is(err, ErrDeviceDisconnected), ShouldBeTrue)
			})
		})

		Convey("When stopping without a session", func() {
			_, err := h.StopSession("u1")
			So(errors.Is(err, ErrNoActiveSession), ShouldBeTrue)
		})

		Convey("When a connected device runs a session", func() {
			st, err := h.Connect("u1")
			So(err, ShouldBeNil)
			So(st.DeviceConnected, ShouldBeTrue)

			st, err = h.StartSession("u1")
			So(err, ShouldBeNil)
			So(st.SessionActive, ShouldBeTrue)
			So(st.SessionID, ShouldNotBeEmpty)

			_, err = h.StartSession("u1")
			So(errors.Is(err, ErrSessionActive), ShouldBeTrue)

			So(waitFor(func() bool {
				s, _ := h.Status("u1")
				return s.Reading.HeartRate > 72
			}), ShouldBeTrue)

			sess, err := h.StopSession("u1")

			Convey("Then a summary is recorded at the front of the history", func() {
				So(err, ShouldBeNil)
				So(sess.AvgConcentration, ShouldBeGreaterThan, 85)
				So(sess.End.Before(sess.Start), ShouldBeFalse)
				history, _ := h.Sessions("u1")
				So(history, ShouldHaveLength, 1)
				So(history[0].ID, ShouldEqual, sess.ID)

				st, _ := h.Status("u1")
				So(st.SessionActive, ShouldBeFalse)
				So(h.Stats().ActiveSessions, ShouldEqual, 0)
			})
		})

		Convey("When the device disconnects mid-session", func() {
			_, _ = h.Connect("u2")
			_, err := h.StartSession("u2")
			So(err, ShouldBeNil)

			st, err := h.Disconnect("u2")

			Convey("Then the session is stopped and saved", func() {
				So(err, ShouldBeNil)
				So(st.DeviceConnected, ShouldBeFalse)
				So(st.SessionActive, ShouldBeFalse)
				history, _ := h.Sessions("u2")
				So(history, ShouldHaveLength, 1)
			})
		})
	})
}

func TestHubHistoryLimit(t *testing.T) {
	Convey("Given a hub keeping two sessions", t, func() {
		h := newTestHub(WithHistoryLimit(2))
		defer func() { _ = h.Close(context.Background()) }()
		_, _ = h.Connect("u")

		var ids []string
		for range 3 {
			_, err := h.StartSession("u")
			So(err, ShouldBeNil)
			s, err := h.StopSession("u")
			So(err, ShouldBeNil)
			ids = append(ids, s.ID)
		}

		Convey("Then only the newest two remain, newest first", func() {
			history, _ := h.Sessions("u")
			So(history, ShouldHaveLength, 2)
			So(history[0].ID, ShouldEqual, ids[2])
			So(history[1].ID, ShouldEqual, ids[1])
		})
	})
}

func TestHubSubscribe(t *testing.T) {
	Convey("Given a subscriber on a running session", t, func() {
		h := newTestHub(WithSubscriberBuffer(1))
		defer func() { _ = h.Close(context.Background()) }()
		_, _ = h.Connect("u")
		ch, cancel, err := h.Subscribe("u")
		So(err, ShouldBeNil)
		So(h.Stats().Subscribers, ShouldEqual, 1)
		_, err = h.StartSession("u")
		So(err, ShouldBeNil)

		Convey("Then readings arrive on the channel", func() {
			select {
			case r := <-ch:
				So(r.HeartRate, ShouldBeGreaterThan, 72)
			case <-time.After(time.Second):
				So("no reading", ShouldBeEmpty)
			}
		})

		Convey("Then a slow subscriber does not block the ticker", func() {
			time.Sleep(50 * time.Millisecond)
			So(waitFor(func() bool {
				s, _ := h.Status("u")
				return s.Reading.HeartRate >= 100
			}), ShouldBeTrue)
		})

		Convey("Then cancel closes the channel", func() {
			cancel()
			cancel()
			for range ch {
			}
			So(h.Stats().Subscribers, ShouldEqual, 0)
		})
	})
}

func TestHubPerformance(t *testing.T) {
	Convey("Given a fresh user", t, func() {
		h := newTestHub()
		defer func() { _ = h.Close(context.Background()) }()

		rep, err := h.Performance("u")

		Convey("Then the initial reading is scored", func() {
			So(err, ShouldBeNil)
			So(rep.Score, ShouldEqual, 77)
			So(rep.Rating, ShouldEqual, "Good")
			So(rep.Insights.Concentration, ShouldEqual, 85)
		})
	})
}

func TestHubClose(t *testing.T) {
	Convey("Given a hub with a running session", t, func() {
		h := newTestHub()
		_, _ = h.Connect("u")
		ch, _, _ := h.Subscribe("u")
		_, _ = h.StartSession("u")

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		So(h.Close(ctx), ShouldBeNil)

		Convey("Then subscribers are closed and further use fails", func() {
			for range ch {
			}
			_, err := h.Connect("u")
			So(errors.Is(err, ErrHubClosed), ShouldBeTrue)
			So(h.Close(ctx), ShouldBeNil)
		})
	})
}

func waitFor(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(2 * time.Millisecond)
	}
	return false
}
