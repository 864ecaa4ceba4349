package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	. "github.com/smartystreets/goconvey/convey"
)

func TestManagerCreation(t *testing.T) {
	Convey("Given manager creation", t, func() {
		Convey("When creating with default options", func() {
			manager := NewManager(WithPrometheusRegistry(prometheus.NewRegistry()))

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})

		Convey("When creating with custom options", func() {
			manager := NewManager(
				WithNamespace("test-namespace"),
				WithSubsystem("test-subsystem"),
				WithHistogramBuckets([]float64{0.1, 0.5, 1.0}),
				WithPrometheusRegistry(prometheus.NewRegistry()),
			)

			Convey("Then it should be created successfully", func() {
				So(manager, ShouldNotBeNil)
			})
		})
	})
}

func TestMetricsRecording(t *testing.T) {
	Convey("Given the global metrics helpers", t, func() {
		Convey("When recording domain metrics", func() {
			Convey("Then none of them panic", func() {
				So(func() {
					RecordVote("item1")
					RecordMatchupServed()
					RecordVoteLatency(12.5)
					UpdateTrianglesDetected(3)
					RecordTriangleResolved()
					UpdateControversyScore("1", 4.0)
				}, ShouldNotPanic)
			})
		})

		Convey("When recording operational metrics", func() {
			Convey("Then none of them panic", func() {
				So(func() {
					RecordAuditRun()
					RecordAuditRepairs(2)
					RecordAuditLatency(3.0)
					RecordHTTPRequest("collections", "GET", "200")
					RecordHTTPRequestDuration("collections", "GET", "200", 1.2)
					RecordErrorByComponent("http", "client_error")
				}, ShouldNotPanic)
			})
		})
	})
}

func TestRegistry(t *testing.T) {
	Convey("Given the package registry", t, func() {
		Convey("When gathered after recording", func() {
			RecordVote("tie")
			families, err := GetRegistry().Gather()

			Convey("Then registered metric families are exposed", func() {
				So(err, ShouldBeNil)
				So(len(families), ShouldBeGreaterThan, 0)
			})
		})
	})
}
